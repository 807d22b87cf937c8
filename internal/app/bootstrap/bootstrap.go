// Package bootstrap composes the mirror's layers from configuration.
package bootstrap

import (
	"context"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"wikisee/app/internal/config"
	"wikisee/app/internal/db"
	apphttp "wikisee/app/internal/http"
	"wikisee/app/internal/lifecycle"
	applog "wikisee/app/internal/log"
	"wikisee/app/internal/markdown"
	"wikisee/app/internal/mirror"
)

type Dependencies struct {
	Config    *config.Config
	Logger    *logrus.Logger
	SentryHub *sentry.Hub
}

type Result struct {
	MirrorService mirror.Service
	HTTPServer    *apphttp.Server
	Coordinator   *lifecycle.Coordinator
	Database      *gorm.DB
	Cleanup       func() error
}

// Build opens the visit ledger, wires the upstream fetcher into the mirror service and
// mounts it on the HTTP server. Cleanup must be called once the server stopped.
func Build(ctx context.Context, deps Dependencies) (Result, error) {
	if deps.Config == nil {
		return Result{}, eris.New("config is required")
	}
	cfg := deps.Config
	if deps.Logger == nil {
		deps.Logger = applog.Discard()
	}

	database, err := db.Open(db.Options{Path: cfg.DBPath})
	if err != nil {
		return Result{}, eris.Wrap(err, "opening database")
	}

	closeOnError := func(wrapper error) (Result, error) {
		if closeErr := db.Close(database); closeErr != nil && deps.Logger != nil {
			deps.Logger.WithField("error", closeErr.Error()).Error("closing database after bootstrap failure")
		}
		return Result{}, wrapper
	}

	if err := mirror.Migrate(ctx, database, deps.Logger); err != nil {
		return closeOnError(eris.Wrap(err, "running visit migrations"))
	}

	ledger, err := mirror.NewLedger(database, deps.Logger)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating visit ledger"))
	}

	coordinator := lifecycle.NewCoordinator(lifecycle.Options{
		Grace:  cfg.RateLimitGrace,
		Logger: deps.Logger,
	})

	fetcher := mirror.NewHTTPFetcher(mirror.HTTPFetcherOptions{
		BaseURL:    cfg.UpstreamBaseURL,
		RawBaseURL: cfg.RawBaseURL,
		Timeout:    cfg.UpstreamTimeout,
		Logger:     deps.Logger,
	})

	mirrorService, err := mirror.NewService(mirror.ServiceOptions{
		Fetcher:         fetcher,
		Sidebars:        fetcher,
		Renderer:        markdown.NewRenderer(),
		Ledger:          ledger,
		Signaler:        coordinator,
		UpstreamBaseURL: cfg.UpstreamBaseURL,
		RawBaseURL:      cfg.RawBaseURL,
		Logger:          deps.Logger,
		SentryHub:       deps.SentryHub,
	})
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating mirror service"))
	}

	httpServer, err := apphttp.NewServer(apphttp.Options{
		MirrorService:  mirrorService,
		Coordinator:    coordinator,
		Ledger:         ledger,
		Database:       database,
		SitemapBaseURL: cfg.SitemapBaseURL,
		SidebarEnabled: cfg.SidebarEnabled,
		Logger:         deps.Logger,
		SentryHub:      deps.SentryHub,
		RateLimiter: apphttp.RateLimiterSettings{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
			ClientTTL:         cfg.RateLimit.ClientTTL,
		},
	})
	if err != nil {
		return closeOnError(eris.Wrap(err, "initialising http server"))
	}

	return Result{
		MirrorService: mirrorService,
		HTTPServer:    httpServer,
		Coordinator:   coordinator,
		Database:      database,
		Cleanup: func() error {
			return db.Close(database)
		},
	}, nil
}
