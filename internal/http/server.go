package http

import (
	stdhttp "net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"wikisee/app/internal/lifecycle"
	"wikisee/app/internal/mirror"
)

// Options configures the HTTP server wiring.
type Options struct {
	MirrorService  mirror.Service
	Coordinator    *lifecycle.Coordinator
	Ledger         mirror.Ledger
	Database       *gorm.DB
	SitemapBaseURL string
	SidebarEnabled bool
	Logger         *logrus.Logger
	SentryHub      *sentry.Hub
	RateLimiter    RateLimiterSettings
}

// RateLimiterSettings configures the HTTP rate limiter behaviour.
type RateLimiterSettings struct {
	RequestsPerSecond float64
	Burst             int
	ClientTTL         time.Duration
}

// Server wires the HTTP transport layer via Huma and templ components.
type Server struct {
	api            huma.API
	mux            *stdhttp.ServeMux
	mirror         mirror.Service
	coordinator    *lifecycle.Coordinator
	ledger         mirror.Ledger
	db             *gorm.DB
	sitemapBaseURL string
	sidebarEnabled bool
	logger         *logrus.Logger
	sentry         *sentry.Hub
	rateLimiter    *RateLimiter
}

// NewServer constructs the HTTP server.
func NewServer(opts Options) (*Server, error) {
	if opts.MirrorService == nil {
		return nil, eris.New("mirror service is required")
	}
	if opts.Coordinator == nil {
		return nil, eris.New("lifecycle coordinator is required")
	}

	sitemapBaseURL := strings.TrimRight(strings.TrimSpace(opts.SitemapBaseURL), "/")
	if sitemapBaseURL == "" {
		return nil, eris.New("sitemap base url is required")
	}

	mux := stdhttp.NewServeMux()
	config := huma.DefaultConfig("GitHub Wiki SEE", "1.0.0")

	api := humago.New(mux, config)

	srv := &Server{
		api:            api,
		mux:            mux,
		mirror:         opts.MirrorService,
		coordinator:    opts.Coordinator,
		ledger:         opts.Ledger,
		db:             opts.Database,
		sitemapBaseURL: sitemapBaseURL,
		sidebarEnabled: opts.SidebarEnabled,
		logger:         opts.Logger,
		sentry:         opts.SentryHub,
	}

	settings := opts.RateLimiter
	if settings.Burst <= 0 {
		return nil, eris.New("rate limiter burst must be greater than zero")
	}
	if settings.RequestsPerSecond <= 0 {
		return nil, eris.New("rate limiter requests per second must be greater than zero")
	}
	if settings.ClientTTL <= 0 {
		return nil, eris.New("rate limiter client TTL must be greater than zero")
	}

	srv.rateLimiter = NewRateLimiter(settings.Burst, settings.RequestsPerSecond, settings.ClientTTL)

	srv.registerMiddlewares()
	srv.registerRoutes()

	return srv, nil
}

// Handler exposes the underlying HTTP handler for wiring into the application.
func (s *Server) Handler() stdhttp.Handler {
	return s.mux
}

// API exposes the underlying Huma API instance.
func (s *Server) API() huma.API {
	return s.api
}

func (s *Server) registerMiddlewares() {
	s.api.UseMiddleware(
		s.sentryMiddleware(),
		s.recoveryMiddleware(),
		s.requestIDMiddleware(),
		s.drainMiddleware(),
		s.rateLimitMiddleware(),
		s.loggingMiddleware(),
	)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /robots.txt", robotsHandler)
	s.mux.HandleFunc("GET /favicon.ico", faviconHandler)

	s.registerHomeRoute()
	s.registerSitemapRoutes()
	s.registerMirrorRoutes()
	s.registerIndexRoute()
	s.registerHealthRoute()
}

func (s *Server) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	s.mux.ServeHTTP(w, r)
}
