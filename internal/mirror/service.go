package mirror

import (
	"context"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"wikisee/app/internal/markdown"
)

// Result is the outcome of mirroring one upstream page.
type Result struct {
	OriginalTitle string
	OriginalURL   string
	HTML          string
	Condition     Condition
}

// Signaler receives per-request accounting and rate-limit notifications.
type Signaler interface {
	CountRequest() uint64
	SignalRateLimited()
}

// Service mirrors upstream wiki content.
type Service interface {
	Mirror(ctx context.Context, locator Locator) (*Result, error)
	Sidebar(ctx context.Context, account, repository string) (string, error)
	Index(ctx context.Context, account, repository string) ([]string, error)
}

// ServiceOptions wires the mirror service. Sidebars, Ledger and SentryHub are optional.
// RawBaseURL hosts sidebar images and defaults to markdown.RawAssetHost.
type ServiceOptions struct {
	Fetcher         Fetcher
	Sidebars        SidebarSource
	Renderer        *markdown.Renderer
	Ledger          Ledger
	Signaler        Signaler
	UpstreamBaseURL string
	RawBaseURL      string
	Logger          *logrus.Logger
	SentryHub       *sentry.Hub
}

type service struct {
	fetcher   Fetcher
	sidebars  SidebarSource
	renderer  *markdown.Renderer
	ledger    Ledger
	signaler  Signaler
	baseURL   string
	rawURL    string
	logger    *logrus.Logger
	sentryHub *sentry.Hub
}

var _ Service = (*service)(nil)

// NewService wires the mirror service with its dependencies.
func NewService(opts ServiceOptions) (Service, error) {
	if opts.Fetcher == nil {
		return nil, eris.New("fetcher is required")
	}
	if opts.Signaler == nil {
		return nil, eris.New("signaler is required")
	}

	renderer := opts.Renderer
	if renderer == nil {
		renderer = markdown.NewRenderer()
	}

	baseURL := strings.TrimRight(strings.TrimSpace(opts.UpstreamBaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultUpstreamBaseURL
	}

	return &service{
		fetcher:   opts.Fetcher,
		sidebars:  opts.Sidebars,
		renderer:  renderer,
		ledger:    opts.Ledger,
		signaler:  opts.Signaler,
		baseURL:   baseURL,
		rawURL:    opts.RawBaseURL,
		logger:    opts.Logger,
		sentryHub: opts.SentryHub,
	}, nil
}

// Mirror fetches, classifies and rewrites one upstream page. A *FetchError from the
// fetcher is returned unchanged and not logged here; not-found and rate-limited
// pages are results.
func (s *service) Mirror(ctx context.Context, locator Locator) (*Result, error) {
	if err := locator.Validate(); err != nil {
		return nil, err
	}

	fields := logrus.Fields{
		"account":    locator.Account,
		"repository": locator.Repository,
		"page":       locator.Page,
		"request":    s.signaler.CountRequest(),
	}

	doc, err := s.fetcher.Fetch(ctx, locator)
	if err != nil {
		// The caller reports fetch failures.
		return nil, err
	}

	title, content := extract(doc.RawHTML)
	condition := Classify(title)

	if condition == ConditionRateLimited {
		s.signaler.SignalRateLimited()
		if s.logger != nil {
			s.logger.WithFields(fields).Warn("upstream rate limited the mirror")
		}
	}

	s.recordVisit(ctx, locator, condition, title)

	return &Result{
		OriginalTitle: title,
		OriginalURL:   s.baseURL + locator.Path(),
		HTML:          content,
		Condition:     condition,
	}, nil
}

// Sidebar returns the wiki's sidebar as sanitised HTML with mirror-scoped links, or
// an empty string when the wiki has none.
func (s *service) Sidebar(ctx context.Context, account, repository string) (string, error) {
	if s.sidebars == nil {
		return "", nil
	}

	locator := Locator{Account: account, Repository: repository}
	if err := locator.Validate(); err != nil {
		return "", err
	}

	fields := logrus.Fields{"account": account, "repository": repository}

	source, found, err := s.sidebars.FetchSidebar(ctx, account, repository)
	if err != nil {
		s.recordError(fields, err, "fetching wiki sidebar")
		return "", err
	}
	if !found || strings.TrimSpace(source) == "" {
		return "", nil
	}

	html, err := s.renderer.Render(markdown.ConvertWithHost(source, s.rawURL, account, repository))
	if err != nil {
		s.recordError(fields, err, "rendering wiki sidebar")
		return "", eris.Wrapf(err, "rendering sidebar: %s/%s", account, repository)
	}

	return RewriteLinks(html), nil
}

// Index lists the pages of a wiki that have been mirrored successfully.
func (s *service) Index(ctx context.Context, account, repository string) ([]string, error) {
	locator := Locator{Account: account, Repository: repository}
	if err := locator.Validate(); err != nil {
		return nil, err
	}

	if s.ledger == nil {
		return nil, nil
	}

	pages, err := s.ledger.ListPages(ctx, account, repository)
	if err != nil {
		s.recordError(logrus.Fields{"account": account, "repository": repository}, err, "listing wiki index")
		return nil, eris.Wrapf(err, "listing index: %s/%s", account, repository)
	}
	return pages, nil
}

func (s *service) recordVisit(ctx context.Context, locator Locator, condition Condition, title string) {
	if s.ledger == nil {
		return
	}

	visit := &Visit{
		Account:    locator.Account,
		Repository: locator.Repository,
		Page:       locator.Page,
		Outcome:    condition.String(),
		Title:      title,
	}
	if err := s.ledger.Record(ctx, visit); err != nil {
		s.recordError(logrus.Fields{"account": locator.Account, "repository": locator.Repository}, err, "recording visit")
	}
}

func (s *service) recordError(fields logrus.Fields, err error, message string) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("error", err.Error())
		if len(fields) > 0 {
			entry = entry.WithFields(fields)
		}
		entry.Error(message)
	}

	if s.sentryHub != nil {
		s.sentryHub.CaptureException(err)
	}
}
