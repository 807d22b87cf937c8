package http

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"wikisee/app/internal/db"
	"wikisee/app/internal/http/templates"
	"wikisee/app/internal/mirror"
)

const (
	htmlContentType      = "text/html; charset=utf-8"
	errorFallbackMessage = "We couldn't process your request right now."
)

type htmlResponse struct {
	Status      int
	ContentType string `header:"Content-Type"`
	Location    string `header:"Location"`
	Body        []byte
}

type wikiRootInput struct {
	Account    string `path:"account"`
	Repository string `path:"repository"`
}

type wikiPageInput struct {
	Account    string `path:"account"`
	Repository string `path:"repository"`
	Page       string `path:"page"`
}

// The sitemap host publishes an index rather than a sitemap.xml.
var sitemapRedirects = []struct {
	path   string
	target string
}{
	{"/sitemap.xml", "sitemap_index.xml"},
	{"/base_sitemap.xml", "base_sitemap.xml"},
	{"/generated_sitemap.xml", "generated_sitemap.xml"},
}

type seedSitemapInput struct {
	ID string `path:"id"`
}

type healthResponse struct {
	Status int
	Body   struct {
		Status       string           `json:"status"`
		Database     string           `json:"database"`
		Requests     uint64           `json:"requests"`
		ShuttingDown bool             `json:"shutting_down"`
		Visits       map[string]int64 `json:"visits,omitempty"`
	}
}

func (s *Server) registerHomeRoute() {
	huma.Get(s.api, "/", s.homeHandler, htmlOperation("Landing page", stdhttp.StatusInternalServerError))
}

func (s *Server) registerSitemapRoutes() {
	for _, route := range sitemapRedirects {
		target := s.sitemapBaseURL + "/" + route.target
		huma.Get(s.api, route.path, func(context.Context, *struct{}) (*htmlResponse, error) {
			return redirectResponse(target), nil
		}, redirectOperation("Redirect to "+route.target))
	}

	huma.Get(s.api, "/seed_sitemaps/{id}", func(_ context.Context, input *seedSitemapInput) (*htmlResponse, error) {
		return redirectResponse(s.sitemapBaseURL + "/seed_sitemaps/" + url.PathEscape(input.ID)), nil
	}, redirectOperation("Redirect to a seed sitemap"))
}

func (s *Server) registerMirrorRoutes() {
	statuses := []int{
		stdhttp.StatusBadRequest,
		stdhttp.StatusNotFound,
		stdhttp.StatusTooManyRequests,
		stdhttp.StatusBadGateway,
		stdhttp.StatusInternalServerError,
	}

	huma.Get(s.api, "/m/{account}/{repository}/wiki", func(ctx context.Context, input *wikiRootInput) (*htmlResponse, error) {
		return s.mirrorHandler(ctx, mirror.Locator{Account: input.Account, Repository: input.Repository})
	}, htmlOperation("Mirror wiki root", statuses...))

	huma.Get(s.api, "/m/{account}/{repository}/wiki/{page}", func(ctx context.Context, input *wikiPageInput) (*htmlResponse, error) {
		return s.mirrorHandler(ctx, mirror.Locator{Account: input.Account, Repository: input.Repository, Page: input.Page})
	}, htmlOperation("Mirror wiki page", statuses...))
}

func (s *Server) registerIndexRoute() {
	huma.Get(s.api, "/m/{account}/{repository}/wiki_index", s.indexHandler, htmlOperation(
		"List mirrored pages of a wiki",
		stdhttp.StatusBadRequest,
		stdhttp.StatusInternalServerError,
	))
}

func (s *Server) registerHealthRoute() {
	huma.Get(s.api, "/healthz", s.healthHandler, func(op *huma.Operation) {
		op.Summary = "Health check"
	})
}

func (s *Server) homeHandler(ctx context.Context, _ *struct{}) (*htmlResponse, error) {
	body, err := renderComponent(ctx, templates.HomePage())
	if err != nil {
		s.recordError(ctx, err, "rendering home page", nil)
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, "We couldn't render the homepage.")
	}

	return newHTMLResponse(stdhttp.StatusOK, body), nil
}

func (s *Server) mirrorHandler(ctx context.Context, locator mirror.Locator) (*htmlResponse, error) {
	fields := logrus.Fields{
		"account":    locator.Account,
		"repository": locator.Repository,
		"page":       locator.Page,
	}

	result, err := s.mirror.Mirror(ctx, locator)
	if err != nil {
		status, message := classifyError(err)
		s.recordError(ctx, err, "mirroring wiki page", fields)
		return s.renderErrorResponse(ctx, status, message)
	}

	data := templates.MirrorPageData{
		OriginalTitle: result.OriginalTitle,
		OriginalURL:   result.OriginalURL,
		ContentHTML:   result.HTML,
		Indexable:     result.Condition == mirror.ConditionNormal,
	}

	if s.sidebarEnabled && result.Condition == mirror.ConditionNormal {
		sidebar, sidebarErr := s.mirror.Sidebar(ctx, locator.Account, locator.Repository)
		if sidebarErr == nil {
			data.SidebarHTML = sidebar
		}
	}

	body, err := renderComponent(ctx, templates.MirrorPage(data))
	if err != nil {
		s.recordError(ctx, err, "rendering mirrored page", fields)
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, "We couldn't render this wiki page.")
	}

	return newHTMLResponse(statusForCondition(result.Condition), body), nil
}

func (s *Server) indexHandler(ctx context.Context, input *wikiRootInput) (*htmlResponse, error) {
	fields := logrus.Fields{"account": input.Account, "repository": input.Repository}

	pages, err := s.mirror.Index(ctx, input.Account, input.Repository)
	if err != nil {
		status, message := classifyError(err)
		s.recordError(ctx, err, "listing wiki index", fields)
		return s.renderErrorResponse(ctx, status, message)
	}

	wikiPath := mirror.Prefix + "/" + input.Account + "/" + input.Repository + "/wiki"
	data := templates.IndexPageData{
		Account:    input.Account,
		Repository: input.Repository,
		WikiURL:    wikiPath,
		Pages:      make([]templates.IndexEntry, 0, len(pages)),
	}
	for _, page := range pages {
		data.Pages = append(data.Pages, templates.IndexEntry{
			Title: strings.ReplaceAll(page, "-", " "),
			URL:   wikiPath + "/" + url.PathEscape(page),
		})
	}

	body, err := renderComponent(ctx, templates.IndexPage(data))
	if err != nil {
		s.recordError(ctx, err, "rendering wiki index", fields)
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, "We couldn't render this wiki index.")
	}

	return newHTMLResponse(stdhttp.StatusOK, body), nil
}

func (s *Server) healthHandler(ctx context.Context, _ *struct{}) (*healthResponse, error) {
	resp := &healthResponse{Status: stdhttp.StatusOK}
	resp.Body.Status = "ok"
	resp.Body.Database = "ok"
	resp.Body.Requests = s.coordinator.Requests()
	resp.Body.ShuttingDown = s.coordinator.ShuttingDown()

	if s.db == nil {
		resp.Body.Database = "unconfigured"
	} else if err := db.Ping(ctx, s.db); err != nil {
		s.recordError(ctx, err, "pinging database", nil)
		resp.Body.Status = "degraded"
		resp.Body.Database = "error"
		resp.Status = stdhttp.StatusServiceUnavailable
	}

	if s.ledger != nil && resp.Body.Database == "ok" {
		visits, err := s.ledger.CountByOutcome(ctx)
		if err != nil {
			s.recordError(ctx, err, "counting visits", nil)
		} else {
			resp.Body.Visits = visits
		}
	}

	if resp.Body.ShuttingDown {
		resp.Body.Status = "draining"
		resp.Status = stdhttp.StatusServiceUnavailable
	}

	return resp, nil
}

func statusForCondition(condition mirror.Condition) int {
	switch condition {
	case mirror.ConditionNotFound:
		return stdhttp.StatusNotFound
	case mirror.ConditionRateLimited:
		return stdhttp.StatusTooManyRequests
	default:
		return stdhttp.StatusOK
	}
}

func newHTMLResponse(status int, body []byte) *htmlResponse {
	return &htmlResponse{
		Status:      status,
		ContentType: htmlContentType,
		Body:        body,
	}
}

func redirectResponse(location string) *htmlResponse {
	return &htmlResponse{
		Status:   stdhttp.StatusMovedPermanently,
		Location: location,
	}
}

func redirectOperation(summary string) func(op *huma.Operation) {
	return func(op *huma.Operation) {
		op.Summary = summary
		op.DefaultStatus = stdhttp.StatusMovedPermanently
	}
}

func htmlOperation(summary string, statuses ...int) func(op *huma.Operation) {
	return func(op *huma.Operation) {
		if summary != "" {
			op.Summary = summary
		}
		if op.Responses == nil {
			op.Responses = map[string]*huma.Response{}
		}

		statusCodes := append([]int{stdhttp.StatusOK}, statuses...)
		for _, status := range statusCodes {
			code := strconv.Itoa(status)
			op.Responses[code] = &huma.Response{
				Description: stdhttp.StatusText(status),
				Content: map[string]*huma.MediaType{
					htmlContentType: {
						Schema: &huma.Schema{Type: "string"},
					},
				},
			}
		}
	}
}

func classifyError(err error) (int, string) {
	if err == nil {
		return stdhttp.StatusInternalServerError, errorFallbackMessage
	}

	var fetchErr *mirror.FetchError
	switch {
	case errors.As(err, &fetchErr):
		return stdhttp.StatusBadGateway, "GitHub could not be reached. Please try again in a moment."
	case eris.Is(err, mirror.ErrInvalidLocator):
		return stdhttp.StatusBadRequest, "That doesn't look like a GitHub wiki address."
	default:
		return stdhttp.StatusInternalServerError, errorFallbackMessage
	}
}

func (s *Server) renderErrorResponse(ctx context.Context, status int, message string) (*htmlResponse, error) {
	label := fmt.Sprintf("%d %s", status, stdhttp.StatusText(status))
	template := templates.ErrorPage(templates.ErrorPageData{
		StatusLabel: label,
		Message:     message,
	})

	body, err := renderComponent(ctx, template)
	if err != nil {
		s.recordError(ctx, err, "rendering error page", logrus.Fields{"status": status})
		fallback := []byte(fmt.Sprintf("<html><body><h1>%s</h1><p>%s</p></body></html>", label, message))
		return newHTMLResponse(status, fallback), nil
	}

	return newHTMLResponse(status, body), nil
}

func (s *Server) recordError(ctx context.Context, err error, message string, fields logrus.Fields) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("error", err.Error())
		if fields != nil {
			entry = entry.WithFields(fields)
		}
		if requestID := RequestIDFromContext(ctx); requestID != "" {
			entry = entry.WithField("request_id", requestID)
		}
		entry.Error(message)
	}

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	if s.sentry != nil {
		s.sentry.CaptureException(err)
	}
}
