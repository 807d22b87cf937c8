package bootstrap

import (
	"context"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"wikisee/app/internal/config"
)

const upstreamHome = `<!DOCTYPE html><html><head><title>Home · acct/repo Wiki · GitHub</title></head>
<body><a href="/login">Sign in</a>
<div id="wiki-wrapper"><h1>Home</h1><a href="/acct/repo/wiki/Other">Other</a></div>
</body></html>`

const upstreamRateLimit = `<!DOCTYPE html><html><head><title>Rate limit · GitHub</title></head><body>slow down</body></html>`

func TestBuildServesMirroredPages(t *testing.T) {
	t.Parallel()

	upstream := newUpstream(t)
	app := buildTestApp(t, upstream.URL)

	rec := httptest.NewRecorder()
	app.HTTPServer.ServeHTTP(rec, httptest.NewRequest("GET", "/m/acct/repo/wiki/Home", nil))

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := rec.Body.String()
	for _, want := range []string{
		`<a href="/m/acct/repo/wiki/Other">Other</a>`,
		`href="/m/acct/repo/wiki/Home"`,
		"Start here",
		upstream.URL + "/acct/repo/wiki/Home",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected body to contain %q, got %q", want, body)
		}
	}
	if strings.Contains(body, "Sign in") {
		t.Fatalf("expected chrome outside the wiki wrapper to be dropped, got %q", body)
	}

	pages, err := app.MirrorService.Index(context.Background(), "acct", "repo")
	if err != nil {
		t.Fatalf("Index returned error: %v", err)
	}
	if len(pages) != 1 || pages[0] != "Home" {
		t.Fatalf("expected Home to be recorded, got %v", pages)
	}
}

func TestBuildSignalsShutdownOnRateLimit(t *testing.T) {
	t.Parallel()

	upstream := newUpstream(t)
	app := buildTestApp(t, upstream.URL)

	rec := httptest.NewRecorder()
	app.HTTPServer.ServeHTTP(rec, httptest.NewRequest("GET", "/m/acct/repo/wiki/Limited", nil))

	if rec.Code != 429 {
		t.Fatalf("expected status 429, got %d", rec.Code)
	}
	if !app.Coordinator.ShuttingDown() {
		t.Fatalf("expected coordinator to be shutting down")
	}
	if got := app.Coordinator.Requests(); got != 1 {
		t.Fatalf("expected one counted request, got %d", got)
	}
}

func TestBuildRequiresConfig(t *testing.T) {
	t.Parallel()

	if _, err := Build(context.Background(), Dependencies{}); err == nil {
		t.Fatalf("expected error without config")
	}
}

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()

	mux := stdhttp.NewServeMux()
	mux.HandleFunc("/acct/repo/wiki/Home", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, upstreamHome)
	})
	mux.HandleFunc("/acct/repo/wiki/Limited", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(stdhttp.StatusTooManyRequests)
		_, _ = io.WriteString(w, upstreamRateLimit)
	})
	mux.HandleFunc("/wiki/acct/repo/_Sidebar.md", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "* [[Start here|Home]]\n")
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func buildTestApp(t *testing.T, upstreamURL string) Result {
	t.Helper()

	cfg := &config.Config{
		DBPath:          filepath.Join(t.TempDir(), "wikisee.db"),
		UpstreamBaseURL: upstreamURL,
		RawBaseURL:      upstreamURL,
		UpstreamTimeout: 5 * time.Second,
		RateLimitGrace:  time.Hour,
		SitemapBaseURL:  "https://sitemaps.example.test",
		SidebarEnabled:  true,
		RateLimit: config.RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             100,
			ClientTTL:         time.Minute,
		},
	}

	app, err := Build(context.Background(), Dependencies{Config: cfg})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	t.Cleanup(func() {
		if err := app.Cleanup(); err != nil {
			t.Errorf("cleanup failed: %v", err)
		}
	})

	return app
}
