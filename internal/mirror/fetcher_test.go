package mirror

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPFetcherBuildsCanonicalURL(t *testing.T) {
	t.Parallel()

	fetcher := NewHTTPFetcher(HTTPFetcherOptions{})

	if got := fetcher.URL(Locator{Account: "a", Repository: "r"}); got != "https://github.com/a/r/wiki/" {
		t.Fatalf("unexpected root url %q", got)
	}
	if got := fetcher.URL(Locator{Account: "a", Repository: "r", Page: "Home"}); got != "https://github.com/a/r/wiki/Home" {
		t.Fatalf("unexpected page url %q", got)
	}
}

func TestHTTPFetcherReturnsBodyOnAnyStatus(t *testing.T) {
	t.Parallel()

	var gotPath, gotAgent string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("<html><head><title>Page not found · GitHub</title></head></html>"))
	}))
	defer upstream.Close()

	fetcher := NewHTTPFetcher(HTTPFetcherOptions{BaseURL: upstream.URL + "/", UserAgent: "test-agent"})

	doc, err := fetcher.Fetch(context.Background(), Locator{Account: "a", Repository: "r", Page: "Missing"})
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}

	if gotPath != "/a/r/wiki/Missing" {
		t.Fatalf("unexpected upstream path %q", gotPath)
	}
	if gotAgent != "test-agent" {
		t.Fatalf("unexpected user agent %q", gotAgent)
	}
	if doc.RawHTML != "<html><head><title>Page not found · GitHub</title></head></html>" {
		t.Fatalf("unexpected body %q", doc.RawHTML)
	}
}

func TestHTTPFetcherDecodesDeclaredCharset(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write([]byte("<p>caf\xe9</p>"))
	}))
	defer upstream.Close()

	fetcher := NewHTTPFetcher(HTTPFetcherOptions{BaseURL: upstream.URL})

	doc, err := fetcher.Fetch(context.Background(), Locator{Account: "a", Repository: "r"})
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if doc.RawHTML != "<p>café</p>" {
		t.Fatalf("expected decoded body, got %q", doc.RawHTML)
	}
}

func TestHTTPFetcherReplacesUndecodableBytes(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("Home \xff"))
	}))
	defer upstream.Close()

	fetcher := NewHTTPFetcher(HTTPFetcherOptions{BaseURL: upstream.URL})

	doc, err := fetcher.Fetch(context.Background(), Locator{Account: "a", Repository: "r"})
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if doc.RawHTML != "Home \uFFFD" {
		t.Fatalf("expected replacement character, got %q", doc.RawHTML)
	}
}

func TestHTTPFetcherRejectsOversizedBody(t *testing.T) {
	t.Parallel()

	body := strings.Repeat("a", 64)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	defer upstream.Close()

	atLimit := NewHTTPFetcher(HTTPFetcherOptions{BaseURL: upstream.URL, MaxBodyBytes: 64})
	doc, err := atLimit.Fetch(context.Background(), Locator{Account: "a", Repository: "r"})
	if err != nil {
		t.Fatalf("expected body at the limit to be accepted, got %v", err)
	}
	if doc.RawHTML != body {
		t.Fatalf("expected full body, got %d bytes", len(doc.RawHTML))
	}

	belowLimit := NewHTTPFetcher(HTTPFetcherOptions{BaseURL: upstream.URL, MaxBodyBytes: 63})
	_, err = belowLimit.Fetch(context.Background(), Locator{Account: "a", Repository: "r"})

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError for oversized body, got %v", err)
	}
	if !strings.Contains(fetchErr.Error(), "exceeds 63 bytes") {
		t.Fatalf("expected size in error, got %v", fetchErr)
	}
}

func TestHTTPFetcherRejectsNonText(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	}))
	defer upstream.Close()

	fetcher := NewHTTPFetcher(HTTPFetcherOptions{BaseURL: upstream.URL})

	_, err := fetcher.Fetch(context.Background(), Locator{Account: "a", Repository: "r"})

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
}

func TestHTTPFetcherWrapsTransportFailures(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := upstream.URL
	upstream.Close()

	fetcher := NewHTTPFetcher(HTTPFetcherOptions{BaseURL: baseURL, Timeout: time.Second})

	_, err := fetcher.Fetch(context.Background(), Locator{Account: "a", Repository: "r", Page: "Home"})

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if fetchErr.URL != baseURL+"/a/r/wiki/Home" {
		t.Fatalf("unexpected error url %q", fetchErr.URL)
	}
}

func TestHTTPFetcherTimesOut(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer upstream.Close()
	defer close(release)

	fetcher := NewHTTPFetcher(HTTPFetcherOptions{BaseURL: upstream.URL, Timeout: 50 * time.Millisecond})

	_, err := fetcher.Fetch(context.Background(), Locator{Account: "a", Repository: "r"})

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError on timeout, got %v", err)
	}
}

func TestHTTPFetcherSidebar(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/wiki/a/r/_Sidebar.md":
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte("[[Home| Home]]"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer upstream.Close()

	fetcher := NewHTTPFetcher(HTTPFetcherOptions{RawBaseURL: upstream.URL})

	body, found, err := fetcher.FetchSidebar(context.Background(), "a", "r")
	if err != nil {
		t.Fatalf("FetchSidebar returned error: %v", err)
	}
	if !found || body != "[[Home| Home]]" {
		t.Fatalf("unexpected sidebar %q (found=%v)", body, found)
	}

	body, found, err = fetcher.FetchSidebar(context.Background(), "a", "missing")
	if err != nil {
		t.Fatalf("FetchSidebar returned error for missing sidebar: %v", err)
	}
	if found || body != "" {
		t.Fatalf("expected no sidebar, got %q (found=%v)", body, found)
	}
}
