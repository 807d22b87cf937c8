package mirror

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html/charset"
)

const (
	// DefaultUpstreamBaseURL hosts the wikis being mirrored.
	DefaultUpstreamBaseURL = "https://github.com"
	// DefaultRawBaseURL serves raw wiki files such as _Sidebar.md.
	DefaultRawBaseURL = "https://raw.githubusercontent.com"

	defaultFetchTimeout = 20 * time.Second
	defaultUserAgent    = "wikisee/1.0 (+https://github-wiki-see.page)"
	defaultMaxBodyBytes = 8 << 20
)

// Document is the raw upstream HTML produced by a single fetch.
type Document struct {
	RawHTML string
}

// Fetcher retrieves upstream wiki pages.
type Fetcher interface {
	Fetch(ctx context.Context, locator Locator) (Document, error)
}

// SidebarSource retrieves the raw markdown of a wiki's sidebar. found is false when
// the wiki has no sidebar.
type SidebarSource interface {
	FetchSidebar(ctx context.Context, account, repository string) (markdown string, found bool, err error)
}

// FetchError reports that the upstream could not be reached or its response could
// not be read as text.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// HTTPFetcherOptions configures the upstream HTTP fetcher.
type HTTPFetcherOptions struct {
	BaseURL    string
	RawBaseURL string
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
	Logger     *logrus.Logger
	// MaxBodyBytes caps upstream bodies; larger responses fail the fetch.
	MaxBodyBytes int64
}

// HTTPFetcher fetches wiki pages and sidebars over HTTP with a single bounded GET.
type HTTPFetcher struct {
	client     *http.Client
	baseURL    string
	rawBaseURL string
	userAgent  string
	maxBody    int64
	logger     *logrus.Logger
}

var (
	_ Fetcher       = (*HTTPFetcher)(nil)
	_ SidebarSource = (*HTTPFetcher)(nil)
)

// NewHTTPFetcher constructs a fetcher, applying defaults for unset options.
func NewHTTPFetcher(opts HTTPFetcherOptions) *HTTPFetcher {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultUpstreamBaseURL
	}

	rawBaseURL := strings.TrimRight(strings.TrimSpace(opts.RawBaseURL), "/")
	if rawBaseURL == "" {
		rawBaseURL = DefaultRawBaseURL
	}

	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultFetchTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	return &HTTPFetcher{
		client:     client,
		baseURL:    baseURL,
		rawBaseURL: rawBaseURL,
		userAgent:  userAgent,
		maxBody:    maxBody,
		logger:     opts.Logger,
	}
}

// URL returns the canonical upstream address for the locator.
func (f *HTTPFetcher) URL(locator Locator) string {
	return f.baseURL + locator.Path()
}

// Fetch downloads the page body whatever the HTTP status; the page title, not the
// status code, tells callers whether the page exists.
func (f *HTTPFetcher) Fetch(ctx context.Context, locator Locator) (Document, error) {
	target := f.URL(locator)

	resp, err := f.get(ctx, target)
	if err != nil {
		return Document{}, &FetchError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	body, err := f.readText(resp)
	if err != nil {
		return Document{}, &FetchError{URL: target, Err: err}
	}

	f.logDebug(logrus.Fields{"url": target, "status": resp.StatusCode, "bytes": len(body)}, "fetched upstream wiki page")

	return Document{RawHTML: body}, nil
}

// FetchSidebar downloads _Sidebar.md from the raw wiki host.
func (f *HTTPFetcher) FetchSidebar(ctx context.Context, account, repository string) (string, bool, error) {
	target := fmt.Sprintf("%s/wiki/%s/%s/_Sidebar.md", f.rawBaseURL, account, repository)

	resp, err := f.get(ctx, target)
	if err != nil {
		return "", false, &FetchError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, &FetchError{URL: target, Err: eris.Errorf("unexpected status %d", resp.StatusCode)}
	}

	body, err := f.readText(resp)
	if err != nil {
		return "", false, &FetchError{URL: target, Err: err}
	}

	return body, true, nil
}

func (f *HTTPFetcher) get(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, eris.Wrap(err, "building upstream request")
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "requesting upstream")
	}
	return resp, nil
}

// readText decodes the body to UTF-8. Undecodable bytes become U+FFFD.
func (f *HTTPFetcher) readText(resp *http.Response) (string, error) {
	contentType := resp.Header.Get("Content-Type")
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return "", eris.Wrapf(err, "parsing content type %q", contentType)
		}
		if !strings.HasPrefix(mediaType, "text/") && mediaType != "application/xhtml+xml" {
			return "", eris.Errorf("unsupported content type %q", mediaType)
		}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return "", eris.Wrap(err, "reading response body")
	}
	if int64(len(raw)) > f.maxBody {
		return "", eris.Errorf("response body exceeds %d bytes", f.maxBody)
	}

	reader, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return "", eris.Wrap(err, "detecting response charset")
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", eris.Wrap(err, "decoding response body")
	}

	return string(data), nil
}

func (f *HTTPFetcher) logDebug(fields logrus.Fields, message string) {
	if f.logger == nil {
		return
	}
	f.logger.WithFields(fields).Debug(message)
}
