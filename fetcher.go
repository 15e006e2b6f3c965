package langspec

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

// Page statuses.
const (
	StatusFetched     = 200
	StatusNotModified = 304
)

// FetchRequest is a single conditional GET.
type FetchRequest struct {
	URL string

	// ETag, when set, is sent as If-None-Match.
	ETag string
}

// FetchResponse is the result of a FetchRequest. Body is empty when
// StatusCode is StatusNotModified.
type FetchResponse struct {
	Body       string
	ETag       string
	StatusCode int
}

// Fetcher performs single network attempts. Implementations do not retry.
type Fetcher interface {
	// Fetch issues one GET. Responses other than 200 and 304 are returned
	// as *StatusError.
	Fetch(ctx context.Context, req FetchRequest) (*FetchResponse, error)
}

// StatusError reports an unexpected HTTP status.
type StatusError struct {
	URL        string
	StatusCode int

	// RetryAfter is the server-specified wait, if any.
	RetryAfter    time.Duration
	HasRetryAfter bool
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}

// RateLimited reports whether the server throttled the request.
func (e *StatusError) RateLimited() bool {
	return e.StatusCode == 429
}

// IsRetryable reports whether err is worth another attempt: connection
// failures, timeouts, HTTP 429 and HTTP 5xx. Other 4xx responses and
// cancellation are terminal.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == 429 || (se.StatusCode >= 500 && se.StatusCode <= 599)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// RetryAfter returns the server-specified wait carried by err.
func RetryAfter(err error) (time.Duration, bool) {
	var se *StatusError
	if errors.As(err, &se) && se.HasRetryAfter {
		return se.RetryAfter, true
	}
	return 0, false
}

// IsRateLimited reports whether err is an HTTP 429.
func IsRateLimited(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.RateLimited()
}

// Page is one fetched document body.
type Page struct {
	Content string `json:"content"`
	ETag    string `json:"etag,omitempty"`

	// URL is the address the body was fetched from.
	URL string `json:"url"`

	// PageURL is recorded on parsed sections: empty for single-page
	// sources, absolute for multi-page HTML, a repository path for trees.
	PageURL string `json:"pageUrl,omitempty"`

	// Status is StatusFetched for a fresh body and StatusNotModified when the
	// server reported no change. A not-modified page with empty Content is a
	// placeholder for a body that was never cached.
	Status int `json:"status"`
}

// Unchanged reports whether the page is an empty not-modified placeholder.
func (p *Page) Unchanged() bool {
	return p.Status == StatusNotModified && p.Content == ""
}

// PageError records a page that failed after retries.
type PageError struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// FetchSummary counts page outcomes. Fetched + Cached + Failed == Total.
type FetchSummary struct {
	Total   int `json:"total"`
	Fetched int `json:"fetched"`
	Cached  int `json:"cached"`
	Failed  int `json:"failed"`
}

// FetchOutcome is the result of fetching a source.
type FetchOutcome struct {
	Pages   []*Page      `json:"pages"`
	Errors  []PageError  `json:"errors"`
	Summary FetchSummary `json:"summary"`
}

// CacheMeta describes a cached body.
type CacheMeta struct {
	URL       string    `json:"url"`
	ETag      string    `json:"etag"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// PageCache stores fetched bodies keyed by URL within a (language, doc)
// namespace. Entries never expire; freshness is decided by server ETags.
type PageCache interface {
	Has(language, doc, url string) bool
	Meta(language, doc, url string) (*CacheMeta, bool)
	Content(language, doc, url string) (string, bool)

	// Put overwrites both the body and its metadata.
	Put(language, doc, url, content, etag string) error
}

// FileLister lists markdown files of a repository directory tree.
type FileLister interface {
	// ListFiles returns repository paths of .md files below dir, skipping
	// paths under any of exclude (relative to dir).
	ListFiles(ctx context.Context, owner, repo, dir string, exclude []string) ([]string, error)
}

// DefaultRawBaseURL serves raw repository file contents.
const DefaultRawBaseURL = "https://raw.githubusercontent.com"

// RawFileURL returns the URL of a file at the default branch head of a
// GitHub repository.
func RawFileURL(baseURL, owner, repo, filePath string) string {
	if baseURL == "" {
		baseURL = DefaultRawBaseURL
	}
	return strings.TrimSuffix(baseURL, "/") + "/" + owner + "/" + repo + "/HEAD/" + strings.TrimPrefix(filePath, "/")
}
