// Package http provides an HTTP implementation of langspec.Fetcher that
// issues conditional GET requests and classifies failures for retry.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/fwojciec/langspec"
)

// DefaultFetchTimeout bounds a single attempt.
const DefaultFetchTimeout = 30 * time.Second

// DefaultUserAgent identifies the indexer on every request.
const DefaultUserAgent = "langspec/1.0 (Language Specification Indexer)"

// DefaultMaxBodySize caps the bytes accepted from a single response.
const DefaultMaxBodySize = 32 << 20

// Ensure Fetcher implements langspec.Fetcher at compile time.
var _ langspec.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves documents over HTTP. It performs exactly one attempt
// per call; retries are the caller's concern.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	limiter   *HostLimiter
	maxBody   int64
	now       func() time.Time
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-attempt timeout.
// Defaults to DefaultFetchTimeout (30s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithHTTPClient sets the underlying client. Its Timeout is overwritten.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithMaxBodySize overrides DefaultMaxBodySize. Larger bodies are
// rejected rather than truncated.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		f.maxBody = n
	}
}

// WithHostLimiter paces requests per host through l.
func WithHostLimiter(l *HostLimiter) Option {
	return func(f *Fetcher) {
		f.limiter = l
	}
}

// NewFetcher creates a new HTTP Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:   DefaultFetchTimeout,
		userAgent: DefaultUserAgent,
		maxBody:   DefaultMaxBodySize,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.client == nil {
		f.client = &http.Client{}
	}
	f.client.Timeout = f.timeout

	return f
}

// Fetch issues a GET for req.URL, adding If-None-Match when req.ETag is set.
func (f *Fetcher) Fetch(ctx context.Context, req langspec.FetchRequest) (*langspec.FetchResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, langspec.Errorf(langspec.EINVALID, "invalid request URL %q: %v", req.URL, err)
	}
	httpReq.Header.Set("User-Agent", f.userAgent)
	if req.ETag != "" {
		httpReq.Header.Set("If-None-Match", req.ETag)
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, hostOf(req.URL)); err != nil {
			return nil, err
		}
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
		if err != nil {
			return nil, fmt.Errorf("read body of %s: %w", req.URL, err)
		}
		if int64(len(body)) > f.maxBody {
			return nil, langspec.Errorf(langspec.EINVALID, "response body of %s exceeds %d bytes", req.URL, f.maxBody)
		}
		return &langspec.FetchResponse{
			Body:       string(body),
			ETag:       resp.Header.Get("ETag"),
			StatusCode: http.StatusOK,
		}, nil

	case http.StatusNotModified:
		etag := resp.Header.Get("ETag")
		if etag == "" {
			etag = req.ETag
		}
		return &langspec.FetchResponse{
			ETag:       etag,
			StatusCode: http.StatusNotModified,
		}, nil
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	se := &langspec.StatusError{URL: req.URL, StatusCode: resp.StatusCode}
	se.RetryAfter, se.HasRetryAfter = ParseRetryAfter(resp.Header.Get("Retry-After"), f.now())
	return nil, se
}

// ParseRetryAfter parses a Retry-After header given either as delay seconds
// or as an HTTP date. Dates in the past yield zero.
func ParseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	if value == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(value); err == nil {
		d := t.Sub(now)
		if d <= 0 {
			return 0, true
		}
		return (d + time.Second - 1).Truncate(time.Second), true
	}
	return 0, false
}
