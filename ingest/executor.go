// Package ingest fetches configured sources and stores their sections.
package ingest

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/fwojciec/langspec"
	"github.com/fwojciec/langspec/backoff"
)

// Pacing defaults for multi-page and tree fetches.
const (
	DefaultPageDelay    = 200 * time.Millisecond
	DefaultMaxPageDelay = 10 * time.Second
)

// FetchOptions tunes a single Fetch call.
type FetchOptions struct {
	// PreviousETag is sent with a single-page request when the cache holds
	// no entry for the page.
	PreviousETag string
}

// Executor retrieves the raw pages of a source. Pages of multi-page and
// tree sources are fetched one at a time, each completed page followed by
// a pause before the next request.
type Executor struct {
	Fetcher  langspec.Fetcher
	Cache    langspec.PageCache // optional
	Files    langspec.FileLister
	HTML     langspec.HTMLParser
	Manifest langspec.ManifestParser
	Retry    *backoff.Policy

	// PageDelay is the initial pause between page requests; MaxPageDelay
	// bounds it after rate-limit responses.
	PageDelay    time.Duration
	MaxPageDelay time.Duration

	// Sleep pauses between pages. Defaults to a timer that stops early
	// when ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error

	// RawBaseURL overrides langspec.DefaultRawBaseURL for tree sources.
	RawBaseURL string
}

// Fetch retrieves every page of a resolved source. Failed pages are
// recorded in the outcome and skipped. An error is returned when the index
// page, manifest or file listing cannot be retrieved, or when every page
// failed.
func (e *Executor) Fetch(ctx context.Context, src langspec.SourceDescriptor, opts FetchOptions) (*langspec.FetchOutcome, error) {
	var (
		outcome *langspec.FetchOutcome
		err     error
	)
	switch strategy := src.Strategy(); strategy {
	case langspec.StrategySinglePage:
		outcome, err = e.fetchSinglePage(ctx, src, opts)
	case langspec.StrategyMultiPage:
		outcome, err = e.fetchMultiPage(ctx, src)
	case langspec.StrategyTree:
		outcome, err = e.fetchTree(ctx, src)
	default:
		return nil, langspec.Errorf(langspec.EINVALID, "unsupported fetch strategy %v", strategy)
	}
	if err != nil {
		return nil, err
	}

	if outcome.Summary.Total > 0 && outcome.Summary.Failed == outcome.Summary.Total {
		return outcome, langspec.Errorf(langspec.EUNAVAILABLE, "all %d pages of %s failed: %s",
			outcome.Summary.Total, src.Name, outcome.Errors[0].Error)
	}
	return outcome, nil
}

func (e *Executor) fetchSinglePage(ctx context.Context, src langspec.SourceDescriptor, opts FetchOptions) (*langspec.FetchOutcome, error) {
	b := newBatch(1)
	page, err := e.fetchPage(ctx, src, src.URL, "", opts.PreviousETag)
	b.record(src.URL, page, err)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return b.outcome(), nil
}

func (e *Executor) fetchMultiPage(ctx context.Context, src langspec.SourceDescriptor) (*langspec.FetchOutcome, error) {
	index, err := e.fetchUncached(ctx, src.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch index %s: %w", src.URL, err)
	}

	links, err := e.HTML.ExtractLinks(index, src.URL, src.ChapterRegexp())
	if err != nil {
		return nil, fmt.Errorf("extract chapter links: %w", err)
	}

	targets := make([]target, len(links))
	for i, link := range links {
		targets[i] = target{url: link, pageURL: link}
	}
	return e.fetchSequential(ctx, src, targets)
}

func (e *Executor) fetchTree(ctx context.Context, src langspec.SourceDescriptor) (*langspec.FetchOutcome, error) {
	owner, repo := src.Owner(), src.Repo()

	var files []string
	if src.ManifestFile != "" {
		manifestURL := langspec.RawFileURL(e.RawBaseURL, owner, repo, path.Join(src.Path, src.ManifestFile))
		manifest, err := e.fetchUncached(ctx, manifestURL)
		if err != nil {
			return nil, fmt.Errorf("fetch manifest %s: %w", manifestURL, err)
		}
		files = e.Manifest.ParseManifest(manifest, src.Path, src.ManifestFile)
	} else {
		var err error
		files, err = e.Files.ListFiles(ctx, owner, repo, src.Path, src.ExcludePaths)
		if err != nil {
			return nil, fmt.Errorf("list files of %s: %w", src.GitHub, err)
		}
	}

	targets := make([]target, len(files))
	for i, file := range files {
		targets[i] = target{url: langspec.RawFileURL(e.RawBaseURL, owner, repo, file), pageURL: file}
	}
	return e.fetchSequential(ctx, src, targets)
}

// target is one page of a batch.
type target struct {
	url     string
	pageURL string
}

// fetchSequential fetches targets in order. The pause after a page is
// measured from its completion and grows after rate-limit failures for the
// rest of the batch.
func (e *Executor) fetchSequential(ctx context.Context, src langspec.SourceDescriptor, targets []target) (*langspec.FetchOutcome, error) {
	delay := e.pageDelay()

	b := newBatch(len(targets))
	for i, t := range targets {
		page, err := e.fetchPage(ctx, src, t.url, t.pageURL, "")
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		b.record(t.url, page, err)

		if err != nil {
			delay = AdaptDelay(delay, err, e.maxPageDelay())
		}
		if i < len(targets)-1 {
			if err := e.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}
	}
	return b.outcome(), nil
}

func (e *Executor) sleep(ctx context.Context, d time.Duration) error {
	if e.Sleep != nil {
		return e.Sleep(ctx, d)
	}
	return sleepContext(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// fetchPage performs a retried conditional GET using the cached ETag, and
// keeps the cache current.
func (e *Executor) fetchPage(ctx context.Context, src langspec.SourceDescriptor, url, pageURL, fallbackETag string) (*langspec.Page, error) {
	etag := fallbackETag
	if e.Cache != nil {
		if meta, ok := e.Cache.Meta(src.Name, src.Doc, url); ok {
			etag = meta.ETag
		}
	}

	resp, err := backoff.Do(ctx, e.Retry, func(ctx context.Context) (*langspec.FetchResponse, error) {
		return e.Fetcher.Fetch(ctx, langspec.FetchRequest{URL: url, ETag: etag})
	})
	if err != nil {
		return nil, err
	}

	page := &langspec.Page{
		Content: resp.Body,
		ETag:    resp.ETag,
		URL:     url,
		PageURL: pageURL,
		Status:  resp.StatusCode,
	}

	if resp.StatusCode == langspec.StatusNotModified {
		if page.ETag == "" {
			page.ETag = etag
		}
		if e.Cache != nil {
			if content, ok := e.Cache.Content(src.Name, src.Doc, url); ok {
				page.Content = content
			}
		}
		return page, nil
	}

	if e.Cache != nil {
		if err := e.Cache.Put(src.Name, src.Doc, url, resp.Body, resp.ETag); err != nil {
			return nil, fmt.Errorf("cache %s: %w", url, err)
		}
	}
	return page, nil
}

// fetchUncached retrieves an index or manifest document without
// conditional headers or caching.
func (e *Executor) fetchUncached(ctx context.Context, url string) (string, error) {
	resp, err := backoff.Do(ctx, e.Retry, func(ctx context.Context) (*langspec.FetchResponse, error) {
		return e.Fetcher.Fetch(ctx, langspec.FetchRequest{URL: url})
	})
	if err != nil {
		return "", err
	}
	return resp.Body, nil
}

func (e *Executor) pageDelay() time.Duration {
	if e.PageDelay <= 0 {
		return DefaultPageDelay
	}
	return e.PageDelay
}

func (e *Executor) maxPageDelay() time.Duration {
	if e.MaxPageDelay <= 0 {
		return DefaultMaxPageDelay
	}
	return e.MaxPageDelay
}

// AdaptDelay returns the inter-page delay to use after err. Rate-limit
// failures raise the delay to the server-specified wait, or double it when
// the server gave none, never beyond limit. Other failures keep it.
func AdaptDelay(current time.Duration, err error, limit time.Duration) time.Duration {
	if !langspec.IsRateLimited(err) {
		return current
	}
	next := current * 2
	if wait, ok := langspec.RetryAfter(err); ok {
		next = wait
	}
	if next < current {
		next = current
	}
	if next > limit {
		next = limit
	}
	return next
}

// batch accumulates page results in request order.
type batch struct {
	pages   []*langspec.Page
	errors  []langspec.PageError
	summary langspec.FetchSummary
}

func newBatch(total int) *batch {
	return &batch{summary: langspec.FetchSummary{Total: total}}
}

func (b *batch) record(url string, page *langspec.Page, err error) {
	if err != nil {
		b.summary.Failed++
		b.errors = append(b.errors, langspec.PageError{URL: url, Error: err.Error()})
		return
	}
	if page.Status == langspec.StatusNotModified {
		b.summary.Cached++
	} else {
		b.summary.Fetched++
	}
	b.pages = append(b.pages, page)
}

func (b *batch) outcome() *langspec.FetchOutcome {
	return &langspec.FetchOutcome{
		Pages:   b.pages,
		Errors:  b.errors,
		Summary: b.summary,
	}
}
