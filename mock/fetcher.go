package mock

import (
	"context"
	"regexp"

	"github.com/fwojciec/langspec"
)

var _ langspec.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of langspec.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, req langspec.FetchRequest) (*langspec.FetchResponse, error)
}

func (f *Fetcher) Fetch(ctx context.Context, req langspec.FetchRequest) (*langspec.FetchResponse, error) {
	return f.FetchFn(ctx, req)
}

var _ langspec.FileLister = (*FileLister)(nil)

// FileLister is a mock implementation of langspec.FileLister.
type FileLister struct {
	ListFilesFn func(ctx context.Context, owner, repo, dir string, exclude []string) ([]string, error)
}

func (l *FileLister) ListFiles(ctx context.Context, owner, repo, dir string, exclude []string) ([]string, error) {
	return l.ListFilesFn(ctx, owner, repo, dir, exclude)
}

var _ langspec.HTMLParser = (*HTMLParser)(nil)

// HTMLParser is a mock implementation of langspec.HTMLParser.
type HTMLParser struct {
	ParseFn        func(content, pageURL, selectors string) ([]langspec.ParsedSection, error)
	ExtractLinksFn func(content, indexURL string, pattern *regexp.Regexp) ([]string, error)
}

func (p *HTMLParser) Parse(content, pageURL, selectors string) ([]langspec.ParsedSection, error) {
	return p.ParseFn(content, pageURL, selectors)
}

func (p *HTMLParser) ExtractLinks(content, indexURL string, pattern *regexp.Regexp) ([]string, error) {
	return p.ExtractLinksFn(content, indexURL, pattern)
}

var _ langspec.ManifestParser = (*ManifestParser)(nil)

// ManifestParser is a mock implementation of langspec.ManifestParser.
type ManifestParser struct {
	ParseManifestFn func(content, basePath, manifestFile string) []string
}

func (p *ManifestParser) ParseManifest(content, basePath, manifestFile string) []string {
	return p.ParseManifestFn(content, basePath, manifestFile)
}
