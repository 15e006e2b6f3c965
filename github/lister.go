// Package github lists markdown files of GitHub repositories.
package github

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/fwojciec/langspec"
	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v81/github"
)

// Ensure Lister implements langspec.FileLister at compile time.
var _ langspec.FileLister = (*Lister)(nil)

// NewClient creates a GitHub API client that waits out rate limits. An
// empty token yields an unauthenticated client.
func NewClient(token string) (*github.Client, error) {
	rateLimiter, err := github_ratelimit.NewRateLimitWaiterClient(nil)
	if err != nil {
		return nil, fmt.Errorf("create rate limit client: %w", err)
	}
	client := github.NewClient(rateLimiter)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return client, nil
}

// Lister walks repository directories with the contents API.
type Lister struct {
	client *github.Client
}

// NewLister creates a new Lister.
func NewLister(client *github.Client) *Lister {
	return &Lister{client: client}
}

// ListFiles returns the sorted repository paths of every .md file below
// dir. Entries whose path relative to dir equals or lies under an exclude
// entry are skipped.
func (l *Lister) ListFiles(ctx context.Context, owner, repo, dir string, exclude []string) ([]string, error) {
	dir = strings.Trim(dir, "/")
	files, err := l.list(ctx, owner, repo, dir, "", normalizeExcludes(exclude))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func (l *Lister) list(ctx context.Context, owner, repo, fullPath, relPath string, exclude []string) ([]string, error) {
	_, entries, resp, err := l.client.Repositories.GetContents(ctx, owner, repo, fullPath, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == 404 {
			return nil, langspec.Errorf(langspec.ENOTFOUND, "repository path not found: %s/%s/%s", owner, repo, fullPath)
		}
		return nil, fmt.Errorf("failed to get contents of %s: %w", fullPath, err)
	}

	var files []string
	for _, entry := range entries {
		name := entry.GetName()
		if name == "" {
			continue
		}
		rel := path.Join(relPath, name)
		if excluded(rel, exclude) {
			continue
		}

		switch entry.GetType() {
		case "file":
			if strings.HasSuffix(name, ".md") {
				files = append(files, path.Join(fullPath, name))
			}
		case "dir":
			sub, err := l.list(ctx, owner, repo, path.Join(fullPath, name), rel, exclude)
			if err != nil {
				return nil, err
			}
			files = append(files, sub...)
		}
	}
	return files, nil
}

func normalizeExcludes(exclude []string) []string {
	out := make([]string, 0, len(exclude))
	for _, e := range exclude {
		if e = strings.Trim(strings.TrimSpace(e), "/"); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// excluded reports whether rel equals or lies under any exclude entry.
func excluded(rel string, exclude []string) bool {
	for _, e := range exclude {
		if rel == e || strings.HasPrefix(rel, e+"/") {
			return true
		}
	}
	return false
}
