// Package slog provides logging decorators for langspec services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/langspec"
)

// Ensure LoggingFetcher implements langspec.Fetcher.
var _ langspec.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with logging.
type LoggingFetcher struct {
	next   langspec.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next langspec.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch logs the request outcome and delegates to the wrapped fetcher.
func (f *LoggingFetcher) Fetch(ctx context.Context, req langspec.FetchRequest) (resp *langspec.FetchResponse, err error) {
	defer func(begin time.Time) {
		status, size := 0, 0
		if resp != nil {
			status, size = resp.StatusCode, len(resp.Body)
		}
		f.logger.Debug("fetch",
			"url", req.URL,
			"conditional", req.ETag != "",
			"status", status,
			"bytes", size,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.Fetch(ctx, req)
}

// Ensure LoggingFileLister implements langspec.FileLister.
var _ langspec.FileLister = (*LoggingFileLister)(nil)

// LoggingFileLister wraps a FileLister with logging.
type LoggingFileLister struct {
	next   langspec.FileLister
	logger *slog.Logger
}

// NewLoggingFileLister creates a new LoggingFileLister.
func NewLoggingFileLister(next langspec.FileLister, logger *slog.Logger) *LoggingFileLister {
	return &LoggingFileLister{next: next, logger: logger}
}

// ListFiles delegates to the wrapped lister and logs the operation.
func (l *LoggingFileLister) ListFiles(ctx context.Context, owner, repo, dir string, exclude []string) (files []string, err error) {
	defer func(begin time.Time) {
		l.logger.Info("list files",
			"repo", owner+"/"+repo,
			"path", dir,
			"count", len(files),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return l.next.ListFiles(ctx, owner, repo, dir, exclude)
}
