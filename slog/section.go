package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/langspec"
)

// Ensure LoggingSectionService implements langspec.SectionService.
var _ langspec.SectionService = (*LoggingSectionService)(nil)

// LoggingSectionService wraps a SectionService with logging.
type LoggingSectionService struct {
	next   langspec.SectionService
	logger *slog.Logger
}

// NewLoggingSectionService creates a new LoggingSectionService.
func NewLoggingSectionService(next langspec.SectionService, logger *slog.Logger) *LoggingSectionService {
	return &LoggingSectionService{next: next, logger: logger}
}

// WithTx delegates to the wrapped service and logs how many sections the
// transaction classified.
func (s *LoggingSectionService) WithTx(ctx context.Context, fn func(w langspec.SectionWriter) error) (err error) {
	counts := &countingWriter{}
	defer func(begin time.Time) {
		s.logger.Info("store transaction",
			"snapshots", counts.snapshots,
			"inserted", counts.results[langspec.Inserted],
			"updated", counts.results[langspec.Updated],
			"unchanged", counts.results[langspec.Unchanged],
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.WithTx(ctx, func(w langspec.SectionWriter) error {
		counts.next = w
		counts.results = make(map[langspec.UpsertResult]int)
		counts.snapshots = 0
		return fn(counts)
	})
}

// countingWriter tallies writes made through a SectionWriter.
type countingWriter struct {
	next      langspec.SectionWriter
	snapshots int
	results   map[langspec.UpsertResult]int
}

func (w *countingWriter) UpsertSnapshot(ctx context.Context, snapshot *langspec.Snapshot) error {
	err := w.next.UpsertSnapshot(ctx, snapshot)
	if err == nil {
		w.snapshots++
	}
	return err
}

func (w *countingWriter) UpsertSection(ctx context.Context, section *langspec.Section) (langspec.UpsertResult, error) {
	result, err := w.next.UpsertSection(ctx, section)
	if err == nil {
		w.results[result]++
	}
	return result, err
}

// SearchSections delegates to the wrapped service and logs the query.
func (s *LoggingSectionService) SearchSections(ctx context.Context, query string, opts langspec.SearchOptions) (citations []langspec.Citation, err error) {
	defer func(begin time.Time) {
		s.logger.Info("search",
			"query", query,
			"language", opts.Language,
			"version", opts.Version,
			"results", len(citations),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.SearchSections(ctx, query, opts)
}

// GetSection delegates to the wrapped service and logs the lookup.
func (s *LoggingSectionService) GetSection(ctx context.Context, language, version, sectionID string) (result *langspec.SectionResult, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("get section",
			"language", language,
			"version", version,
			"section", sectionID,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.GetSection(ctx, language, version, sectionID)
}

// ListVersions delegates to the wrapped service.
func (s *LoggingSectionService) ListVersions(ctx context.Context, language string) (versions []langspec.VersionInfo, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("list versions",
			"language", language,
			"count", len(versions),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.ListVersions(ctx, language)
}

// ListLanguages delegates to the wrapped service.
func (s *LoggingSectionService) ListLanguages(ctx context.Context) (languages []langspec.LanguageInfo, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("list languages",
			"count", len(languages),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.ListLanguages(ctx)
}

// LatestSnapshot delegates to the wrapped service.
func (s *LoggingSectionService) LatestSnapshot(ctx context.Context, language, doc string) (*langspec.Snapshot, error) {
	return s.next.LatestSnapshot(ctx, language, doc)
}

// ListSections delegates to the wrapped service.
func (s *LoggingSectionService) ListSections(ctx context.Context, language, version string) (sections []*langspec.Section, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("list sections",
			"language", language,
			"version", version,
			"count", len(sections),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.ListSections(ctx, language, version)
}
