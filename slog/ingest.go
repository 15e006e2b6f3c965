package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/langspec"
)

// Ensure LoggingIngestService implements langspec.IngestService.
var _ langspec.IngestService = (*LoggingIngestService)(nil)

// LoggingIngestService wraps an IngestService with logging.
type LoggingIngestService struct {
	next   langspec.IngestService
	logger *slog.Logger
}

// NewLoggingIngestService creates a new LoggingIngestService.
func NewLoggingIngestService(next langspec.IngestService, logger *slog.Logger) *LoggingIngestService {
	return &LoggingIngestService{next: next, logger: logger}
}

// Ingest delegates to the wrapped service and logs the run summary. Each
// page failure is logged as a warning.
func (s *LoggingIngestService) Ingest(ctx context.Context, src langspec.SourceDescriptor) (report *langspec.IngestReport, err error) {
	s.logger.Info("ingest started", "source", src.Name, "strategy", src.Strategy().String())
	defer func(begin time.Time) {
		if report == nil {
			s.logger.Error("ingest failed",
				"source", src.Name,
				"duration", time.Since(begin),
				"err", err,
			)
			return
		}
		for _, pe := range report.Errors {
			s.logger.Warn("page failed", "run", report.RunID, "url", pe.URL, "err", pe.Error)
		}
		attrs := []any{
			"run", report.RunID,
			"source", src.Name,
			"version", report.Version,
			"total", report.Fetch.Total,
			"fetched", report.Fetch.Fetched,
			"cached", report.Fetch.Cached,
			"failed", report.Fetch.Failed,
			"inserted", report.Inserted,
			"updated", report.Updated,
			"unchanged", report.Unchanged,
			"duplicates", report.Duplicates,
			"not_modified", report.NotModified,
			"duration", time.Since(begin),
		}
		if err != nil {
			s.logger.Error("ingest failed", append(attrs, "err", err)...)
			return
		}
		s.logger.Info("ingest finished", attrs...)
	}(time.Now())
	return s.next.Ingest(ctx, src)
}
