package mock

import (
	"context"
	"time"

	"github.com/fwojciec/langspec"
)

var _ langspec.IngestService = (*IngestService)(nil)

// IngestService is a mock implementation of langspec.IngestService.
type IngestService struct {
	IngestFn func(ctx context.Context, src langspec.SourceDescriptor) (*langspec.IngestReport, error)
}

func (s *IngestService) Ingest(ctx context.Context, src langspec.SourceDescriptor) (*langspec.IngestReport, error) {
	return s.IngestFn(ctx, src)
}

var _ langspec.IngestObserver = (*IngestObserver)(nil)

// IngestObserver is a mock implementation of langspec.IngestObserver.
type IngestObserver struct {
	ObserveIngestFn func(report *langspec.IngestReport, duration time.Duration, err error)
}

func (o *IngestObserver) ObserveIngest(report *langspec.IngestReport, duration time.Duration, err error) {
	o.ObserveIngestFn(report, duration, err)
}
