package mock

import (
	"context"

	"github.com/fwojciec/langspec"
)

var _ langspec.SectionService = (*SectionService)(nil)

// SectionService is a mock implementation of langspec.SectionService.
type SectionService struct {
	WithTxFn         func(ctx context.Context, fn func(w langspec.SectionWriter) error) error
	SearchSectionsFn func(ctx context.Context, query string, opts langspec.SearchOptions) ([]langspec.Citation, error)
	GetSectionFn     func(ctx context.Context, language, version, sectionID string) (*langspec.SectionResult, error)
	ListVersionsFn   func(ctx context.Context, language string) ([]langspec.VersionInfo, error)
	ListLanguagesFn  func(ctx context.Context) ([]langspec.LanguageInfo, error)
	LatestSnapshotFn func(ctx context.Context, language, doc string) (*langspec.Snapshot, error)
	ListSectionsFn   func(ctx context.Context, language, version string) ([]*langspec.Section, error)
}

func (s *SectionService) WithTx(ctx context.Context, fn func(w langspec.SectionWriter) error) error {
	return s.WithTxFn(ctx, fn)
}

func (s *SectionService) SearchSections(ctx context.Context, query string, opts langspec.SearchOptions) ([]langspec.Citation, error) {
	return s.SearchSectionsFn(ctx, query, opts)
}

func (s *SectionService) GetSection(ctx context.Context, language, version, sectionID string) (*langspec.SectionResult, error) {
	return s.GetSectionFn(ctx, language, version, sectionID)
}

func (s *SectionService) ListVersions(ctx context.Context, language string) ([]langspec.VersionInfo, error) {
	return s.ListVersionsFn(ctx, language)
}

func (s *SectionService) ListLanguages(ctx context.Context) ([]langspec.LanguageInfo, error) {
	return s.ListLanguagesFn(ctx)
}

func (s *SectionService) LatestSnapshot(ctx context.Context, language, doc string) (*langspec.Snapshot, error) {
	return s.LatestSnapshotFn(ctx, language, doc)
}

func (s *SectionService) ListSections(ctx context.Context, language, version string) ([]*langspec.Section, error) {
	return s.ListSectionsFn(ctx, language, version)
}

var _ langspec.SectionWriter = (*SectionWriter)(nil)

// SectionWriter is a mock implementation of langspec.SectionWriter.
type SectionWriter struct {
	UpsertSnapshotFn func(ctx context.Context, snapshot *langspec.Snapshot) error
	UpsertSectionFn  func(ctx context.Context, section *langspec.Section) (langspec.UpsertResult, error)
}

func (w *SectionWriter) UpsertSnapshot(ctx context.Context, snapshot *langspec.Snapshot) error {
	return w.UpsertSnapshotFn(ctx, snapshot)
}

func (w *SectionWriter) UpsertSection(ctx context.Context, section *langspec.Section) (langspec.UpsertResult, error) {
	return w.UpsertSectionFn(ctx, section)
}
