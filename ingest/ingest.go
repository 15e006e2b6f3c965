package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/fwojciec/langspec"
	"github.com/google/uuid"
)

// Ensure Ingester implements langspec.IngestService at compile time.
var _ langspec.IngestService = (*Ingester)(nil)

// VersionPrefix starts every snapshot version label.
const VersionPrefix = "snapshot-"

// VersionLabel returns the snapshot version of a run started at t.
func VersionLabel(t time.Time) string {
	return VersionPrefix + t.UTC().Format("20060102")
}

// Ingester runs fetch, parse, normalize and store for one source.
type Ingester struct {
	Executor *Executor
	HTML     langspec.HTMLParser
	Sections langspec.SectionService
	Observer langspec.IngestObserver // optional

	// Now returns the run time. Defaults to time.Now.
	Now func() time.Time
}

// Ingest fetches and stores one source. The snapshot and every section are
// written in a single transaction. When every page came back unchanged
// with nothing cached, only the latest stored snapshot is refreshed and
// keeps its version.
func (i *Ingester) Ingest(ctx context.Context, src langspec.SourceDescriptor) (report *langspec.IngestReport, err error) {
	now := i.now()
	src = src.Resolve()
	report = &langspec.IngestReport{
		RunID:    uuid.New().String(),
		Language: src.Name,
		Doc:      src.Doc,
		Version:  VersionLabel(now),
		Strategy: src.Strategy().String(),
	}

	if i.Observer != nil {
		defer func(begin time.Time) {
			i.Observer.ObserveIngest(report, time.Since(begin), err)
		}(time.Now())
	}

	previous, err := i.Sections.LatestSnapshot(ctx, src.Name, src.Doc)
	switch {
	case err == nil:
	case langspec.ErrorCode(err) == langspec.ENOTFOUND:
		previous = nil
	default:
		return report, err
	}

	var opts FetchOptions
	if previous != nil && src.Strategy() == langspec.StrategySinglePage {
		opts.PreviousETag = previous.ETag
	}

	outcome, err := i.Executor.Fetch(ctx, src, opts)
	if outcome != nil {
		report.Fetch = outcome.Summary
		report.Errors = append(report.Errors, outcome.Errors...)
	}
	if err != nil {
		return report, err
	}
	if len(outcome.Pages) == 0 {
		return report, langspec.Errorf(langspec.EUNAVAILABLE, "no pages fetched for %s", src.Name)
	}

	snapshot := &langspec.Snapshot{
		Language:  src.Name,
		Doc:       src.Doc,
		Version:   report.Version,
		FetchedAt: now.UTC(),
		ETag:      snapshotETag(src, outcome.Pages),
		SourceURL: sourceURL(src),
	}

	if allUnchanged(outcome.Pages) {
		if previous == nil {
			return report, langspec.Errorf(langspec.EUNAVAILABLE, "%s is not modified but no snapshot is stored", src.Name)
		}
		report.NotModified = true
		report.Version = previous.Version
		snapshot.Version = previous.Version
		if snapshot.ETag == "" {
			snapshot.ETag = previous.ETag
		}
		err = i.Sections.WithTx(ctx, func(w langspec.SectionWriter) error {
			return w.UpsertSnapshot(ctx, snapshot)
		})
		return report, err
	}

	sections, duplicates := i.parse(src, report, outcome.Pages)
	report.Duplicates = duplicates

	var inserted, updated, unchanged int
	err = i.Sections.WithTx(ctx, func(w langspec.SectionWriter) error {
		if err := w.UpsertSnapshot(ctx, snapshot); err != nil {
			return fmt.Errorf("upsert snapshot: %w", err)
		}
		for _, section := range sections {
			result, err := w.UpsertSection(ctx, section)
			if err != nil {
				return fmt.Errorf("upsert section %s: %w", section.SectionID, err)
			}
			switch result {
			case langspec.Inserted:
				inserted++
			case langspec.Updated:
				updated++
			case langspec.Unchanged:
				unchanged++
			}
		}
		return nil
	})
	if err != nil {
		return report, err
	}

	report.Inserted, report.Updated, report.Unchanged = inserted, updated, unchanged
	return report, nil
}

// parse converts pages into normalized sections in page order. Sections
// whose identifier was already produced by an earlier page are dropped and
// counted. Pages that fail to parse are recorded as report errors.
func (i *Ingester) parse(src langspec.SourceDescriptor, report *langspec.IngestReport, pages []*langspec.Page) ([]*langspec.Section, int) {
	meta := langspec.NormalizeMetaFor(src, report.Version)
	seen := make(map[string]bool)
	duplicates := 0

	var sections []*langspec.Section
	for _, page := range pages {
		if page.Unchanged() {
			continue
		}

		var parsed []langspec.ParsedSection
		switch strategy := src.Strategy(); strategy {
		case langspec.StrategySinglePage, langspec.StrategyMultiPage:
			var err error
			parsed, err = i.HTML.Parse(page.Content, page.PageURL, src.HeadingSelectors)
			if err != nil {
				report.Errors = append(report.Errors, langspec.PageError{URL: page.URL, Error: err.Error()})
				continue
			}
		case langspec.StrategyTree:
			parsed = langspec.ParseMarkdown(page.Content, page.PageURL)
		}

		for _, section := range langspec.Normalize(parsed, meta) {
			if seen[section.SectionID] {
				duplicates++
				continue
			}
			seen[section.SectionID] = true
			sections = append(sections, section)
		}
	}
	return sections, duplicates
}

func (i *Ingester) now() time.Time {
	if i.Now == nil {
		return time.Now()
	}
	return i.Now()
}

func allUnchanged(pages []*langspec.Page) bool {
	for _, page := range pages {
		if !page.Unchanged() {
			return false
		}
	}
	return true
}

// snapshotETag returns the validator recorded on the snapshot. Only
// single-page sources have one page-level ETag to remember.
func snapshotETag(src langspec.SourceDescriptor, pages []*langspec.Page) string {
	if src.Strategy() == langspec.StrategySinglePage && len(pages) == 1 {
		return pages[0].ETag
	}
	return ""
}

func sourceURL(src langspec.SourceDescriptor) string {
	if src.GitHub != "" {
		return "https://github.com/" + src.GitHub
	}
	return src.URL
}
