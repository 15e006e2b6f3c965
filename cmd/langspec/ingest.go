package main

import (
	"errors"
	"fmt"
	"sync"

	"github.com/fwojciec/langspec"
	"golang.org/x/sync/errgroup"
)

// Run executes the ingest command. Sources are ingested independently; a
// failing source does not stop the others.
func (c *IngestCmd) Run(deps *Dependencies) error {
	sources, err := c.sources(deps.Config)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", langspec.ErrorMessage(err))
		return err
	}

	errs := make([]error, len(sources))

	g, ctx := errgroup.WithContext(deps.Ctx)
	g.SetLimit(max(1, c.Concurrency))
	var mu sync.Mutex
	for i, src := range sources {
		g.Go(func() error {
			report, err := deps.Ingest.Ingest(ctx, src)
			errs[i] = err

			mu.Lock()
			defer mu.Unlock()
			printReport(deps, src, report, err)
			return nil
		})
	}
	_ = g.Wait()

	if c.MetricsFile != "" && deps.Metrics != nil {
		if err := deps.Metrics.WriteToTextfile(c.MetricsFile); err != nil {
			fmt.Fprintf(deps.Stderr, "error: failed to write metrics: %v\n", err)
			errs = append(errs, err)
		}
	}

	var failed int
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d sources failed: %w", failed, len(sources), errors.Join(errs...))
	}
	return nil
}

// sources resolves the requested names, or every configured source.
func (c *IngestCmd) sources(cfg *langspec.Config) ([]langspec.SourceDescriptor, error) {
	if len(c.Names) == 0 {
		return cfg.Sources(), nil
	}
	sources := make([]langspec.SourceDescriptor, 0, len(c.Names))
	for _, name := range c.Names {
		src, err := cfg.Source(name)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

func printReport(deps *Dependencies, src langspec.SourceDescriptor, report *langspec.IngestReport, err error) {
	if report == nil {
		fmt.Fprintf(deps.Stderr, "%s: %s\n", src.Name, langspec.ErrorMessage(err))
		return
	}
	if err != nil {
		fmt.Fprintf(deps.Stderr, "%s/%s: %s\n", report.Language, report.Doc, langspec.ErrorMessage(err))
		return
	}

	status := fmt.Sprintf("%d inserted, %d updated, %d unchanged", report.Inserted, report.Updated, report.Unchanged)
	if report.NotModified {
		status = "not modified"
	}
	fmt.Fprintf(deps.Stdout, "%s/%s %s: %d pages (%d fetched, %d cached, %d failed), %s\n",
		report.Language, report.Doc, report.Version,
		report.Fetch.Total, report.Fetch.Fetched, report.Fetch.Cached, report.Fetch.Failed,
		status)
	if report.Duplicates > 0 {
		fmt.Fprintf(deps.Stdout, "  %d duplicate section ids skipped\n", report.Duplicates)
	}
	for _, pe := range report.Errors {
		fmt.Fprintf(deps.Stderr, "  failed: %s: %s\n", pe.URL, pe.Error)
	}
}
