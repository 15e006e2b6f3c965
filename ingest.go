package langspec

import (
	"context"
	"time"
)

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	RunID    string       `json:"runId"`
	Language string       `json:"language"`
	Doc      string       `json:"doc"`
	Version  string       `json:"version"`
	Strategy string       `json:"strategy"`
	Fetch    FetchSummary `json:"fetch"`
	Errors   []PageError  `json:"errors,omitempty"`

	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`

	// Duplicates counts sections skipped because an earlier page of the
	// same run already produced their identifier.
	Duplicates int `json:"duplicates"`

	// NotModified is true when every page was an unchanged placeholder and
	// no sections were written.
	NotModified bool `json:"notModified"`
}

// Sections returns the number of sections classified in the run.
func (r *IngestReport) Sections() int {
	return r.Inserted + r.Updated + r.Unchanged
}

// IngestService ingests configured sources.
type IngestService interface {
	// Ingest fetches, parses and stores one source in a single transaction.
	// Returns EUNAVAILABLE if no page could be fetched.
	Ingest(ctx context.Context, src SourceDescriptor) (*IngestReport, error)
}

// IngestObserver is notified when a run finishes. err is nil on success.
type IngestObserver interface {
	ObserveIngest(report *IngestReport, duration time.Duration, err error)
}
