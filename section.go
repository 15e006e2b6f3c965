package langspec

import (
	"context"
	"time"
)

// ParsedSection is a heading-bounded unit produced by a structural parser.
// PageURL is empty for single-page sources, absolute for multi-page HTML
// sources and a repository-relative path for tree sources.
type ParsedSection struct {
	SectionID    string `json:"sectionId"`
	Title        string `json:"title"`
	SectionPath  string `json:"sectionPath"`
	Content      string `json:"content"`
	HeadingLevel int    `json:"headingLevel"`
	PageURL      string `json:"pageUrl,omitempty"`
}

// Section is a normalized, persisted section.
// Identity is (Language, Doc, Version, SectionID).
type Section struct {
	Language     string       `json:"language"`
	Doc          string       `json:"doc"`
	Version      string       `json:"version"`
	SectionID    string       `json:"sectionId"`
	Title        string       `json:"title"`
	SectionPath  string       `json:"sectionPath"`
	CanonicalURL string       `json:"canonicalUrl"`
	Excerpt      string       `json:"excerpt"`
	Fulltext     string       `json:"fulltext"`
	ContentHash  string       `json:"contentHash"`
	SourcePolicy SourcePolicy `json:"sourcePolicy"`
}

// Validate returns an error if the section contains invalid fields.
func (s *Section) Validate() error {
	if s.Language == "" {
		return Errorf(EINVALID, "section language required")
	}
	if s.Doc == "" {
		return Errorf(EINVALID, "section doc required")
	}
	if s.Version == "" {
		return Errorf(EINVALID, "section version required")
	}
	if s.SectionID == "" {
		return Errorf(EINVALID, "section id required")
	}
	if !s.SourcePolicy.Valid() {
		return Errorf(EINVALID, "section source policy %q invalid", s.SourcePolicy)
	}
	return nil
}

// FulltextAvailable reports whether the full text may be surfaced.
func (s *Section) FulltextAvailable() bool {
	return s.SourcePolicy == PolicyLocalFulltextOK
}

// Snapshot records the provenance of one ingestion run for a
// (Language, Doc, Version).
type Snapshot struct {
	Language  string    `json:"language"`
	Doc       string    `json:"doc"`
	Version   string    `json:"version"`
	FetchedAt time.Time `json:"fetchedAt"`
	ETag      string    `json:"etag,omitempty"`
	SourceURL string    `json:"sourceUrl"`
}

// UpsertResult classifies a section write.
type UpsertResult string

// UpsertResult constants.
const (
	Inserted  UpsertResult = "inserted"
	Updated   UpsertResult = "updated"
	Unchanged UpsertResult = "unchanged"
)

// Snippet is a window of section text with its character span.
type Snippet struct {
	Text      string `json:"text"`
	StartChar int    `json:"startChar"`
	EndChar   int    `json:"endChar"`
}

// Citation is a retrievable reference to a section.
type Citation struct {
	Language     string       `json:"language"`
	Doc          string       `json:"doc"`
	Version      string       `json:"version"`
	SectionID    string       `json:"sectionId"`
	Title        string       `json:"title"`
	SectionPath  string       `json:"sectionPath"`
	URL          string       `json:"url"`
	Snippet      Snippet      `json:"snippet"`
	SourcePolicy SourcePolicy `json:"sourcePolicy"`
	Score        float64      `json:"score,omitempty"`
}

// SectionContent is the body returned alongside a citation by GetSection.
type SectionContent struct {
	Excerpt           string `json:"excerpt"`
	IsTruncated       bool   `json:"isTruncated"`
	FulltextAvailable bool   `json:"fulltextAvailable"`
	Fulltext          string `json:"fulltext,omitempty"`
}

// SectionResult is the result of GetSection.
type SectionResult struct {
	Citation Citation       `json:"citation"`
	Content  SectionContent `json:"content"`
}

// VersionInfo describes one stored snapshot of a language.
type VersionInfo struct {
	Doc       string    `json:"doc"`
	Version   string    `json:"version"`
	FetchedAt time.Time `json:"fetchedAt"`
	SourceURL string    `json:"sourceUrl"`
}

// LanguageInfo describes a language and the docs indexed for it.
type LanguageInfo struct {
	Language    string   `json:"language"`
	DisplayName string   `json:"displayName,omitempty"`
	Docs        []string `json:"docs"`
	Notes       string   `json:"notes,omitempty"`
}

// SearchOptions configures SearchSections.
type SearchOptions struct {
	Language string `json:"language"`

	// Optional filters. An empty Version resolves to the latest snapshot.
	Version    string `json:"version,omitempty"`
	Doc        string `json:"doc,omitempty"`
	PathPrefix string `json:"pathPrefix,omitempty"`

	Limit int `json:"limit,omitempty"`
}

// Search limits.
const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 50
)

// SectionWriter persists one ingestion run. Implementations apply every
// call made during WithTx atomically.
type SectionWriter interface {
	// UpsertSnapshot creates or updates the snapshot keyed by
	// (language, doc, version).
	UpsertSnapshot(ctx context.Context, snap *Snapshot) error

	// UpsertSection writes the section only if its content hash changed
	// and reports how it was classified.
	UpsertSection(ctx context.Context, section *Section) (UpsertResult, error)
}

// SectionService represents a service for storing and retrieving sections.
type SectionService interface {
	// WithTx runs fn inside a single transaction. If fn returns an error
	// nothing written through w is visible.
	WithTx(ctx context.Context, fn func(w SectionWriter) error) error

	// SearchSections runs a full-text query and returns citations ranked
	// best-first. Title matches weigh more than path matches, which weigh
	// more than body matches.
	// Returns ENOTFOUND if the language has no indexed data.
	SearchSections(ctx context.Context, query string, opts SearchOptions) ([]Citation, error)

	// GetSection retrieves a single section.
	// Returns ENOTFOUND if it does not exist.
	GetSection(ctx context.Context, language, version, sectionID string) (*SectionResult, error)

	// ListVersions returns stored snapshots of a language, newest first.
	// Returns ENOTFOUND if the language has no snapshots.
	ListVersions(ctx context.Context, language string) ([]VersionInfo, error)

	// ListLanguages returns languages with at least one snapshot.
	ListLanguages(ctx context.Context) ([]LanguageInfo, error)

	// LatestSnapshot returns the most recently fetched snapshot of a doc.
	// Returns ENOTFOUND if none exists.
	LatestSnapshot(ctx context.Context, language, doc string) (*Snapshot, error)

	// ListSections returns every section of a language version in
	// insertion order. An empty version resolves to the latest one.
	// Returns ENOTFOUND if nothing is stored.
	ListSections(ctx context.Context, language, version string) ([]*Section, error)
}
