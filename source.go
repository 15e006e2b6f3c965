package langspec

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// SourcePolicy controls whether a section's full text may be surfaced
// beyond its excerpt.
type SourcePolicy string

// SourcePolicy constants.
const (
	PolicyExcerptOnly     SourcePolicy = "excerpt_only"
	PolicyLocalFulltextOK SourcePolicy = "local_fulltext_ok"
)

// Valid reports whether p is a known policy.
func (p SourcePolicy) Valid() bool {
	return p == PolicyExcerptOnly || p == PolicyLocalFulltextOK
}

// Strategy identifies how a source is fetched. It is inferred from the
// shape of a SourceDescriptor and never configured directly.
type Strategy int

// Strategy constants.
const (
	StrategySinglePage Strategy = iota + 1
	StrategyMultiPage
	StrategyTree
)

// String returns the strategy name used in logs.
func (s Strategy) String() string {
	switch s {
	case StrategySinglePage:
		return "single-page"
	case StrategyMultiPage:
		return "multi-page"
	case StrategyTree:
		return "tree"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// Default values applied when a descriptor is resolved.
const (
	DefaultHeadingSelectors = "h2, h3, h4"
	DefaultURLSuffix        = ".html"
)

var (
	githubRepoRe      = regexp.MustCompile(`^[a-zA-Z0-9_.-]+/[a-zA-Z0-9_.-]+$`)
	headingSelectorRe = regexp.MustCompile(`^h[1-6](\[[^\]]*\])?$`)
)

// SourceDescriptor describes one specification document and where to get it.
// Exactly one of URL or GitHub must be set.
type SourceDescriptor struct {
	Name             string       `json:"name"`
	DisplayName      string       `json:"displayName"`
	URL              string       `json:"url,omitempty"`
	GitHub           string       `json:"github,omitempty"` // "owner/repo"
	Doc              string       `json:"doc,omitempty"`
	DocDisplayName   string       `json:"docDisplayName,omitempty"`
	SourcePolicy     SourcePolicy `json:"sourcePolicy,omitempty"`
	HeadingSelectors string       `json:"headingSelectors,omitempty"`
	Notes            string       `json:"notes,omitempty"`

	// Multi-page HTML sources.
	ChapterPattern string `json:"chapterPattern,omitempty"`

	// GitHub markdown sources.
	Path         string   `json:"path,omitempty"`
	ManifestFile string   `json:"manifestFile,omitempty"`
	ExcludePaths []string `json:"excludePaths,omitempty"`

	// Canonical URL construction. A nil URLSuffix means DefaultURLSuffix;
	// an empty one means no suffix.
	CanonicalBaseURL string  `json:"canonicalBaseUrl,omitempty"`
	URLSuffix        *string `json:"urlSuffix,omitempty"`

	chapterRe *regexp.Regexp
}

// Validate returns an EINVALID error listing every problem with the descriptor.
func (d SourceDescriptor) Validate() error {
	var issues []string

	if strings.TrimSpace(d.Name) == "" {
		issues = append(issues, "name required")
	}
	if strings.TrimSpace(d.DisplayName) == "" {
		issues = append(issues, "displayName required")
	}

	switch {
	case d.URL == "" && d.GitHub == "":
		issues = append(issues, `exactly one of "url" or "github" must be provided (got neither)`)
	case d.URL != "" && d.GitHub != "":
		issues = append(issues, `exactly one of "url" or "github" must be provided (got both)`)
	}

	if d.URL != "" && !isHTTPURL(d.URL) {
		issues = append(issues, fmt.Sprintf("url %q must be an absolute http(s) URL", d.URL))
	}
	if d.GitHub != "" && !githubRepoRe.MatchString(d.GitHub) {
		issues = append(issues, fmt.Sprintf(`github %q must be in "owner/repo" format`, d.GitHub))
	}
	if d.CanonicalBaseURL != "" && !isHTTPURL(d.CanonicalBaseURL) {
		issues = append(issues, fmt.Sprintf("canonicalBaseUrl %q must be an absolute http(s) URL", d.CanonicalBaseURL))
	}
	if d.SourcePolicy != "" && !d.SourcePolicy.Valid() {
		issues = append(issues, fmt.Sprintf("sourcePolicy %q must be %q or %q", d.SourcePolicy, PolicyExcerptOnly, PolicyLocalFulltextOK))
	}
	if d.ChapterPattern != "" {
		if _, err := regexp.Compile(d.ChapterPattern); err != nil {
			issues = append(issues, fmt.Sprintf("chapterPattern must be a valid regular expression: %v", err))
		}
	}
	if d.HeadingSelectors != "" {
		for _, sel := range strings.Split(d.HeadingSelectors, ",") {
			if !headingSelectorRe.MatchString(strings.TrimSpace(sel)) {
				issues = append(issues, fmt.Sprintf("headingSelectors entry %q must select h1-h6 elements", strings.TrimSpace(sel)))
			}
		}
	}

	if len(issues) == 0 {
		return nil
	}
	name := d.Name
	if name == "" {
		name = "(unnamed)"
	}
	return Errorf(EINVALID, "source %q: %s", name, strings.Join(issues, "; "))
}

// Strategy infers the fetch strategy from the descriptor shape.
func (d SourceDescriptor) Strategy() Strategy {
	switch {
	case d.GitHub != "":
		return StrategyTree
	case d.ChapterPattern != "":
		return StrategyMultiPage
	default:
		return StrategySinglePage
	}
}

// Owner returns the GitHub repository owner.
func (d SourceDescriptor) Owner() string {
	owner, _, _ := strings.Cut(d.GitHub, "/")
	return owner
}

// Repo returns the GitHub repository name.
func (d SourceDescriptor) Repo() string {
	_, repo, _ := strings.Cut(d.GitHub, "/")
	return repo
}

// Suffix returns the canonical URL suffix for tree sources.
func (d SourceDescriptor) Suffix() string {
	if d.URLSuffix == nil {
		return DefaultURLSuffix
	}
	return *d.URLSuffix
}

// ChapterRegexp returns the compiled chapter pattern, or nil if none is set.
func (d SourceDescriptor) ChapterRegexp() *regexp.Regexp {
	if d.chapterRe != nil || d.ChapterPattern == "" {
		return d.chapterRe
	}
	re, err := regexp.Compile(d.ChapterPattern)
	if err != nil {
		return nil
	}
	return re
}

// Resolve returns a copy of a validated descriptor with defaults applied.
func (d SourceDescriptor) Resolve() SourceDescriptor {
	if d.Doc == "" {
		d.Doc = d.Name + "-docs"
	}
	if d.DocDisplayName == "" {
		d.DocDisplayName = d.DisplayName
	}
	if d.HeadingSelectors == "" {
		d.HeadingSelectors = DefaultHeadingSelectors
	}
	if d.SourcePolicy == "" {
		d.SourcePolicy = PolicyExcerptOnly
		if d.Strategy() == StrategyTree {
			d.SourcePolicy = PolicyLocalFulltextOK
		}
	}
	d.ExcludePaths = append([]string(nil), d.ExcludePaths...)

	switch d.Strategy() {
	case StrategySinglePage:
		if d.CanonicalBaseURL == "" {
			d.CanonicalBaseURL = d.URL
		}
	case StrategyMultiPage:
		d.chapterRe = regexp.MustCompile(d.ChapterPattern)
		if d.CanonicalBaseURL == "" {
			d.CanonicalBaseURL = indexDir(d.URL)
		}
	case StrategyTree:
		if d.CanonicalBaseURL == "" {
			// Without a published site, cite the rendered file on GitHub.
			d.CanonicalBaseURL = "https://github.com/" + d.GitHub + "/blob/HEAD"
			if d.Path != "" {
				d.CanonicalBaseURL += "/" + strings.Trim(d.Path, "/")
			}
			if d.URLSuffix == nil {
				md := ".md"
				d.URLSuffix = &md
			}
		}
	}
	d.CanonicalBaseURL = strings.TrimSuffix(d.CanonicalBaseURL, "/")
	return d
}

// indexDir strips the last path element (e.g. index.html) from rawURL.
func indexDir(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if i := strings.LastIndex(u.Path, "/"); i >= 0 {
		u.Path = u.Path[:i]
	}
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimSuffix(u.String(), "/")
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Config is the validated, immutable set of configured sources.
// It is built once at process start and shared read-only.
type Config struct {
	sources []SourceDescriptor
	byName  map[string]int
}

// NewConfig validates every descriptor, rejects duplicate names and resolves
// defaults. All validation problems are reported in a single EINVALID error.
func NewConfig(sources []SourceDescriptor) (*Config, error) {
	var issues []string
	seen := make(map[string]int, len(sources))
	resolved := make([]SourceDescriptor, 0, len(sources))

	for i := range sources {
		src := sources[i]
		if err := src.Validate(); err != nil {
			issues = append(issues, ErrorMessage(err))
			continue
		}
		if _, ok := seen[src.Name]; ok {
			issues = append(issues, fmt.Sprintf("duplicate source name: %q", src.Name))
			continue
		}
		seen[src.Name] = len(resolved)
		resolved = append(resolved, src.Resolve())
	}

	if len(issues) > 0 {
		return nil, Errorf(EINVALID, "invalid sources:\n  - %s", strings.Join(issues, "\n  - "))
	}
	return &Config{sources: resolved, byName: seen}, nil
}

// Sources returns all sources in configuration order.
func (c *Config) Sources() []SourceDescriptor {
	return append([]SourceDescriptor(nil), c.sources...)
}

// Source returns the source with the given name.
// Returns ENOTFOUND if no such source is configured.
func (c *Config) Source(name string) (SourceDescriptor, error) {
	i, ok := c.byName[name]
	if !ok {
		return SourceDescriptor{}, Errorf(ENOTFOUND, "unknown source %q. Supported: %s", name, strings.Join(c.Names(), ", "))
	}
	return c.sources[i], nil
}

// Names returns configured source names in configuration order.
func (c *Config) Names() []string {
	names := make([]string, len(c.sources))
	for i, src := range c.sources {
		names[i] = src.Name
	}
	return names
}

// Languages groups configured docs by language in configuration order.
func (c *Config) Languages() []LanguageInfo {
	var langs []LanguageInfo
	index := make(map[string]int)
	for _, src := range c.sources {
		i, ok := index[src.Name]
		if !ok {
			i = len(langs)
			index[src.Name] = i
			langs = append(langs, LanguageInfo{Language: src.Name, DisplayName: src.DisplayName})
		}
		langs[i].Docs = append(langs[i].Docs, src.Doc)
		if src.Notes != "" {
			langs[i].Notes = src.Notes
		}
	}
	return langs
}
