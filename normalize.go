package langspec

import (
	"strings"
	"unicode/utf8"
)

// ExcerptMaxLength is the maximum excerpt length in characters.
const ExcerptMaxLength = 1200

// Ellipsis marks truncated text.
const Ellipsis = "..."

// NormalizeMeta carries the per-run values the normalizer needs.
type NormalizeMeta struct {
	Language     string
	Doc          string
	Version      string
	BaseURL      string
	SourcePolicy SourcePolicy

	// Tree sources only: repository prefix stripped from page paths and the
	// suffix appended to the stripped path.
	PathPrefix string
	URLSuffix  string
}

// NormalizeMetaFor builds the normalizer metadata of a resolved descriptor.
func NormalizeMetaFor(src SourceDescriptor, version string) NormalizeMeta {
	return NormalizeMeta{
		Language:     src.Name,
		Doc:          src.Doc,
		Version:      version,
		BaseURL:      src.CanonicalBaseURL,
		SourcePolicy: src.SourcePolicy,
		PathPrefix:   src.Path,
		URLSuffix:    src.Suffix(),
	}
}

// Normalize converts parsed sections into persistable sections.
func Normalize(parsed []ParsedSection, meta NormalizeMeta) []*Section {
	policy := meta.SourcePolicy
	if policy == "" {
		policy = PolicyExcerptOnly
	}

	sections := make([]*Section, 0, len(parsed))
	for _, p := range parsed {
		sections = append(sections, &Section{
			Language:     meta.Language,
			Doc:          meta.Doc,
			Version:      meta.Version,
			SectionID:    p.SectionID,
			Title:        p.Title,
			SectionPath:  p.SectionPath,
			CanonicalURL: CanonicalURL(meta.BaseURL, p.PageURL, p.SectionID, meta.PathPrefix, meta.URLSuffix),
			Excerpt:      Excerpt(p.Content, ExcerptMaxLength),
			Fulltext:     p.Content,
			ContentHash:  HashContent(p.Content),
			SourcePolicy: policy,
		})
	}
	return sections
}

// CanonicalURL derives the citable address of a section.
//
//   - no page URL (single page): {baseURL}#{sectionID}
//   - absolute page URL (multi-page HTML): {pageURL}#{sectionID}
//   - repository path (tree): {baseURL}/{path without prefix and .md}{suffix}#{sectionID}
func CanonicalURL(baseURL, pageURL, sectionID, pathPrefix, suffix string) string {
	if pageURL == "" {
		return baseURL + "#" + sectionID
	}
	if strings.HasPrefix(pageURL, "http://") || strings.HasPrefix(pageURL, "https://") {
		return pageURL + "#" + sectionID
	}

	page := pageURL
	if pathPrefix != "" {
		prefix := strings.TrimSuffix(pathPrefix, "/") + "/"
		page = strings.TrimPrefix(page, prefix)
	}
	page = strings.TrimSuffix(page, ".md")
	return strings.TrimSuffix(baseURL, "/") + "/" + page + suffix + "#" + sectionID
}

// Excerpt returns text unchanged when it is at most maxLen characters long,
// otherwise its first maxLen characters followed by an ellipsis.
func Excerpt(text string, maxLen int) string {
	if len(text) <= maxLen || utf8.RuneCountInString(text) <= maxLen {
		return text
	}
	return string([]rune(text)[:maxLen]) + Ellipsis
}
