package langspec

import (
	"path"
	"regexp"
	"strconv"
	"strings"
)

// MaxMarkdownHeadingLevel is the deepest ATX heading treated as a section.
const MaxMarkdownHeadingLevel = 4

var (
	mdHeadingRe    = regexp.MustCompile(`^(#{1,6})[ \t]+(.+?)[ \t]*$`)
	mdClosingRe    = regexp.MustCompile(`[ \t]+#+$`)
	mdAnchorRe     = regexp.MustCompile(`^(.*?)[ \t]*\{#([^}\s]+)\}$`)
	mdFenceRe      = regexp.MustCompile("^[ \t]{0,3}(`{3,}|~{3,})")
	mdAnnotationRe = regexp.MustCompile(`^[ \t]*//[ \t]*(@[A-Za-z][\w-]*.*|\^[?|].*|-{3}cut(-after)?-{3}[ \t]*)$`)
	blankRunRe     = regexp.MustCompile(`\n{3,}`)
	slugStripRe    = regexp.MustCompile(`[^\w\s-]`)
	slugSpaceRe    = regexp.MustCompile(`\s+`)
)

// FrontMatter holds the fields read from a leading front-matter block.
type FrontMatter struct {
	Title     string
	Permalink string
}

// ParseMarkdown splits a markdown document into sections at ATX headings of
// level 1 to 4. Headings inside fenced code blocks are ignored. pageURL is
// recorded on every section and seeds synthesized identifiers.
func ParseMarkdown(content, pageURL string) []ParsedSection {
	fm, body := SplitFrontMatter(normalizeNewlines(content))
	body = StripAnnotations(body)

	var (
		sections []ParsedSection
		stack    HeadingStack
		buf      []string
		inFence  bool
		index    int
		slugSeen = make(map[string]int)
	)

	flush := func() {
		if len(sections) == 0 {
			return
		}
		sections[len(sections)-1].Content = strings.TrimSpace(strings.Join(buf, "\n"))
	}

	for _, line := range strings.Split(body, "\n") {
		if mdFenceRe.MatchString(line) {
			inFence = !inFence
			buf = append(buf, line)
			continue
		}

		level, title, id := 0, "", ""
		if !inFence {
			level, title, id = parseHeadingLine(line)
		}
		if level == 0 || level > MaxMarkdownHeadingLevel {
			buf = append(buf, line)
			continue
		}

		flush()
		buf = buf[:0]

		if id == "" {
			id = uniqueSlug(Slugify(title), slugSeen)
		}
		if id == "" {
			id = StableID(pageURL, title, index)
		}
		sections = append(sections, ParsedSection{
			SectionID:    id,
			Title:        title,
			SectionPath:  stack.Push(level, title),
			HeadingLevel: level,
			PageURL:      pageURL,
		})
		index++
	}
	flush()

	if len(sections) == 0 && fm.Title != "" {
		id := Slugify(fm.Title)
		if id == "" {
			id = permalinkSlug(fm.Permalink)
		}
		if id == "" {
			id = StableID(pageURL, fm.Title, 0)
		}
		sections = append(sections, ParsedSection{
			SectionID:    id,
			Title:        fm.Title,
			SectionPath:  fm.Title,
			Content:      strings.TrimSpace(body),
			HeadingLevel: 1,
			PageURL:      pageURL,
		})
	}

	return sections
}

// parseHeadingLine returns the level, title and explicit anchor of an ATX
// heading line, or a zero level if line is not a heading.
func parseHeadingLine(line string) (level int, title, id string) {
	m := mdHeadingRe.FindStringSubmatch(line)
	if m == nil {
		return 0, "", ""
	}
	title = mdClosingRe.ReplaceAllString(m[2], "")
	if a := mdAnchorRe.FindStringSubmatch(title); a != nil {
		title, id = a[1], a[2]
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, "", ""
	}
	return len(m[1]), title, id
}

// uniqueSlug suffixes repeated slugs within a page with -1, -2, ...
func uniqueSlug(slug string, seen map[string]int) string {
	if slug == "" {
		return ""
	}
	n, ok := seen[slug]
	seen[slug] = n + 1
	if !ok {
		return slug
	}
	return slug + "-" + strconv.Itoa(n)
}

// permalinkSlug returns the slug of the last segment of a front-matter
// permalink, without extension.
func permalinkSlug(permalink string) string {
	p := strings.Trim(permalink, "/")
	if p == "" {
		return ""
	}
	base := path.Base(p)
	return Slugify(strings.TrimSuffix(base, path.Ext(base)))
}

// Slugify lower-cases title, strips every character that is not a word
// character, whitespace or hyphen, and collapses whitespace to hyphens.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugStripRe.ReplaceAllString(s, "")
	s = slugSpaceRe.ReplaceAllString(strings.TrimSpace(s), "-")
	return s
}

// SplitFrontMatter removes a leading dash-delimited block of key: value
// lines and returns the recognized fields with the remaining body.
// Content without a complete block is returned unchanged.
func SplitFrontMatter(content string) (FrontMatter, string) {
	var fm FrontMatter
	if !strings.HasPrefix(content, "---\n") {
		return fm, content
	}

	rest := content[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return fm, content
	}
	after := rest[end+len("\n---"):]
	if after != "" && after[0] != '\n' {
		return fm, content
	}

	for _, line := range strings.Split(rest[:end], "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		switch strings.TrimSpace(key) {
		case "title":
			fm.Title = value
		case "permalink":
			fm.Permalink = value
		}
	}
	return fm, strings.TrimPrefix(after, "\n")
}

// StripAnnotations removes type-checker annotation comments (// @errors,
// // ^?, // ---cut---) from fenced code samples and collapses the blank
// line runs left behind.
func StripAnnotations(body string) string {
	lines := strings.Split(body, "\n")
	out := lines[:0]
	inFence := false
	for _, line := range lines {
		if mdFenceRe.MatchString(line) {
			inFence = !inFence
		} else if inFence && mdAnnotationRe.MatchString(line) {
			continue
		}
		out = append(out, line)
	}
	return blankRunRe.ReplaceAllString(strings.Join(out, "\n"), "\n\n")
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
