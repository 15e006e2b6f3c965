package goquery

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/langspec"
)

// ExtractLinks returns the chapter links of an index page.
func (p *Parser) ExtractLinks(htmlContent, indexURL string, pattern *regexp.Regexp) ([]string, error) {
	return ExtractChapterLinks(htmlContent, indexURL, pattern)
}

// ExtractChapterLinks returns the absolute URLs of anchors in an index page
// whose href, without fragment, matches pattern. Links keep first-seen
// order and are de-duplicated.
func ExtractChapterLinks(htmlContent, indexURL string, pattern *regexp.Regexp) ([]string, error) {
	base, err := url.Parse(indexURL)
	if err != nil {
		return nil, langspec.Errorf(langspec.EINVALID, "invalid index URL: %v", err)
	}
	if pattern == nil {
		return nil, langspec.Errorf(langspec.EINVALID, "chapter pattern required")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, langspec.Errorf(langspec.EINVALID, "failed to parse HTML: %v", err)
	}

	seen := make(map[string]bool)
	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || isNonHTTPLink(href) {
			return
		}

		target, _, _ := strings.Cut(href, "#")
		if target == "" || !pattern.MatchString(target) {
			return
		}

		resolved := resolveURL(base, target)
		if resolved == "" || seen[resolved] {
			return
		}
		seen[resolved] = true
		links = append(links, resolved)
	})
	return links, nil
}

// resolveURL resolves a relative URL against a base URL.
// Returns empty string if the href cannot be parsed or if the resolved URL
// is the base page itself. Fragments are stripped.
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""

	result := resolved.String()
	baseNoFragment := *base
	baseNoFragment.Fragment = ""
	if result == baseNoFragment.String() {
		return ""
	}
	return result
}

// isNonHTTPLink checks if a href is a non-HTTP link that should be skipped.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:")
}
