package langspec

import "regexp"

// HTMLParser extracts sections and chapter links from HTML pages.
type HTMLParser interface {
	// Parse returns the sections of a page. selectors is a comma separated
	// list of heading selectors; empty means DefaultHeadingSelectors.
	Parse(content, pageURL, selectors string) ([]ParsedSection, error)

	// ExtractLinks returns absolute chapter URLs linked from an index page.
	ExtractLinks(content, indexURL string, pattern *regexp.Regexp) ([]string, error)
}

// ManifestParser extracts the ordered file list of a markdown manifest.
type ManifestParser interface {
	ParseManifest(content, basePath, manifestFile string) []string
}
