// Package goquery parses HTML specification pages with goquery.
package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/langspec"
	"golang.org/x/net/html"
)

// Ensure Parser implements langspec.HTMLParser at compile time.
var _ langspec.HTMLParser = (*Parser)(nil)

// Parser extracts heading-bounded sections and chapter links from HTML
// documents.
type Parser struct{}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse returns the sections of an HTML page in document order. Headings
// are matched by the comma separated CSS selectors, defaulting to h2-h4.
// A section body is the text of the heading's following siblings up to the
// next matching heading of any level.
func (p *Parser) Parse(htmlContent, pageURL, selectors string) ([]langspec.ParsedSection, error) {
	if strings.TrimSpace(selectors) == "" {
		selectors = langspec.DefaultHeadingSelectors
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, langspec.Errorf(langspec.EINVALID, "failed to parse HTML: %v", err)
	}

	headings := doc.Find(selectors)
	boundary := make(map[*html.Node]bool, headings.Length())
	headings.Each(func(_ int, sel *goquery.Selection) {
		boundary[sel.Get(0)] = true
	})

	var stack langspec.HeadingStack
	sections := make([]langspec.ParsedSection, 0, headings.Length())
	headings.Each(func(i int, sel *goquery.Selection) {
		node := sel.Get(0)
		level := headingLevel(node)
		if level == 0 {
			return
		}
		title := strings.TrimSpace(sel.Text())

		id, _ := sel.Attr("id")
		id = strings.TrimSpace(id)
		if id == "" {
			id = langspec.StableID(pageURL, title, i)
		}

		sections = append(sections, langspec.ParsedSection{
			SectionID:    id,
			Title:        title,
			SectionPath:  stack.Push(level, title),
			Content:      siblingText(node, boundary),
			HeadingLevel: level,
			PageURL:      pageURL,
		})
	})
	return sections, nil
}

// headingLevel returns the level of an h1-h6 element, or 0.
func headingLevel(n *html.Node) int {
	if n.Type != html.ElementNode || len(n.Data) != 2 || n.Data[0] != 'h' {
		return 0
	}
	level := int(n.Data[1] - '0')
	if level < 1 || level > 6 {
		return 0
	}
	return level
}

// siblingText joins the non-empty text of the nodes following n until the
// next boundary node.
func siblingText(n *html.Node, boundary map[*html.Node]bool) string {
	var parts []string
	for next := n.NextSibling; next != nil; next = next.NextSibling {
		if boundary[next] {
			break
		}
		var text string
		switch next.Type {
		case html.TextNode:
			text = next.Data
		case html.ElementNode:
			text = goquery.NewDocumentFromNode(next).Text()
		default:
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}
