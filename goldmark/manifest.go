// Package goldmark reads markdown table-of-contents manifests with goldmark.
package goldmark

import (
	"net/url"
	"path"
	"strings"

	"github.com/fwojciec/langspec"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// DefaultManifestFile is the manifest read when a source names none.
const DefaultManifestFile = "SUMMARY.md"

// ParseManifest returns the repository paths of the markdown files linked
// from a manifest, in document order. Link targets are joined onto
// basePath. Links to the manifest itself, absolute URLs and non-markdown
// targets are skipped; repeated targets are kept once.
func ParseManifest(markdown, basePath, manifestFile string) []string {
	if manifestFile == "" {
		manifestFile = DefaultManifestFile
	}

	source := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	seen := make(map[string]bool)
	var files []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		link, ok := n.(*ast.Link)
		if !ok {
			return ast.WalkContinue, nil
		}

		target, ok := manifestTarget(string(link.Destination), manifestFile)
		if !ok {
			return ast.WalkContinue, nil
		}
		file := target
		if basePath != "" {
			file = path.Join(basePath, target)
		}
		if !seen[file] {
			seen[file] = true
			files = append(files, file)
		}
		return ast.WalkContinue, nil
	})
	return files
}

// manifestTarget validates a link destination and returns the relative
// markdown path it refers to.
func manifestTarget(dest, manifestFile string) (string, bool) {
	dest = strings.TrimSpace(dest)
	if dest == "" || strings.HasPrefix(dest, "/") {
		return "", false
	}
	if u, err := url.Parse(dest); err != nil || u.IsAbs() || u.Host != "" {
		return "", false
	}
	dest, _, _ = strings.Cut(dest, "#")
	if !strings.HasSuffix(dest, ".md") {
		return "", false
	}
	if path.Base(dest) == manifestFile {
		return "", false
	}
	return path.Clean(dest), true
}

// Ensure Manifest implements langspec.ManifestParser at compile time.
var _ langspec.ManifestParser = Manifest{}

// Manifest parses manifests with ParseManifest.
type Manifest struct{}

// ParseManifest returns the markdown files linked from content.
func (Manifest) ParseManifest(content, basePath, manifestFile string) []string {
	return ParseManifest(content, basePath, manifestFile)
}
