package goquery_test

import (
	"testing"

	"github.com/fwojciec/langspec"
	"github.com/fwojciec/langspec/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_Parse(t *testing.T) {
	t.Parallel()

	t.Run("builds nested paths from explicit ids", func(t *testing.T) {
		t.Parallel()

		html := `<h2 id="Types">Types</h2><p>Type content here</p><h3 id="Int">Int</h3><p>Int content here</p>`

		sections, err := goquery.NewParser().Parse(html, "https://go.dev/ref/spec", "")

		require.NoError(t, err)
		require.Len(t, sections, 2)

		assert.Equal(t, "Types", sections[0].SectionID)
		assert.Equal(t, "Types", sections[0].Title)
		assert.Equal(t, "Types", sections[0].SectionPath)
		assert.Equal(t, "Type content here", sections[0].Content)
		assert.Equal(t, 2, sections[0].HeadingLevel)
		assert.Equal(t, "https://go.dev/ref/spec", sections[0].PageURL)

		assert.Equal(t, "Int", sections[1].SectionID)
		assert.Equal(t, "Types > Int", sections[1].SectionPath)
		assert.Equal(t, "Int content here", sections[1].Content)
		assert.Equal(t, 3, sections[1].HeadingLevel)
	})

	t.Run("body stops at the next heading of any level", func(t *testing.T) {
		t.Parallel()

		html := `<h3 id="a">A</h3><p>one</p><p>two</p><h2 id="b">B</h2><p>three</p>`

		sections, err := goquery.NewParser().Parse(html, "https://example.com/", "")

		require.NoError(t, err)
		require.Len(t, sections, 2)
		assert.Equal(t, "one\n\ntwo", sections[0].Content)
		assert.Equal(t, "three", sections[1].Content)
		assert.Equal(t, "B", sections[1].SectionPath)
	})

	t.Run("skipped levels nest under the nearest shallower heading", func(t *testing.T) {
		t.Parallel()

		html := `<h2 id="a">A</h2><h4 id="c">C</h4><h3 id="b">B</h3>`

		sections, err := goquery.NewParser().Parse(html, "https://example.com/", "")

		require.NoError(t, err)
		require.Len(t, sections, 3)
		assert.Equal(t, "A > C", sections[1].SectionPath)
		assert.Equal(t, "A > B", sections[2].SectionPath)
	})

	t.Run("heading followed by heading has empty body", func(t *testing.T) {
		t.Parallel()

		html := `<h2 id="a">A</h2><h3 id="b">B</h3><p>text</p>`

		sections, err := goquery.NewParser().Parse(html, "https://example.com/", "")

		require.NoError(t, err)
		require.Len(t, sections, 2)
		assert.Empty(t, sections[0].Content)
	})

	t.Run("headings without ids get stable generated ids", func(t *testing.T) {
		t.Parallel()

		html := `<h2>Same</h2><p>x</p><h2>Same</h2><p>y</p>`
		page := "https://example.com/page.html"

		first, err := goquery.NewParser().Parse(html, page, "")
		require.NoError(t, err)
		second, err := goquery.NewParser().Parse(html, page, "")
		require.NoError(t, err)

		require.Len(t, first, 2)
		assert.Equal(t, langspec.StableID(page, "Same", 0), first[0].SectionID)
		assert.Equal(t, langspec.StableID(page, "Same", 1), first[1].SectionID)
		assert.NotEqual(t, first[0].SectionID, first[1].SectionID)
		assert.Regexp(t, `^gen-[0-9a-f]{12}$`, first[0].SectionID)
		assert.Equal(t, first[0].SectionID, second[0].SectionID)
	})

	t.Run("respects configured selectors", func(t *testing.T) {
		t.Parallel()

		html := `<h1 id="top">Top</h1><p>intro</p><h2 id="sub">Sub</h2><p>body</p>`

		sections, err := goquery.NewParser().Parse(html, "https://example.com/", "h1")

		require.NoError(t, err)
		require.Len(t, sections, 1)
		assert.Equal(t, "top", sections[0].SectionID)
		assert.Equal(t, "intro\n\nSub\n\nbody", sections[0].Content)
	})

	t.Run("includes bare text between headings", func(t *testing.T) {
		t.Parallel()

		html := `<div><h2 id="a">A</h2>loose text<pre>code</pre></div>`

		sections, err := goquery.NewParser().Parse(html, "https://example.com/", "")

		require.NoError(t, err)
		require.Len(t, sections, 1)
		assert.Equal(t, "loose text\n\ncode", sections[0].Content)
	})

	t.Run("returns nothing for a page without headings", func(t *testing.T) {
		t.Parallel()

		sections, err := goquery.NewParser().Parse(`<p>just text</p>`, "https://example.com/", "")

		require.NoError(t, err)
		assert.Empty(t, sections)
	})
}
