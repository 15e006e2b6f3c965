package yaml_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/langspec"
	"github.com/fwojciec/langspec/yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultSources(t *testing.T) {
	t.Parallel()

	cfg, err := yaml.DefaultSources()
	require.NoError(t, err)

	assert.Equal(t, []string{"go", "java", "rust", "typescript", "vitest"}, cfg.Names())

	t.Run("go is a single page", func(t *testing.T) {
		t.Parallel()

		src, err := cfg.Source("go")
		require.NoError(t, err)
		assert.Equal(t, langspec.StrategySinglePage, src.Strategy())
		assert.Equal(t, "https://go.dev/ref/spec", src.URL)
		assert.Equal(t, langspec.PolicyExcerptOnly, src.SourcePolicy)
	})

	t.Run("java has a chapter pattern", func(t *testing.T) {
		t.Parallel()

		src, err := cfg.Source("java")
		require.NoError(t, err)
		assert.Equal(t, langspec.StrategyMultiPage, src.Strategy())
		require.NotNil(t, src.ChapterRegexp())
		assert.True(t, src.ChapterRegexp().MatchString("jls-4.html"))
		assert.Equal(t, "https://docs.oracle.com/javase/specs/jls/se21/html", src.CanonicalBaseURL)
	})

	t.Run("vitest keeps excludes and an empty suffix", func(t *testing.T) {
		t.Parallel()

		src, err := cfg.Source("vitest")
		require.NoError(t, err)
		assert.Equal(t, langspec.StrategyTree, src.Strategy())
		assert.Equal(t, []string{".vitepress", "team", "public"}, src.ExcludePaths)
		require.NotNil(t, src.URLSuffix)
		assert.Empty(t, src.Suffix())
		assert.Equal(t, langspec.PolicyLocalFulltextOK, src.SourcePolicy)
	})
}

func TestLoadSources(t *testing.T) {
	t.Parallel()

	t.Run("loads yaml", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "sources.yaml", `
- name: go
  displayName: Go
  url: https://go.dev/ref/spec
`)
		cfg, err := yaml.LoadSources(path)

		require.NoError(t, err)
		src, err := cfg.Source("go")
		require.NoError(t, err)
		assert.Equal(t, "go-docs", src.Doc)
		assert.Equal(t, langspec.DefaultHeadingSelectors, src.HeadingSelectors)
	})

	t.Run("loads json", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "sources.json", `[
  {"name": "rust", "displayName": "Rust", "github": "rust-lang/reference", "path": "src", "urlSuffix": ".html"}
]`)
		cfg, err := yaml.LoadSources(path)

		require.NoError(t, err)
		src, err := cfg.Source("rust")
		require.NoError(t, err)
		assert.Equal(t, ".html", src.Suffix())
		assert.Equal(t, "src", src.Path)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := yaml.LoadSources(filepath.Join(t.TempDir(), "nope.yaml"))

		assert.Equal(t, langspec.EINVALID, langspec.ErrorCode(err))
		assert.Contains(t, langspec.ErrorMessage(err), "failed to read sources file")
	})

	t.Run("malformed document", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "bad.json", "{ not valid")
		_, err := yaml.LoadSources(path)

		assert.Equal(t, langspec.EINVALID, langspec.ErrorCode(err))
		assert.Contains(t, langspec.ErrorMessage(err), "invalid sources file")
	})

	t.Run("unknown field", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "typo.yaml", `
- name: go
  displayName: Go
  url: https://go.dev/ref/spec
  fetchStrategy: single-html
`)
		_, err := yaml.LoadSources(path)

		assert.Equal(t, langspec.EINVALID, langspec.ErrorCode(err))
	})

	t.Run("reports every validation issue", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "invalid.yaml", `
- name: a
  displayName: A
- name: b
  displayName: B
  url: https://example.com
  github: owner/repo
- name: b
  displayName: B again
  url: https://example.com
`)
		_, err := yaml.LoadSources(path)

		assert.Equal(t, langspec.EINVALID, langspec.ErrorCode(err))
		msg := langspec.ErrorMessage(err)
		assert.Contains(t, msg, "got neither")
		assert.Contains(t, msg, "got both")
		assert.NotContains(t, msg, "duplicate")
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "dup.yaml", `
- name: go
  displayName: Go
  url: https://go.dev/ref/spec
- name: go
  displayName: Go
  url: https://go.dev/ref/spec
`)
		_, err := yaml.LoadSources(path)

		assert.Contains(t, langspec.ErrorMessage(err), `duplicate source name: "go"`)
	})

	t.Run("empty file", func(t *testing.T) {
		t.Parallel()

		_, err := yaml.LoadSources(writeFile(t, "empty.yaml", ""))

		assert.Equal(t, langspec.EINVALID, langspec.ErrorCode(err))
	})
}
