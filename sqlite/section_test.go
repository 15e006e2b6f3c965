package sqlite_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/langspec"
	"github.com/fwojciec/langspec/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSection(version, id, title, path, text string, policy langspec.SourcePolicy) *langspec.Section {
	return &langspec.Section{
		Language:     "go",
		Doc:          "go-spec",
		Version:      version,
		SectionID:    id,
		Title:        title,
		SectionPath:  path,
		CanonicalURL: "https://go.dev/ref/spec#" + id,
		Excerpt:      langspec.Excerpt(text, langspec.ExcerptMaxLength),
		Fulltext:     text,
		ContentHash:  langspec.HashContent(text),
		SourcePolicy: policy,
	}
}

func newSnapshot(version string, fetchedAt time.Time) *langspec.Snapshot {
	return &langspec.Snapshot{
		Language:  "go",
		Doc:       "go-spec",
		Version:   version,
		FetchedAt: fetchedAt,
		ETag:      `"` + version + `"`,
		SourceURL: "https://go.dev/ref/spec",
	}
}

// seed writes a snapshot and its sections in one transaction.
func seed(t *testing.T, svc *sqlite.SectionService, snapshot *langspec.Snapshot, sections ...*langspec.Section) []langspec.UpsertResult {
	t.Helper()
	var results []langspec.UpsertResult
	err := svc.WithTx(context.Background(), func(w langspec.SectionWriter) error {
		if err := w.UpsertSnapshot(context.Background(), snapshot); err != nil {
			return err
		}
		for _, s := range sections {
			r, err := w.UpsertSection(context.Background(), s)
			if err != nil {
				return err
			}
			results = append(results, r)
		}
		return nil
	})
	require.NoError(t, err)
	return results
}

var day1 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestSectionService_UpsertSection(t *testing.T) {
	t.Parallel()

	t.Run("classifies inserts, no-ops and updates", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewSectionService(setupTestDB(t))
		snap := newSnapshot("v1", day1)

		h1 := newSection("v1", "Types", "Types", "Types", "first body", langspec.PolicyExcerptOnly)
		h1again := newSection("v1", "Types", "Types", "Types", "first body", langspec.PolicyExcerptOnly)
		h2 := newSection("v1", "Types", "Types", "Types", "second body", langspec.PolicyExcerptOnly)

		assert.Equal(t, []langspec.UpsertResult{langspec.Inserted}, seed(t, svc, snap, h1))
		assert.Equal(t, []langspec.UpsertResult{langspec.Unchanged}, seed(t, svc, snap, h1again))
		assert.Equal(t, []langspec.UpsertResult{langspec.Updated}, seed(t, svc, snap, h2))

		sections, err := svc.ListSections(context.Background(), "go", "v1")
		require.NoError(t, err)
		require.Len(t, sections, 1)
		assert.Equal(t, "second body", sections[0].Fulltext)
		assert.Equal(t, langspec.HashContent("second body"), sections[0].ContentHash)
	})

	t.Run("title changes alone are unchanged", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewSectionService(setupTestDB(t))
		snap := newSnapshot("v1", day1)

		seed(t, svc, snap, newSection("v1", "a", "Old", "Old", "body", langspec.PolicyExcerptOnly))
		results := seed(t, svc, snap, newSection("v1", "a", "New", "New", "body", langspec.PolicyExcerptOnly))

		assert.Equal(t, []langspec.UpsertResult{langspec.Unchanged}, results)
	})

	t.Run("versions are independent", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewSectionService(setupTestDB(t))

		seed(t, svc, newSnapshot("v1", day1), newSection("v1", "a", "A", "A", "body", langspec.PolicyExcerptOnly))
		results := seed(t, svc, newSnapshot("v2", day1.Add(time.Hour)), newSection("v2", "a", "A", "A", "body", langspec.PolicyExcerptOnly))

		assert.Equal(t, []langspec.UpsertResult{langspec.Inserted}, results)
	})

	t.Run("rejects invalid sections", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewSectionService(setupTestDB(t))

		err := svc.WithTx(context.Background(), func(w langspec.SectionWriter) error {
			_, err := w.UpsertSection(context.Background(), &langspec.Section{Language: "go"})
			return err
		})

		assert.Equal(t, langspec.EINVALID, langspec.ErrorCode(err))
	})
}

func TestSectionService_WithTx(t *testing.T) {
	t.Parallel()

	t.Run("rolls back every write on error", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewSectionService(setupTestDB(t))
		ctx := context.Background()
		boom := errors.New("boom")

		err := svc.WithTx(ctx, func(w langspec.SectionWriter) error {
			require.NoError(t, w.UpsertSnapshot(ctx, newSnapshot("v1", day1)))
			_, err := w.UpsertSection(ctx, newSection("v1", "a", "A", "A", "body", langspec.PolicyExcerptOnly))
			require.NoError(t, err)
			return boom
		})

		assert.ErrorIs(t, err, boom)

		_, err = svc.LatestSnapshot(ctx, "go", "go-spec")
		assert.Equal(t, langspec.ENOTFOUND, langspec.ErrorCode(err))
		_, err = svc.ListSections(ctx, "go", "v1")
		assert.Equal(t, langspec.ENOTFOUND, langspec.ErrorCode(err))
	})
}

func TestSectionService_Snapshots(t *testing.T) {
	t.Parallel()

	t.Run("upsert refreshes fetch time and etag", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewSectionService(setupTestDB(t))
		ctx := context.Background()

		seed(t, svc, newSnapshot("v1", day1))
		refreshed := newSnapshot("v1", day1.Add(24*time.Hour))
		refreshed.ETag = `"new"`
		seed(t, svc, refreshed)

		latest, err := svc.LatestSnapshot(ctx, "go", "go-spec")
		require.NoError(t, err)
		assert.Equal(t, "v1", latest.Version)
		assert.Equal(t, `"new"`, latest.ETag)
		assert.True(t, day1.Add(24*time.Hour).Equal(latest.FetchedAt))

		versions, err := svc.ListVersions(ctx, "go")
		require.NoError(t, err)
		assert.Len(t, versions, 1)
	})

	t.Run("lists versions newest first", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewSectionService(setupTestDB(t))

		seed(t, svc, newSnapshot("v1", day1))
		seed(t, svc, newSnapshot("v2", day1.Add(48*time.Hour)))

		versions, err := svc.ListVersions(context.Background(), "go")

		require.NoError(t, err)
		require.Len(t, versions, 2)
		assert.Equal(t, "v2", versions[0].Version)
		assert.Equal(t, "go-spec", versions[0].Doc)
		assert.Equal(t, "https://go.dev/ref/spec", versions[0].SourceURL)
		assert.Equal(t, "v1", versions[1].Version)
	})

	t.Run("unknown language is not found", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewSectionService(setupTestDB(t))

		_, err := svc.ListVersions(context.Background(), "cobol")

		assert.Equal(t, langspec.ENOTFOUND, langspec.ErrorCode(err))
		assert.Contains(t, langspec.ErrorMessage(err), "cobol")
	})

	t.Run("lists languages with their docs", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewSectionService(setupTestDB(t))

		seed(t, svc, newSnapshot("v1", day1))
		rust := &langspec.Snapshot{Language: "rust", Doc: "reference", Version: "v1", FetchedAt: day1, SourceURL: "https://github.com/rust-lang/reference"}
		seed(t, svc, rust)
		nomicon := *rust
		nomicon.Doc = "nomicon"
		seed(t, svc, &nomicon)

		languages, err := svc.ListLanguages(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []langspec.LanguageInfo{
			{Language: "go", Docs: []string{"go-spec"}},
			{Language: "rust", Docs: []string{"nomicon", "reference"}},
		}, languages)
	})
}

func TestSectionService_SearchSections(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("ranks title matches above body matches", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewSectionService(setupTestDB(t))
		seed(t, svc, newSnapshot("v1", day1),
			newSection("v1", "Misc", "Miscellaneous", "Miscellaneous", "Values can be sent on channels between goroutines.", langspec.PolicyExcerptOnly),
			newSection("v1", "Channel_types", "Channel types", "Types > Channel types", "A channel provides a mechanism.", langspec.PolicyExcerptOnly),
		)

		citations, err := svc.SearchSections(ctx, "channel", langspec.SearchOptions{Language: "go", Version: "v1"})

		require.NoError(t, err)
		require.Len(t, citations, 2)
		assert.Equal(t, "Channel_types", citations[0].SectionID)
		assert.Equal(t, "https://go.dev/ref/spec#Channel_types", citations[0].URL)
		assert.Less(t, citations[0].Score, citations[1].Score)
	})

	t.Run("searches the latest version when none is given", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewSectionService(setupTestDB(t))
		seed(t, svc, newSnapshot("v1", day1),
			newSection("v1", "old", "Old", "Old", "generics were not here", langspec.PolicyExcerptOnly))
		seed(t, svc, newSnapshot("v2", day1.Add(time.Hour)),
			newSection("v2", "new", "New", "New", "generics arrived", langspec.PolicyExcerptOnly))

		citations, err := svc.SearchSections(ctx, "generics", langspec.SearchOptions{Language: "go"})

		require.NoError(t, err)
		require.Len(t, citations, 1)
		assert.Equal(t, "v2", citations[0].Version)
	})

	t.Run("filters by section path prefix", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewSectionService(setupTestDB(t))
		seed(t, svc, newSnapshot("v1", day1),
			newSection("v1", "a", "Int", "Types > Int", "numeric value", langspec.PolicyExcerptOnly),
			newSection("v1", "b", "Constants", "Expressions > Constants", "numeric constant", langspec.PolicyExcerptOnly),
		)

		citations, err := svc.SearchSections(ctx, "numeric", langspec.SearchOptions{Language: "go", Version: "v1", PathPrefix: "Types"})

		require.NoError(t, err)
		require.Len(t, citations, 1)
		assert.Equal(t, "a", citations[0].SectionID)
	})

	t.Run("retries invalid query syntax as quoted terms", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewSectionService(setupTestDB(t))
		seed(t, svc, newSnapshot("v1", day1),
			newSection("v1", "a", "Select", "Select", "select statement", langspec.PolicyExcerptOnly))

		citations, err := svc.SearchSections(ctx, `"select`, langspec.SearchOptions{Language: "go", Version: "v1"})

		require.NoError(t, err)
		require.Len(t, citations, 1)
	})

	t.Run("clamps the limit", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewSectionService(setupTestDB(t))
		var sections []*langspec.Section
		for i := 0; i < 60; i++ {
			id := fmt.Sprintf("s%d", i)
			sections = append(sections, newSection("v1", id, id, id, "repeated keyword", langspec.PolicyExcerptOnly))
		}
		seed(t, svc, newSnapshot("v1", day1), sections...)

		citations, err := svc.SearchSections(ctx, "keyword", langspec.SearchOptions{Language: "go", Version: "v1", Limit: 500})
		require.NoError(t, err)
		assert.Len(t, citations, langspec.MaxSearchLimit)

		citations, err = svc.SearchSections(ctx, "keyword", langspec.SearchOptions{Language: "go", Version: "v1"})
		require.NoError(t, err)
		assert.Len(t, citations, langspec.DefaultSearchLimit)
	})

	t.Run("snippets come from fulltext only when policy allows", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewSectionService(setupTestDB(t))
		long := strings.Repeat("filler ", 300) + "needle at the end"
		seed(t, svc, newSnapshot("v1", day1),
			newSection("v1", "open", "Open", "Open", long, langspec.PolicyLocalFulltextOK),
			newSection("v1", "closed", "Closed", "Closed", long, langspec.PolicyExcerptOnly),
		)

		citations, err := svc.SearchSections(ctx, "needle", langspec.SearchOptions{Language: "go", Version: "v1"})

		require.NoError(t, err)
		require.Len(t, citations, 2)
		for _, c := range citations {
			switch c.SectionID {
			case "open":
				assert.Contains(t, c.Snippet.Text, "needle")
				assert.True(t, strings.HasPrefix(c.Snippet.Text, "..."))
			case "closed":
				assert.NotContains(t, c.Snippet.Text, "needle")
			}
		}
	})

	t.Run("fails for a language without data", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewSectionService(setupTestDB(t))

		_, err := svc.SearchSections(ctx, "anything", langspec.SearchOptions{Language: "go"})

		assert.Equal(t, langspec.ENOTFOUND, langspec.ErrorCode(err))
	})

	t.Run("unknown version is not found", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewSectionService(setupTestDB(t))
		seed(t, svc, newSnapshot("v1", day1), newSection("v1", "a", "A", "A", "alpha", langspec.PolicyExcerptOnly))

		_, err := svc.SearchSections(ctx, "alpha", langspec.SearchOptions{Language: "go", Version: "v9"})
		assert.Equal(t, langspec.ENOTFOUND, langspec.ErrorCode(err))
		assert.Equal(t, "No indexed data for go/v9", langspec.ErrorMessage(err))

		_, err = svc.SearchSections(ctx, "alpha", langspec.SearchOptions{Language: "rust", Version: "v1"})
		assert.Equal(t, langspec.ENOTFOUND, langspec.ErrorCode(err))

		_, err = svc.SearchSections(ctx, "alpha", langspec.SearchOptions{Language: "go", Version: "v1", Doc: "other"})
		assert.Equal(t, langspec.ENOTFOUND, langspec.ErrorCode(err))
	})

	t.Run("known version without matches is empty", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewSectionService(setupTestDB(t))
		seed(t, svc, newSnapshot("v1", day1), newSection("v1", "a", "A", "A", "alpha", langspec.PolicyExcerptOnly))

		citations, err := svc.SearchSections(ctx, "omega", langspec.SearchOptions{Language: "go", Version: "v1"})

		require.NoError(t, err)
		assert.Empty(t, citations)
	})

	t.Run("index follows updates", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewSectionService(setupTestDB(t))
		snap := newSnapshot("v1", day1)
		seed(t, svc, snap, newSection("v1", "a", "A", "A", "alpha words", langspec.PolicyExcerptOnly))
		seed(t, svc, snap, newSection("v1", "a", "A", "A", "omega words", langspec.PolicyExcerptOnly))

		old, err := svc.SearchSections(ctx, "alpha", langspec.SearchOptions{Language: "go", Version: "v1"})
		require.NoError(t, err)
		assert.Empty(t, old)

		updated, err := svc.SearchSections(ctx, "omega", langspec.SearchOptions{Language: "go", Version: "v1"})
		require.NoError(t, err)
		assert.Len(t, updated, 1)
	})
}

func TestSectionService_GetSection(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("returns citation and content flags", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewSectionService(setupTestDB(t))
		long := strings.Repeat("x", langspec.ExcerptMaxLength+10)
		seed(t, svc, newSnapshot("v1", day1),
			newSection("v1", "long", "Long", "Long", long, langspec.PolicyLocalFulltextOK),
			newSection("v1", "short", "Short", "Short", "brief", langspec.PolicyExcerptOnly),
		)

		got, err := svc.GetSection(ctx, "go", "v1", "long")
		require.NoError(t, err)
		assert.Equal(t, "Long", got.Citation.Title)
		assert.True(t, got.Content.IsTruncated)
		assert.True(t, got.Content.FulltextAvailable)
		assert.Equal(t, long, got.Content.Fulltext)

		got, err = svc.GetSection(ctx, "go", "v1", "short")
		require.NoError(t, err)
		assert.False(t, got.Content.IsTruncated)
		assert.False(t, got.Content.FulltextAvailable)
		assert.Empty(t, got.Content.Fulltext)
		assert.Equal(t, "brief", got.Content.Excerpt)
	})

	t.Run("one character over the excerpt limit is truncated", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewSectionService(setupTestDB(t))
		text := strings.Repeat("y", langspec.ExcerptMaxLength+1)
		seed(t, svc, newSnapshot("v1", day1), newSection("v1", "edge", "Edge", "Edge", text, langspec.PolicyExcerptOnly))

		got, err := svc.GetSection(ctx, "go", "v1", "edge")

		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(got.Content.Excerpt, langspec.Ellipsis))
		assert.True(t, got.Content.IsTruncated)
	})

	t.Run("resolves the latest version when none is given", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewSectionService(setupTestDB(t))
		seed(t, svc, newSnapshot("v1", day1), newSection("v1", "a", "A", "A", "one", langspec.PolicyExcerptOnly))
		seed(t, svc, newSnapshot("v2", day1.Add(time.Hour)), newSection("v2", "a", "A", "A", "two", langspec.PolicyExcerptOnly))

		got, err := svc.GetSection(ctx, "go", "", "a")

		require.NoError(t, err)
		assert.Equal(t, "v2", got.Citation.Version)
	})

	t.Run("missing section is not found", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewSectionService(setupTestDB(t))

		_, err := svc.GetSection(ctx, "go", "v1", "nope")

		assert.Equal(t, langspec.ENOTFOUND, langspec.ErrorCode(err))
		assert.Equal(t, "Section not found: go/v1/nope", langspec.ErrorMessage(err))
	})
}

func TestSectionService_ListSections(t *testing.T) {
	t.Parallel()

	t.Run("preserves insertion order", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewSectionService(setupTestDB(t))
		seed(t, svc, newSnapshot("v1", day1),
			newSection("v1", "z", "Z", "Z", "last letter", langspec.PolicyExcerptOnly),
			newSection("v1", "a", "A", "A", "first letter", langspec.PolicyExcerptOnly),
			newSection("v1", "m", "M", "M", "middle letter", langspec.PolicyExcerptOnly),
		)

		sections, err := svc.ListSections(context.Background(), "go", "")

		require.NoError(t, err)
		var ids []string
		for _, s := range sections {
			ids = append(ids, s.SectionID)
		}
		assert.Equal(t, []string{"z", "a", "m"}, ids)
	})
}
