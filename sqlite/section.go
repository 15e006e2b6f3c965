package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fwojciec/langspec"
)

// Compile-time interface verification.
var (
	_ langspec.SectionService = (*SectionService)(nil)
	_ langspec.SectionWriter  = (*sectionWriter)(nil)
)

// bm25 column weights: title, section path, body.
const rankExpr = "bm25(fts_sections, 10.0, 5.0, 1.0)"

// SectionService implements langspec.SectionService using SQLite.
type SectionService struct {
	db *DB
}

// NewSectionService creates a new SectionService.
func NewSectionService(db *DB) *SectionService {
	return &SectionService{db: db}
}

// WithTx runs fn inside a transaction. The transaction commits if fn
// returns nil and rolls back otherwise.
func (s *SectionService) WithTx(ctx context.Context, fn func(w langspec.SectionWriter) error) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&sectionWriter{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// sectionWriter writes snapshots and sections within a transaction.
type sectionWriter struct {
	tx *sql.Tx
}

// UpsertSnapshot inserts a snapshot or refreshes the fetch time and ETag of
// an existing one.
func (w *sectionWriter) UpsertSnapshot(ctx context.Context, snapshot *langspec.Snapshot) error {
	if snapshot.Language == "" || snapshot.Doc == "" || snapshot.Version == "" {
		return langspec.Errorf(langspec.EINVALID, "snapshot language, doc and version required")
	}

	_, err := w.tx.ExecContext(ctx, `
		INSERT INTO snapshots (language, doc, version, fetched_at, etag, source_url)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(language, doc, version) DO UPDATE SET
			fetched_at = excluded.fetched_at,
			etag = excluded.etag
	`, snapshot.Language, snapshot.Doc, snapshot.Version,
		formatRFC3339(snapshot.FetchedAt), snapshot.ETag, snapshot.SourceURL)
	return err
}

// UpsertSection stores a section unless an identical one already exists.
// The stored content hash decides the outcome: absent inserts, equal is a
// no-op, different replaces every column.
func (w *sectionWriter) UpsertSection(ctx context.Context, section *langspec.Section) (langspec.UpsertResult, error) {
	if err := section.Validate(); err != nil {
		return "", err
	}

	var existing string
	err := w.tx.QueryRowContext(ctx, `
		SELECT content_hash FROM sections
		WHERE language = ? AND doc = ? AND version = ? AND section_id = ?
	`, section.Language, section.Doc, section.Version, section.SectionID).Scan(&existing)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = w.tx.ExecContext(ctx, `
			INSERT INTO sections (
				language, doc, version, section_id, title, section_path,
				canonical_url, excerpt, fulltext, content_hash, source_policy
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, section.Language, section.Doc, section.Version, section.SectionID,
			section.Title, section.SectionPath, section.CanonicalURL,
			section.Excerpt, section.Fulltext, section.ContentHash, string(section.SourcePolicy))
		if err != nil {
			return "", err
		}
		return langspec.Inserted, nil

	case err != nil:
		return "", err

	case existing == section.ContentHash:
		return langspec.Unchanged, nil
	}

	_, err = w.tx.ExecContext(ctx, `
		UPDATE sections SET
			title = ?, section_path = ?, canonical_url = ?, excerpt = ?,
			fulltext = ?, content_hash = ?, source_policy = ?
		WHERE language = ? AND doc = ? AND version = ? AND section_id = ?
	`, section.Title, section.SectionPath, section.CanonicalURL, section.Excerpt,
		section.Fulltext, section.ContentHash, string(section.SourcePolicy),
		section.Language, section.Doc, section.Version, section.SectionID)
	if err != nil {
		return "", err
	}
	return langspec.Updated, nil
}

// LatestSnapshot returns the most recently fetched snapshot of a language.
// An empty doc matches any doc. Returns ENOTFOUND if none exists.
func (s *SectionService) LatestSnapshot(ctx context.Context, language, doc string) (*langspec.Snapshot, error) {
	query := `
		SELECT language, doc, version, fetched_at, COALESCE(etag, ''), source_url
		FROM snapshots
		WHERE language = ?`
	args := []any{language}
	if doc != "" {
		query += " AND doc = ?"
		args = append(args, doc)
	}
	query += " ORDER BY fetched_at DESC, id DESC LIMIT 1"

	var snapshot langspec.Snapshot
	var fetchedAt string
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&snapshot.Language, &snapshot.Doc, &snapshot.Version,
		&fetchedAt, &snapshot.ETag, &snapshot.SourceURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, langspec.Errorf(langspec.ENOTFOUND, "No indexed data for language: %s", language)
	}
	if err != nil {
		return nil, err
	}

	if snapshot.FetchedAt, err = parseRFC3339(fetchedAt, "fetched_at"); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// SearchSections runs a ranked full-text search, best match first. Without
// a version the latest snapshot of the language (and doc, if given) is
// searched. Each citation carries a snippet centered on the first query
// term, cut from the full text when the source policy allows it and from
// the excerpt otherwise.
func (s *SectionService) SearchSections(ctx context.Context, query string, opts langspec.SearchOptions) ([]langspec.Citation, error) {
	if strings.TrimSpace(query) == "" {
		return nil, langspec.Errorf(langspec.EINVALID, "search query required")
	}
	if opts.Language == "" {
		return nil, langspec.Errorf(langspec.EINVALID, "language required")
	}

	if opts.Version == "" {
		latest, err := s.LatestSnapshot(ctx, opts.Language, opts.Doc)
		if err != nil {
			return nil, err
		}
		opts.Version = latest.Version
		opts.Doc = latest.Doc
	} else if err := s.requireSnapshot(ctx, opts.Language, opts.Version, opts.Doc); err != nil {
		return nil, err
	}

	limit := opts.Limit
	switch {
	case limit <= 0:
		limit = langspec.DefaultSearchLimit
	case limit > langspec.MaxSearchLimit:
		limit = langspec.MaxSearchLimit
	}

	citations, err := s.search(ctx, query, query, opts, limit)
	if err != nil {
		quoted := quoteQuery(query)
		if quoted == "" || quoted == query {
			return nil, langspec.Errorf(langspec.EINVALID, "invalid search query %q: %v", query, err)
		}
		if citations, err = s.search(ctx, quoted, query, opts, limit); err != nil {
			return nil, langspec.Errorf(langspec.EINVALID, "invalid search query %q: %v", query, err)
		}
	}
	return citations, nil
}

// requireSnapshot returns ENOTFOUND unless a snapshot of language at
// version (and doc, if given) is stored.
func (s *SectionService) requireSnapshot(ctx context.Context, language, version, doc string) error {
	query := "SELECT 1 FROM snapshots WHERE language = ? AND version = ?"
	args := []any{language, version}
	if doc != "" {
		query += " AND doc = ?"
		args = append(args, doc)
	}

	var one int
	err := s.db.QueryRowContext(ctx, query+" LIMIT 1", args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		if doc != "" {
			return langspec.Errorf(langspec.ENOTFOUND, "No indexed data for %s/%s/%s", language, doc, version)
		}
		return langspec.Errorf(langspec.ENOTFOUND, "No indexed data for %s/%s", language, version)
	}
	return err
}

// search runs match against the index; snippets are centered on terms.
func (s *SectionService) search(ctx context.Context, match, terms string, opts langspec.SearchOptions, limit int) ([]langspec.Citation, error) {
	var query strings.Builder
	args := []any{match, opts.Language, opts.Version}

	query.WriteString(`
		SELECT s.language, s.doc, s.version, s.section_id, s.title, s.section_path,
			s.canonical_url, s.excerpt, s.fulltext, s.source_policy, ` + rankExpr + ` AS score
		FROM fts_sections
		JOIN sections s ON s.id = fts_sections.rowid
		WHERE fts_sections MATCH ? AND s.language = ? AND s.version = ?`)
	if opts.Doc != "" {
		query.WriteString(" AND s.doc = ?")
		args = append(args, opts.Doc)
	}
	if opts.PathPrefix != "" {
		query.WriteString(` AND s.section_path LIKE ? ESCAPE '\'`)
		args = append(args, escapeLike(opts.PathPrefix)+"%")
	}
	query.WriteString(" ORDER BY score LIMIT ?")
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	citations := []langspec.Citation{}
	for rows.Next() {
		var c langspec.Citation
		var excerpt, fulltext, policy string
		if err := rows.Scan(&c.Language, &c.Doc, &c.Version, &c.SectionID, &c.Title,
			&c.SectionPath, &c.URL, &excerpt, &fulltext, &policy, &c.Score); err != nil {
			return nil, err
		}
		c.SourcePolicy = langspec.SourcePolicy(policy)

		body := excerpt
		if c.SourcePolicy == langspec.PolicyLocalFulltextOK {
			body = fulltext
		}
		c.Snippet = langspec.ExtractSnippet(body, terms, langspec.SnippetMaxLength)
		citations = append(citations, c)
	}
	return citations, rows.Err()
}

// GetSection returns one section with its citation. An empty version
// resolves to the latest snapshot of the language. Full text is included
// only when the source policy allows it.
func (s *SectionService) GetSection(ctx context.Context, language, version, sectionID string) (*langspec.SectionResult, error) {
	if version == "" {
		latest, err := s.LatestSnapshot(ctx, language, "")
		if err != nil {
			return nil, err
		}
		version = latest.Version
	}

	var section langspec.Section
	var policy string
	err := s.db.QueryRowContext(ctx, `
		SELECT language, doc, version, section_id, title, section_path,
			canonical_url, excerpt, fulltext, content_hash, source_policy
		FROM sections
		WHERE language = ? AND version = ? AND section_id = ?
		ORDER BY id LIMIT 1
	`, language, version, sectionID).Scan(
		&section.Language, &section.Doc, &section.Version, &section.SectionID,
		&section.Title, &section.SectionPath, &section.CanonicalURL,
		&section.Excerpt, &section.Fulltext, &section.ContentHash, &policy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, langspec.Errorf(langspec.ENOTFOUND, "Section not found: %s/%s/%s", language, version, sectionID)
	}
	if err != nil {
		return nil, err
	}
	section.SourcePolicy = langspec.SourcePolicy(policy)

	result := &langspec.SectionResult{
		Citation: langspec.Citation{
			Language:     section.Language,
			Doc:          section.Doc,
			Version:      section.Version,
			SectionID:    section.SectionID,
			Title:        section.Title,
			SectionPath:  section.SectionPath,
			URL:          section.CanonicalURL,
			Snippet:      langspec.ExtractSnippet(section.Excerpt, "", langspec.SnippetMaxLength),
			SourcePolicy: section.SourcePolicy,
		},
		Content: langspec.SectionContent{
			Excerpt:           section.Excerpt,
			IsTruncated:       section.Excerpt != section.Fulltext,
			FulltextAvailable: section.FulltextAvailable(),
		},
	}
	if result.Content.FulltextAvailable {
		result.Content.Fulltext = section.Fulltext
	}
	return result, nil
}

// ListVersions returns every snapshot of a language, newest first.
// Returns ENOTFOUND if the language has none.
func (s *SectionService) ListVersions(ctx context.Context, language string) ([]langspec.VersionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT doc, version, fetched_at, source_url
		FROM snapshots
		WHERE language = ?
		ORDER BY fetched_at DESC, id DESC
	`, language)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []langspec.VersionInfo
	for rows.Next() {
		var v langspec.VersionInfo
		var fetchedAt string
		if err := rows.Scan(&v.Doc, &v.Version, &fetchedAt, &v.SourceURL); err != nil {
			return nil, err
		}
		if v.FetchedAt, err = parseRFC3339(fetchedAt, "fetched_at"); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, langspec.Errorf(langspec.ENOTFOUND, "No indexed data for language: %s", language)
	}
	return versions, nil
}

// ListLanguages returns every indexed language with its docs, ordered by
// language and doc.
func (s *SectionService) ListLanguages(ctx context.Context) ([]langspec.LanguageInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT language, doc
		FROM snapshots
		ORDER BY language, doc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	languages := []langspec.LanguageInfo{}
	for rows.Next() {
		var language, doc string
		if err := rows.Scan(&language, &doc); err != nil {
			return nil, err
		}
		if n := len(languages); n > 0 && languages[n-1].Language == language {
			languages[n-1].Docs = append(languages[n-1].Docs, doc)
			continue
		}
		languages = append(languages, langspec.LanguageInfo{Language: language, Docs: []string{doc}})
	}
	return languages, rows.Err()
}

// ListSections returns every section of a version in insertion order. An
// empty version resolves to the latest snapshot of the language.
func (s *SectionService) ListSections(ctx context.Context, language, version string) ([]*langspec.Section, error) {
	if version == "" {
		latest, err := s.LatestSnapshot(ctx, language, "")
		if err != nil {
			return nil, err
		}
		version = latest.Version
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT language, doc, version, section_id, title, section_path,
			canonical_url, excerpt, fulltext, content_hash, source_policy
		FROM sections
		WHERE language = ? AND version = ?
		ORDER BY id
	`, language, version)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []*langspec.Section
	for rows.Next() {
		var section langspec.Section
		var policy string
		if err := rows.Scan(&section.Language, &section.Doc, &section.Version, &section.SectionID,
			&section.Title, &section.SectionPath, &section.CanonicalURL,
			&section.Excerpt, &section.Fulltext, &section.ContentHash, &policy); err != nil {
			return nil, err
		}
		section.SourcePolicy = langspec.SourcePolicy(policy)
		sections = append(sections, &section)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(sections) == 0 {
		return nil, langspec.Errorf(langspec.ENOTFOUND, "No sections for %s/%s", language, version)
	}
	return sections, nil
}

// quoteQuery rewrites a query into quoted terms so FTS5 treats operator
// characters literally.
func quoteQuery(query string) string {
	tokens := langspec.QueryTokens(query)
	for i, tok := range tokens {
		tokens[i] = `"` + strings.ReplaceAll(tok, `"`, `""`) + `"`
	}
	return strings.Join(tokens, " ")
}

// escapeLike escapes LIKE wildcards in s.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
