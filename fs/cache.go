// Package fs provides a file-based cache of fetched documents.
package fs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/langspec"
)

// Ensure Cache implements langspec.PageCache at compile time.
var _ langspec.PageCache = (*Cache)(nil)

// Cache stores fetched bodies on disk under baseDir/<language>/<doc>/.
// Each entry is a <key>.html body and a <key>.meta.json file where key is
// derived from the URL. Entries are never evicted.
type Cache struct {
	baseDir string
	now     func() time.Time
}

// NewCache creates a new Cache rooted at baseDir.
func NewCache(baseDir string) *Cache {
	return &Cache{
		baseDir: baseDir,
		now:     time.Now,
	}
}

// Key returns the stable cache key of a URL.
func Key(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(sum[:])[:16]
}

func (c *Cache) dir(language, doc string) string {
	return filepath.Join(c.baseDir, url.PathEscape(language), url.PathEscape(doc))
}

func (c *Cache) metaPath(language, doc, rawURL string) string {
	return filepath.Join(c.dir(language, doc), Key(rawURL)+".meta.json")
}

func (c *Cache) contentPath(language, doc, rawURL string) string {
	return filepath.Join(c.dir(language, doc), Key(rawURL)+".html")
}

// Has reports whether an entry exists for the URL.
func (c *Cache) Has(language, doc, rawURL string) bool {
	_, err := os.Stat(c.metaPath(language, doc, rawURL))
	return err == nil
}

// Meta returns the metadata of a cached URL. Unreadable entries are
// treated as missing.
func (c *Cache) Meta(language, doc, rawURL string) (*langspec.CacheMeta, bool) {
	data, err := os.ReadFile(c.metaPath(language, doc, rawURL))
	if err != nil {
		return nil, false
	}
	var meta langspec.CacheMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, false
	}
	return &meta, true
}

// Content returns the cached body of a URL.
func (c *Cache) Content(language, doc, rawURL string) (string, bool) {
	data, err := os.ReadFile(c.contentPath(language, doc, rawURL))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Put overwrites the body and metadata of a URL. Both files are written
// to temporary names first; the metadata is renamed last so Has never
// reports an entry whose body is missing.
func (c *Cache) Put(language, doc, rawURL, content, etag string) error {
	dir := c.dir(language, doc)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	meta, err := json.MarshalIndent(langspec.CacheMeta{
		URL:       rawURL,
		ETag:      etag,
		FetchedAt: c.now().UTC(),
	}, "", "  ")
	if err != nil {
		return err
	}

	contentTmp, err := writeTemp(dir, []byte(content))
	if err != nil {
		return err
	}
	metaTmp, err := writeTemp(dir, meta)
	if err != nil {
		os.Remove(contentTmp)
		return err
	}

	if err := os.Rename(contentTmp, c.contentPath(language, doc, rawURL)); err != nil {
		os.Remove(contentTmp)
		os.Remove(metaTmp)
		return fmt.Errorf("commit cached content: %w", err)
	}
	if err := os.Rename(metaTmp, c.metaPath(language, doc, rawURL)); err != nil {
		os.Remove(metaTmp)
		return fmt.Errorf("commit cache metadata: %w", err)
	}
	return nil
}

// writeTemp writes data to a new temporary file in dir and returns its path.
func writeTemp(dir string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return f.Name(), nil
}
