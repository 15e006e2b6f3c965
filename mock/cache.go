package mock

import (
	"sync"
	"time"

	"github.com/fwojciec/langspec"
)

var _ langspec.PageCache = (*PageCache)(nil)

// PageCache is a mock implementation of langspec.PageCache.
type PageCache struct {
	HasFn     func(language, doc, url string) bool
	MetaFn    func(language, doc, url string) (*langspec.CacheMeta, bool)
	ContentFn func(language, doc, url string) (string, bool)
	PutFn     func(language, doc, url, content, etag string) error
}

func (c *PageCache) Has(language, doc, url string) bool {
	return c.HasFn(language, doc, url)
}

func (c *PageCache) Meta(language, doc, url string) (*langspec.CacheMeta, bool) {
	return c.MetaFn(language, doc, url)
}

func (c *PageCache) Content(language, doc, url string) (string, bool) {
	return c.ContentFn(language, doc, url)
}

func (c *PageCache) Put(language, doc, url, content, etag string) error {
	return c.PutFn(language, doc, url, content, etag)
}

var _ langspec.PageCache = (*MemoryCache)(nil)

// MemoryCache is an in-memory langspec.PageCache.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	meta    langspec.CacheMeta
	content string
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

func memoryKey(language, doc, url string) string {
	return language + "\x00" + doc + "\x00" + url
}

func (c *MemoryCache) Has(language, doc, url string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[memoryKey(language, doc, url)]
	return ok
}

func (c *MemoryCache) Meta(language, doc, url string) (*langspec.CacheMeta, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[memoryKey(language, doc, url)]
	if !ok {
		return nil, false
	}
	meta := e.meta
	return &meta, true
}

func (c *MemoryCache) Content(language, doc, url string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[memoryKey(language, doc, url)]
	return e.content, ok
}

func (c *MemoryCache) Put(language, doc, url, content, etag string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[memoryKey(language, doc, url)] = memoryEntry{
		meta:    langspec.CacheMeta{URL: url, ETag: etag, FetchedAt: time.Now().UTC()},
		content: content,
	}
	return nil
}
