package indexer

import (
	"fmt"

	"github.com/maypok86/otter"

	"github.com/mvp-joe/symdex/internal/indexer/extraction"
)

// ResultCache remembers extraction results by content hash so unchanged
// files are not parsed again within a process.
type ResultCache struct {
	cache otter.Cache[string, []extraction.Item]
}

// NewResultCache creates a cache holding at most capacity file results.
func NewResultCache(capacity int) (*ResultCache, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", capacity)
	}
	cache, err := otter.MustBuilder[string, []extraction.Item](capacity).
		CollectStats().
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build result cache: %w", err)
	}
	return &ResultCache{cache: cache}, nil
}

// cacheKey includes the path because component names are derived from it.
func cacheKey(lang extraction.Language, relPath, hash string) string {
	return string(lang) + "\x00" + relPath + "\x00" + hash
}

// Get returns the cached items for a file version.
func (c *ResultCache) Get(lang extraction.Language, relPath, hash string) ([]extraction.Item, bool) {
	if c == nil {
		return nil, false
	}
	return c.cache.Get(cacheKey(lang, relPath, hash))
}

// Set stores the items for a file version.
func (c *ResultCache) Set(lang extraction.Language, relPath, hash string, items []extraction.Item) {
	if c == nil {
		return
	}
	c.cache.Set(cacheKey(lang, relPath, hash), items)
}

// Hits returns the number of successful lookups so far.
func (c *ResultCache) Hits() int64 {
	if c == nil {
		return 0
	}
	return c.cache.Stats().Hits()
}

// Close stops the cache's background goroutines.
func (c *ResultCache) Close() {
	if c != nil {
		c.cache.Close()
	}
}
