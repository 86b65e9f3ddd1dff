package optimade

import (
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

const defaultCacheSize = 256

// compileCache is a simple bounded cache mapping (registry snapshot,
// backend, filter string) to compiled queries, so that repeated
// identical filters (common in paginated API traffic) do not incur
// parsing and lowering every time. Keys include the registry snapshot
// ID, so a hot reload implicitly invalidates all cached entries.
//
// Eviction strategy: when the cache reaches its capacity limit the
// entire map is replaced. This is simpler than a true LRU and
// sufficient for the target use-case (a small number of distinct
// filter templates repeated many times).
//
// Cached queries are shared between callers and MUST NOT be modified.
type compileCache struct {
	mu    sync.RWMutex
	items map[uint64]NativeQuery
	max   int
}

func newCompileCache(max int) *compileCache {
	if max <= 0 {
		return &compileCache{max: 0}
	}
	return &compileCache{
		items: make(map[uint64]NativeQuery, max),
		max:   max,
	}
}

func (c *compileCache) get(key uint64) (NativeQuery, bool) {
	if c.max == 0 {
		return nil, false
	}
	c.mu.RLock()
	q, ok := c.items[key]
	c.mu.RUnlock()
	return q, ok
}

func (c *compileCache) put(key uint64, q NativeQuery) {
	if c.max == 0 {
		return
	}
	c.mu.Lock()
	if len(c.items) >= c.max {
		// Evict everything and start fresh rather than tracking
		// individual entry ages.
		c.items = make(map[uint64]NativeQuery, c.max)
	}
	c.items[key] = q
	c.mu.Unlock()
}

// cacheKey hashes the snapshot ID, backend, and filter string into a
// single cache key.
func cacheKey(snapshot uuid.UUID, backend string, filterStr string) uint64 {
	d := xxhash.New()
	_, _ = d.Write(snapshot[:])
	_, _ = d.WriteString(backend)
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(filterStr)
	return d.Sum64()
}
