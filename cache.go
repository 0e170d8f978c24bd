package tmplstream

import (
	"fmt"
	"slices"
	"sync/atomic"
	"unsafe"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of template shapes kept by NewCache(0).
const DefaultCacheSize = 1024

// Cache maps literal sites to their template shapes.
//
// Entries are keyed by the identity of the fragment slice (the address of its
// backing array plus its length). Keys are plain addresses, so the cache never
// keeps a caller's fragments alive; a hit is confirmed against the stored
// fragments before reuse, so an address recycled by the garbage collector
// cannot bind a stale shape. Identical fragment sequences are interchangeable,
// so concurrent builders racing on one key are harmless and the last insert
// wins.
//
// The cache is bounded: least recently used shapes are evicted once it holds
// size entries. A Cache is safe for concurrent use.
type Cache struct {
	entries *lru.Cache[shapeKey, *shape]
	hits    atomic.Uint64
	misses  atomic.Uint64
}

type shapeKey struct {
	data uintptr
	n    int
}

// CacheStats is a point-in-time view of cache usage.
type CacheStats struct {
	Hits   uint64
	Misses uint64
	Size   int
}

// NewCache creates a cache holding at most size shapes. A size <= 0 selects
// DefaultCacheSize.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[shapeKey, *shape](size)
	if err != nil {
		panic(fmt.Sprintf("tmplstream: failed to create cache: %v", err))
	}
	return &Cache{entries: entries}
}

// Build creates a template from fragments and values, reusing the cached
// shape for fragments when there is one. values are copied.
func (c *Cache) Build(fragments []string, values ...any) *Template {
	if len(fragments) != len(values)+1 {
		panic(fmt.Sprintf("tmplstream: %d fragments need %d values, got %d",
			len(fragments), len(fragments)-1, len(values)))
	}
	return &Template{
		shape: c.shape(fragments),
		slots: slices.Clone(values),
	}
}

// Stats returns hit and miss counts and the current number of entries.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   c.entries.Len(),
	}
}

// Purge removes every entry.
func (c *Cache) Purge() {
	c.entries.Purge()
}

func (c *Cache) shape(fragments []string) *shape {
	key := shapeKey{
		data: uintptr(unsafe.Pointer(unsafe.SliceData(fragments))),
		n:    len(fragments),
	}
	if s, ok := c.entries.Get(key); ok && slices.Equal(s.fragments, fragments) {
		c.hits.Add(1)
		return s
	}
	c.misses.Add(1)
	s := newShape(fragments)
	c.entries.Add(key, s)
	return s
}
