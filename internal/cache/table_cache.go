// Package cache holds table descriptors read from the live catalog so repeated
// writes to the same table do not re-query it.
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/coregx/sqlsink/internal/relational"
)

const (
	// DefaultTableCacheCapacity is the default maximum number of cached tables.
	DefaultTableCacheCapacity = 256
)

// TableCache stores table descriptors with LRU eviction, keyed by the
// normalized table identifier.
type TableCache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	lruList  *list.List

	hits          atomic.Uint64
	misses        atomic.Uint64
	evictions     atomic.Uint64
	invalidations atomic.Uint64
}

type cacheEntry struct {
	key   string
	table *relational.TableDescriptor
}

// NewTableCache creates a cache with default capacity.
func NewTableCache() *TableCache {
	return NewTableCacheWithCapacity(DefaultTableCacheCapacity)
}

// NewTableCacheWithCapacity creates a cache holding at most capacity tables.
func NewTableCacheWithCapacity(capacity int) *TableCache {
	if capacity <= 0 {
		capacity = DefaultTableCacheCapacity
	}
	return &TableCache{
		capacity: capacity,
		items:    make(map[string]*list.Element, capacity),
		lruList:  list.New(),
	}
}

// Get returns the cached descriptor for id and marks it most recently used.
func (c *TableCache) Get(id relational.TableID) (*relational.TableDescriptor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[id.Key()]
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.lruList.MoveToFront(elem)
	c.hits.Add(1)
	return elem.Value.(*cacheEntry).table, true
}

// Set stores table under id, replacing any earlier descriptor.
func (c *TableCache) Set(id relational.TableID, table *relational.TableDescriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := id.Key()
	if elem, ok := c.items[key]; ok {
		c.lruList.MoveToFront(elem)
		elem.Value.(*cacheEntry).table = table
		return
	}

	if c.lruList.Len() >= c.capacity {
		c.evictOldest()
	}
	c.items[key] = c.lruList.PushFront(&cacheEntry{key: key, table: table})
}

// Invalidate drops the descriptor for id. It reports whether one was cached.
func (c *TableCache) Invalidate(id relational.TableID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[id.Key()]
	if !ok {
		return false
	}
	c.lruList.Remove(elem)
	delete(c.items, id.Key())
	c.invalidations.Add(1)
	return true
}

// evictOldest must be called with the lock held.
func (c *TableCache) evictOldest() {
	elem := c.lruList.Back()
	if elem == nil {
		return
	}
	c.lruList.Remove(elem)
	delete(c.items, elem.Value.(*cacheEntry).key)
	c.evictions.Add(1)
}

// Clear removes every cached descriptor.
func (c *TableCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element, c.capacity)
	c.lruList.Init()
}

// Stats holds cache performance metrics.
type Stats struct {
	Size          int     // Current number of cached tables.
	Capacity      int     // Maximum capacity.
	Hits          uint64  // Number of successful lookups.
	Misses        uint64  // Number of lookups that had to read the catalog.
	Evictions     uint64  // Number of tables evicted for capacity.
	Invalidations uint64  // Number of tables dropped after schema changes.
	HitRate       float64 // hits / (hits + misses).
}

// Stats returns cache statistics.
func (c *TableCache) Stats() Stats {
	c.mu.Lock()
	size := c.lruList.Len()
	c.mu.Unlock()

	hits := c.hits.Load()
	misses := c.misses.Load()

	total := hits + misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return Stats{
		Size:          size,
		Capacity:      c.capacity,
		Hits:          hits,
		Misses:        misses,
		Evictions:     c.evictions.Load(),
		Invalidations: c.invalidations.Load(),
		HitRate:       hitRate,
	}
}
