// Package cache provides generic, thread-safe LRU caches with metrics.
package cache

import (
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache is a generic thread-safe LRU cache with built-in metrics.
// Storage and eviction are delegated to hashicorp/golang-lru.
type Cache[K comparable, V any] struct {
	lru      *lru.Cache[K, V]
	capacity int

	// fill serializes GetOrSet computations so a value is built once.
	fill sync.Mutex

	hits   atomic.Uint64
	misses atomic.Uint64
	evicts atomic.Uint64
	sets   atomic.Uint64
}

// New creates a new Cache with the specified capacity.
// When the cache is full, the least recently used item is evicted.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	if capacity <= 0 {
		capacity = 100
	}
	c := &Cache[K, V]{capacity: capacity}
	// NewWithEvict only fails for a non-positive size.
	l, _ := lru.NewWithEvict[K, V](capacity, func(K, V) {
		c.evicts.Add(1)
	})
	c.lru = l
	return c
}

// Get retrieves a value from the cache.
// Accessing an item marks it as most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	v, ok := c.lru.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Set adds or updates a value in the cache.
func (c *Cache[K, V]) Set(key K, value V) {
	c.sets.Add(1)
	c.lru.Add(key, value)
}

// Delete removes an item from the cache.
func (c *Cache[K, V]) Delete(key K) {
	c.lru.Remove(key)
}

// Len returns the current number of items in the cache.
func (c *Cache[K, V]) Len() int {
	return c.lru.Len()
}

// Clear removes all items from the cache.
// Purged entries are not counted as evictions.
func (c *Cache[K, V]) Clear() {
	before := c.evicts.Load()
	c.lru.Purge()
	c.evicts.Store(before)
}

// Stats holds cache statistics.
type Stats struct {
	Size     int
	Capacity int
	Hits     uint64
	Misses   uint64
	Evicts   uint64
	Sets     uint64
	HitRate  float64
}

// Stats returns cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()
	total := hits + misses

	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return Stats{
		Size:     c.lru.Len(),
		Capacity: c.capacity,
		Hits:     hits,
		Misses:   misses,
		Evicts:   c.evicts.Load(),
		Sets:     c.sets.Load(),
		HitRate:  hitRate,
	}
}

// GetOrSet returns the existing value for key if present.
// Otherwise, it calls fn to compute the value, stores it, and returns it.
func (c *Cache[K, V]) GetOrSet(key K, fn func() V) V {
	if v, ok := c.Get(key); ok {
		return v
	}

	c.fill.Lock()
	defer c.fill.Unlock()

	if v, ok := c.lru.Peek(key); ok {
		return v
	}
	value := fn()
	c.Set(key, value)
	return value
}

// GetOrLoad is GetOrSet for computations that can fail.
// Failed loads are not cached.
func (c *Cache[K, V]) GetOrLoad(key K, fn func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	c.fill.Lock()
	defer c.fill.Unlock()

	if v, ok := c.lru.Peek(key); ok {
		return v, nil
	}
	value, err := fn()
	if err != nil {
		return value, err
	}
	c.Set(key, value)
	return value, nil
}

// Keys returns all keys in the cache, oldest first.
func (c *Cache[K, V]) Keys() []K {
	return c.lru.Keys()
}

// Range calls fn for each item in the cache.
// If fn returns false, iteration stops.
func (c *Cache[K, V]) Range(fn func(key K, value V) bool) {
	for _, k := range c.lru.Keys() {
		v, ok := c.lru.Peek(k)
		if !ok {
			continue
		}
		if !fn(k, v) {
			break
		}
	}
}
