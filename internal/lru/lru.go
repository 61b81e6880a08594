// Package lru provides bounded least-recently-used caches with hit, miss,
// and eviction reporting.
package lru

import (
	"fmt"

	hlru "github.com/hashicorp/golang-lru/v2"
)

// Recorder receives cache events by cache name.
type Recorder interface {
	CacheHit(cache string)
	CacheMiss(cache string)
	CacheEvict(cache string)
}

// Cache is a fixed-capacity LRU map. Get promotes the entry to most recently
// used; Set inserts or replaces, promotes, then evicts the least recently
// used entries while over capacity. Safe for concurrent use.
type Cache[K comparable, V any] struct {
	name     string
	capacity int
	rec      Recorder
	inner    *hlru.Cache[K, V]
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	rec Recorder
}

// WithRecorder reports hits, misses, and evictions to rec.
func WithRecorder(rec Recorder) Option {
	return func(o *options) { o.rec = rec }
}

// New creates a cache holding at most capacity entries. Capacity below 1
// is raised to 1.
func New[K comparable, V any](name string, capacity int, opts ...Option) *Cache[K, V] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if capacity < 1 {
		capacity = 1
	}

	c := &Cache[K, V]{name: name, capacity: capacity, rec: o.rec}

	onEvict := func(K, V) {
		if c.rec != nil {
			c.rec.CacheEvict(c.name)
		}
	}
	inner, err := hlru.NewWithEvict[K, V](capacity, onEvict)
	if err != nil {
		// Only returned for a non-positive size, excluded above.
		panic(fmt.Sprintf("lru %s: %v", name, err))
	}
	c.inner = inner
	return c
}

// Name returns the cache name used for reporting.
func (c *Cache[K, V]) Name() string { return c.name }

// Capacity returns the maximum number of entries.
func (c *Cache[K, V]) Capacity() int { return c.capacity }

// Get returns the value for key and promotes it on a hit.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	v, ok := c.inner.Get(key)
	if c.rec != nil {
		if ok {
			c.rec.CacheHit(c.name)
		} else {
			c.rec.CacheMiss(c.name)
		}
	}
	return v, ok
}

// Set inserts or replaces the value for key.
func (c *Cache[K, V]) Set(key K, value V) {
	c.inner.Add(key, value)
}

// GetOrCompute returns the cached value for key, or calls compute and caches
// its result. A failed compute is returned and not cached. Concurrent misses
// on the same key may each compute.
func (c *Cache[K, V]) GetOrCompute(key K, compute func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		var zero V
		return zero, err
	}
	c.Set(key, v)
	return v, nil
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int { return c.inner.Len() }

// Keys returns the keys from least to most recently used.
func (c *Cache[K, V]) Keys() []K { return c.inner.Keys() }

// Contains reports whether key is cached without promoting it.
func (c *Cache[K, V]) Contains(key K) bool { return c.inner.Contains(key) }

// Purge removes every entry. Each removal is reported as an eviction.
func (c *Cache[K, V]) Purge() { c.inner.Purge() }
