// Package memory provides a bounded least-recently-used cache and helpers
// for reasoning about byte budgets.
package memory

import (
	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// Cache is a fixed-capacity key/value store with least-recently-used
// eviction. Recency is defined by the order of Add and Get calls, so the
// eviction order is deterministic for a given sequence of operations.
//
// Cache is not safe for concurrent use.
type Cache[K comparable, V any] struct {
	lru     *simplelru.LRU[K, V]
	max     int
	onEvict func(K, V)
}

// Option configures a Cache
type Option[K comparable, V any] func(*Cache[K, V])

// WithEvictCallback registers a function called for every entry that leaves
// the cache, whether by eviction, Remove or Clear.
func WithEvictCallback[K comparable, V any](fn func(K, V)) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.onEvict = fn
	}
}

// New creates a cache holding at most max entries. A max of zero or less
// creates a cache that holds nothing.
func New[K comparable, V any](max int, opts ...Option[K, V]) *Cache[K, V] {
	c := &Cache[K, V]{}
	for _, opt := range opts {
		opt(c)
	}
	var cb simplelru.EvictCallback[K, V]
	if c.onEvict != nil {
		cb = func(k K, v V) { c.onEvict(k, v) }
	}
	// simplelru rejects non-positive sizes at construction but accepts them
	// on Resize.
	lru, err := simplelru.NewLRU[K, V](1, cb)
	if err != nil {
		panic(err)
	}
	c.lru = lru
	c.SetMax(max)
	return c
}

// Max returns the capacity
func (c *Cache[K, V]) Max() int { return c.max }

// SetMax changes the capacity, evicting the oldest entries first when the
// cache shrinks below its current size.
func (c *Cache[K, V]) SetMax(max int) {
	if max < 0 {
		max = 0
	}
	c.max = max
	c.lru.Resize(max)
}

// Len returns the number of entries
func (c *Cache[K, V]) Len() int { return c.lru.Len() }

// Contains reports whether key is present without touching its recency
func (c *Cache[K, V]) Contains(key K) bool {
	return c.lru.Contains(key)
}

// Get returns the value for key and marks it as the most recently used
// entry. Get is a mutating operation.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	return c.lru.Get(key)
}

// Peek returns the value for key without touching its recency
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	return c.lru.Peek(key)
}

// Add inserts or replaces the value for key. Replacing resets recency.
// Oldest entries are evicted until the cache fits its capacity.
func (c *Cache[K, V]) Add(key K, value V) {
	if c.max == 0 {
		return
	}
	c.lru.Add(key, value)
}

// Remove deletes key, returning true if it was present
func (c *Cache[K, V]) Remove(key K) bool {
	return c.lru.Remove(key)
}

// Keys returns the keys from least to most recently used
func (c *Cache[K, V]) Keys() []K {
	return c.lru.Keys()
}

// Values returns the values from least to most recently used
func (c *Cache[K, V]) Values() []V {
	return c.lru.Values()
}

// Oldest returns the least recently used entry without touching it
func (c *Cache[K, V]) Oldest() (K, V, bool) {
	return c.lru.GetOldest()
}

// Clear removes every entry
func (c *Cache[K, V]) Clear() {
	c.lru.Purge()
}

// PercentageUsed returns Len()/Max() as a percentage. It is intended for
// display only.
func (c *Cache[K, V]) PercentageUsed() float64 {
	if c.max == 0 {
		return 0
	}
	return float64(c.lru.Len()) / float64(c.max) * 100
}
