// Package cache provides a small keyed cache whose freshness is decided by
// the caller on every read. Each data source owns exactly one Cache and wraps
// its expensive fetch (HTTP request, file read, subprocess) behind it.
package cache

import (
	"context"
	"sync"
	"time"
)

// Fetcher produces the value for a key. found is false for expected absence
// (missing file, unreachable endpoint); implementations never panic or return
// errors for those cases.
type Fetcher[V any] interface {
	Fetch(ctx context.Context, key string) (value V, found bool)
}

// FetchFunc adapts an ordinary function to the Fetcher interface.
type FetchFunc[V any] func(ctx context.Context, key string) (V, bool)

// Fetch calls f(ctx, key).
func (f FetchFunc[V]) Fetch(ctx context.Context, key string) (V, bool) {
	return f(ctx, key)
}

// Entry is one cached fetch result. The TTL is not part of the entry: the
// same entry may be fresh for one caller and stale for another.
type Entry[V any] struct {
	Key       string
	Value     V
	Found     bool
	FetchedAt time.Time
}

// Cache memoises a Fetcher per key. It is safe for concurrent use; a miss
// holds the lock across the fetch so a key is never fetched twice at once.
type Cache[V any] struct {
	fetcher Fetcher[V]
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]Entry[V]
}

// Option configures a Cache.
type Option[V any] func(*Cache[V])

// WithClock replaces time.Now, mainly for tests.
func WithClock[V any](now func() time.Time) Option[V] {
	return func(c *Cache[V]) {
		if now != nil {
			c.now = now
		}
	}
}

// New returns an empty Cache in front of f.
func New[V any](f Fetcher[V], opts ...Option[V]) *Cache[V] {
	if f == nil {
		panic("cache: fetcher must not be nil")
	}
	c := &Cache[V]{
		fetcher: f,
		now:     time.Now,
		entries: make(map[string]Entry[V]),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value for key if it was fetched less than ttl ago,
// otherwise it fetches once, stores the result (absence included) and
// returns it.
func (c *Cache[V]) Get(ctx context.Context, key string, ttl time.Duration) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if e, ok := c.entries[key]; ok && now.Sub(e.FetchedAt) < ttl {
		return e.Value, e.Found
	}

	v, found := c.fetcher.Fetch(ctx, key)
	c.entries[key] = Entry[V]{
		Key:       key,
		Value:     v,
		Found:     found,
		FetchedAt: now,
	}
	return v, found
}

// Peek returns the stored entry for key without fetching, regardless of age.
func (c *Cache[V]) Peek(key string) (Entry[V], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e, ok
}

// Invalidate drops the entries for the given keys, or every entry when no
// key is given.
func (c *Cache[V]) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(keys) == 0 {
		clear(c.entries)
		return
	}
	for _, k := range keys {
		delete(c.entries, k)
	}
}

// Len reports the number of stored entries.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
