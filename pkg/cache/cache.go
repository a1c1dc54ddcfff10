// Package cache keeps resolved extractor results for a fixed freshness window.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultTTL is how long a resolved URL or metadata document stays fresh.
const DefaultTTL = 30 * time.Minute

type entry struct {
	value      any
	insertedAt time.Time
}

// Cache is a TTL store. Expiry is decided lazily on Get against the
// configured clock; nothing sweeps in the background.
type Cache struct {
	store *gocache.Cache
	ttl   time.Duration
	now   func() time.Time
}

type Option func(*Cache)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func New(ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		// no library expiration and no janitor: freshness is ours to decide
		store: gocache.New(gocache.NoExpiration, 0),
		ttl:   ttl,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the stored value if it was set less than TTL ago.
func (c *Cache) Get(key string) (any, bool) {
	raw, found := c.store.Get(key)
	if !found {
		return nil, false
	}
	e, ok := raw.(entry)
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.insertedAt) > c.ttl {
		return nil, false
	}
	return e.value, true
}

// Set overwrites key and restarts its freshness window.
func (c *Cache) Set(key string, value any) {
	c.store.Set(key, entry{value: value, insertedAt: c.now()}, gocache.NoExpiration)
}

func (c *Cache) Delete(key string) {
	c.store.Delete(key)
}

func (c *Cache) Clear() {
	c.store.Flush()
}

// Len counts stored entries, stale ones included.
func (c *Cache) Len() int {
	return c.store.ItemCount()
}

func (c *Cache) TTL() time.Duration {
	return c.ttl
}
