// Package cache is the registry's process-local read cache: a
// time-bounded memo of the last address observed for each service,
// used to short-circuit store reads on hot discovery paths.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache maps service names to the most recently observed address. An
// entry is fresh for one window after it is written and is overwritten
// unconditionally by every cache-eligible read; stale entries are never
// deleted, they simply stop being returned.
type Cache struct {
	window  time.Duration
	entries *gocache.Cache
}

// New returns a cache with the given freshness window. A window of zero
// or less disables caching entirely: the cache stores nothing and every
// lookup misses.
func New(window time.Duration) *Cache {
	c := &Cache{window: window}
	if window > 0 {
		// No janitor: entries lapse, they are not collected. The set of
		// service names is small and each entry is a single string.
		c.entries = gocache.New(window, 0)
	}
	return c
}

// Enabled reports whether a positive freshness window was configured.
func (c *Cache) Enabled() bool {
	return c.entries != nil
}

// Put records addr for service, stamped now. Overwrites any previous
// entry regardless of its freshness.
func (c *Cache) Put(service, addr string) {
	if c.entries == nil {
		return
	}
	c.entries.Set(service, addr, gocache.DefaultExpiration)
}

// Get returns the cached address for service if it is still fresh.
func (c *Cache) Get(service string) (string, bool) {
	if c.entries == nil {
		return "", false
	}
	v, ok := c.entries.Get(service)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// Fresh reports whether a fresh entry exists for service.
func (c *Cache) Fresh(service string) bool {
	_, ok := c.Get(service)
	return ok
}
