package cache

import (
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache holds serialized inference responses with per-entry TTLs,
// backed by go-cache. Hit and miss counts are tracked so operators can
// judge whether response caching pays for itself on their prompt mix.
type MemoryCache struct {
	backing *gocache.Cache
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewMemoryCache creates a memory cache. Non-positive durations fall back
// to an hour of TTL and ten-minute cleanup sweeps.
func NewMemoryCache(defaultTTL, cleanupInterval time.Duration) *MemoryCache {
	if defaultTTL <= 0 {
		defaultTTL = time.Hour
	}
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}
	return &MemoryCache{backing: gocache.New(defaultTTL, cleanupInterval)}
}

// Get returns the stored payload for key. A value of an unexpected type
// counts as a miss rather than panicking the caller.
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	val, found := c.backing.Get(key)
	if !found {
		c.misses.Add(1)
		return nil, false
	}
	raw, ok := val.([]byte)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return raw, true
}

// Set stores value under key. ttl <= 0 uses the cache default.
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	c.backing.Set(key, value, ttl)
	return nil
}

// Delete removes key
func (c *MemoryCache) Delete(key string) error {
	c.backing.Delete(key)
	return nil
}

// Clear drops every entry. Hit and miss counters are lifetime totals and
// survive a clear.
func (c *MemoryCache) Clear() error {
	c.backing.Flush()
	return nil
}

// Stats reports lifetime hit and miss counts
func (c *MemoryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
