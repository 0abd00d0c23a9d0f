package recommend

import (
	"context"
	"sync"
	"time"
)

const memoryCacheSweepSize = 1024

type cacheEntry struct {
	ids     []int64
	expires time.Time
}

// MemoryCache is an in-process Cache whose entries expire after a TTL.
type MemoryCache struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.RWMutex
	items map[string]cacheEntry
}

// NewMemoryCache returns a cache that keeps lists for ttl.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &MemoryCache{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]cacheEntry),
	}
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, key string) ([]int64, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.items[key]
	if !ok || !c.now().Before(entry.expires) {
		return nil, false, nil
	}
	return append([]int64{}, entry.ids...), true, nil
}

// Set implements Cache. Expired entries, including those of retired like
// generations, are dropped once the cache grows past a sweep threshold.
func (c *MemoryCache) Set(_ context.Context, key string, ids []int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if len(c.items) >= memoryCacheSweepSize {
		for k, entry := range c.items {
			if !now.Before(entry.expires) {
				delete(c.items, k)
			}
		}
	}
	c.items[key] = cacheEntry{ids: append([]int64{}, ids...), expires: now.Add(c.ttl)}
	return nil
}

// Len reports the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
