package cache

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is the serving-layer response cache. Ingestion never reads or writes
// it; staleness within the TTL is the only tolerated inconsistency.
type Cache struct {
	store *gocache.Cache

	mu sync.Mutex
}

func New(defaultTTL time.Duration) *Cache {
	return &Cache{
		store: gocache.New(defaultTTL, 2*defaultTTL),
	}
}

// GetOrRefresh returns the cached value for key, invoking refresh to rebuild
// it when missing or expired. Refreshes are serialized so a burst of readers
// on a cold key triggers one rebuild, not many.
func (c *Cache) GetOrRefresh(key string, ttl time.Duration, refresh func() (any, error)) (any, error) {
	if v, ok := c.store.Get(key); ok {
		return v, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.store.Get(key); ok {
		return v, nil
	}
	v, err := refresh()
	if err != nil {
		return nil, err
	}
	c.store.Set(key, v, ttl)
	return v, nil
}

// Invalidate drops a key so the next read refreshes.
func (c *Cache) Invalidate(key string) {
	c.store.Delete(key)
}
