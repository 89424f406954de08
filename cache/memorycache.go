package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache is a process-local store with per-entry expiry.
type MemoryCache struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// NewMemoryCache builds a cache whose entries expire after ttl. A zero ttl never expires.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	expiry := ttl
	if expiry <= 0 {
		expiry = gocache.NoExpiration
	}
	cleanup := expiry * 2
	if expiry == gocache.NoExpiration {
		cleanup = 0
	}
	return &MemoryCache{
		cache: gocache.New(expiry, cleanup),
		ttl:   expiry,
	}
}

func (c *MemoryCache) Get(ctx context.Context, key string) (string, error) {
	value, ok := c.cache.Get(key)
	if !ok {
		return "", ErrNotFound
	}
	s, ok := value.(string)
	if !ok {
		return "", ErrNotFound
	}
	return s, nil
}

func (c *MemoryCache) Set(ctx context.Context, key, value string) error {
	c.cache.Set(key, value, c.ttl)
	return nil
}

func (c *MemoryCache) Seed(values map[string]string) error {
	for key, value := range values {
		c.cache.Set(key, value, gocache.NoExpiration)
	}
	return nil
}

func (c *MemoryCache) Close() error {
	c.cache.Flush()
	return nil
}
