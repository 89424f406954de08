package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/coocood/freecache"
)

// LRUCache is a fixed-size, GC-friendly store. Entries are evicted when the cache is full.
type LRUCache struct {
	lru        *freecache.Cache
	ttlSeconds int
}

// NewLRUCache allocates size bytes. freecache enforces a 512KB minimum.
func NewLRUCache(size int, ttl time.Duration) *LRUCache {
	return &LRUCache{
		lru:        freecache.NewCache(size),
		ttlSeconds: int(ttl / time.Second),
	}
}

func (c *LRUCache) Get(ctx context.Context, key string) (string, error) {
	b, err := c.lru.Get([]byte(key))
	if err == freecache.ErrNotFound {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *LRUCache) Set(ctx context.Context, key, value string) error {
	return c.lru.Set([]byte(key), []byte(value), c.ttlSeconds)
}

func (c *LRUCache) Seed(values map[string]string) error {
	for key, value := range values {
		if err := c.lru.Set([]byte(key), []byte(value), 0); err != nil {
			return fmt.Errorf("seeding %s: %w", key, err)
		}
	}
	return nil
}

func (c *LRUCache) Close() error {
	c.lru.Clear()
	return nil
}
