package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

type memcacheClient interface {
	Get(key string) (*memcache.Item, error)
	Set(item *memcache.Item) error
}

// MemcacheCache reads values from a memcached pool.
type MemcacheCache struct {
	client memcacheClient
	ttl    time.Duration
}

// NewMemcacheCache builds a client for servers. Every call is bounded by timeout.
func NewMemcacheCache(servers []string, timeout, ttl time.Duration) *MemcacheCache {
	client := memcache.New(servers...)
	if timeout > 0 {
		client.Timeout = timeout
	}
	return &MemcacheCache{client: client, ttl: ttl}
}

func (c *MemcacheCache) Get(ctx context.Context, key string) (string, error) {
	item, err := c.client.Get(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("memcache get failed: %w", err)
	}
	return string(item.Value), nil
}

func (c *MemcacheCache) Set(ctx context.Context, key, value string) error {
	item := &memcache.Item{
		Key:        key,
		Value:      []byte(value),
		Expiration: int32(c.ttl / time.Second),
	}
	if err := c.client.Set(item); err != nil {
		return fmt.Errorf("memcache set failed: %w", err)
	}
	return nil
}

func (c *MemcacheCache) Close() error {
	return nil
}
