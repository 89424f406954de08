package cache

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/prebid/tlx-bridge/config"
	redis "github.com/redis/go-redis/v9"
)

const defaultRedisTimeout = 50 * time.Millisecond

// RedisCache reads values from a shared Redis instance.
type RedisCache struct {
	client  redis.Cmdable
	closer  func() error
	timeout time.Duration
	ttl     time.Duration
}

// NewRedisCache builds a Redis-backed cache. Every call is bounded by timeout.
func NewRedisCache(cfg config.Redis, timeout, ttl time.Duration) *RedisCache {
	opts := &redis.Options{
		Addr:         cfg.Addr,
		DB:           cfg.DB,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DialTimeout:  time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)
	return newRedisCache(client, client.Close, timeout, ttl)
}

func newRedisCache(client redis.Cmdable, closer func() error, timeout, ttl time.Duration) *RedisCache {
	if timeout <= 0 {
		timeout = defaultRedisTimeout
	}
	return &RedisCache{
		client:  client,
		closer:  closer,
		timeout: timeout,
		ttl:     ttl,
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	readCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	val, err := c.client.Get(readCtx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return val, nil
}

func (c *RedisCache) Set(ctx context.Context, key, value string) error {
	writeCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.client.Set(writeCtx, key, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}
