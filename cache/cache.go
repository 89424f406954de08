package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prebid/tlx-bridge/config"
)

// ErrNotFound is returned when a key holds no value.
var ErrNotFound = errors.New("key not found")

// Cache is a synchronous key→string lookup. It stands in for the browser local storage the
// exchange integration reads segment data from.
type Cache interface {
	// Get returns the value stored under key, or ErrNotFound when absent.
	Get(ctx context.Context, key string) (string, error)
	Close() error
}

// Writer is implemented by the backends which can be seeded at runtime.
type Writer interface {
	Set(ctx context.Context, key, value string) error
}

// Seeder is implemented by the in-process backends, which hold nothing until seeded.
// Seeded entries never expire.
type Seeder interface {
	Cache
	Seed(values map[string]string) error
}

// New builds the backend selected by cfg.Type.
func New(cfg config.Storage) (Cache, error) {
	ttl := time.Duration(cfg.TTLSeconds) * time.Second

	switch cfg.Type {
	case config.StorageTypeNone, "":
		return NewDummyCache(), nil
	case config.StorageTypeFile:
		fileCache, err := NewFileCache(cfg.Filename)
		if err != nil {
			return nil, fmt.Errorf("FileCache Error: %v", err)
		}
		return fileCache, nil
	case config.StorageTypeMemory:
		return seed(NewMemoryCache(ttl), cfg.Filename)
	case config.StorageTypeFreecache:
		return seed(NewLRUCache(cfg.CacheSize, ttl), cfg.Filename)
	case config.StorageTypeRedis:
		return NewRedisCache(cfg.Redis, time.Duration(cfg.TimeoutMS)*time.Millisecond, ttl), nil
	case config.StorageTypePostgres:
		return NewPostgresCache(cfg.Postgres, cfg.CacheSize, ttl)
	case config.StorageTypeMemcache:
		return NewMemcacheCache(cfg.Memcache.Servers, time.Duration(cfg.TimeoutMS)*time.Millisecond, ttl), nil
	default:
		return nil, fmt.Errorf("Unknown storage.type: %s", cfg.Type)
	}
}

// seed loads the entries of filename into c. An empty filename leaves c empty.
func seed(c Seeder, filename string) (Cache, error) {
	if filename == "" {
		return c, nil
	}
	values, err := loadEntries(filename)
	if err != nil {
		return nil, fmt.Errorf("Storage seed error: %v", err)
	}
	if err := c.Seed(values); err != nil {
		return nil, fmt.Errorf("Storage seed error: %v", err)
	}
	return c, nil
}
