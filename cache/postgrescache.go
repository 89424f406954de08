package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/coocood/freecache"
	_ "github.com/lib/pq"
	"github.com/prebid/tlx-bridge/config"
	"github.com/prebid/tlx-bridge/logger"
)

// PostgresCache reads values from a key/value table. Hits are kept in an in-process LRU so
// repeated lookups of the same key do not reach the database.
type PostgresCache struct {
	db         *sql.DB
	query      string
	lru        *freecache.Cache
	ttlSeconds int
}

// NewPostgresCache opens the database. A failed ping is logged and the cache still operates;
// lookups fail until the database becomes reachable.
func NewPostgresCache(cfg config.Postgres, size int, ttl time.Duration) (*PostgresCache, error) {
	db, err := sql.Open("postgres", cfg.ConnString())
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		logger.Errorf("failed to connect to postgres storage: %v", err)
	}
	return newPostgresCache(db, cfg.Query, size, ttl), nil
}

func newPostgresCache(db *sql.DB, query string, size int, ttl time.Duration) *PostgresCache {
	return &PostgresCache{
		db:         db,
		query:      query,
		lru:        freecache.NewCache(size),
		ttlSeconds: int(ttl / time.Second),
	}
}

func (c *PostgresCache) Get(ctx context.Context, key string) (string, error) {
	if b, err := c.lru.Get([]byte(key)); err == nil {
		return string(b), nil
	}

	var value string
	err := c.db.QueryRowContext(ctx, c.query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("postgres lookup failed: %w", err)
	}

	if err := c.lru.Set([]byte(key), []byte(value), c.ttlSeconds); err != nil {
		logger.Warnf("postgres storage could not cache %s: %v", key, err)
	}
	return value, nil
}

func (c *PostgresCache) Close() error {
	c.lru.Clear()
	return c.db.Close()
}
