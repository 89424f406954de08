package cache

import "context"

// DummyCache holds nothing; every lookup misses.
type DummyCache struct {
}

// NewDummyCache create new cache
func NewDummyCache() *DummyCache {
	return &DummyCache{}
}

// Get always reports ErrNotFound
func (c *DummyCache) Get(ctx context.Context, key string) (string, error) {
	return "", ErrNotFound
}

// Close nop
func (c *DummyCache) Close() error {
	return nil
}
