package cache

import (
	"context"
	"os"

	"github.com/prebid/tlx-bridge/logger"
	yaml "gopkg.in/yaml.v2"
)

// FileCache serves a fixed set of values loaded once from a YAML file.
type FileCache struct {
	Values map[string]string
}

type fileCacheEntry struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

type fileCacheFile struct {
	Entries []fileCacheEntry `yaml:"entries"`
}

func NewFileCache(filename string) (*FileCache, error) {
	values, err := loadEntries(filename)
	if err != nil {
		return nil, err
	}
	return &FileCache{Values: values}, nil
}

// loadEntries reads the key/value entries of a storage YAML file.
func loadEntries(filename string) (map[string]string, error) {
	logger.Debugf("Reading storage entries from %s", filename)

	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var u fileCacheFile
	if err := yaml.Unmarshal(b, &u); err != nil {
		return nil, err
	}

	values := make(map[string]string, len(u.Entries))
	for _, entry := range u.Entries {
		values[entry.Key] = entry.Value
	}
	logger.Infof("Loaded %d storage entries", len(u.Entries))

	return values, nil
}

func (c *FileCache) Get(ctx context.Context, key string) (string, error) {
	value, ok := c.Values[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (c *FileCache) Close() error {
	return nil
}
