package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/platewise/reviewpipe/internal/domain"
	"github.com/platewise/reviewpipe/internal/infrastructure/filestore"
)

// DefaultFile is the cache file name inside the data directory
const DefaultFile = "provider_cache.json"

// fileEntry is the on-disk form of a cacheItem
type fileEntry struct {
	Value      []byte    `json:"value"`
	Expiration time.Time `json:"expiration"`
}

// FileCache is a MemoryCache loaded from a JSON file on open and written back on
// Close, so provider responses survive between runs without a redis server.
type FileCache struct {
	*MemoryCache
	path string
}

// NewFileCache opens the cache at path. A missing file starts empty; an unreadable
// JSON file is discarded with a warning.
func NewFileCache(path string) (*FileCache, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: cache file path is empty", domain.ErrInvalidConfig)
	}

	c := &FileCache{MemoryCache: NewMemoryCache(), path: path}
	if err := c.load(); err != nil {
		c.MemoryCache.Close()
		return nil, err
	}
	return c, nil
}

// Path returns the backing file
func (c *FileCache) Path() string { return c.path }

// Close stops the cleanup goroutine and saves the live entries
func (c *FileCache) Close() error {
	c.MemoryCache.Close()
	return c.save()
}

func (c *FileCache) load() error {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", domain.ErrCacheUnavailable, c.path, err)
	}

	var entries map[string]fileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		slog.Warn("discarding unreadable cache file", "path", c.path, "error", err)
		return nil
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	for key, entry := range entries {
		item := cacheItem{Value: entry.Value, Expiration: entry.Expiration}
		if !c.expired(item) {
			c.data[key] = item
		}
	}
	return nil
}

func (c *FileCache) save() error {
	c.mutex.RLock()
	entries := make(map[string]fileEntry, len(c.data))
	for key, item := range c.data {
		if !c.expired(item) {
			entries[key] = fileEntry{Value: item.Value, Expiration: item.Expiration}
		}
	}
	c.mutex.RUnlock()

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode cache file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	return filestore.WriteFileAtomic(c.path, data, 0o644)
}
