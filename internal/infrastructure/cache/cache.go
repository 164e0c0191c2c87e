package cache

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/platewise/reviewpipe/internal/domain"
)

// Cache backend names accepted by New
const (
	TypeNone   = "none"
	TypeFile   = "file"
	TypeMemory = "memory"
	TypeRedis  = "redis"
)

// Cache is a closable cache repository
type Cache interface {
	domain.CacheRepository
	io.Closer
}

// New builds the configured cache backend. "none" returns a nil Cache. The file
// backend persists at filePath and is the default; memory lives only as long as the
// process, so it saves nothing across runs.
func New(ctx context.Context, cacheType, redisURL, filePath string) (Cache, error) {
	switch strings.ToLower(cacheType) {
	case TypeNone:
		return nil, nil
	case "", TypeFile:
		c, err := NewFileCache(filePath)
		if err != nil {
			return nil, err
		}
		return c, nil
	case TypeMemory:
		return NewMemoryCache(), nil
	case TypeRedis:
		c, err := NewRedisCache(ctx, redisURL)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf("%w: cache.type %q", domain.ErrInvalidConfig, cacheType)
}
