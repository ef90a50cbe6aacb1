// Package cache holds the byte-oriented caches used to front user lookups.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"userapi/internal/config"
)

var ErrKeyNotFound = errors.New("cache: key not found")

// Cache stores encoded values. Implementations are safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores val; a non-positive ttl means the entry does not expire.
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// New builds the backend selected by cfg.Kind. "none" (or empty) yields a nil Cache.
func New(ctx context.Context, cfg config.CacheConfig) (Cache, error) {
	switch cfg.Kind {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemory(time.Minute), nil
	case "lru":
		l, err := NewLRU(cfg.Size)
		if err != nil {
			return nil, fmt.Errorf("lru cache: %w", err)
		}
		return l, nil
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis cache needs REDIS_ADDR")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return NewRedis(client), nil
	default:
		return nil, fmt.Errorf("unsupported cache kind %q", cfg.Kind)
	}
}
