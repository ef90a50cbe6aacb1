package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

var _ Cache = (*Memory)(nil)

// Memory is a process-local cache with per-entry expiration.
type Memory struct {
	c *gocache.Cache
}

// NewMemory creates a Memory cache that purges expired entries every cleanupInterval.
func NewMemory(cleanupInterval time.Duration) *Memory {
	return &Memory{c: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, ErrKeyNotFound
	}
	return v.([]byte), nil
}

func (m *Memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	m.c.Set(key, val, ttl)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}
