package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

var _ Cache = (*LRU)(nil)

// LRU is a size-bounded process-local cache. Entries never expire; the least recently used are evicted.
type LRU struct {
	c *lru.Cache[string, []byte]
}

func NewLRU(size int) (*LRU, error) {
	c, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &LRU{c: c}, nil
}

func (l *LRU) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := l.c.Get(key)
	if !ok {
		return nil, ErrKeyNotFound
	}
	return v, nil
}

// Set ignores ttl.
func (l *LRU) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	l.c.Add(key, val)
	return nil
}

func (l *LRU) Delete(_ context.Context, key string) error {
	l.c.Remove(key)
	return nil
}
