package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is an in-process TTL cache. Expired entries are janitored in the
// background at half the default TTL.
type Memory struct {
	store      *gocache.Cache
	defaultTTL time.Duration
}

// NewMemory creates a memory cache with the given default TTL.
func NewMemory(defaultTTL time.Duration) *Memory {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	cleanup := defaultTTL / 2
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	return &Memory{
		store:      gocache.New(defaultTTL, cleanup),
		defaultTTL: defaultTTL,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, found := m.store.Get(key)
	if !found {
		return nil, false, nil
	}
	data, ok := value.([]byte)
	if !ok {
		return nil, false, nil
	}
	return data, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}
	m.store.Set(key, value, ttl)
	return nil
}

func (m *Memory) Close() error { return nil }
