package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pokechat/internal/config"
)

// Cache stores byte payloads with a per-entry TTL. Implementations must be
// safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// New constructs the cache backend selected by configuration.
func New(cfg config.Cache) (Cache, error) {
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	switch cfg.Backend {
	case "memory":
		return NewMemory(ttl), nil
	case "redis":
		return NewRedis(RedisOptions{
			Addr:       cfg.RedisAddr,
			Password:   cfg.RedisPassword,
			DB:         cfg.RedisDB,
			DefaultTTL: ttl,
		})
	default:
		return nil, fmt.Errorf("cache backend: unsupported value %q", cfg.Backend)
	}
}

// GetJSON fetches and decodes a JSON payload. A miss returns (false, nil).
func GetJSON(ctx context.Context, c Cache, key string, dst any) (bool, error) {
	data, found, err := c.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode cached value for %q: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes a value as JSON and stores it.
func SetJSON(ctx context.Context, c Cache, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode value for %q: %w", key, err)
	}
	return c.Set(ctx, key, data, ttl)
}
