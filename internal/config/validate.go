package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateHash(); err != nil {
		return err
	}
	if err := c.validateIdentify(); err != nil {
		return err
	}
	if err := c.validateReference(); err != nil {
		return err
	}
	if err := c.validatePokeAPI(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateChat(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	return ensurePositiveMap(map[string]int{
		"server.read_header_timeout": c.Server.ReadHeaderTimeout,
		"server.shutdown_timeout":    c.Server.ShutdownTimeout,
	})
}

func (c *Config) validateHash() error {
	switch c.Hash.Method {
	case "ahash", "phash", "dhash", "whash":
	default:
		return fmt.Errorf("hash.method must be one of ahash, phash, dhash, whash; got %q", c.Hash.Method)
	}
	if c.Hash.Size < 2 {
		return fmt.Errorf("hash.size must be at least 2, got %d", c.Hash.Size)
	}
	if c.Hash.Method == "whash" && !isPowerOfTwo(c.Hash.Size) {
		return fmt.Errorf("hash.size must be a power of two for whash, got %d", c.Hash.Size)
	}
	if c.Hash.SimilarityThreshold < 0 || c.Hash.SimilarityThreshold > 1 {
		return errors.New("hash.similarity_threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateIdentify() error {
	if c.Identify.MaxUploadBytes <= 0 {
		return errors.New("identify.max_upload_bytes must be greater than zero")
	}
	return ensurePositiveMap(map[string]int{
		"identify.fetch_timeout": c.Identify.FetchTimeout,
	})
}

func (c *Config) validateReference() error {
	return ensurePositiveMap(map[string]int{
		"reference.limit":            c.Reference.Limit,
		"reference.warm_concurrency": c.Reference.WarmConcurrency,
		"reference.warm_timeout":     c.Reference.WarmTimeout,
	})
}

func (c *Config) validatePokeAPI() error {
	if !strings.HasPrefix(c.PokeAPI.BaseURL, "http://") && !strings.HasPrefix(c.PokeAPI.BaseURL, "https://") {
		return fmt.Errorf("pokeapi.base_url must be an http(s) URL, got %q", c.PokeAPI.BaseURL)
	}
	if !strings.HasPrefix(c.PokeAPI.SpriteBaseURL, "http://") && !strings.HasPrefix(c.PokeAPI.SpriteBaseURL, "https://") {
		return fmt.Errorf("pokeapi.sprite_base_url must be an http(s) URL, got %q", c.PokeAPI.SpriteBaseURL)
	}
	return ensurePositiveMap(map[string]int{
		"pokeapi.timeout": c.PokeAPI.Timeout,
	})
}

func (c *Config) validateCache() error {
	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return errors.New("cache.redis_addr must be set when cache.backend is redis")
		}
	default:
		return fmt.Errorf("cache.backend must be memory or redis, got %q", c.Cache.Backend)
	}
	return ensurePositiveMap(map[string]int{
		"cache.ttl_seconds": c.Cache.TTLSeconds,
	})
}

func (c *Config) validateChat() error {
	if err := ensurePositiveMap(map[string]int{
		"chat.default_list_count": c.Chat.DefaultListCount,
		"chat.max_list_count":     c.Chat.MaxListCount,
	}); err != nil {
		return err
	}
	if c.Chat.DefaultListCount > c.Chat.MaxListCount {
		return errors.New("chat.default_list_count must not exceed chat.max_list_count")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error; got %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be greater than zero", key)
		}
	}
	return nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
