package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeServer()
	c.normalizeHash()
	if err := c.normalizeReference(); err != nil {
		return err
	}
	c.normalizePokeAPI()
	c.normalizeCache()
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalizeServer() {
	origins := make([]string, 0, len(c.Server.CORSOrigins))
	for _, origin := range c.Server.CORSOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c.Server.CORSOrigins = origins
}

func (c *Config) normalizeHash() {
	c.Hash.Method = strings.ToLower(strings.TrimSpace(c.Hash.Method))
	if c.Hash.Method == "" {
		c.Hash.Method = defaultHashMethod
	}
}

func (c *Config) normalizeReference() error {
	c.Reference.Dir = strings.TrimSpace(c.Reference.Dir)
	if c.Reference.Dir != "" {
		expanded, err := expandPath(c.Reference.Dir)
		if err != nil {
			return fmt.Errorf("reference.dir: %w", err)
		}
		c.Reference.Dir = expanded
	}
	return nil
}

func (c *Config) normalizePokeAPI() {
	c.PokeAPI.BaseURL = strings.TrimRight(strings.TrimSpace(c.PokeAPI.BaseURL), "/")
	if c.PokeAPI.BaseURL == "" {
		c.PokeAPI.BaseURL = defaultPokeAPIBaseURL
	}
	c.PokeAPI.SpriteBaseURL = strings.TrimRight(strings.TrimSpace(c.PokeAPI.SpriteBaseURL), "/")
	if c.PokeAPI.SpriteBaseURL == "" {
		c.PokeAPI.SpriteBaseURL = defaultSpriteBaseURL
	}
	c.PokeAPI.UserAgent = strings.TrimSpace(c.PokeAPI.UserAgent)
	if c.PokeAPI.UserAgent == "" {
		c.PokeAPI.UserAgent = defaultUserAgent
	}
}

func (c *Config) normalizeCache() {
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	if c.Cache.Backend == "" {
		c.Cache.Backend = defaultCacheBackend
	}
	c.Cache.RedisAddr = strings.TrimSpace(c.Cache.RedisAddr)
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Dir = strings.TrimSpace(c.Logging.Dir)
	if c.Logging.Dir != "" {
		expanded, err := expandPath(c.Logging.Dir)
		if err != nil {
			return fmt.Errorf("logging.dir: %w", err)
		}
		c.Logging.Dir = expanded
	}
	return nil
}
