package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// applyEnv overlays environment variables onto the decoded configuration.
// Environment values win over file values. Malformed numeric values are
// load errors rather than silent fallbacks.
func (c *Config) applyEnv() error {
	if err := applyEnvInt("PORT", &c.Server.Port); err != nil {
		return err
	}
	applyEnvList("CORS_ORIGINS", &c.Server.CORSOrigins)

	applyEnvString("HASH_METHOD", &c.Hash.Method)
	if err := applyEnvInt("HASH_SIZE", &c.Hash.Size); err != nil {
		return err
	}
	if err := applyEnvFloat("SIMILARITY_THRESHOLD", &c.Hash.SimilarityThreshold); err != nil {
		return err
	}

	applyEnvString("REFERENCE_DIR", &c.Reference.Dir)
	if err := applyEnvInt("REFERENCE_LIMIT", &c.Reference.Limit); err != nil {
		return err
	}

	applyEnvString("POKEAPI_BASE_URL", &c.PokeAPI.BaseURL)
	applyEnvString("POKEAPI_SPRITE_BASE_URL", &c.PokeAPI.SpriteBaseURL)

	applyEnvString("CACHE_BACKEND", &c.Cache.Backend)
	if err := applyEnvInt("CACHE_TTL_SECONDS", &c.Cache.TTLSeconds); err != nil {
		return err
	}
	applyEnvString("REDIS_ADDR", &c.Cache.RedisAddr)
	applyEnvString("REDIS_PASSWORD", &c.Cache.RedisPassword)
	if err := applyEnvInt("REDIS_DB", &c.Cache.RedisDB); err != nil {
		return err
	}

	applyEnvString("LOG_LEVEL", &c.Logging.Level)
	applyEnvString("LOG_FORMAT", &c.Logging.Format)
	applyEnvString("LOG_DIR", &c.Logging.Dir)

	return nil
}

func applyEnvString(key string, dst *string) {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		*dst = strings.TrimSpace(value)
	}
}

func applyEnvInt(key string, dst *int) error {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%s: invalid integer %q", key, value)
	}
	*dst = parsed
	return nil
}

func applyEnvFloat(key string, dst *float64) error {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fmt.Errorf("%s: invalid number %q", key, value)
	}
	*dst = parsed
	return nil
}

func applyEnvList(key string, dst *[]string) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	parts := splitList(value)
	if len(parts) == 0 {
		return
	}
	*dst = parts
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
