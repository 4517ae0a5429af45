package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Server contains HTTP listener configuration.
type Server struct {
	Port              int      `toml:"port"`
	CORSOrigins       []string `toml:"cors_origins"`
	ReadHeaderTimeout int      `toml:"read_header_timeout"`
	ShutdownTimeout   int      `toml:"shutdown_timeout"`
}

// Hash contains perceptual hashing configuration shared by the identify
// endpoint and the reference table builder.
type Hash struct {
	Method              string  `toml:"method"`
	Size                int     `toml:"size"`
	SimilarityThreshold float64 `toml:"similarity_threshold"`
}

// Identify contains configuration for the image identification endpoint.
type Identify struct {
	MaxUploadBytes int64 `toml:"max_upload_bytes"`
	RefineCrops    bool  `toml:"refine_crops"`
	FetchTimeout   int   `toml:"fetch_timeout"`
}

// Reference contains configuration for the reference table source. When Dir
// is set the table is loaded from local image files; otherwise it is warmed
// from PokeAPI sprites at startup.
type Reference struct {
	Dir             string `toml:"dir"`
	Limit           int    `toml:"limit"`
	WarmConcurrency int    `toml:"warm_concurrency"`
	WarmTimeout     int    `toml:"warm_timeout"`
}

// PokeAPI contains configuration for the upstream PokeAPI client.
type PokeAPI struct {
	BaseURL       string `toml:"base_url"`
	SpriteBaseURL string `toml:"sprite_base_url"`
	Timeout       int    `toml:"timeout"`
	UserAgent     string `toml:"user_agent"`
}

// Cache contains configuration for the response cache backend.
type Cache struct {
	Backend       string `toml:"backend"`
	TTLSeconds    int    `toml:"ttl_seconds"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// Chat contains configuration for the question answering endpoint.
type Chat struct {
	DefaultListCount int  `toml:"default_list_count"`
	MaxListCount     int  `toml:"max_list_count"`
	CacheAnswers     bool `toml:"cache_answers"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	Dir    string `toml:"dir"`
}

// Config encapsulates all configuration values for the service.
//
// Configuration sections by subsystem:
//   - Server: HTTP port, CORS origins, and shutdown timing
//   - Hash: perceptual hash method, size, and similarity threshold
//   - Identify: upload limits, URL fetch timeout, crop refinement
//   - Reference: reference table source (local dir or PokeAPI warm)
//   - PokeAPI: upstream base URLs, timeout, and user agent
//   - Cache: response cache backend (memory or redis) and TTL
//   - Chat: list sizes and answer caching
//   - Logging: log format, level, and output directory
type Config struct {
	Server    Server    `toml:"server"`
	Hash      Hash      `toml:"hash"`
	Identify  Identify  `toml:"identify"`
	Reference Reference `toml:"reference"`
	PokeAPI   PokeAPI   `toml:"pokeapi"`
	Cache     Cache     `toml:"cache"`
	Chat      Chat      `toml:"chat"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/pokechat/config.toml")
}

// Load locates, parses, and validates a configuration file. Environment
// variables override file values; a .env file in the working directory is
// read first so local development can set them without exporting.
func Load(path string) (*Config, string, bool, error) {
	_ = godotenv.Load()

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = strings.TrimSpace(os.Getenv("POKECHAT_CONFIG"))
	}
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("pokechat.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Render returns the effective configuration encoded as TOML.
func (c *Config) Render() (string, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(data), nil
}

// ListenAddr returns the HTTP bind address for the configured port.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
