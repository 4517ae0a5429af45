package testsupport

import (
	"testing"

	"pokechat/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config suitable for tests: defaults plus a temp
// reference directory and quiet logging. Options are applied last.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Reference.Dir = t.TempDir()
	cfg.Logging.Level = "error"
	cfg.Cache.Backend = "memory"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithHash sets the hashing parameters on the test config.
func WithHash(method string, size int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Hash.Method = method
		cfg.Hash.Size = size
	}
}

// WithThreshold sets the similarity threshold on the test config.
func WithThreshold(threshold float64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Hash.SimilarityThreshold = threshold
	}
}

// WithRefineCrops toggles crop refinement on the test config.
func WithRefineCrops(enabled bool) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Identify.RefineCrops = enabled
	}
}
