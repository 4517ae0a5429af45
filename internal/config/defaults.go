package config

const (
	defaultPort                = 8000
	defaultReadHeaderTimeout   = 10
	defaultShutdownTimeout     = 10
	defaultHashMethod          = "phash"
	defaultHashSize            = 8
	defaultSimilarityThreshold = 0.9
	defaultMaxUploadBytes      = 10 << 20
	defaultFetchTimeout        = 15
	defaultReferenceLimit      = 151
	defaultWarmConcurrency     = 16
	defaultWarmTimeout         = 120
	defaultPokeAPIBaseURL      = "https://pokeapi.co/api/v2"
	defaultSpriteBaseURL       = "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon"
	defaultPokeAPITimeout      = 15
	defaultUserAgent           = "Mozilla/5.0 (compatible; PokeChat/0.3.0)"
	defaultCacheBackend        = "memory"
	defaultCacheTTLSeconds     = 600
	defaultListCount           = 5
	defaultMaxListCount        = 50
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			Port:              defaultPort,
			CORSOrigins:       []string{"*"},
			ReadHeaderTimeout: defaultReadHeaderTimeout,
			ShutdownTimeout:   defaultShutdownTimeout,
		},
		Hash: Hash{
			Method:              defaultHashMethod,
			Size:                defaultHashSize,
			SimilarityThreshold: defaultSimilarityThreshold,
		},
		Identify: Identify{
			MaxUploadBytes: defaultMaxUploadBytes,
			RefineCrops:    true,
			FetchTimeout:   defaultFetchTimeout,
		},
		Reference: Reference{
			Limit:           defaultReferenceLimit,
			WarmConcurrency: defaultWarmConcurrency,
			WarmTimeout:     defaultWarmTimeout,
		},
		PokeAPI: PokeAPI{
			BaseURL:       defaultPokeAPIBaseURL,
			SpriteBaseURL: defaultSpriteBaseURL,
			Timeout:       defaultPokeAPITimeout,
			UserAgent:     defaultUserAgent,
		},
		Cache: Cache{
			Backend:    defaultCacheBackend,
			TTLSeconds: defaultCacheTTLSeconds,
		},
		Chat: Chat{
			DefaultListCount: defaultListCount,
			MaxListCount:     defaultMaxListCount,
			CacheAnswers:     true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
