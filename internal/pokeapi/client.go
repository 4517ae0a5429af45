package pokeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pokechat/internal/cache"
	"pokechat/internal/textutil"
)

// ErrNotFound reports that the upstream has no resource under the
// requested name. Lookup methods translate it to a nil result; GetBytes
// surfaces it so callers can skip missing sprites.
var ErrNotFound = errors.New("pokeapi resource not found")

const (
	defaultTimeout       = 15 * time.Second
	defaultMaxFetchBytes = 10 << 20
	healthProbeKey       = "pokeapi:healthy"
	healthProbeTTL       = time.Minute
)

// API defines the upstream operations the service consumes. Lookup methods
// return (nil, nil) when the upstream does not know the name.
type API interface {
	GetPokemon(ctx context.Context, name string) (*Pokemon, error)
	GetSpecies(ctx context.Context, name string) (*Species, error)
	GetType(ctx context.Context, name string) (*TypeInfo, error)
	GetAbility(ctx context.Context, name string) (*Ability, error)
	GetMove(ctx context.Context, name string) (*Move, error)
	ListPokemon(ctx context.Context, limit, offset int) (*Page, error)
	GetBytes(ctx context.Context, rawURL string) ([]byte, error)
	SpriteURL(id int) string
	Healthy(ctx context.Context) error
}

// Client talks to a PokéAPI-compatible endpoint.
type Client struct {
	baseURL       string
	spriteBaseURL string
	userAgent     string
	maxFetchBytes int64
	httpClient    *http.Client
	cache         cache.Cache
	cacheTTL      time.Duration
}

var _ API = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithUserAgent sets the User-Agent header on outgoing requests.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		if agent = strings.TrimSpace(agent); agent != "" {
			c.userAgent = agent
		}
	}
}

// WithCache stores successful JSON responses in the given cache.
func WithCache(store cache.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = store
		c.cacheTTL = ttl
	}
}

// WithMaxFetchBytes caps the size of bodies read by GetBytes.
func WithMaxFetchBytes(limit int64) Option {
	return func(c *Client) {
		if limit > 0 {
			c.maxFetchBytes = limit
		}
	}
}

// New creates a PokéAPI client.
func New(baseURL, spriteBaseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("pokeapi base url required")
	}
	spriteBaseURL = strings.TrimSpace(spriteBaseURL)
	if spriteBaseURL == "" {
		return nil, errors.New("pokeapi sprite base url required")
	}
	client := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		spriteBaseURL: strings.TrimRight(spriteBaseURL, "/"),
		maxFetchBytes: defaultMaxFetchBytes,
		httpClient:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// GetPokemon fetches a Pokémon by name or numeric ID.
func (c *Client) GetPokemon(ctx context.Context, name string) (*Pokemon, error) {
	name = textutil.Slug(name)
	if name == "" {
		return nil, errors.New("pokemon name must not be empty")
	}
	var payload Pokemon
	err := c.fetchJSON(ctx, c.baseURL+"/pokemon/"+url.PathEscape(name), &payload, true)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetSpecies fetches species lore by name or numeric ID.
func (c *Client) GetSpecies(ctx context.Context, name string) (*Species, error) {
	name = textutil.Slug(name)
	if name == "" {
		return nil, errors.New("species name must not be empty")
	}
	var payload Species
	err := c.fetchJSON(ctx, c.baseURL+"/pokemon-species/"+url.PathEscape(name), &payload, true)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetType fetches an elemental type by name.
func (c *Client) GetType(ctx context.Context, name string) (*TypeInfo, error) {
	name = textutil.Slug(name)
	if name == "" {
		return nil, errors.New("type name must not be empty")
	}
	var payload TypeInfo
	err := c.fetchJSON(ctx, c.baseURL+"/type/"+url.PathEscape(name), &payload, true)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetAbility fetches an ability by name.
func (c *Client) GetAbility(ctx context.Context, name string) (*Ability, error) {
	name = textutil.Slug(name)
	if name == "" {
		return nil, errors.New("ability name must not be empty")
	}
	var payload Ability
	err := c.fetchJSON(ctx, c.baseURL+"/ability/"+url.PathEscape(name), &payload, true)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetMove fetches a move by name.
func (c *Client) GetMove(ctx context.Context, name string) (*Move, error) {
	name = textutil.Slug(name)
	if name == "" {
		return nil, errors.New("move name must not be empty")
	}
	var payload Move
	err := c.fetchJSON(ctx, c.baseURL+"/move/"+url.PathEscape(name), &payload, true)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payload, nil
}

// ListPokemon fetches one window of the Pokémon index.
func (c *Client) ListPokemon(ctx context.Context, limit, offset int) (*Page, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be positive")
	}
	if offset < 0 {
		return nil, errors.New("offset must not be negative")
	}
	var payload Page
	target := fmt.Sprintf("%s/pokemon?limit=%d&offset=%d", c.baseURL, limit, offset)
	if err := c.fetchJSON(ctx, target, &payload, true); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetBytes downloads a raw resource, typically a sprite image. The body is
// capped at the configured fetch limit.
func (c *Client) GetBytes(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, rawURL)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s returned %d (latency=%v)", rawURL, resp.StatusCode, latency)
	}
	if resp.ContentLength > c.maxFetchBytes {
		return nil, fmt.Errorf("resource is %d bytes, limit is %d", resp.ContentLength, c.maxFetchBytes)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxFetchBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if int64(len(data)) > c.maxFetchBytes {
		return nil, fmt.Errorf("resource exceeds the %d byte limit", c.maxFetchBytes)
	}
	if len(data) == 0 {
		return nil, errors.New("empty response body")
	}
	return data, nil
}

// SpriteURL returns the canonical front sprite location for a Pokémon ID.
func (c *Client) SpriteURL(id int) string {
	return fmt.Sprintf("%s/%d.png", c.spriteBaseURL, id)
}

// Healthy probes upstream connectivity. Successful probes are remembered
// briefly so health checks stay cheap; the probe itself always bypasses the
// response cache.
func (c *Client) Healthy(ctx context.Context) error {
	if c.cache != nil {
		if _, ok, err := c.cache.Get(ctx, healthProbeKey); err == nil && ok {
			return nil
		}
	}

	var payload Page
	target := c.baseURL + "/pokemon?limit=1&offset=0"
	if err := c.fetchJSON(ctx, target, &payload, false); err != nil {
		return err
	}
	if payload.Count <= 0 {
		return errors.New("pokeapi returned an empty index")
	}

	if c.cache != nil {
		_ = c.cache.Set(ctx, healthProbeKey, []byte("ok"), healthProbeTTL)
	}
	return nil
}

// fetchJSON performs a GET against target and decodes the body into out.
// Cached bodies are reused when useCache is set; a body that no longer
// decodes falls through to the network.
func (c *Client) fetchJSON(ctx context.Context, target string, out any, useCache bool) error {
	cacheKey := "pokeapi:" + target
	if useCache && c.cache != nil {
		if data, ok, err := c.cache.Get(ctx, cacheKey); err == nil && ok {
			if json.Unmarshal(data, out) == nil {
				return nil
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, target)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pokeapi returned %d for %s (latency=%v)", resp.StatusCode, target, latency)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode pokeapi response: %w", err)
	}

	if useCache && c.cache != nil {
		_ = c.cache.Set(ctx, cacheKey, body, c.cacheTTL)
	}
	return nil
}
