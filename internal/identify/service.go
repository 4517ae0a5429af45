package identify

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"pokechat/internal/config"
	"pokechat/internal/imagehash"
	"pokechat/internal/logging"
	"pokechat/internal/services"
)

// refineRatios are the centered crop ratios tried when the initial scan
// stays below the threshold. Tighter crops strip background that sprites
// and photos disagree on.
var refineRatios = []float64{0.9, 0.8, 0.7}

// Fetcher downloads raw image bytes for URL-based identification.
type Fetcher interface {
	GetBytes(ctx context.Context, rawURL string) ([]byte, error)
}

// Service identifies images against the reference table.
type Service struct {
	set       *Set
	method    imagehash.Method
	size      int
	threshold float64
	refine    bool
	fetcher   Fetcher
	fetchWait time.Duration
	logger    *slog.Logger
}

// NewService wires an identification service from the validated config.
func NewService(cfg *config.Config, set *Set, fetcher Fetcher, logger *slog.Logger) (*Service, error) {
	if set == nil {
		return nil, errors.New("reference set required")
	}
	method, err := imagehash.ParseMethod(cfg.Hash.Method)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "identify", "invalid hash method", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		set:       set,
		method:    method,
		size:      cfg.Hash.Size,
		threshold: cfg.Hash.SimilarityThreshold,
		refine:    cfg.Identify.RefineCrops,
		fetcher:   fetcher,
		fetchWait: time.Duration(cfg.Identify.FetchTimeout) * time.Second,
		logger:    logging.NewComponentLogger(logger, "identify"),
	}, nil
}

// Identify decodes the image, hashes it, and scans the reference table.
// When nothing clears the threshold the result still carries the best score
// with a null entity.
func (s *Service) Identify(ctx context.Context, data []byte) (Match, error) {
	if s.set.Len() == 0 {
		return Match{}, services.Wrap(services.ErrUpstream, "identify", "reference table is empty", nil)
	}
	if len(data) == 0 {
		return Match{}, services.Wrap(services.ErrValidation, "identify", "empty image payload", nil)
	}

	img, err := imagehash.Decode(data)
	if err != nil {
		return Match{}, services.Wrap(services.ErrDecode, "identify", "unreadable image", err)
	}
	query, err := imagehash.Compute(img, s.method, s.size)
	if err != nil {
		return Match{}, services.Wrap(services.ErrConfiguration, "identify", "hash computation failed", err)
	}

	name, score, err := s.set.Best(query)
	if err != nil {
		return Match{}, services.Wrap(services.ErrConfiguration, "identify", "reference scan failed", err)
	}

	if s.refine && score < s.threshold {
		name, score = s.refineWithCrops(img, name, score)
	}

	match := newMatch(name, score, s.threshold)
	logger := logging.WithContext(ctx, s.logger)
	logger.Debug("identification complete",
		logging.String(logging.FieldHashMethod, string(s.method)),
		logging.String(logging.FieldEntity, match.Entity),
		logging.Float64(logging.FieldSimilarity, match.Similarity),
		logging.Bool("matched", match.Matched))
	return match, nil
}

// refineWithCrops rescans progressively tighter center crops and keeps the
// overall best. It can only raise the reported score.
func (s *Service) refineWithCrops(img image.Image, name string, score float64) (string, float64) {
	for _, ratio := range refineRatios {
		cropped := imagehash.CenterCrop(img, ratio)
		candidate, err := imagehash.Compute(cropped, s.method, s.size)
		if err != nil {
			continue
		}
		candName, candScore, err := s.set.Best(candidate)
		if err != nil {
			continue
		}
		if candScore > score {
			name, score = candName, candScore
		}
	}
	return name, score
}

// IdentifyURL sanitizes and downloads the image behind the URL, then runs
// Identify on the bytes.
func (s *Service) IdentifyURL(ctx context.Context, rawURL string) (Match, error) {
	if s.fetcher == nil {
		return Match{}, services.Wrap(services.ErrConfiguration, "identify", "url fetching not configured", nil)
	}
	cleaned, err := sanitizeURL(rawURL)
	if err != nil {
		return Match{}, services.Wrap(services.ErrFetch, "identify", "invalid image url", err)
	}
	fetchCtx := ctx
	if s.fetchWait > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.fetchWait)
		defer cancel()
	}
	data, err := s.fetcher.GetBytes(fetchCtx, cleaned)
	if err != nil {
		return Match{}, services.Wrap(services.ErrFetch, "identify", fmt.Sprintf("download %s", cleaned), err)
	}
	return s.Identify(ctx, data)
}

// sanitizeURL strips the decoration chat clients wrap links in: leading @,
// angle brackets, quotes, stray whitespace. Only http and https survive.
func sanitizeURL(raw string) (string, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "@")
	if strings.HasPrefix(cleaned, "<") && strings.HasSuffix(cleaned, ">") && len(cleaned) >= 2 {
		cleaned = cleaned[1 : len(cleaned)-1]
	}
	cleaned = strings.Trim(cleaned, `"'`)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return "", errors.New("url must not be empty")
	}

	parsed, err := url.Parse(cleaned)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported url scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", errors.New("url is missing a host")
	}
	return cleaned, nil
}
