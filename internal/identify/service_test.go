package identify

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"net/http"
	"sync/atomic"
	"testing"

	"pokechat/internal/config"
	"pokechat/internal/imagehash"
	"pokechat/internal/logging"
	"pokechat/internal/services"
	"pokechat/internal/testsupport"
)

type staticFetcher struct {
	data    []byte
	err     error
	lastURL atomic.Value
}

func (f *staticFetcher) GetBytes(_ context.Context, rawURL string) ([]byte, error) {
	f.lastURL.Store(rawURL)
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

func buildSet(t *testing.T, cfg *config.Config, refs map[string]image.Image) *Set {
	t.Helper()
	method, err := imagehash.ParseMethod(cfg.Hash.Method)
	if err != nil {
		t.Fatalf("ParseMethod failed: %v", err)
	}
	entries := make([]Entry, 0, len(refs))
	for name, img := range refs {
		h, err := imagehash.Compute(img, method, cfg.Hash.Size)
		if err != nil {
			t.Fatalf("Compute failed: %v", err)
		}
		entries = append(entries, Entry{Name: name, Hash: h})
	}
	set, err := NewSet(method, cfg.Hash.Size, entries)
	if err != nil {
		t.Fatalf("NewSet failed: %v", err)
	}
	return set
}

func newTestService(t *testing.T, cfg *config.Config, set *Set, fetcher Fetcher) *Service {
	t.Helper()
	svc, err := NewService(cfg, set, fetcher, logging.NewNop())
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return svc
}

func TestIdentifyExactMatch(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithHash("ahash", 8), testsupport.WithRefineCrops(false))
	ref := testsupport.SplitImage(true, true)
	set := buildSet(t, cfg, map[string]image.Image{
		"bulbasaur": ref,
		"zubat":     testsupport.SplitImage(true, false),
	})
	svc := newTestService(t, cfg, set, nil)

	match, err := svc.Identify(context.Background(), testsupport.PNGBytes(t, ref))
	if err != nil {
		t.Fatalf("Identify failed: %v", err)
	}
	if !match.Matched || match.Entity != "bulbasaur" {
		t.Errorf("match = %+v, want bulbasaur", match)
	}
	if match.Similarity != 1 {
		t.Errorf("similarity = %v, want 1", match.Similarity)
	}
	if match.Verdict != VerdictLikelyAccurate {
		t.Errorf("verdict = %q, want %q", match.Verdict, VerdictLikelyAccurate)
	}
}

func TestIdentifyBelowThresholdReportsNullEntity(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithHash("ahash", 8), testsupport.WithRefineCrops(false))
	set := buildSet(t, cfg, map[string]image.Image{
		"bulbasaur": testsupport.SplitImage(true, true),
		"zubat":     testsupport.SplitImage(true, false),
	})
	svc := newTestService(t, cfg, set, nil)

	match, err := svc.Identify(context.Background(), testsupport.PNGBytes(t, testsupport.SplitImage(false, true)))
	if err != nil {
		t.Fatalf("Identify failed: %v", err)
	}
	if match.Matched || match.Entity != "" {
		t.Errorf("match = %+v, want unmatched with empty entity", match)
	}
	if match.Similarity != 0.5 {
		t.Errorf("similarity = %v, want 0.5", match.Similarity)
	}
	if match.Verdict != VerdictPotentialInaccurate {
		t.Errorf("verdict = %q, want %q", match.Verdict, VerdictPotentialInaccurate)
	}

	encoded, err := json.Marshal(match)
	if err != nil {
		t.Fatalf("marshal match: %v", err)
	}
	var wire struct {
		Entity     *string `json:"entity"`
		Similarity float64 `json:"similarity"`
		Verdict    string  `json:"verdict"`
	}
	if err := json.Unmarshal(encoded, &wire); err != nil {
		t.Fatalf("unmarshal match: %v", err)
	}
	if wire.Entity != nil {
		t.Errorf("wire entity = %v, want null", *wire.Entity)
	}
	if wire.Similarity != 0.5 || wire.Verdict != VerdictPotentialInaccurate {
		t.Errorf("wire = %+v", wire)
	}
}

func TestIdentifyMatchesJPEGReencode(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithHash("phash", 8))
	gradient := testsupport.GradientImage(128)
	set := buildSet(t, cfg, map[string]image.Image{
		"mew":       gradient,
		"bulbasaur": testsupport.SplitImage(true, true),
	})
	svc := newTestService(t, cfg, set, nil)

	match, err := svc.Identify(context.Background(), testsupport.JPEGBytes(t, gradient, 85))
	if err != nil {
		t.Fatalf("Identify failed: %v", err)
	}
	if !match.Matched || match.Entity != "mew" {
		t.Errorf("match = %+v, want mew", match)
	}
	if match.Similarity < cfg.Hash.SimilarityThreshold {
		t.Errorf("similarity = %v, want at least %v", match.Similarity, cfg.Hash.SimilarityThreshold)
	}
}

func TestIdentifyRefinementNeverLowersResult(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithHash("ahash", 8), testsupport.WithRefineCrops(true))
	ref := testsupport.SplitImage(true, true)
	set := buildSet(t, cfg, map[string]image.Image{"bulbasaur": ref})
	svc := newTestService(t, cfg, set, nil)

	match, err := svc.Identify(context.Background(), testsupport.PNGBytes(t, ref))
	if err != nil {
		t.Fatalf("Identify failed: %v", err)
	}
	if !match.Matched || match.Similarity != 1 {
		t.Errorf("identical image with refinement = %+v", match)
	}

	match, err = svc.Identify(context.Background(), testsupport.PNGBytes(t, testsupport.SplitImage(false, true)))
	if err != nil {
		t.Fatalf("Identify failed: %v", err)
	}
	if match.Matched || match.Similarity >= cfg.Hash.SimilarityThreshold {
		t.Errorf("unrelated image with refinement = %+v", match)
	}
}

func TestIdentifyEmptyTableIsUpstreamError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	svc := newTestService(t, cfg, EmptySet(imagehash.MethodPHash, cfg.Hash.Size), nil)

	_, err := svc.Identify(context.Background(), testsupport.PNGBytes(t, testsupport.GradientImage(32)))
	if !errors.Is(err, services.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if got := services.HTTPStatus(err); got != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", got, http.StatusServiceUnavailable)
	}
}

func TestIdentifyRejectsBadPayloads(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithHash("ahash", 8))
	set := buildSet(t, cfg, map[string]image.Image{"bulbasaur": testsupport.SplitImage(true, true)})
	svc := newTestService(t, cfg, set, nil)

	_, err := svc.Identify(context.Background(), []byte("definitely not an image"))
	if !errors.Is(err, services.ErrDecode) {
		t.Errorf("expected decode error, got %v", err)
	}
	if got := services.HTTPStatus(err); got != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", got, http.StatusBadRequest)
	}

	_, err = svc.Identify(context.Background(), nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestIdentifyURLSanitizesInput(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithHash("ahash", 8), testsupport.WithRefineCrops(false))
	ref := testsupport.SplitImage(true, true)
	set := buildSet(t, cfg, map[string]image.Image{"bulbasaur": ref})
	fetcher := &staticFetcher{data: testsupport.PNGBytes(t, ref)}
	svc := newTestService(t, cfg, set, fetcher)

	match, err := svc.IdentifyURL(context.Background(), `  @<"https://images.test/bulbasaur.png">  `)
	if err != nil {
		t.Fatalf("IdentifyURL failed: %v", err)
	}
	if !match.Matched || match.Entity != "bulbasaur" {
		t.Errorf("match = %+v, want bulbasaur", match)
	}
	if got := fetcher.lastURL.Load(); got != "https://images.test/bulbasaur.png" {
		t.Errorf("fetched url = %v, want the sanitized form", got)
	}
}

func TestIdentifyURLRejectsBadURLs(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithHash("ahash", 8))
	set := buildSet(t, cfg, map[string]image.Image{"bulbasaur": testsupport.SplitImage(true, true)})
	svc := newTestService(t, cfg, set, &staticFetcher{})

	for _, raw := range []string{"", "   ", "ftp://files.test/a.png", "images.test/a.png", "https://"} {
		_, err := svc.IdentifyURL(context.Background(), raw)
		if !errors.Is(err, services.ErrFetch) {
			t.Errorf("IdentifyURL(%q): expected fetch error, got %v", raw, err)
		}
	}
}

func TestIdentifyURLWrapsFetchFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithHash("ahash", 8))
	set := buildSet(t, cfg, map[string]image.Image{"bulbasaur": testsupport.SplitImage(true, true)})
	fetcher := &staticFetcher{err: errors.New("connection refused")}
	svc := newTestService(t, cfg, set, fetcher)

	_, err := svc.IdentifyURL(context.Background(), "https://images.test/a.png")
	if !errors.Is(err, services.ErrFetch) {
		t.Errorf("expected fetch error, got %v", err)
	}
	if got := services.HTTPStatus(err); got != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", got, http.StatusBadRequest)
	}
}
