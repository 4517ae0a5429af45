package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"testing"

	"pokechat/internal/chat"
	"pokechat/internal/config"
	"pokechat/internal/identify"
	"pokechat/internal/imagehash"
	"pokechat/internal/pokeapi"
	"pokechat/internal/testsupport"
)

type fakeAPI struct {
	pokeapi.API

	healthy    func(ctx context.Context) error
	getPokemon func(ctx context.Context, name string) (*pokeapi.Pokemon, error)
	getBytes   func(ctx context.Context, rawURL string) ([]byte, error)
}

func (f *fakeAPI) Healthy(ctx context.Context) error {
	if f.healthy == nil {
		return nil
	}
	return f.healthy(ctx)
}

func (f *fakeAPI) GetPokemon(ctx context.Context, name string) (*pokeapi.Pokemon, error) {
	if f.getPokemon == nil {
		return nil, nil
	}
	return f.getPokemon(ctx, name)
}

func (f *fakeAPI) GetSpecies(context.Context, string) (*pokeapi.Species, error) {
	return nil, nil
}

func (f *fakeAPI) GetType(context.Context, string) (*pokeapi.TypeInfo, error) {
	return nil, nil
}

func (f *fakeAPI) GetAbility(context.Context, string) (*pokeapi.Ability, error) {
	return nil, nil
}

func (f *fakeAPI) GetMove(context.Context, string) (*pokeapi.Move, error) {
	return nil, nil
}

func (f *fakeAPI) GetBytes(ctx context.Context, rawURL string) ([]byte, error) {
	if f.getBytes == nil {
		return nil, pokeapi.ErrNotFound
	}
	return f.getBytes(ctx, rawURL)
}

func pikachuPokemon() *pokeapi.Pokemon {
	p := &pokeapi.Pokemon{
		ID:    25,
		Name:  "pikachu",
		Types: []pokeapi.TypeSlot{{Slot: 1, Type: pokeapi.NamedResource{Name: "electric"}}},
	}
	p.Sprites.FrontDefault = "https://sprites.test/25.png"
	return p
}

// newTestServer builds a full server around a single reference image named
// pikachu.
func newTestServer(t *testing.T, api pokeapi.API, reference image.Image, opts ...testsupport.ConfigOption) *Server {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	cfg.Chat.CacheAnswers = false
	testsupport.WriteImage(t, filepath.Join(cfg.Reference.Dir, "pikachu.png"), reference)

	method, err := imagehash.ParseMethod(cfg.Hash.Method)
	if err != nil {
		t.Fatalf("parse method: %v", err)
	}
	set, err := identify.LoadDir(cfg.Reference.Dir, method, cfg.Hash.Size, nil)
	if err != nil {
		t.Fatalf("load reference dir: %v", err)
	}
	idSvc, err := identify.NewService(cfg, set, api, nil)
	if err != nil {
		t.Fatalf("identify service: %v", err)
	}
	chatSvc := chat.NewService(cfg, api, nil, nil)

	srv, err := New(cfg, Deps{PokeAPI: api, Chat: chatSvc, Identify: idSvc})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv
}

func doRequest(t *testing.T, srv *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

// multipartImage builds a multipart body with one image/png file part and
// optional extra form fields.
func multipartImage(t *testing.T, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="query.png"`)
	header.Set("Content-Type", "image/png")
	part, err := w.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	for key, value := range fields {
		if err := w.WriteField(key, value); err != nil {
			t.Fatalf("write field %s: %v", key, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeAPI{}, testsupport.GradientImage(64))

	rec := doRequest(t, srv, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Status != "ok" || !resp.PokeAPI {
		t.Fatalf("body = %+v, want ok with reachable upstream", resp)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing X-Request-ID header")
	}
}

func TestHealthReportsUnreachableUpstream(t *testing.T) {
	api := &fakeAPI{healthy: func(context.Context) error { return context.DeadlineExceeded }}
	srv := newTestServer(t, api, testsupport.GradientImage(64))

	rec := doRequest(t, srv, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 even when the upstream is down", rec.Code)
	}
	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.PokeAPI {
		t.Fatal("pokeapi should be false when the probe fails")
	}
}

func TestRequestIDPropagation(t *testing.T) {
	srv := newTestServer(t, &fakeAPI{}, testsupport.GradientImage(64))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "trace-42")
	rec := doRequest(t, srv, req)

	if got := rec.Header().Get("X-Request-ID"); got != "trace-42" {
		t.Fatalf("X-Request-ID = %q, want the client value echoed", got)
	}
}

func TestChatEndpoint(t *testing.T) {
	api := &fakeAPI{
		getPokemon: func(_ context.Context, name string) (*pokeapi.Pokemon, error) {
			if name != "pikachu" {
				return nil, nil
			}
			return pikachuPokemon(), nil
		},
	}
	srv := newTestServer(t, api, testsupport.GradientImage(64))

	body := strings.NewReader(`{"question":"what is pikachu"}`)
	req := httptest.NewRequest(http.MethodPost, "/chat", body)
	req.Header.Set("Content-Type", "application/json")
	rec := doRequest(t, srv, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/markdown; charset=utf-8" {
		t.Fatalf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "# Pikachu #25") {
		t.Fatalf("body missing card header:\n%s", rec.Body.String())
	}
}

func TestChatRejectsMalformedJSON(t *testing.T) {
	srv := newTestServer(t, &fakeAPI{}, testsupport.GradientImage(64))

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	rec := doRequest(t, srv, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.Error == "" || resp.RequestID == "" {
		t.Fatalf("error body incomplete: %+v", resp)
	}
}

func TestChatUnknownResource(t *testing.T) {
	srv := newTestServer(t, &fakeAPI{}, testsupport.GradientImage(64))

	body := strings.NewReader(`{"question":"tell me about blorptron"}`)
	req := httptest.NewRequest(http.MethodPost, "/chat", body)
	req.Header.Set("Content-Type", "application/json")
	rec := doRequest(t, srv, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestIdentifyUploadMatch(t *testing.T) {
	api := &fakeAPI{
		getPokemon: func(_ context.Context, name string) (*pokeapi.Pokemon, error) {
			return pikachuPokemon(), nil
		},
	}
	reference := testsupport.GradientImage(64)
	srv := newTestServer(t, api, reference)

	body, contentType := multipartImage(t, testsupport.PNGBytes(t, reference), nil)
	req := httptest.NewRequest(http.MethodPost, "/identify", body)
	req.Header.Set("Content-Type", contentType)
	rec := doRequest(t, srv, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp identifyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Entity == nil || *resp.Entity != "pikachu" {
		t.Fatalf("entity = %v, want pikachu", resp.Entity)
	}
	if resp.Similarity != 1 {
		t.Fatalf("similarity = %v, want 1 for identical bytes", resp.Similarity)
	}
	if resp.Verdict != identify.VerdictLikelyAccurate {
		t.Fatalf("verdict = %q", resp.Verdict)
	}
	if resp.Pokemon == nil || resp.Pokemon.ID != 25 {
		t.Fatalf("pokemon summary = %+v, want id 25", resp.Pokemon)
	}
}

func TestIdentifyUploadNoMatch(t *testing.T) {
	srv := newTestServer(t, &fakeAPI{}, testsupport.SplitImage(true, true),
		testsupport.WithHash("ahash", 8), testsupport.WithRefineCrops(false))

	query := testsupport.SplitImage(true, false)
	body, contentType := multipartImage(t, testsupport.PNGBytes(t, query), nil)
	req := httptest.NewRequest(http.MethodPost, "/identify", body)
	req.Header.Set("Content-Type", contentType)
	rec := doRequest(t, srv, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"entity":null`) {
		t.Fatalf("body should carry a null entity:\n%s", rec.Body.String())
	}
	var resp identifyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Entity != nil {
		t.Fatalf("entity = %q, want null", *resp.Entity)
	}
	if resp.Verdict != identify.VerdictPotentialInaccurate {
		t.Fatalf("verdict = %q", resp.Verdict)
	}
	if resp.Pokemon != nil {
		t.Fatalf("no-match response should not carry a summary: %+v", resp.Pokemon)
	}
}

func TestIdentifyByURL(t *testing.T) {
	reference := testsupport.GradientImage(64)
	var fetched string
	api := &fakeAPI{
		getBytes: func(_ context.Context, rawURL string) ([]byte, error) {
			fetched = rawURL
			return testsupport.PNGBytes(t, reference), nil
		},
	}
	srv := newTestServer(t, api, reference)

	body := strings.NewReader(`{"url":"  https://img.test/query.png  "}`)
	req := httptest.NewRequest(http.MethodPost, "/identify", body)
	req.Header.Set("Content-Type", "application/json")
	rec := doRequest(t, srv, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if fetched != "https://img.test/query.png" {
		t.Fatalf("fetched %q, want the sanitized url", fetched)
	}
	if !strings.Contains(rec.Body.String(), `"entity":"pikachu"`) {
		t.Fatalf("body missing match:\n%s", rec.Body.String())
	}
}

func TestIdentifyRequiresExactlyOneSource(t *testing.T) {
	srv := newTestServer(t, &fakeAPI{}, testsupport.GradientImage(64))

	t.Run("both file and url", func(t *testing.T) {
		data := testsupport.PNGBytes(t, testsupport.GradientImage(64))
		body, contentType := multipartImage(t, data, map[string]string{"url": "https://img.test/q.png"})
		req := httptest.NewRequest(http.MethodPost, "/identify", body)
		req.Header.Set("Content-Type", contentType)
		rec := doRequest(t, srv, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("neither", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/identify", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		rec := doRequest(t, srv, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/identify", nil)
		rec := doRequest(t, srv, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestIdentifyRejectsNonImageUpload(t *testing.T) {
	srv := newTestServer(t, &fakeAPI{}, testsupport.GradientImage(64))

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="notes.txt"`)
	header.Set("Content-Type", "text/plain")
	part, err := w.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write([]byte("not an image")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/identify", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := doRequest(t, srv, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if resp := decodeError(t, rec); !strings.Contains(resp.Error, "content type") {
		t.Fatalf("error = %q, want a content type complaint", resp.Error)
	}
}

func TestIdentifyRejectsOversizedUpload(t *testing.T) {
	srv := newTestServer(t, &fakeAPI{}, testsupport.GradientImage(64), func(cfg *config.Config) {
		cfg.Identify.MaxUploadBytes = 16
	})

	data := testsupport.PNGBytes(t, testsupport.GradientImage(64))
	body, contentType := multipartImage(t, data, nil)
	req := httptest.NewRequest(http.MethodPost, "/identify", body)
	req.Header.Set("Content-Type", contentType)
	rec := doRequest(t, srv, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if resp := decodeError(t, rec); !strings.Contains(resp.Error, "exceeds") {
		t.Fatalf("error = %q, want a size complaint", resp.Error)
	}
}

func TestIdentifyRejectsUndecodableImage(t *testing.T) {
	srv := newTestServer(t, &fakeAPI{}, testsupport.GradientImage(64))

	body, contentType := multipartImage(t, []byte("definitely not png data"), nil)
	req := httptest.NewRequest(http.MethodPost, "/identify", body)
	req.Header.Set("Content-Type", contentType)
	rec := doRequest(t, srv, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.Error == "" || resp.RequestID == "" {
		t.Fatalf("error body incomplete: %+v", resp)
	}
}

func TestIdentifySummaryFailureIsNotFatal(t *testing.T) {
	api := &fakeAPI{
		getPokemon: func(context.Context, string) (*pokeapi.Pokemon, error) {
			return nil, context.DeadlineExceeded
		},
	}
	reference := testsupport.GradientImage(64)
	srv := newTestServer(t, api, reference)

	body, contentType := multipartImage(t, testsupport.PNGBytes(t, reference), nil)
	req := httptest.NewRequest(http.MethodPost, "/identify", body)
	req.Header.Set("Content-Type", contentType)
	rec := doRequest(t, srv, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), `"pokemon"`) {
		t.Fatalf("summary should be omitted on lookup failure:\n%s", rec.Body.String())
	}
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t, &fakeAPI{}, testsupport.GradientImage(64))

	rec := doRequest(t, srv, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Error == "" {
		t.Fatalf("error body incomplete: %+v", resp)
	}
}

func TestCORSAllowAll(t *testing.T) {
	srv := newTestServer(t, &fakeAPI{}, testsupport.GradientImage(64))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://app.test")
	rec := doRequest(t, srv, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestCORSExplicitOrigin(t *testing.T) {
	srv := newTestServer(t, &fakeAPI{}, testsupport.GradientImage(64), func(cfg *config.Config) {
		cfg.Server.CORSOrigins = []string{"http://app.test"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "http://app.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := doRequest(t, srv, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://app.test" {
		t.Fatalf("Access-Control-Allow-Origin = %q", got)
	}
}
