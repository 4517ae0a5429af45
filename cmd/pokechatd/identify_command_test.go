package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"pokechat/internal/testsupport"
)

// referenceConfig writes a config file whose reference table is a local
// directory holding a single pikachu image.
func referenceConfig(t *testing.T) string {
	t.Helper()
	refDir := t.TempDir()
	testsupport.WriteImage(t, filepath.Join(refDir, "pikachu.png"), testsupport.GradientImage(64))
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, cfgPath, fmt.Sprintf("[reference]\ndir = %q\n", refDir))
	return cfgPath
}

func TestIdentifyCommandMatchesLocalFile(t *testing.T) {
	cfgPath := referenceConfig(t)
	query := filepath.Join(t.TempDir(), "query.png")
	testsupport.WriteImage(t, query, testsupport.GradientImage(64))

	out, _, err := runCLI(t, []string{"identify", query}, cfgPath)
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	requireContains(t, out, "Entity:     pikachu")
	requireContains(t, out, "Similarity: 1.0000")
	requireContains(t, out, "Matched:    yes")
	requireContains(t, out, "likely_accurate")
}

func TestIdentifyCommandJSON(t *testing.T) {
	cfgPath := referenceConfig(t)
	query := filepath.Join(t.TempDir(), "query.png")
	testsupport.WriteImage(t, query, testsupport.GradientImage(64))

	out, _, err := runCLI(t, []string{"identify", query, "--json"}, cfgPath)
	if err != nil {
		t.Fatalf("identify --json: %v", err)
	}

	var payload struct {
		Entity     *string `json:"entity"`
		Similarity float64 `json:"similarity"`
		Verdict    string  `json:"verdict"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if payload.Entity == nil || *payload.Entity != "pikachu" {
		t.Errorf("entity = %v, want pikachu", payload.Entity)
	}
	if payload.Similarity != 1 {
		t.Errorf("similarity = %v, want 1", payload.Similarity)
	}
	if payload.Verdict != "likely_accurate" {
		t.Errorf("verdict = %q, want likely_accurate", payload.Verdict)
	}
}

func TestIdentifyCommandNoMatch(t *testing.T) {
	refDir := t.TempDir()
	testsupport.WriteImage(t, filepath.Join(refDir, "umbreon.png"), testsupport.SplitImage(true, true))
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, cfgPath, fmt.Sprintf(
		"[hash]\nmethod = \"ahash\"\n\n[identify]\nrefine_crops = false\n\n[reference]\ndir = %q\n",
		refDir,
	))

	query := filepath.Join(t.TempDir(), "query.png")
	testsupport.WriteImage(t, query, testsupport.SplitImage(true, false))

	out, _, err := runCLI(t, []string{"identify", query}, cfgPath)
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	requireContains(t, out, "(no match)")
	requireContains(t, out, "Similarity: 0.0000")
	requireContains(t, out, "Matched:    no")
	requireContains(t, out, "potential_inaccurate")
}

func TestIdentifyCommandMissingFile(t *testing.T) {
	cfgPath := referenceConfig(t)

	_, _, err := runCLI(t, []string{"identify", filepath.Join(t.TempDir(), "nope.png")}, cfgPath)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	requireContains(t, err.Error(), "read image")
}

func TestIsRemoteTarget(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"https://example.test/a.png", true},
		{"HTTP://EXAMPLE.TEST/a.png", true},
		{"./local.png", false},
		{"sprite.png", false},
		{"ftp://example.test/a.png", false},
	}
	for _, tc := range cases {
		if got := isRemoteTarget(tc.in); got != tc.want {
			t.Errorf("isRemoteTarget(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
