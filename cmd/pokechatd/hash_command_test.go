package main

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"pokechat/internal/testsupport"
)

func writeTestImage(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	testsupport.WriteImage(t, path, testsupport.GradientImage(64))
	return path
}

func TestHashCommandJSON(t *testing.T) {
	path := writeTestImage(t, "gradient.png")

	out, _, err := runCLI(t, []string{"hash", path, "--json"}, missingConfigPath(t))
	if err != nil {
		t.Fatalf("hash --json: %v", err)
	}

	var results []hashResult
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	got := results[0]
	if got.File != path {
		t.Errorf("file = %q, want %q", got.File, path)
	}
	if got.Method != "phash" {
		t.Errorf("method = %q, want phash (configured default)", got.Method)
	}
	if got.Size != 8 || got.Bits != 64 {
		t.Errorf("size/bits = %d/%d, want 8/64", got.Size, got.Bits)
	}
	if len(got.Hash) != 16 {
		t.Errorf("hash = %q, want 16 hex digits", got.Hash)
	}
}

func TestHashCommandMethodOverride(t *testing.T) {
	path := writeTestImage(t, "gradient.png")

	out, _, err := runCLI(t, []string{"hash", path, "--method", "dhash", "--size", "4", "--json"}, missingConfigPath(t))
	if err != nil {
		t.Fatalf("hash override: %v", err)
	}

	var results []hashResult
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if results[0].Method != "dhash" || results[0].Bits != 16 {
		t.Errorf("got %s/%d bits, want dhash/16", results[0].Method, results[0].Bits)
	}
}

func TestHashCommandPlainOutputForPipes(t *testing.T) {
	path := writeTestImage(t, "gradient.png")

	out, _, err := runCLI(t, []string{"hash", path}, missingConfigPath(t))
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	// Buffers are not terminals, so output is the tab-separated form.
	line := strings.TrimSpace(out)
	fields := strings.Split(line, "\t")
	if len(fields) != 4 {
		t.Fatalf("expected 4 tab-separated fields, got %d: %q", len(fields), line)
	}
	if fields[0] != path || fields[1] != "phash" || fields[2] != "64" {
		t.Errorf("unexpected row: %q", line)
	}
}

func TestHashCommandDeterministic(t *testing.T) {
	path := writeTestImage(t, "gradient.png")

	first, _, err := runCLI(t, []string{"hash", path, "--json"}, missingConfigPath(t))
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, _, err := runCLI(t, []string{"hash", path, "--json"}, missingConfigPath(t))
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first != second {
		t.Errorf("hash output changed between runs:\n%s\n%s", first, second)
	}
}

func TestHashCommandRejectsUnknownMethod(t *testing.T) {
	path := writeTestImage(t, "gradient.png")

	_, _, err := runCLI(t, []string{"hash", path, "--method", "md5"}, missingConfigPath(t))
	if err == nil {
		t.Fatal("expected error for unknown method")
	}
	requireContains(t, err.Error(), "md5")
}

func TestHashCommandMissingFile(t *testing.T) {
	_, _, err := runCLI(t, []string{"hash", filepath.Join(t.TempDir(), "nope.png")}, missingConfigPath(t))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	requireContains(t, err.Error(), "read image")
}

func TestHashCommandRequiresArgs(t *testing.T) {
	_, _, err := runCLI(t, []string{"hash"}, missingConfigPath(t))
	if err == nil {
		t.Fatal("expected error for missing arguments")
	}
}
