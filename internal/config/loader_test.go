package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Server.Port)
	}
	if cfg.Gemini.Model != "gemini-1.5-flash" {
		t.Fatalf("expected default model, got %q", cfg.Gemini.Model)
	}
	if cfg.Search.ResultsPerSub != 3 {
		t.Fatalf("expected 3 results per sub-question, got %d", cfg.Search.ResultsPerSub)
	}
	if cfg.Scraper.MaxLength != 3000 {
		t.Fatalf("expected 3000 scrape cap, got %d", cfg.Scraper.MaxLength)
	}
}

func TestLoadFromYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deepscout.yaml")
	yaml := `
server:
  port: "9090"
search:
  results_per_sub: 5
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Fatalf("expected port 9090, got %q", cfg.Server.Port)
	}
	if cfg.Search.ResultsPerSub != 5 {
		t.Fatalf("expected 5 results, got %d", cfg.Search.ResultsPerSub)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected debug level, got %q", cfg.Logging.Level)
	}
	// Untouched sections keep defaults.
	if cfg.NATS.URL != "nats://localhost:4222" {
		t.Fatalf("expected default nats url, got %q", cfg.NATS.URL)
	}
}

func TestLoadFromEnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deepscout.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: \"9090\"\n"), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	t.Setenv("DEEPSCOUT_PORT", "7070")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("DEEPSCOUT_GEMINI_TIMEOUT", "90s")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != "7070" {
		t.Fatalf("env must beat yaml: got %q", cfg.Server.Port)
	}
	if cfg.Gemini.APIKey != "test-key" {
		t.Fatalf("expected api key from env, got %q", cfg.Gemini.APIKey)
	}
	if cfg.Gemini.Timeout != 90*time.Second {
		t.Fatalf("expected 90s timeout, got %v", cfg.Gemini.Timeout)
	}
}

func TestLoadFromRejectsInvalidValues(t *testing.T) {
	t.Setenv("DEEPSCOUT_SEARCH_RESULTS_PER_SUB", "0")

	_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadFromBadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deepscout.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected parse error")
	}
}
