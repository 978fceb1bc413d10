package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Filter.SizeThresholdBytes != 100*1024 {
		t.Errorf("SizeThresholdBytes = %d, want %d", cfg.Filter.SizeThresholdBytes, 100*1024)
	}
	if cfg.Filter.MaxFacts != 20 {
		t.Errorf("MaxFacts = %d, want 20", cfg.Filter.MaxFacts)
	}
	if cfg.Parser.MaxTablesPerItem != 3 {
		t.Errorf("MaxTablesPerItem = %d, want 3", cfg.Parser.MaxTablesPerItem)
	}
	if cfg.Oracle.Provider != "gemini" {
		t.Errorf("Provider = %q, want gemini", cfg.Oracle.Provider)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Server.Addr)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("oracle:\n  provider: deepseek\nfilter:\n  max_facts: 5\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Oracle.Provider != "deepseek" {
		t.Errorf("Provider = %q, want deepseek", cfg.Oracle.Provider)
	}
	if cfg.Filter.MaxFacts != 5 {
		t.Errorf("MaxFacts = %d, want 5", cfg.Filter.MaxFacts)
	}
	// Untouched fields keep defaults.
	if cfg.Parser.MaxChunks != 6 {
		t.Errorf("MaxChunks = %d, want 6", cfg.Parser.MaxChunks)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ORACLE_PROVIDER", "deepseek")
	t.Setenv("ORACLE_TIMEOUT_SECONDS", "15")
	t.Setenv("SERVER_ADDR", ":9090")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Oracle.Provider != "deepseek" {
		t.Errorf("Provider = %q, want deepseek", cfg.Oracle.Provider)
	}
	if cfg.Oracle.Timeout != 15*time.Second {
		t.Errorf("Timeout = %v, want 15s", cfg.Oracle.Timeout)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Addr = %q, want :9090", cfg.Server.Addr)
	}
}
