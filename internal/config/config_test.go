package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("Provider = %q", cfg.Provider)
	}
	if cfg.RewriteCount != 1 || cfg.HistoryWindow != 20 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadFileAndEnvOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".queryflow.yml")
	data := []byte("model: qwen-plus\nport: 9090\nrewrite_count: 3\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("QUERYFLOW_PORT", "7070")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model != "qwen-plus" {
		t.Errorf("Model = %q", cfg.Model)
	}
	if cfg.Port != 7070 {
		t.Errorf("Port = %d, env should override file", cfg.Port)
	}
	if cfg.RewriteCount != 3 {
		t.Errorf("RewriteCount = %d", cfg.RewriteCount)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".queryflow.yml")

	cfg := DefaultConfig()
	cfg.Model = "deepseek-chat"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Model != "deepseek-chat" {
		t.Errorf("Model = %q", loaded.Model)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}

	bad := DefaultConfig()
	bad.Provider = "azure"
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unknown provider")
	}

	bad = DefaultConfig()
	bad.RewriteCount = 0
	if err := bad.Validate(); err == nil {
		t.Error("expected error for zero rewrite_count")
	}
}
