// ABOUTME: Tests for configuration loading: defaults, environment overrides, and config files.
// ABOUTME: Uses t.Setenv so environment mutations are scoped to each test.

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Model != "gpt-5" {
		t.Errorf("Model = %q, want gpt-5", cfg.Model)
	}
	if cfg.Workers != 10 {
		t.Errorf("Workers = %d, want 10", cfg.Workers)
	}
	if cfg.MaxFixIterations != 20 {
		t.Errorf("MaxFixIterations = %d, want 20", cfg.MaxFixIterations)
	}
	if cfg.CommandTimeoutSeconds != 300 {
		t.Errorf("CommandTimeoutSeconds = %d, want 300", cfg.CommandTimeoutSeconds)
	}
	if cfg.DevHost != "0.0.0.0" || cfg.DevPort != 3000 {
		t.Errorf("dev server = %s:%d, want 0.0.0.0:3000", cfg.DevHost, cfg.DevPort)
	}
	if cfg.StatusAddr != "127.0.0.1:8400" {
		t.Errorf("StatusAddr = %q", cfg.StatusAddr)
	}
}

func TestLoadEnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-4o-mini")
	t.Setenv("WORKERS", "3")
	t.Setenv("DEV_PORT", "5173")
	t.Setenv("TWITTERAPI_API_KEY", "tw-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q, want gpt-4o-mini", cfg.Model)
	}
	if cfg.Workers != 3 {
		t.Errorf("Workers = %d, want 3", cfg.Workers)
	}
	if cfg.DevPort != 5173 {
		t.Errorf("DevPort = %d, want 5173", cfg.DevPort)
	}
	if cfg.TwitterAPIKey != "tw-key" {
		t.Errorf("TwitterAPIKey = %q", cfg.TwitterAPIKey)
	}
}

func TestLoadRequiresOpenAIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	if _, err := Load(""); err == nil {
		t.Error("Load succeeded without OPENAI_API_KEY")
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	dir := t.TempDir()
	file := `OPENAI_MODEL: gpt-4.1
WORKERS: 4
DEV_HOST: 127.0.0.1
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(file), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Model != "gpt-4.1" {
		t.Errorf("Model = %q, want gpt-4.1", cfg.Model)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
	if cfg.DevHost != "127.0.0.1" {
		t.Errorf("DevHost = %q, want 127.0.0.1", cfg.DevHost)
	}
}

func TestLoadMissingConfigFileIsNotFatal(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	if _, err := Load(t.TempDir()); err != nil {
		t.Errorf("Load with empty config dir returned error: %v", err)
	}
}
