package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadFrom(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[deezer]
base_url = "http://127.0.0.1:9999"

[playback]
poll_interval = 100

[history]
disabled = true
limit = 10

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Deezer.BaseURL != "http://127.0.0.1:9999" {
		t.Errorf("Deezer.BaseURL = %q", cfg.Deezer.BaseURL)
	}
	if cfg.Deezer.Timeout != 15 {
		t.Errorf("Deezer.Timeout = %d, want default 15", cfg.Deezer.Timeout)
	}
	if cfg.Playback.Interval() != 100*time.Millisecond {
		t.Errorf("Playback.Interval() = %v, want 100ms", cfg.Playback.Interval())
	}
	if cfg.Playback.SampleRate != 44100 {
		t.Errorf("Playback.SampleRate = %d, want 44100", cfg.Playback.SampleRate)
	}
	if !cfg.History.Disabled {
		t.Error("History.Disabled = false, want true")
	}
	if cfg.History.Limit != 10 {
		t.Errorf("History.Limit = %d, want 10", cfg.History.Limit)
	}
	if cfg.History.Path == "" {
		t.Error("History.Path should default to a data dir path")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	if _, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("LoadFrom() error = nil for missing file")
	}
}

func TestEnvOverrides(t *testing.T) {
	env := map[string]string{
		"ENCORE_DEEZER_BASE_URL":        "https://example.test",
		"ENCORE_PLAYBACK_POLL_INTERVAL": "500",
		"ENCORE_HISTORY_DISABLED":       "true",
		"ENCORE_LOG_LEVEL":              "warn",
		"ENCORE_TUI_REFRESH_INTERVAL":   "soon",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	applyEnv(cfg, lookup)

	if cfg.Deezer.BaseURL != "https://example.test" {
		t.Errorf("Deezer.BaseURL = %q", cfg.Deezer.BaseURL)
	}
	if cfg.Playback.PollInterval != 500 {
		t.Errorf("Playback.PollInterval = %d, want 500", cfg.Playback.PollInterval)
	}
	if !cfg.History.Disabled {
		t.Error("History.Disabled = false, want true")
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}
	if want := Default().TUI.RefreshInterval; cfg.TUI.RefreshInterval != want {
		t.Errorf("TUI.RefreshInterval = %d, want unparseable value ignored (%d)", cfg.TUI.RefreshInterval, want)
	}
}

func TestLoadFromAppliesEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[log]\nlevel = \"info\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ENCORE_LOG_LEVEL", "error")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Log.Level = %q, want error", cfg.Log.Level)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad scheme", func(c *Config) { c.Deezer.BaseURL = "ftp://x" }, "deezer"},
		{"negative timeout", func(c *Config) { c.Deezer.Timeout = -1 }, "timeout"},
		{"bad sample rate", func(c *Config) { c.Playback.SampleRate = 12345 }, "sample_rate"},
		{"negative poll", func(c *Config) { c.Playback.PollInterval = -5 }, "poll_interval"},
		{"negative limit", func(c *Config) { c.History.Limit = -1 }, "history"},
		{"bad theme", func(c *Config) { c.TUI.Theme = "neon" }, "theme"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
