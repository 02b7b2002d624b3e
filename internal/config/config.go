package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// EnvPrefix starts every environment override, e.g. ENCORE_LOG_LEVEL.
const EnvPrefix = "ENCORE_"

// Load reads the first config file found on the search path, then applies
// defaults and environment overrides. A missing file is not an error.
//
// Search order: ~/.encorerc, $XDG_CONFIG_HOME/encore/config.toml
// (falling back to ~/.config/encore/config.toml).
func Load() (*Config, error) {
	path := findConfigFile()
	if path == "" {
		return finish(&Config{}), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads configuration from path. The file must exist.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return finish(cfg), nil
}

func finish(cfg *Config) *Config {
	cfg.ApplyDefaults()
	applyEnv(cfg, os.LookupEnv)
	return cfg
}

// SearchPaths returns the config file locations in priority order.
func SearchPaths() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	xdg := os.Getenv("XDG_CONFIG_HOME")
	if xdg == "" {
		xdg = filepath.Join(home, ".config")
	}
	return []string{
		filepath.Join(home, ".encorerc"),
		filepath.Join(xdg, "encore", "config.toml"),
	}
}

func findConfigFile() string {
	for _, p := range SearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envBinding maps one variable (without prefix) onto a config field.
// Unparseable values are ignored.
type envBinding struct {
	name  string
	apply func(cfg *Config, v string)
}

func envString(field func(*Config) *string) func(*Config, string) {
	return func(cfg *Config, v string) { *field(cfg) = v }
}

func envInt(field func(*Config) *int) func(*Config, string) {
	return func(cfg *Config, v string) {
		if i, err := strconv.Atoi(v); err == nil {
			*field(cfg) = i
		}
	}
}

func envBool(field func(*Config) *bool) func(*Config, string) {
	return func(cfg *Config, v string) {
		if b, err := strconv.ParseBool(v); err == nil {
			*field(cfg) = b
		}
	}
}

var envBindings = []envBinding{
	{"DEEZER_BASE_URL", envString(func(c *Config) *string { return &c.Deezer.BaseURL })},
	{"DEEZER_TIMEOUT", envInt(func(c *Config) *int { return &c.Deezer.Timeout })},
	{"PLAYBACK_POLL_INTERVAL", envInt(func(c *Config) *int { return &c.Playback.PollInterval })},
	{"PLAYBACK_SAMPLE_RATE", envInt(func(c *Config) *int { return &c.Playback.SampleRate })},
	{"HISTORY_DISABLED", envBool(func(c *Config) *bool { return &c.History.Disabled })},
	{"HISTORY_PATH", envString(func(c *Config) *string { return &c.History.Path })},
	{"HISTORY_LIMIT", envInt(func(c *Config) *int { return &c.History.Limit })},
	{"TUI_THEME", envString(func(c *Config) *string { return &c.TUI.Theme })},
	{"TUI_REFRESH_INTERVAL", envInt(func(c *Config) *int { return &c.TUI.RefreshInterval })},
	{"LOG_LEVEL", envString(func(c *Config) *string { return &c.Log.Level })},
	{"LOG_FILE", envString(func(c *Config) *string { return &c.Log.File })},
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	for _, b := range envBindings {
		if v, ok := lookup(EnvPrefix + b.name); ok && v != "" {
			b.apply(cfg, v)
		}
	}
}
