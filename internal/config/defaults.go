package config

import (
	"os"
	"path/filepath"
)

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Deezer: DeezerConfig{
			BaseURL: "https://api.deezer.com",
			Timeout: 15,
		},
		Playback: PlaybackConfig{
			PollInterval: 250,
			SampleRate:   44100,
		},
		History: HistoryConfig{
			Limit: 50,
		},
		TUI: TUIConfig{
			Theme:           "auto",
			RefreshInterval: 250,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	// Deezer
	if c.Deezer.BaseURL == "" {
		c.Deezer.BaseURL = d.Deezer.BaseURL
	}
	if c.Deezer.Timeout == 0 {
		c.Deezer.Timeout = d.Deezer.Timeout
	}

	// Playback
	if c.Playback.PollInterval == 0 {
		c.Playback.PollInterval = d.Playback.PollInterval
	}
	if c.Playback.SampleRate == 0 {
		c.Playback.SampleRate = d.Playback.SampleRate
	}

	// History
	if c.History.Limit == 0 {
		c.History.Limit = d.History.Limit
	}
	if c.History.Path == "" {
		c.History.Path = filepath.Join(DataDir(), "history.db")
	}

	// TUI
	if c.TUI.Theme == "" {
		c.TUI.Theme = d.TUI.Theme
	}
	if c.TUI.RefreshInterval == 0 {
		c.TUI.RefreshInterval = d.TUI.RefreshInterval
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.File == "" {
		c.Log.File = filepath.Join(DataDir(), "encore.log")
	}
}

// DataDir returns the directory encore keeps its state in.
func DataDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "encore")
	}
	return filepath.Join(configDir, "encore")
}
