package config

import "time"

// Config is the root configuration structure.
type Config struct {
	Deezer   DeezerConfig   `toml:"deezer"`
	Playback PlaybackConfig `toml:"playback"`
	History  HistoryConfig  `toml:"history"`
	TUI      TUIConfig      `toml:"tui"`
	Log      LogConfig      `toml:"log"`
}

// DeezerConfig holds catalog API settings.
type DeezerConfig struct {
	BaseURL string `toml:"base_url"`
	Timeout int    `toml:"timeout"` // seconds
}

// PlaybackConfig holds audio engine settings.
type PlaybackConfig struct {
	PollInterval int `toml:"poll_interval"` // milliseconds
	SampleRate   int `toml:"sample_rate"`
}

// HistoryConfig holds listening history settings.
type HistoryConfig struct {
	Disabled bool   `toml:"disabled"`
	Path     string `toml:"path"`
	Limit    int    `toml:"limit"`
}

// TUIConfig holds terminal UI settings.
type TUIConfig struct {
	Theme           string `toml:"theme"`
	RefreshInterval int    `toml:"refresh_interval"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// HTTPTimeout returns the catalog request timeout.
func (c *DeezerConfig) HTTPTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// Interval returns the engine status poll interval.
func (c *PlaybackConfig) Interval() time.Duration {
	return time.Duration(c.PollInterval) * time.Millisecond
}
