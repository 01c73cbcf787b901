package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Timeout:          15,
			MaxRetries:       3,
			DiscoveryTimeout: 3,
		},
		Playback: PlaybackConfig{
			Player:           "mpv",
			Volume:           100,
			MaxBitrate:       140_000_000,
			ProgressDebounce: 500,
			ReportInterval:   1000,
		},
		Remote: RemoteConfig{
			Enabled:   true,
			KeepAlive: 30,
		},
		Downloads: DownloadsConfig{
			Dir:         filepath.Join(xdg.UserDirs.Download, "finch"),
			Concurrency: 2,
		},
		Cache: CacheConfig{
			Size: 256,
			TTL:  60,
		},
		Tail: TailConfig{
			Interval: 1000,
		},
		TUI: TUIConfig{
			Theme:           "auto",
			RefreshInterval: 1000,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	// Server
	if c.Server.Timeout == 0 {
		c.Server.Timeout = d.Server.Timeout
	}
	if c.Server.MaxRetries == 0 {
		c.Server.MaxRetries = d.Server.MaxRetries
	}
	if c.Server.DiscoveryTimeout == 0 {
		c.Server.DiscoveryTimeout = d.Server.DiscoveryTimeout
	}

	// Playback
	if c.Playback.Player == "" {
		c.Playback.Player = d.Playback.Player
	}
	if c.Playback.Volume == 0 {
		c.Playback.Volume = d.Playback.Volume
	}
	if c.Playback.MaxBitrate == 0 {
		c.Playback.MaxBitrate = d.Playback.MaxBitrate
	}
	if c.Playback.ProgressDebounce == 0 {
		c.Playback.ProgressDebounce = d.Playback.ProgressDebounce
	}
	if c.Playback.ReportInterval == 0 {
		c.Playback.ReportInterval = d.Playback.ReportInterval
	}

	// Remote
	if c.Remote.KeepAlive == 0 {
		c.Remote.KeepAlive = d.Remote.KeepAlive
	}

	// Downloads
	if c.Downloads.Dir == "" {
		c.Downloads.Dir = d.Downloads.Dir
	}
	if c.Downloads.Concurrency == 0 {
		c.Downloads.Concurrency = d.Downloads.Concurrency
	}

	// Cache
	if c.Cache.Size == 0 {
		c.Cache.Size = d.Cache.Size
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = d.Cache.TTL
	}

	// Tail
	if c.Tail.Interval == 0 {
		c.Tail.Interval = d.Tail.Interval
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
}
