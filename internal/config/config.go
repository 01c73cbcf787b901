package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"github.com/google/renameio/v2"
)

// Load reads configuration from standard locations with environment overrides.
// Search order: ~/.finchrc, $XDG_CONFIG_HOME/finch/config.toml
func Load() (*Config, error) {
	cfg := &Config{}

	path := findConfigFile()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	// Apply defaults, then environment variable overrides
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)

	return cfg, nil
}

// LoadFrom reads configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Path returns the config file in use, or the default location for a new one.
func Path() string {
	if p := findConfigFile(); p != "" {
		return p
	}
	return DefaultPath()
}

// DefaultPath returns the XDG config file location.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "finch", "config.toml")
}

// Save writes cfg as TOML to path atomically.
func Save(cfg *Config, path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return renameio.WriteFile(path, buf.Bytes(), 0644)
}

// findConfigFile returns the first existing config file path.
func findConfigFile() string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".finchrc"))
	}
	paths = append(paths, DefaultPath())

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("FINCH_SERVER_URL"); v != "" {
		cfg.Server.URL = v
	}
	if v := os.Getenv("FINCH_SERVER_TIMEOUT"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Server.Timeout = i
		}
	}

	// Playback
	if v := os.Getenv("FINCH_PLAYER"); v != "" {
		cfg.Playback.Player = v
	}
	if v := os.Getenv("FINCH_MAX_BITRATE"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Playback.MaxBitrate = i
		}
	}
	if v := os.Getenv("FINCH_FORCE_DIRECT_PLAY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Playback.ForceDirectPlay = b
		}
	}

	// Remote
	if v := os.Getenv("FINCH_REMOTE_METRICS_ADDR"); v != "" {
		cfg.Remote.MetricsAddr = v
	}

	// Downloads
	if v := os.Getenv("FINCH_DOWNLOADS_DIR"); v != "" {
		cfg.Downloads.Dir = v
	}

	// TUI
	if v := os.Getenv("FINCH_TUI_THEME"); v != "" {
		cfg.TUI.Theme = v
	}

	// Log
	if v := os.Getenv("FINCH_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("FINCH_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
}
