package config

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Playback  PlaybackConfig  `toml:"playback"`
	Remote    RemoteConfig    `toml:"remote"`
	Downloads DownloadsConfig `toml:"downloads"`
	Cache     CacheConfig     `toml:"cache"`
	Tail      TailConfig      `toml:"tail"`
	TUI       TUIConfig       `toml:"tui"`
	Log       LogConfig       `toml:"log"`
}

// ServerConfig holds media server connection settings.
type ServerConfig struct {
	URL              string `toml:"url"`
	Timeout          int    `toml:"timeout"`           // seconds per request
	MaxRetries       int    `toml:"max_retries"`       // retries on network errors and 5xx
	DiscoveryTimeout int    `toml:"discovery_timeout"` // seconds
}

// PlaybackConfig holds default playback settings.
type PlaybackConfig struct {
	Player           string   `toml:"player"`
	PlayerArgs       []string `toml:"player_args"`
	Volume           int      `toml:"volume"`
	MaxBitrate       int      `toml:"max_bitrate"`
	ForceDirectPlay  bool     `toml:"force_direct_play"`
	AudioLanguage    string   `toml:"audio_language"`
	SubtitleLanguage string   `toml:"subtitle_language"`
	ProgressDebounce int      `toml:"progress_debounce"` // milliseconds
	ReportInterval   int      `toml:"report_interval"`   // milliseconds between position samples
}

// RemoteConfig holds remote-control channel settings.
type RemoteConfig struct {
	Enabled     bool   `toml:"enabled"`
	KeepAlive   int    `toml:"keep_alive"` // seconds
	MetricsAddr string `toml:"metrics_addr"`
}

// DownloadsConfig holds background download settings.
type DownloadsConfig struct {
	Dir         string `toml:"dir"`
	Concurrency int    `toml:"concurrency"`
	RateLimit   int    `toml:"rate_limit"` // KiB/s, 0 for unlimited
}

// CacheConfig holds query cache settings.
type CacheConfig struct {
	Size int `toml:"size"`
	TTL  int `toml:"ttl"` // seconds
}

// TailConfig holds settings for tail/follow mode.
type TailConfig struct {
	Interval int `toml:"interval"`
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
