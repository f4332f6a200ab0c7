package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all launcher configuration.
type Config struct {
	Server    ServerConfig
	Hotkey    HotkeyConfig
	Poll      PollConfig
	Catalog   CatalogConfig
	Launchers LauncherConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8300"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// HotkeyConfig selects the gateway mode.
type HotkeyConfig struct {
	// Mode is "kiosk" when this environment is the desktop shell itself,
	// "normal" when running alongside the native shell.
	Mode string `envconfig:"HOTKEY_MODE" default:"normal"`
}

// PollConfig holds instance-count polling intervals.
type PollConfig struct {
	Interval     time.Duration `envconfig:"POLL_INTERVAL" default:"2s"`
	SlowInterval time.Duration `envconfig:"POLL_SLOW_INTERVAL" default:"5s"`
	// FailureThreshold is the number of consecutive failures before the
	// poller falls back to SlowInterval.
	FailureThreshold int `envconfig:"POLL_FAILURE_THRESHOLD" default:"3"`
}

// CatalogConfig points at the descriptor catalog file.
type CatalogConfig struct {
	Path string `envconfig:"CATALOG_PATH" default:"catalog.yaml"`
}

// LauncherConfig holds per-category mechanism commands.
type LauncherConfig struct {
	BrowserCommand     string `envconfig:"BROWSER_CMD" default:"xdg-open"`
	FileManagerCommand string `envconfig:"FILE_MANAGER_CMD" default:"xdg-open"`
	EditorCommand      string `envconfig:"EDITOR_CMD" default:"nano"`
	AndroidBridge      string `envconfig:"ANDROID_BRIDGE_CMD" default:"adb"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds API rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"50"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"100"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8300", Host: "0.0.0.0"},
		Hotkey: HotkeyConfig{Mode: "normal"},
		Poll: PollConfig{
			Interval:         2 * time.Second,
			SlowInterval:     5 * time.Second,
			FailureThreshold: 3,
		},
		Catalog: CatalogConfig{Path: "catalog.yaml"},
		Launchers: LauncherConfig{
			BrowserCommand:     "xdg-open",
			FileManagerCommand: "xdg-open",
			EditorCommand:      "nano",
			AndroidBridge:      "adb",
		},
		Logging: LogConfig{Level: "info"},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 50,
			Burst:             100,
			Enabled:           true,
		},
	}
}
