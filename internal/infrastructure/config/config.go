package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"github.com/schrebra/storeappx/internal/shared/paths"
)

// Config holds all application configuration. Values are layered:
// Default(), then the optional config file, then STOREAPPX_* environment
// variables. Defaults live in Default() rather than envconfig tags so the
// file layer is not clobbered by tag defaults.
type Config struct {
	Catalog   CatalogConfig   `toml:"catalog"`
	HTTP      HTTPConfig      `toml:"http"`
	Download  DownloadConfig  `toml:"download"`
	Install   InstallConfig   `toml:"install"`
	Server    ServerConfig    `toml:"server"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Logging   LogConfig       `toml:"logging"`
}

// CatalogConfig holds catalog-lookup service configuration.
type CatalogConfig struct {
	Endpoint string `envconfig:"CATALOG_ENDPOINT" toml:"endpoint"`
	Ring     string `envconfig:"CATALOG_RING" toml:"ring"`
}

// HTTPConfig holds the outbound HTTP client configuration.
type HTTPConfig struct {
	UserAgent         string `envconfig:"HTTP_USER_AGENT" toml:"user_agent"`
	TimeoutSeconds    int    `envconfig:"HTTP_TIMEOUT_SECONDS" toml:"timeout_seconds"`
	RetryMax          int    `envconfig:"HTTP_RETRY_MAX" toml:"retry_max"`
	RequestsPerSecond int    `envconfig:"HTTP_RPS" toml:"requests_per_second"`
	Burst             int    `envconfig:"HTTP_BURST" toml:"burst"`
}

// DownloadConfig holds download defaults.
type DownloadConfig struct {
	Destination  string `envconfig:"DOWNLOAD_DIR" toml:"destination"`
	Architecture string `envconfig:"ARCHITECTURE" toml:"architecture"`
	Report       bool   `envconfig:"REPORT" toml:"report"`
}

// InstallConfig holds install primitive configuration.
type InstallConfig struct {
	PowerShell string `envconfig:"INSTALL_POWERSHELL" toml:"powershell"`
}

// ServerConfig holds serve-mode HTTP configuration.
type ServerConfig struct {
	Host string `envconfig:"SERVER_HOST" toml:"host"`
	Port string `envconfig:"SERVER_PORT" toml:"port"`
}

// RateLimitConfig holds serve-mode inbound rate limiting.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"SERVER_RATE_LIMIT_RPS" toml:"requests_per_second"`
	Burst             int  `envconfig:"SERVER_RATE_LIMIT_BURST" toml:"burst"`
	Enabled           bool `envconfig:"SERVER_RATE_LIMIT_ENABLED" toml:"enabled"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" toml:"development"`
}

// Load builds configuration from defaults, the optional config file, and
// environment overrides, in that order.
func Load() (*Config, error) {
	cfg := Default()
	if err := loadFile(cfg); err != nil {
		return nil, err
	}
	if err := envconfig.Process("storeappx", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}
	cfg.applyFallbacks()
	return cfg, nil
}

// LoadOrDefault loads configuration or falls back to defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		cfg = Default()
		cfg.applyFallbacks()
	}
	return cfg
}

// Default returns default configuration. Download.Destination is left empty
// here and filled by applyFallbacks since it depends on the home directory.
func Default() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Endpoint: "https://store.rg-adguard.net/api/GetFiles",
			Ring:     "Retail",
		},
		HTTP: HTTPConfig{
			UserAgent:         "storeappx/1.0",
			TimeoutSeconds:    30,
			RetryMax:          3,
			RequestsPerSecond: 5,
			Burst:             10,
		},
		Download: DownloadConfig{
			Architecture: "auto",
			Report:       true,
		},
		Install: InstallConfig{
			PowerShell: "powershell",
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: "8700",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 25,
			Burst:             50,
			Enabled:           true,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}

// DefaultDestination returns the fallback download root.
func DefaultDestination() string {
	return paths.DownloadRoot()
}

func (c *Config) applyFallbacks() {
	if c.Download.Destination == "" {
		c.Download.Destination = DefaultDestination()
	}
}
