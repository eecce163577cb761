package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all daemon configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Search    SearchConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"7420"`
	Host string `envconfig:"HOST" default:"127.0.0.1"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"50"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"100"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// SearchConfig holds resolver search tuning.
type SearchConfig struct {
	// File is an optional TOML overlay with extra roots and deny tokens.
	File string `envconfig:"CONFIG_FILE" default:""`
	// ExtraRoots are additional installation roots consulted by the
	// filesystem probes, on top of the per-OS conventional set.
	ExtraRoots []string `envconfig:"EXTRA_ROOTS"`
	// ExtraDenyTokens extend the selector's helper-binary denylist.
	ExtraDenyTokens []string `envconfig:"EXTRA_DENY_TOKENS"`
}

// fileOverlay mirrors the optional deskd.toml layout.
type fileOverlay struct {
	Search struct {
		ExtraRoots      []string `toml:"extra_roots"`
		ExtraDenyTokens []string `toml:"extra_deny_tokens"`
	} `toml:"search"`
}

// Load loads configuration from environment variables, then applies the
// TOML overlay file if one is configured and present.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("deskd", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Search.File != "" {
		if err := cfg.applyFile(cfg.Search.File); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
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
		Server: ServerConfig{
			Port: "7420",
			Host: "127.0.0.1",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 50,
			Burst:             100,
			Enabled:           true,
		},
	}
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var overlay fileOverlay
	if err := toml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.Search.ExtraRoots = append(c.Search.ExtraRoots, overlay.Search.ExtraRoots...)
	c.Search.ExtraDenyTokens = append(c.Search.ExtraDenyTokens, overlay.Search.ExtraDenyTokens...)
	return nil
}
