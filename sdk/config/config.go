// Package config loads client settings from YAML with environment overrides.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Environment variables that override file values.
const (
	EnvBaseURL = "TABLER_BASE_URL"
	EnvTokenDB = "TABLER_TOKEN_DB"
	EnvDebug   = "TABLER_DEBUG"
)

type Config struct {
	BaseURL   string          `yaml:"base_url"`
	LoginPath string          `yaml:"login_path"`
	Timeout   time.Duration   `yaml:"timeout"`
	Store     StoreConfig     `yaml:"store"`
	Log       LogConfig       `yaml:"log"`
	Breaker   BreakerConfig   `yaml:"breaker"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type LogConfig struct {
	Level    string `yaml:"level"`
	Requests bool   `yaml:"requests"`
	Headers  bool   `yaml:"headers"`
	Bodies   bool   `yaml:"bodies"`
}

type BreakerConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Statuses []int         `yaml:"statuses"`
	Timeout  time.Duration `yaml:"timeout"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LoginPath: "/api/auth/login",
		Timeout:   30 * time.Second,
		Store: StoreConfig{
			Driver: DriverSQLite,
			Path:   filepath.Join(os.Getenv("HOME"), ".tabler", "tokens.db"),
		},
		Log: LogConfig{
			Level: "disabled",
		},
		Breaker: BreakerConfig{
			Statuses: []int{429},
			Timeout:  20 * time.Second,
		},
	}
}

// Load reads and parses a YAML configuration file. An empty path yields the
// defaults. Environment overrides are applied before validation.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	ApplyEnv(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with the TABLER_* environment variables.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv(EnvTokenDB); v != "" {
		cfg.Store.Driver = DriverSQLite
		cfg.Store.Path = v
	}
	if os.Getenv(EnvDebug) != "" {
		cfg.Log.Level = "debug"
	}
}

// Validate checks the configuration for errors.
func Validate(cfg *Config) error {
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("base_url must be an absolute URL, got %q", cfg.BaseURL)
		}
	}
	if cfg.LoginPath == "" {
		return fmt.Errorf("login_path is required")
	}
	if cfg.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}

	cfg.Store.Driver = strings.ToLower(cfg.Store.Driver)
	switch cfg.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if cfg.Store.Path == "" {
			return fmt.Errorf("store.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("store.driver must be %q or %q, got %q", DriverMemory, DriverSQLite, cfg.Store.Driver)
	}

	if cfg.Breaker.Enabled {
		if len(cfg.Breaker.Statuses) == 0 {
			return fmt.Errorf("breaker.statuses must not be empty")
		}
		for _, s := range cfg.Breaker.Statuses {
			if s < 100 || s > 599 {
				return fmt.Errorf("breaker.statuses: %d is not an HTTP status", s)
			}
		}
		if cfg.Breaker.Timeout <= 0 {
			return fmt.Errorf("breaker.timeout must be positive")
		}
	}

	if cfg.RateLimit.RPS < 0 {
		return fmt.Errorf("rate_limit.rps must not be negative")
	}
	return nil
}
