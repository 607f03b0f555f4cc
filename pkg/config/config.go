package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines runtime settings for warden.
type Config struct {
	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`

	Backups      BackupsConfig      `yaml:"backups"`
	Registry     RegistryConfig     `yaml:"registry"`
	Confirmation ConfirmationConfig `yaml:"confirmation"`
	RateLimit    RateLimitConfig    `yaml:"rateLimit"`
	Gateway      GatewayConfig      `yaml:"gateway"`
	HTTP         HTTPConfig         `yaml:"http"`
	Provider     ProviderConfig     `yaml:"provider"`
}

type ProviderConfig struct {
	// Seed optionally names a YAML file of resource state loaded into the
	// local provider at startup.
	Seed string `yaml:"seed"`
}

type BackupsConfig struct {
	// Dir is the root under which per-client backup snapshots are written.
	Dir string `yaml:"dir"`
}

type RegistryConfig struct {
	// Overlay optionally names a YAML file whose entries add to or override
	// the built-in operation classification table.
	Overlay string `yaml:"overlay"`
}

type ConfirmationConfig struct {
	// TTL expires unanswered confirmation requests, e.g. "5m". Empty or "0"
	// means requests wait forever, matching the default operator workflow.
	TTL string `yaml:"ttl"`
}

// ParseTTL resolves the confirmation TTL duration.
func (c ConfirmationConfig) ParseTTL() (time.Duration, error) {
	return parseOptionalDuration(c.TTL)
}

type RateLimitConfig struct {
	// RequestsPerSecond caps admissions per tenant in any trailing second.
	// Held at 8 by default: the upstream provider allows 10 and the margin
	// absorbs clock skew and concurrent callers.
	RequestsPerSecond int `yaml:"requestsPerSecond"`
	// Burst is the extra allowance granted to a freshly active tenant,
	// decaying to zero over BurstWindow.
	Burst       int    `yaml:"burst"`
	BurstWindow string `yaml:"burstWindow"`
	// MaxWait bounds how long a caller blocks for capacity. Empty or "0"
	// waits indefinitely.
	MaxWait string `yaml:"maxWait"`
}

// ParseBurstWindow resolves the burst decay window duration.
func (c RateLimitConfig) ParseBurstWindow() (time.Duration, error) {
	return parseOptionalDuration(c.BurstWindow)
}

// ParseMaxWait resolves the capacity wait ceiling.
func (c RateLimitConfig) ParseMaxWait() (time.Duration, error) {
	return parseOptionalDuration(c.MaxWait)
}

func parseOptionalDuration(s string) (time.Duration, error) {
	if s == "" || s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return d, nil
}

type GatewayConfig struct {
	Address      string   `yaml:"address"`
	MaxSessions  int      `yaml:"maxSessions"`
	AllowedAddrs []string `yaml:"allowedAddrs"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
}

// LoadConfig loads configuration from a YAML file and environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		LogLevel:  "info",
		LogFormat: "json",
		Backups:   BackupsConfig{Dir: defaultBackupsDir()},
		// 8 steady + 2 burst keeps a fresh tenant at or below the
		// provider's published 10 req/s even before the grace decays.
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 8,
			Burst:             2,
			BurstWindow:       "2s",
		},
		Gateway: GatewayConfig{Address: "127.0.0.1:8484"},
		HTTP:    HTTPConfig{Address: "127.0.0.1:8485"},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if dir := os.Getenv("WARDEN_BACKUPS_DIR"); dir != "" {
		cfg.Backups.Dir = dir
	}
	if overlay := os.Getenv("WARDEN_REGISTRY_OVERLAY"); overlay != "" {
		cfg.Registry.Overlay = overlay
	}
	if seed := os.Getenv("WARDEN_PROVIDER_SEED"); seed != "" {
		cfg.Provider.Seed = seed
	}
	if logLevel := os.Getenv("WARDEN_LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat := os.Getenv("WARDEN_LOG_FORMAT"); logFormat != "" {
		cfg.LogFormat = logFormat
	}
	if rps := os.Getenv("WARDEN_RATE_LIMIT_RPS"); rps != "" {
		n, err := strconv.Atoi(rps)
		if err != nil {
			return nil, fmt.Errorf("parse WARDEN_RATE_LIMIT_RPS: %w", err)
		}
		cfg.RateLimit.RequestsPerSecond = n
	}

	if cfg.RateLimit.RequestsPerSecond <= 0 {
		return nil, fmt.Errorf("rate limit requestsPerSecond must be positive, got %d", cfg.RateLimit.RequestsPerSecond)
	}

	return cfg, nil
}

// DefaultConfigPath returns the default location for the daemon config file.
func DefaultConfigPath() string {
	if path := os.Getenv("WARDEN_CONFIG"); path != "" {
		return path
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".warden", "config.yaml")
}

func defaultBackupsDir() string {
	if env := os.Getenv("WARDEN_ROOT"); env != "" {
		return filepath.Join(env, "clients")
	}
	return "clients"
}
