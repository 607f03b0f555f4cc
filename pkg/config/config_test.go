package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RateLimit.RequestsPerSecond != 8 {
		t.Fatalf("rps = %d", cfg.RateLimit.RequestsPerSecond)
	}
	// A brand-new tenant sees steady rate plus the full burst grace, so the
	// sum must not exceed the provider's published 10 req/s.
	if sum := cfg.RateLimit.RequestsPerSecond + cfg.RateLimit.Burst; sum > 10 {
		t.Fatalf("rps + burst = %d, exceeds provider ceiling 10", sum)
	}
	if cfg.Gateway.Address != "127.0.0.1:8484" || cfg.HTTP.Address != "127.0.0.1:8485" {
		t.Fatalf("addresses = %q %q", cfg.Gateway.Address, cfg.HTTP.Address)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "json" {
		t.Fatalf("logging defaults = %q %q", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
logLevel: debug
backups:
  dir: /var/lib/warden/clients
confirmation:
  ttl: 5m
rateLimit:
  requestsPerSecond: 4
  maxWait: 30s
gateway:
  address: 0.0.0.0:9000
  maxSessions: 3
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "debug" || cfg.Backups.Dir != "/var/lib/warden/clients" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.RateLimit.RequestsPerSecond != 4 || cfg.Gateway.MaxSessions != 3 {
		t.Fatalf("cfg = %+v", cfg)
	}

	ttl, err := cfg.Confirmation.ParseTTL()
	if err != nil || ttl != 5*time.Minute {
		t.Fatalf("ttl = %v err = %v", ttl, err)
	}
	maxWait, err := cfg.RateLimit.ParseMaxWait()
	if err != nil || maxWait != 30*time.Second {
		t.Fatalf("maxWait = %v err = %v", maxWait, err)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("WARDEN_BACKUPS_DIR", "/tmp/warden-backups")
	t.Setenv("WARDEN_LOG_LEVEL", "warn")
	t.Setenv("WARDEN_RATE_LIMIT_RPS", "2")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backups.Dir != "/tmp/warden-backups" || cfg.LogLevel != "warn" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.RateLimit.RequestsPerSecond != 2 {
		t.Fatalf("rps = %d", cfg.RateLimit.RequestsPerSecond)
	}
}

func TestLoadConfigRejectsZeroRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("rateLimit:\n  requestsPerSecond: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("negative rate accepted")
	}
}

func TestParseOptionalDuration(t *testing.T) {
	t.Parallel()

	if d, err := parseOptionalDuration(""); err != nil || d != 0 {
		t.Fatalf("empty: %v %v", d, err)
	}
	if d, err := parseOptionalDuration("0"); err != nil || d != 0 {
		t.Fatalf("zero: %v %v", d, err)
	}
	if _, err := parseOptionalDuration("soon"); err == nil {
		t.Fatal("bad duration accepted")
	}
}
