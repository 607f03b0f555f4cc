package env

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "PROVIDER_API_KEY=abc123\n# comment\nexport WARDEN_LOG_LEVEL=\"debug\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	_ = os.Unsetenv("PROVIDER_API_KEY")
	_ = os.Unsetenv("WARDEN_LOG_LEVEL")
	if err := LoadFromDir(dir); err != nil {
		t.Fatalf("LoadFromDir: %v", err)
	}
	if got := os.Getenv("PROVIDER_API_KEY"); got != "abc123" {
		t.Fatalf("expected PROVIDER_API_KEY=abc123, got %q", got)
	}
	if got := os.Getenv("WARDEN_LOG_LEVEL"); got != "debug" {
		t.Fatalf("expected WARDEN_LOG_LEVEL=debug, got %q", got)
	}
}

func TestLoadDoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("WARDEN_LOG_LEVEL=debug\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("WARDEN_LOG_LEVEL", "info")
	if err := Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := os.Getenv("WARDEN_LOG_LEVEL"); got != "info" {
		t.Fatalf("expected existing value preserved, got %q", got)
	}
}
