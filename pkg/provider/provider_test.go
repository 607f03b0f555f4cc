package provider

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestReadMissingResourceYieldsEmptyState(t *testing.T) {
	t.Parallel()

	local := NewLocal()
	state, err := local.ReadState(context.Background(), "delete_vlan", map[string]any{"network_id": "N_1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(state) != 0 {
		t.Fatalf("state = %v", state)
	}
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	t.Parallel()

	local := NewLocal()
	args := map[string]any{"network_id": "N_1", "vlan_id": 30}
	if err := local.WriteState(context.Background(), "delete_vlan", args, map[string]any{"subnet": "10.0.30.0/24"}); err != nil {
		t.Fatal(err)
	}

	state, err := local.ReadState(context.Background(), "delete_vlan", args)
	if err != nil {
		t.Fatal(err)
	}
	if state["subnet"] != "10.0.30.0/24" {
		t.Fatalf("state = %v", state)
	}

	// Mutating the returned copy must not leak back into the store.
	state["subnet"] = "changed"
	again, _ := local.ReadState(context.Background(), "delete_vlan", args)
	if again["subnet"] != "10.0.30.0/24" {
		t.Fatalf("store mutated through copy: %v", again)
	}
}

func TestLoadSeed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "seed.yaml")
	seed := "configure_ssid/N_1:\n  name: guest\n  enabled: true\n"
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}

	local := NewLocal()
	if err := local.LoadSeed(path); err != nil {
		t.Fatal(err)
	}
	state, err := local.ReadState(context.Background(), "configure_ssid", map[string]any{"network_id": "N_1"})
	if err != nil {
		t.Fatal(err)
	}
	if state["name"] != "guest" {
		t.Fatalf("state = %v", state)
	}

	if err := local.LoadSeed(filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
		t.Fatalf("missing seed file should be ignored: %v", err)
	}
}
