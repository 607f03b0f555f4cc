package dryrun

import (
	"strings"
	"testing"

	"github.com/cnl-ai/warden/internal/classify"
	"github.com/cnl-ai/warden/internal/registry"
	"github.com/cnl-ai/warden/pkg/types"
)

func TestDetect(t *testing.T) {
	t.Parallel()

	cases := []struct {
		message string
		want    bool
	}{
		{"configure SSID --dry-run", true},
		{"do a DRY RUN of the vlan change", true},
		{"what would happen if I add a firewall rule?", true},
		{"preview the changes", true},
		{"simulate rebooting the core switch", true},
		{"show me what this does first", true},
		{"apply it without actually doing anything", true},
		{"add firewall rule", false},
		{"reboot the device now", false},
		{"the previews looked fine yesterday", false},
	}

	for _, tc := range cases {
		if got := Detect(tc.message); got != tc.want {
			t.Errorf("Detect(%q) = %v, want %v", tc.message, got, tc.want)
		}
	}
}

func TestExecuteProjectsImpact(t *testing.T) {
	t.Parallel()

	runner := NewRunner(classify.New(registry.Builtin()))
	result := runner.Execute("add_firewall_rule", map[string]any{
		"network_id": "N_123",
		"protocol":   "tcp",
		"port":       23,
	})

	if !result.DryRun {
		t.Fatalf("dry_run flag not set")
	}
	if result.Level != types.LevelDangerous || !result.BackupRequired {
		t.Fatalf("projection = %+v", result)
	}
	if len(result.NetworksAffected) != 1 || result.NetworksAffected[0] != "N_123" {
		t.Fatalf("networks affected = %v", result.NetworksAffected)
	}
	if result.APICallsAvoided != 1 {
		t.Fatalf("api calls avoided = %d", result.APICallsAvoided)
	}
	for _, want := range []string{"Function: add_firewall_rule", "Safety Level: DANGEROUS", "- port: 23", "Backup required: true"} {
		if !strings.Contains(result.Impact, want) {
			t.Errorf("impact missing %q:\n%s", want, result.Impact)
		}
	}
}

func TestExecuteUnknownOperationStaysDangerous(t *testing.T) {
	t.Parallel()

	runner := NewRunner(classify.New(registry.Builtin()))
	result := runner.Execute("unknown_function", nil)
	if result.Level != types.LevelDangerous || result.Confirmation != types.ConfirmTyped {
		t.Fatalf("projection = %+v", result)
	}
}
