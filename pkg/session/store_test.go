package session

import (
	"fmt"
	"testing"

	"github.com/cnl-ai/warden/pkg/types"
)

func record(path string) types.BackupRecord {
	return types.BackupRecord{SessionID: "s1", Operation: "configure_ssid", Path: path}
}

func TestAppendBackupEvictsOldestFirst(t *testing.T) {
	t.Parallel()

	tracker := NewTracker(0)
	for i := 0; i < DefaultBackupCap+1; i++ {
		tracker.AppendBackup("s1", record(fmt.Sprintf("backup_%d.json", i)))
	}

	backups := tracker.Backups("s1")
	if len(backups) != DefaultBackupCap {
		t.Fatalf("retained %d records, want %d", len(backups), DefaultBackupCap)
	}
	if tracker.HasBackup("s1", "backup_0.json") {
		t.Fatalf("oldest record should have been evicted")
	}
	if !tracker.HasBackup("s1", "backup_10.json") {
		t.Fatalf("newest record should be retained")
	}
	// Newest first.
	if backups[0].Path != "backup_10.json" {
		t.Fatalf("first returned record = %s, want backup_10.json", backups[0].Path)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	t.Parallel()

	tracker := NewTracker(2)
	tracker.AppendBackup("a", record("a1.json"))
	tracker.AppendBackup("b", record("b1.json"))

	if tracker.HasBackup("a", "b1.json") {
		t.Fatalf("session a must not see session b's records")
	}
	if got := len(tracker.Backups("b")); got != 1 {
		t.Fatalf("session b records = %d, want 1", got)
	}
}

func TestLastOperationSlot(t *testing.T) {
	t.Parallel()

	tracker := NewTracker(0)
	if _, ok := tracker.LastOperation("s1"); ok {
		t.Fatalf("fresh session should have no undo slot")
	}

	tracker.SetLastOperation("s1", LastOperation{Operation: "create_vlan", BackupPath: "p1"})
	tracker.SetLastOperation("s1", LastOperation{Operation: "delete_vlan", BackupPath: "p2"})

	op, ok := tracker.LastOperation("s1")
	if !ok || op.Operation != "delete_vlan" || op.BackupPath != "p2" {
		t.Fatalf("slot = %+v ok=%v, want most recent operation only", op, ok)
	}

	tracker.ClearLastOperation("s1")
	if _, ok := tracker.LastOperation("s1"); ok {
		t.Fatalf("cleared slot should be empty")
	}
}

func TestEndDiscardsState(t *testing.T) {
	t.Parallel()

	tracker := NewTracker(0)
	tracker.AppendBackup("s1", record("p.json"))
	tracker.SetLastOperation("s1", LastOperation{Operation: "configure_ssid", BackupPath: "p.json"})

	tracker.End("s1")

	if got := tracker.Backups("s1"); got != nil {
		t.Fatalf("ended session still has %d records", len(got))
	}
	if _, ok := tracker.LastOperation("s1"); ok {
		t.Fatalf("ended session still has an undo slot")
	}
}
