package undo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/cnl-ai/warden/internal/backup"
	"github.com/cnl-ai/warden/pkg/session"
	"github.com/cnl-ai/warden/pkg/types"
)

type fakeWriter struct {
	calls int
	state map[string]any
	err   error
}

func (w *fakeWriter) WriteState(ctx context.Context, operation string, args, state map[string]any) error {
	w.calls++
	w.state = state
	return w.err
}

type fakeLimiter struct {
	waits int
	err   error
}

func (l *fakeLimiter) Wait(ctx context.Context, tenantID string) error {
	l.waits++
	return l.err
}

type fixture struct {
	engine  *Engine
	store   *backup.FileStore
	tracker *session.Tracker
	writer  *fakeWriter
	limiter *fakeLimiter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := backup.NewFileStore(t.TempDir())
	tracker := session.NewTracker(0)
	writer := &fakeWriter{}
	limiter := &fakeLimiter{}
	return &fixture{
		engine:  New(store, writer, tracker, limiter),
		store:   store,
		tracker: tracker,
		writer:  writer,
		limiter: limiter,
	}
}

// trackOperation persists a snapshot and records it the way the guard does
// after a mutating operation executes.
func (f *fixture) trackOperation(t *testing.T, sessionID, operation string, state map[string]any) string {
	t.Helper()
	path, err := f.store.Save(backup.Snapshot{
		Operation:  operation,
		Client:     "acme",
		CapturedAt: time.Now(),
		State:      state,
	})
	if err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
	f.tracker.AppendBackup(sessionID, recordFor(sessionID, operation, path))
	f.tracker.SetLastOperation(sessionID, session.LastOperation{
		Operation:  operation,
		BackupPath: path,
		At:         time.Now(),
	})
	return path
}

func TestInfoEmptySession(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	info := f.engine.Info("s1")
	if info.CanUndo {
		t.Fatalf("empty session reports can_undo=true")
	}
	if info.Reason == "" {
		t.Fatalf("refusals must explain themselves")
	}
}

func TestInfoAfterTrackedOperation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	path := f.trackOperation(t, "s1", "configure_ssid", map[string]any{"ssid": "Guest"})

	info := f.engine.Info("s1")
	if !info.CanUndo {
		t.Fatalf("expected can_undo, reason: %s", info.Reason)
	}
	if info.Operation != "configure_ssid" || info.BackupPath != path {
		t.Fatalf("info = %+v", info)
	}
}

func TestInfoWhenRecordEvicted(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	path := f.trackOperation(t, "s1", "configure_ssid", nil)

	// Push enough newer records through to evict the tracked one.
	for i := 0; i < session.DefaultBackupCap; i++ {
		f.tracker.AppendBackup("s1", recordFor("s1", "update_vlan", fmt.Sprintf("newer_%d.json", i)))
	}

	if f.tracker.HasBackup("s1", path) {
		t.Fatalf("setup failed: record should be evicted")
	}
	info := f.engine.Info("s1")
	if info.CanUndo {
		t.Fatalf("evicted backup must not be restorable")
	}
}

func TestInfoWhenSnapshotFileMissing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	path := f.trackOperation(t, "s1", "configure_ssid", nil)
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove snapshot: %v", err)
	}

	if info := f.engine.Info("s1"); info.CanUndo {
		t.Fatalf("missing snapshot file must not be restorable")
	}
}

func TestExecuteRestoresAndClearsSlot(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	state := map[string]any{"ssid": "Guest", "enabled": true}
	f.trackOperation(t, "s1", "configure_ssid", state)

	result, err := f.engine.Execute(context.Background(), "s1", "org-1")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Operation != "configure_ssid" {
		t.Fatalf("result = %+v", result)
	}
	if f.writer.calls != 1 {
		t.Fatalf("writer calls = %d, want 1", f.writer.calls)
	}
	if f.writer.state["ssid"] != "Guest" {
		t.Fatalf("restored state = %v", f.writer.state)
	}
	if f.limiter.waits != 1 {
		t.Fatalf("restore must consume capacity, waits = %d", f.limiter.waits)
	}

	// Slot is spent.
	if _, err := f.engine.Execute(context.Background(), "s1", "org-1"); !errors.Is(err, ErrUndoUnavailable) {
		t.Fatalf("second undo err = %v, want ErrUndoUnavailable", err)
	}
}

func TestExecuteWriterFailureKeepsSlot(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.trackOperation(t, "s1", "configure_ssid", nil)
	f.writer.err = errors.New("provider rejected restore")

	if _, err := f.engine.Execute(context.Background(), "s1", "org-1"); err == nil {
		t.Fatalf("expected restore failure")
	}

	// A failed restore leaves the slot intact for a retry.
	if info := f.engine.Info("s1"); !info.CanUndo {
		t.Fatalf("slot should survive a failed restore, reason: %s", info.Reason)
	}
}

func recordFor(sessionID, operation, path string) types.BackupRecord {
	return types.BackupRecord{
		SessionID:  sessionID,
		Operation:  operation,
		Path:       path,
		CapturedAt: time.Now(),
	}
}
