package backup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cnl-ai/warden/internal/classify"
	"github.com/cnl-ai/warden/pkg/session"
	"github.com/cnl-ai/warden/pkg/types"
	"log/slog"
)

// ErrBackupFailed marks a capture that could not be completed. The operation
// it guards must not execute.
var ErrBackupFailed = errors.New("backup failed")

// StateReader fetches the current configuration of the resource an operation
// targets. Implemented by the external provider client.
type StateReader interface {
	ReadState(ctx context.Context, operation string, args map[string]any) (map[string]any, error)
}

// Store persists and retrieves snapshots.
type Store interface {
	Save(snap Snapshot) (string, error)
	Load(path string) (Snapshot, error)
	Exists(path string) bool
}

type capacityWaiter interface {
	Wait(ctx context.Context, tenantID string) error
}

// Manager captures pre-change snapshots for operations that require them.
type Manager struct {
	classifier *classify.Classifier
	reader     StateReader
	store      Store
	sessions   *session.Tracker
	limiter    capacityWaiter
	logger     *slog.Logger
}

func NewManager(classifier *classify.Classifier, reader StateReader, store Store, sessions *session.Tracker, limiter capacityWaiter) *Manager {
	return &Manager{
		classifier: classifier,
		reader:     reader,
		store:      store,
		sessions:   sessions,
		limiter:    limiter,
	}
}

func (m *Manager) SetLogger(logger *slog.Logger) {
	m.logger = logger
}

// Store exposes the snapshot store so the undo path can load what was saved.
func (m *Manager) Snapshots() Store {
	return m.store
}

// BeforeOperation captures the targeted resource's current state ahead of a
// mutating operation. Safe operations cost nothing and create no record.
// Any failure to read or persist is fatal for the guarded operation.
func (m *Manager) BeforeOperation(ctx context.Context, operation string, args map[string]any, clientLabel, sessionID, tenantID string) (types.BackupResult, error) {
	check := m.classifier.Classify(operation, args)
	if !check.BackupRequired {
		return types.BackupResult{Created: false}, nil
	}

	if err := m.limiter.Wait(ctx, tenantID); err != nil {
		return types.BackupResult{}, fmt.Errorf("%w: acquire read capacity: %w", ErrBackupFailed, err)
	}

	state, err := m.reader.ReadState(ctx, operation, args)
	if err != nil {
		m.logWarn("backup_read_failed", "operation", operation, "error", err)
		return types.BackupResult{}, fmt.Errorf("%w: read current state: %w", ErrBackupFailed, err)
	}

	capturedAt := time.Now()
	path, err := m.store.Save(Snapshot{
		Operation:  operation,
		Client:     clientLabel,
		CapturedAt: capturedAt,
		Args:       args,
		State:      state,
	})
	if err != nil {
		m.logWarn("backup_persist_failed", "operation", operation, "error", err)
		return types.BackupResult{}, fmt.Errorf("%w: persist snapshot: %w", ErrBackupFailed, err)
	}

	record := types.BackupRecord{
		SessionID:   sessionID,
		Operation:   operation,
		ArgsSummary: summariseArgs(args),
		ClientLabel: clientLabel,
		Path:        path,
		CapturedAt:  capturedAt,
	}
	m.sessions.AppendBackup(sessionID, record)

	m.logInfo("backup_created", "operation", operation, "path", path, "session", sessionID)
	return types.BackupResult{Created: true, Path: path, Record: &record}, nil
}

const argsSummaryLimit = 100

func summariseArgs(args map[string]any) string {
	summary := fmt.Sprintf("%v", args)
	if len(summary) > argsSummaryLimit {
		summary = summary[:argsSummaryLimit]
	}
	return summary
}

func (m *Manager) logInfo(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Info(msg, args...)
	}
}

func (m *Manager) logWarn(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Warn(msg, args...)
	}
}
