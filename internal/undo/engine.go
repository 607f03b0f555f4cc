package undo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cnl-ai/warden/internal/backup"
	"github.com/cnl-ai/warden/pkg/session"
	"github.com/cnl-ai/warden/pkg/types"
	"log/slog"
)

// ErrUndoUnavailable reports that the session has nothing restorable: no
// recorded operation, or a backup that was evicted or lost.
var ErrUndoUnavailable = errors.New("undo unavailable")

// StateWriter pushes a previously captured configuration state back to the
// provider. Implemented by the external provider client.
type StateWriter interface {
	WriteState(ctx context.Context, operation string, args map[string]any, state map[string]any) error
}

type capacityWaiter interface {
	Wait(ctx context.Context, tenantID string) error
}

// Engine restores the single most recent operation per session from its
// backup. One slot, no stack: undoing twice in a row has nothing to do the
// second time.
type Engine struct {
	store    backup.Store
	writer   StateWriter
	sessions *session.Tracker
	limiter  capacityWaiter
	logger   *slog.Logger
}

func New(store backup.Store, writer StateWriter, sessions *session.Tracker, limiter capacityWaiter) *Engine {
	return &Engine{store: store, writer: writer, sessions: sessions, limiter: limiter}
}

func (e *Engine) SetLogger(logger *slog.Logger) {
	e.logger = logger
}

// Info describes what an undo would restore. CanUndo is false whenever the
// slot is empty or its backup no longer resolves; restoring an unrelated
// state would be worse than refusing.
func (e *Engine) Info(sessionID string) types.UndoInfo {
	lastOp, ok := e.sessions.LastOperation(sessionID)
	if !ok {
		return types.UndoInfo{CanUndo: false, Reason: "no operation to undo"}
	}
	if lastOp.BackupPath == "" {
		return types.UndoInfo{CanUndo: false, Reason: "no backup available for last operation"}
	}
	if !e.sessions.HasBackup(sessionID, lastOp.BackupPath) {
		return types.UndoInfo{CanUndo: false, Reason: "backup evicted from session history"}
	}
	if !e.store.Exists(lastOp.BackupPath) {
		return types.UndoInfo{CanUndo: false, Reason: "backup file missing"}
	}

	return types.UndoInfo{
		CanUndo:    true,
		Operation:  lastOp.Operation,
		BackupPath: lastOp.BackupPath,
		CapturedAt: lastOp.At,
		Preview:    fmt.Sprintf("Will restore configuration from %s", lastOp.BackupPath),
	}
}

// Execute restores the session's last operation from its snapshot and
// clears the slot. The write consumes tenant capacity like any other
// provider call.
func (e *Engine) Execute(ctx context.Context, sessionID, tenantID string) (types.UndoResult, error) {
	info := e.Info(sessionID)
	if !info.CanUndo {
		return types.UndoResult{}, fmt.Errorf("%w: %s", ErrUndoUnavailable, info.Reason)
	}

	snap, err := e.store.Load(info.BackupPath)
	if err != nil {
		return types.UndoResult{}, fmt.Errorf("%w: %w", ErrUndoUnavailable, err)
	}

	if err := e.limiter.Wait(ctx, tenantID); err != nil {
		return types.UndoResult{}, fmt.Errorf("acquire write capacity: %w", err)
	}

	if err := e.writer.WriteState(ctx, info.Operation, snap.Args, snap.State); err != nil {
		return types.UndoResult{}, fmt.Errorf("restore %s: %w", info.Operation, err)
	}

	// The slot is spent: an undo cannot itself be undone.
	e.sessions.ClearLastOperation(sessionID)

	e.logInfo("undo_executed", "session", sessionID, "operation", info.Operation, "path", info.BackupPath)
	return types.UndoResult{
		Operation:  info.Operation,
		BackupPath: info.BackupPath,
		RestoredAt: time.Now(),
	}, nil
}

func (e *Engine) logInfo(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Info(msg, args...)
	}
}
