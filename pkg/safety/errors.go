package safety

import (
	"github.com/cnl-ai/warden/internal/backup"
	"github.com/cnl-ai/warden/internal/ratelimit"
	"github.com/cnl-ai/warden/internal/undo"
)

// Sentinel errors surfaced by the guard. Callers match them with errors.Is.
var (
	// ErrBackupFailed aborts a mutating operation whose pre-change
	// snapshot could not be captured. The operation must not proceed.
	ErrBackupFailed = backup.ErrBackupFailed

	// ErrUndoUnavailable reports that no restorable snapshot exists for
	// the session's last operation.
	ErrUndoUnavailable = undo.ErrUndoUnavailable

	// ErrCapacityTimeout reports that a capacity wait exceeded the
	// configured ceiling.
	ErrCapacityTimeout = ratelimit.ErrCapacityTimeout
)
