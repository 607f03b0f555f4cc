package session

import (
	"sync"

	"github.com/cnl-ai/warden/pkg/types"
)

// Tracker holds the safety state of every live session: the bounded backup
// history and the undo slot. Each session's records belong to that session
// alone; nothing here is shared across sessions beyond the map itself.
type Tracker struct {
	capacity int

	mu       sync.Mutex
	sessions map[string]*state
}

// NewTracker builds a tracker. capacity <= 0 uses DefaultBackupCap.
func NewTracker(capacity int) *Tracker {
	if capacity <= 0 {
		capacity = DefaultBackupCap
	}
	return &Tracker{capacity: capacity, sessions: make(map[string]*state)}
}

// AppendBackup adds a record to the session's history, evicting the oldest
// record once the session is at capacity.
func (t *Tracker) AppendBackup(sessionID string, record types.BackupRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.session(sessionID).appendBackup(record, t.capacity)
}

// Backups returns the session's retained records, newest first.
func (t *Tracker) Backups(sessionID string) []types.BackupRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[sessionID]
	if !ok {
		return nil
	}
	out := make([]types.BackupRecord, 0, len(s.backups))
	for i := len(s.backups) - 1; i >= 0; i-- {
		out = append(out, s.backups[i])
	}
	return out
}

// HasBackup reports whether the session still retains a record for path.
// Evicted records make this false even if the snapshot file survives.
func (t *Tracker) HasBackup(sessionID, path string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[sessionID]
	return ok && s.hasBackup(path)
}

// SetLastOperation records the session's most recent mutating operation,
// replacing whatever was there. There is deliberately no stack.
func (t *Tracker) SetLastOperation(sessionID string, op LastOperation) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.session(sessionID).lastOp = &op
}

// LastOperation returns the undo slot, if one is set.
func (t *Tracker) LastOperation(sessionID string) (LastOperation, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[sessionID]
	if !ok || s.lastOp == nil {
		return LastOperation{}, false
	}
	return *s.lastOp, true
}

// ClearLastOperation empties the undo slot. An undo cannot be undone.
func (t *Tracker) ClearLastOperation(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.sessions[sessionID]; ok {
		s.lastOp = nil
	}
}

// End discards all state owned by a session.
func (t *Tracker) End(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, sessionID)
}

func (t *Tracker) session(sessionID string) *state {
	s, ok := t.sessions[sessionID]
	if !ok {
		s = &state{}
		t.sessions[sessionID] = s
	}
	return s
}
