package session

import (
	"time"

	"github.com/cnl-ai/warden/pkg/types"
)

// DefaultBackupCap bounds how many backup records one session retains.
// Backups are historical checkpoints, so eviction is oldest-first rather
// than least-recently-used.
const DefaultBackupCap = 10

// LastOperation is the single undo slot a session carries. Only the most
// recent mutating operation can be undone.
type LastOperation struct {
	Operation  string
	Args       map[string]any
	BackupPath string
	At         time.Time
}

type state struct {
	backups []types.BackupRecord
	lastOp  *LastOperation
}

func (s *state) appendBackup(record types.BackupRecord, capacity int) {
	if len(s.backups) >= capacity {
		s.backups = s.backups[1:]
	}
	s.backups = append(s.backups, record)
}

func (s *state) hasBackup(path string) bool {
	for _, record := range s.backups {
		if record.Path == path {
			return true
		}
	}
	return false
}
