package types

import "time"

// BackupRecord points at one captured pre-change snapshot. Records are owned
// by the session that created them and evicted oldest-first once the session
// holds more than its cap.
type BackupRecord struct {
	SessionID   string    `json:"session_id"`
	Operation   string    `json:"operation"`
	ArgsSummary string    `json:"args_summary"`
	ClientLabel string    `json:"client"`
	Path        string    `json:"backup_path"`
	CapturedAt  time.Time `json:"captured_at"`
}

// BackupResult reports whether a snapshot was taken before an operation.
// Safe operations produce Created=false with no record.
type BackupResult struct {
	Created bool          `json:"backup_created"`
	Path    string        `json:"backup_path,omitempty"`
	Record  *BackupRecord `json:"record,omitempty"`
}

// UndoInfo describes what an undo would restore, if anything.
type UndoInfo struct {
	CanUndo    bool      `json:"can_undo"`
	Reason     string    `json:"reason,omitempty"`
	Operation  string    `json:"operation,omitempty"`
	BackupPath string    `json:"backup_path,omitempty"`
	CapturedAt time.Time `json:"captured_at,omitempty"`
	Preview    string    `json:"preview,omitempty"`
}

// UndoResult reports a completed restore.
type UndoResult struct {
	Operation  string    `json:"operation"`
	BackupPath string    `json:"backup_path"`
	RestoredAt time.Time `json:"restored_at"`
}

// DryRunResult is the impact projection for a simulated operation. Producing
// one never touches the upstream API.
type DryRunResult struct {
	DryRun           bool             `json:"dry_run"`
	Action           string           `json:"action"`
	Impact           string           `json:"impact"`
	Level            SafetyLevel      `json:"safety_level"`
	BackupRequired   bool             `json:"backup_required"`
	Confirmation     ConfirmationType `json:"confirmation_type"`
	NetworksAffected []string         `json:"networks_affected"`
	APICallsAvoided  int              `json:"api_calls_prevented"`
}
