package safety

import (
	"log/slog"
	"time"

	"github.com/cnl-ai/warden/pkg/types"
)

// AuditEvent is one entry in the guard's decision trail.
type AuditEvent struct {
	Time      time.Time         `json:"time"`
	Event     string            `json:"event"`
	SessionID string            `json:"session_id,omitempty"`
	TenantID  string            `json:"tenant_id,omitempty"`
	Operation string            `json:"operation,omitempty"`
	Level     types.SafetyLevel `json:"level,omitempty"`
	Decision  types.Decision    `json:"decision,omitempty"`
	Detail    string            `json:"detail,omitempty"`
}

// AuditRecorder records safety decisions as they are made.
type AuditRecorder interface {
	Record(event AuditEvent)
}

// LogRecorder writes audit events through a structured logger.
type LogRecorder struct {
	logger *slog.Logger
}

func NewLogRecorder(logger *slog.Logger) *LogRecorder {
	return &LogRecorder{logger: logger}
}

func (r *LogRecorder) Record(event AuditEvent) {
	if r.logger == nil {
		return
	}
	r.logger.Info("audit",
		"event", event.Event,
		"session", event.SessionID,
		"tenant", event.TenantID,
		"operation", event.Operation,
		"level", string(event.Level),
		"decision", string(event.Decision),
		"detail", event.Detail,
	)
}

// NopRecorder discards every event.
type NopRecorder struct{}

func (NopRecorder) Record(AuditEvent) {}
