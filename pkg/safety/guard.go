package safety

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cnl-ai/warden/internal/backup"
	"github.com/cnl-ai/warden/internal/classify"
	"github.com/cnl-ai/warden/internal/confirm"
	"github.com/cnl-ai/warden/internal/dryrun"
	"github.com/cnl-ai/warden/internal/ratelimit"
	"github.com/cnl-ai/warden/internal/registry"
	"github.com/cnl-ai/warden/internal/undo"
	"github.com/cnl-ai/warden/pkg/session"
	"github.com/cnl-ai/warden/pkg/types"
)

// Options configure a Guard. Zero values fall back to the builtin registry,
// the default session cap and the provider's documented rate limit.
type Options struct {
	Registry   *registry.Registry
	Reader     ResourceReader
	Writer     ResourceWriter
	BackupsDir string
	SessionCap int
	ConfirmTTL time.Duration
	RateLimit  ratelimit.Options
	Logger     *slog.Logger
	Audit      AuditRecorder
}

// Guard is the safety layer every mutating operation passes through. It
// classifies operations, raises confirmation requests, captures pre-change
// backups, serves undo and dry-run, and throttles per-tenant API traffic.
type Guard struct {
	registry *registry.Registry
	classify *classify.Classifier
	confirm  *confirm.Coordinator
	sessions *session.Tracker
	limiter  *ratelimit.Limiter
	backups  *backup.Manager
	undo     *undo.Engine
	dryrun   *dryrun.Runner
	audit    AuditRecorder
	logger   *slog.Logger
}

func NewGuard(opts Options) *Guard {
	reg := opts.Registry
	if reg == nil {
		reg = registry.Builtin()
	}
	classifier := classify.New(reg)
	sessions := session.NewTracker(opts.SessionCap)
	limiter := ratelimit.New(opts.RateLimit)
	store := backup.NewFileStore(opts.BackupsDir)
	backups := backup.NewManager(classifier, opts.Reader, store, sessions, limiter)
	undoer := undo.New(store, opts.Writer, sessions, limiter)
	coordinator := confirm.New(opts.ConfirmTTL)

	audit := opts.Audit
	if audit == nil {
		audit = NopRecorder{}
	}
	if opts.Logger != nil {
		limiter.SetLogger(opts.Logger)
		backups.SetLogger(opts.Logger)
		undoer.SetLogger(opts.Logger)
		coordinator.SetLogger(opts.Logger)
	}

	return &Guard{
		registry: reg,
		classify: classifier,
		confirm:  coordinator,
		sessions: sessions,
		limiter:  limiter,
		backups:  backups,
		undo:     undoer,
		dryrun:   dryrun.NewRunner(classifier),
		audit:    audit,
		logger:   opts.Logger,
	}
}

// Sessions exposes the session tracker for transports that manage session
// lifecycle themselves.
func (g *Guard) Sessions() *session.Tracker {
	return g.sessions
}

// Classify grades an operation without executing anything. Operations the
// registry does not know are graded dangerous.
func (g *Guard) Classify(operation string, args map[string]any) types.SafetyCheck {
	check := g.classify.Classify(operation, args)
	g.audit.Record(AuditEvent{
		Time:      time.Now(),
		Event:     "classified",
		Operation: operation,
		Level:     check.Level,
	})
	return check
}

// RequestConfirmation classifies an operation and, when it needs operator
// approval, registers a pending confirmation request. The request is nil
// for safe operations: the caller may execute immediately.
func (g *Guard) RequestConfirmation(operation string, args map[string]any, sessionID, clientLabel, tenantID string) (types.SafetyCheck, *types.ConfirmationRequest) {
	check := g.classify.Classify(operation, args)
	request := g.confirm.Generate(check, confirm.Context{
		Operation:   operation,
		Args:        args,
		SessionID:   sessionID,
		ClientLabel: clientLabel,
		TenantID:    tenantID,
	})
	if request != nil {
		if warning := selfTargetWarning(operation, args); warning != "" {
			request.Message = request.Message + "\n\n" + warning
		}
		g.audit.Record(AuditEvent{
			Time:      time.Now(),
			Event:     "confirmation_requested",
			SessionID: sessionID,
			TenantID:  tenantID,
			Operation: operation,
			Level:     check.Level,
			Detail:    request.ID,
		})
	}
	return check, request
}

// Confirm resolves a pending request. Each request resolves exactly once;
// answering twice, or answering an unknown ID, reports request_not_found.
func (g *Guard) Confirm(requestID string, approved bool, typed string) confirm.Resolution {
	resolution := g.confirm.Respond(requestID, approved, typed)
	g.audit.Record(AuditEvent{
		Time:      time.Now(),
		Event:     "confirmation_resolved",
		SessionID: resolution.Context.SessionID,
		TenantID:  resolution.Context.TenantID,
		Operation: resolution.Context.Operation,
		Level:     resolution.Check.Level,
		Decision:  resolution.Decision,
		Detail:    requestID,
	})
	return resolution
}

// BeforeOperation captures a pre-change backup for a mutating operation.
// A backup failure is fatal: the guarded operation must not run.
func (g *Guard) BeforeOperation(ctx context.Context, operation string, args map[string]any, clientLabel, sessionID, tenantID string) (types.BackupResult, error) {
	result, err := g.backups.BeforeOperation(ctx, operation, args, clientLabel, sessionID, tenantID)
	if err != nil {
		g.audit.Record(AuditEvent{
			Time:      time.Now(),
			Event:     "backup_failed",
			SessionID: sessionID,
			TenantID:  tenantID,
			Operation: operation,
			Detail:    err.Error(),
		})
		return types.BackupResult{}, err
	}
	return result, nil
}

// TrackOperation records a completed mutating operation as the session's
// undo candidate, replacing whatever was there.
func (g *Guard) TrackOperation(sessionID, operation string, args map[string]any, backupPath string) {
	g.sessions.SetLastOperation(sessionID, session.LastOperation{
		Operation:  operation,
		Args:       args,
		BackupPath: backupPath,
		At:         time.Now(),
	})
}

// ListBackups returns the session's retained backup records, newest first.
func (g *Guard) ListBackups(sessionID string) []types.BackupRecord {
	return g.sessions.Backups(sessionID)
}

// UndoInfo describes what an undo would restore for the session.
func (g *Guard) UndoInfo(sessionID string) types.UndoInfo {
	return g.undo.Info(sessionID)
}

// ExecuteUndo restores the session's last operation from its backup.
// Callers gate it through the confirmation flow first: undo_last_operation
// is a dangerous operation in its own right.
func (g *Guard) ExecuteUndo(ctx context.Context, sessionID, tenantID string) (types.UndoResult, error) {
	result, err := g.undo.Execute(ctx, sessionID, tenantID)
	if err != nil {
		return types.UndoResult{}, err
	}
	g.audit.Record(AuditEvent{
		Time:      time.Now(),
		Event:     "undo_executed",
		SessionID: sessionID,
		TenantID:  tenantID,
		Operation: result.Operation,
	})
	return result, nil
}

// DetectDryRun reports whether a natural-language message asks for a
// simulation instead of a real change.
func (g *Guard) DetectDryRun(message string) bool {
	return dryrun.Detect(message)
}

// DryRun projects an operation's impact without touching the provider.
func (g *Guard) DryRun(operation string, args map[string]any) types.DryRunResult {
	return g.dryrun.Execute(operation, args)
}

// WaitForCapacity blocks until the tenant may issue one more API call.
func (g *Guard) WaitForCapacity(ctx context.Context, tenantID string) error {
	return g.limiter.Wait(ctx, tenantID)
}

// PaceOperations runs a batch sequentially, acquiring capacity before each
// step and stopping at the first failure.
func (g *Guard) PaceOperations(ctx context.Context, tenantID string, ops []ratelimit.Operation, progress ratelimit.ProgressFunc) ([]any, error) {
	return g.limiter.Pace(ctx, tenantID, ops, progress)
}

// EndSession discards the session's backups and undo slot and invalidates
// its pending confirmation requests.
func (g *Guard) EndSession(sessionID string) {
	invalidated := g.confirm.InvalidateSession(sessionID)
	g.sessions.End(sessionID)
	g.audit.Record(AuditEvent{
		Time:      time.Now(),
		Event:     "session_ended",
		SessionID: sessionID,
		Detail:    fmt.Sprintf("invalidated %d pending requests", invalidated),
	})
}

// selfTargetWarning flags admin changes that could lock the operator out
// of their own organization.
func selfTargetWarning(operation string, args map[string]any) string {
	if operation != "manage_admin" {
		return ""
	}
	action, _ := args["action"].(string)
	if action == "delete" || action == "downgrade" {
		return "Warning: removing or downgrading an admin can lock you out of this organization."
	}
	return "Warning: admin account changes affect who can manage this organization."
}
