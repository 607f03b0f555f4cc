package confirm

import (
	"fmt"
	"sync"
	"time"

	"github.com/cnl-ai/warden/pkg/types"
	"github.com/google/uuid"
	"log/slog"
)

// Context carries the operation a confirmation request was raised for, so an
// approval can be mapped back to what the caller should execute.
type Context struct {
	Operation   string
	Args        map[string]any
	SessionID   string
	ClientLabel string
	TenantID    string
}

// Resolution is the result of answering a confirmation request.
type Resolution struct {
	Decision types.Decision
	Check    types.SafetyCheck
	Context  Context
}

// Coordinator owns the in-memory store of pending confirmation requests.
// Requests resolve exactly once: every answer removes its entry, so a second
// answer to the same ID reports request_not_found.
type Coordinator struct {
	ttl    time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]*pendingRequest
}

type pendingRequest struct {
	request types.ConfirmationRequest
	check   types.SafetyCheck
	context Context
}

// New builds a coordinator. ttl of zero keeps requests pending until they
// are answered or their session ends.
func New(ttl time.Duration) *Coordinator {
	return &Coordinator{ttl: ttl, pending: make(map[string]*pendingRequest)}
}

func (c *Coordinator) SetLogger(logger *slog.Logger) {
	c.logger = logger
}

// Generate registers a pending request for a check that needs operator
// approval. Safe operations need none and yield no request.
func (c *Coordinator) Generate(check types.SafetyCheck, opCtx Context) *types.ConfirmationRequest {
	if check.Confirmation == types.ConfirmNone {
		return nil
	}

	request := types.ConfirmationRequest{
		ID:            uuid.NewString(),
		SessionID:     opCtx.SessionID,
		Level:         check.Level,
		Action:        check.Action,
		Preview:       check.Preview,
		Message:       requestMessage(check),
		RequiresTyped: check.Confirmation == types.ConfirmTyped,
		BackupPlanned: check.BackupRequired,
		CreatedAt:     time.Now(),
	}

	c.mu.Lock()
	c.pending[request.ID] = &pendingRequest{request: request, check: check, context: opCtx}
	c.mu.Unlock()

	c.logInfo("confirmation_requested",
		"request_id", request.ID,
		"operation", check.Operation,
		"level", check.Level,
		"session", opCtx.SessionID)

	return &request
}

// Respond answers a pending request. The lookup and removal are atomic so
// concurrent answers cannot both win.
func (c *Coordinator) Respond(requestID string, approved bool, typed string) Resolution {
	c.mu.Lock()
	entry, ok := c.pending[requestID]
	if ok {
		delete(c.pending, requestID)
	}
	c.mu.Unlock()

	if !ok || c.expired(entry) {
		c.logWarn("confirmation_not_found", "request_id", requestID)
		return Resolution{Decision: types.DecisionNotFound}
	}

	resolution := Resolution{Check: entry.check, Context: entry.context}

	if !approved {
		c.logInfo("confirmation_rejected", "request_id", requestID, "operation", entry.check.Operation)
		resolution.Decision = types.DecisionRejected
		return resolution
	}

	if entry.check.Confirmation == types.ConfirmTyped && typed != types.TypedConfirmationPhrase {
		c.logWarn("confirmation_typed_mismatch",
			"request_id", requestID,
			"operation", entry.check.Operation)
		resolution.Decision = types.DecisionTypedMismatch
		return resolution
	}

	c.logInfo("confirmation_approved", "request_id", requestID, "operation", entry.check.Operation)
	resolution.Decision = types.DecisionExecute
	return resolution
}

// InvalidateSession drops every pending request raised by a session, so a
// dropped connection cannot be approved later against stale state. It
// returns how many requests were removed.
func (c *Coordinator) InvalidateSession(sessionID string) int {
	c.mu.Lock()
	removed := 0
	for id, entry := range c.pending {
		if entry.context.SessionID == sessionID {
			delete(c.pending, id)
			removed++
		}
	}
	c.mu.Unlock()

	if removed > 0 {
		c.logInfo("confirmations_invalidated", "session", sessionID, "count", removed)
	}
	return removed
}

// PendingCount reports live requests, expired entries excluded.
func (c *Coordinator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, entry := range c.pending {
		if !c.expired(entry) {
			count++
		}
	}
	return count
}

func (c *Coordinator) expired(entry *pendingRequest) bool {
	return c.ttl > 0 && time.Since(entry.request.CreatedAt) > c.ttl
}

func requestMessage(check types.SafetyCheck) string {
	if check.Confirmation == types.ConfirmTyped {
		return fmt.Sprintf("%s\n\nDANGEROUS OPERATION\n"+
			"This operation will make critical changes to your network.\n"+
			"A backup will be created automatically.\n\n"+
			"Type '%s' (all caps) to proceed, or 'cancel' to abort.",
			check.Preview, types.TypedConfirmationPhrase)
	}
	return fmt.Sprintf("%s\n\nThis operation requires confirmation.\n"+
		"Reply 'yes' or 'y' to proceed, or 'no' to cancel.", check.Preview)
}

func (c *Coordinator) logInfo(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

func (c *Coordinator) logWarn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
