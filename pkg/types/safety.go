package types

import "time"

// SafetyLevel grades how much damage an operation can do to a live network.
type SafetyLevel string

const (
	LevelSafe      SafetyLevel = "safe"
	LevelModerate  SafetyLevel = "moderate"
	LevelDangerous SafetyLevel = "dangerous"
)

// Rank orders levels by the friction they demand before execution.
func (l SafetyLevel) Rank() int {
	switch l {
	case LevelSafe:
		return 0
	case LevelModerate:
		return 1
	case LevelDangerous:
		return 2
	default:
		return 2
	}
}

// ConfirmationType is the strength of operator approval an operation needs.
type ConfirmationType string

const (
	ConfirmNone   ConfirmationType = "none"
	ConfirmSimple ConfirmationType = "confirm"
	ConfirmTyped  ConfirmationType = "type_confirm"
)

// SafetyCheck is the classification result for a single operation. It is a
// value: derived once from the registry and never mutated afterwards.
type SafetyCheck struct {
	Operation      string           `json:"operation"`
	Level          SafetyLevel      `json:"level"`
	BackupRequired bool             `json:"backup_required"`
	Confirmation   ConfirmationType `json:"confirmation_type"`
	Action         string           `json:"action"`
	Preview        string           `json:"preview"`
}

// ConfirmationRequest asks the operator to approve a pending operation.
type ConfirmationRequest struct {
	ID            string      `json:"request_id"`
	SessionID     string      `json:"session_id,omitempty"`
	Level         SafetyLevel `json:"safety_level"`
	Action        string      `json:"action"`
	Preview       string      `json:"preview"`
	Message       string      `json:"message"`
	RequiresTyped bool        `json:"requires_typed"`
	BackupPlanned bool        `json:"backup_will_be_created"`
	CreatedAt     time.Time   `json:"created_at"`
}

// Decision is the outcome of resolving a confirmation request.
type Decision string

const (
	DecisionExecute       Decision = "execute"
	DecisionRejected      Decision = "rejected"
	DecisionNotFound      Decision = "request_not_found"
	DecisionTypedMismatch Decision = "typed_mismatch"
)

// TypedConfirmationPhrase is the literal an operator must type, exactly,
// to release a dangerous operation.
const TypedConfirmationPhrase = "CONFIRM"
