package audit

import "time"

// Event is one append-only audit log entry. Events are never updated or
// deleted; the log is the operational paper trail for automated calls.
type Event struct {
	ID          string `json:"id" db:"id"`
	WorkspaceID string `json:"workspace_id" db:"workspace_id"`

	// Actor is the user id that triggered the event, or "system" for
	// provider-driven events (webhook callbacks).
	Actor string `json:"actor" db:"actor"`

	Type string `json:"type" db:"type"`

	JobID          string `json:"job_id,omitempty" db:"job_id"`
	CallID         string `json:"call_id,omitempty" db:"call_id"`
	ProviderCallID string `json:"provider_call_id,omitempty" db:"provider_call_id"`

	// Fields carries the remaining structured detail of the event.
	Fields map[string]any `json:"fields,omitempty" db:"fields"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

const (
	TypeDialAttempt     = "dial_attempt"
	TypeDialOutcome     = "dial_outcome"
	TypeCallbackApplied = "callback_applied"
)

const ActorSystem = "system"
