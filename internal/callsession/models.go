package callsession

import "time"

// CallSession is the durable record of one outbound automated call attempt
// for a job. One row per attempt; rows are never deleted, failed attempts
// stay behind as history when a job is re-dialed.
//
// Multi-tenant invariant: WorkspaceID is required on every row and every
// store operation is scoped by it.
//
// Concurrency invariant: at most one session per (workspace_id, job_id) may
// carry an in-progress provider status at a time. The Postgres store
// enforces this with a partial unique index; see repo_postgres.go.
type CallSession struct {
	ID          string `json:"id" db:"id"`
	WorkspaceID string `json:"workspace_id" db:"workspace_id"`
	JobID       string `json:"job_id" db:"job_id"`
	CustomerID  string `json:"customer_id,omitempty" db:"customer_id"`

	// Direction is always "outbound" for sessions created here; kept as a
	// column so inbound call records can share the table later.
	Direction string `json:"direction" db:"direction"`

	FromNumber string `json:"from_number" db:"from_number"`
	ToNumber   string `json:"to_number" db:"to_number"`

	ScriptBody    string `json:"script_body" db:"script_body"`
	ScriptSummary string `json:"script_summary,omitempty" db:"script_summary"`

	// SpeechPlan is set once between dial authorization and the provider
	// call; nil until then.
	SpeechPlan *SpeechPlan `json:"speech_plan,omitempty" db:"-"`

	// DialRequestedAt is stamped exactly once by the dial guard. Once set it
	// is never cleared.
	DialRequestedAt *time.Time `json:"dial_requested_at,omitempty" db:"dial_requested_at"`

	// ProviderCallID is Twilio's call SID. Set only after the gateway
	// accepted the dial; never pre-allocated.
	ProviderCallID string `json:"provider_call_id,omitempty" db:"provider_call_id"`

	ProviderStatus ProviderStatus `json:"provider_status" db:"provider_status"`

	ErrorCode    string `json:"error_code,omitempty" db:"error_code"`
	ErrorMessage string `json:"error_message,omitempty" db:"error_message"`

	RecordingURL             string `json:"recording_url,omitempty" db:"recording_url"`
	RecordingDurationSeconds int    `json:"recording_duration_seconds,omitempty" db:"recording_duration_seconds"`
	DurationSeconds          int    `json:"duration_seconds,omitempty" db:"duration_seconds"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SpeechPlan drives how the scripted call is spoken.
type SpeechPlan struct {
	Voice          string `json:"voice,omitempty"`
	GreetingStyle  string `json:"greeting_style,omitempty"`
	AllowVoicemail bool   `json:"allow_voicemail"`
	ScriptSummary  string `json:"script_summary,omitempty"`
}

const DirectionOutbound = "outbound"

// ProviderStatus is the call lifecycle status in the provider's vocabulary,
// written by the orchestrator (dial_requested, initiated, failed) and by the
// callback reconciler (everything the provider pushes).
type ProviderStatus string

const (
	// StatusCreated is the initial status of a freshly inserted row, before
	// the dial guard authorizes a dial. It counts as in-progress so the
	// partial unique index blocks a concurrent second create for the job.
	StatusCreated ProviderStatus = "created"

	StatusDialRequested ProviderStatus = "dial_requested"
	StatusInitiated     ProviderStatus = "initiated"
	StatusQueued        ProviderStatus = "queued"
	StatusRinging       ProviderStatus = "ringing"
	StatusInProgress    ProviderStatus = "in-progress"
	StatusCompleted     ProviderStatus = "completed"
	StatusFailed        ProviderStatus = "failed"
	StatusBusy          ProviderStatus = "busy"
	StatusNoAnswer      ProviderStatus = "no-answer"
	StatusCanceled      ProviderStatus = "canceled"
)

// InProgress reports whether the status means a dial is underway: the call
// is authorized, queued, ringing or connected but not yet terminal.
func (s ProviderStatus) InProgress() bool {
	switch s {
	case StatusCreated, StatusDialRequested, StatusInitiated, StatusQueued, StatusRinging, StatusInProgress:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further automated transition is expected.
func (s ProviderStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusBusy, StatusNoAnswer, StatusCanceled:
		return true
	default:
		return false
	}
}

// TerminalFailure reports whether the call ended without completing; a job
// in this state may be dialed again with a fresh session.
func (s ProviderStatus) TerminalFailure() bool {
	return s.Terminal() && s != StatusCompleted
}
