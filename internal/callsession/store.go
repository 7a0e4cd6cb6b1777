package callsession

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned for lookups scoped to the wrong workspace as
	// well as genuinely missing rows; callers cannot distinguish the two.
	ErrNotFound = errors.New("callsession: not found")

	// ErrCreationFailed wraps persistence errors from Create.
	ErrCreationFailed = errors.New("callsession: creation failed")

	// ErrUpdateFailed wraps persistence errors from partial updates.
	ErrUpdateFailed = errors.New("callsession: update failed")

	// ErrDuplicateInProgress is returned by Create when another in-progress
	// session already exists for the same (workspace_id, job_id). This is the
	// storage-level backstop closing the window between the orchestrator's
	// prior-session lookup and the dial guard.
	ErrDuplicateInProgress = errors.New("callsession: in-progress session exists for job")
)

// CreateInput carries the immutable fields of a new session.
type CreateInput struct {
	WorkspaceID   string
	JobID         string
	CustomerID    string
	FromNumber    string
	ToNumber      string
	ScriptBody    string
	ScriptSummary string
}

// DialOutcome is a partial update of the provider bookkeeping fields.
// Zero-valued fields are left untouched.
type DialOutcome struct {
	Status         ProviderStatus
	ProviderCallID string
	ErrorCode      string
	ErrorMessage   string
}

// Store is the persistence contract for call sessions.
//
// Rules:
// - Every operation is workspace-scoped.
// - Create never coalesces with an existing row; reuse policy belongs to the
//   orchestrator.
// - MarkDialRequested and ApplyProviderStatus must be atomic conditional
//   updates at the storage layer, not read-then-write.
type Store interface {
	// FindLatestOutbound returns the most recently created outbound session
	// for the job, or ErrNotFound.
	FindLatestOutbound(ctx context.Context, workspaceID, jobID string) (CallSession, error)

	FindByID(ctx context.Context, workspaceID, callID string) (CallSession, error)

	// FindByProviderCallID resolves a provider SID within a workspace.
	FindByProviderCallID(ctx context.Context, workspaceID, providerCallID string) (CallSession, error)

	Create(ctx context.Context, in CreateInput) (CallSession, error)

	UpdateSpeechPlan(ctx context.Context, workspaceID, callID string, plan SpeechPlan) error

	RecordDialOutcome(ctx context.Context, workspaceID, callID string, out DialOutcome) error

	// MarkDialRequested stamps dial_requested_at and moves the row to
	// dial_requested, only if dial_requested_at is still null. Returns false
	// with no error when the row already had a dial requested.
	MarkDialRequested(ctx context.Context, workspaceID, callID string, now time.Time) (bool, error)

	// ApplyProviderStatus applies a provider-pushed transition to the row
	// with this SID, only while the row is not already terminal. Returns the
	// row after the call and whether the update was applied. A missing SID
	// returns ErrNotFound.
	ApplyProviderStatus(ctx context.Context, workspaceID, providerCallID string, status ProviderStatus, errorCode, errorMessage string, durationSeconds int) (CallSession, bool, error)

	// ApplyRecording attaches recording metadata to the row with this SID.
	// Safe to apply repeatedly; last write wins.
	ApplyRecording(ctx context.Context, workspaceID, providerCallID, recordingURL string, durationSeconds int) (CallSession, error)
}
