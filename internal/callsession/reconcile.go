package callsession

import (
	"context"
	"errors"

	"fieldservice-crm/pkg/logger"
)

// StatusCallback is a provider-pushed lifecycle transition for a call.
type StatusCallback struct {
	WorkspaceID    string
	ProviderCallID string
	Status         ProviderStatus
	ErrorCode      string
	ErrorMessage   string

	// DurationSeconds is only present on completed callbacks.
	DurationSeconds int
}

// RecordingCallback is a provider-pushed recording notification.
type RecordingCallback struct {
	WorkspaceID     string
	ProviderCallID  string
	RecordingURL    string
	DurationSeconds int
}

// Reconciler applies provider webhook callbacks to stored sessions.
//
// Both entry points are idempotent: the provider may deliver the same
// callback more than once, and callbacks for a SID unknown in the workspace
// are dropped rather than erroring (cross-tenant safety).
type Reconciler struct {
	store Store

	// ReleaseSlot, when set, is invoked once per session reaching a terminal
	// status, to free the workspace's concurrent-call slot.
	ReleaseSlot func(ctx context.Context, workspaceID string)
}

func NewReconciler(store Store) *Reconciler {
	return &Reconciler{store: store}
}

// ApplyStatusCallback moves the session identified by the provider SID to
// the pushed status. Terminal rows are never moved again; applying the same
// terminal status twice is a no-op, not an error.
func (r *Reconciler) ApplyStatusCallback(ctx context.Context, cb StatusCallback) error {
	log := logger.From(ctx)

	s, applied, err := r.store.ApplyProviderStatus(ctx,
		cb.WorkspaceID, cb.ProviderCallID, cb.Status,
		cb.ErrorCode, cb.ErrorMessage, cb.DurationSeconds,
	)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("status callback for unknown call dropped",
				"workspace_id", cb.WorkspaceID, "provider_call_id", cb.ProviderCallID)
			return nil
		}
		return err
	}
	if !applied {
		log.Debug("status callback ignored for terminal call",
			"call_id", s.ID, "status", string(s.ProviderStatus), "pushed", string(cb.Status))
		return nil
	}

	log.Info("call status reconciled",
		"call_id", s.ID, "job_id", s.JobID, "status", string(cb.Status))

	if cb.Status.Terminal() && r.ReleaseSlot != nil {
		r.ReleaseSlot(ctx, cb.WorkspaceID)
	}
	return nil
}

// ApplyRecordingCallback attaches the recording to the session. Unknown SIDs
// are dropped; repeated deliveries overwrite with identical values.
func (r *Reconciler) ApplyRecordingCallback(ctx context.Context, cb RecordingCallback) error {
	log := logger.From(ctx)

	s, err := r.store.ApplyRecording(ctx,
		cb.WorkspaceID, cb.ProviderCallID, cb.RecordingURL, cb.DurationSeconds,
	)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("recording callback for unknown call dropped",
				"workspace_id", cb.WorkspaceID, "provider_call_id", cb.ProviderCallID)
			return nil
		}
		return err
	}

	log.Info("call recording reconciled", "call_id", s.ID, "job_id", s.JobID)
	return nil
}
