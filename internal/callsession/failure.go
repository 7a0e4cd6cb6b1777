package callsession

import (
	"context"
	"fmt"
)

// Failure describes a terminal dial failure to be written onto a session.
type Failure struct {
	Code                 string
	Message              string
	ProviderErrorCode    string
	ProviderErrorMessage string
}

// DialFailureRecorder writes terminal failure state back to the store when
// any step after session creation fails, so the row is always an accurate
// record of what happened.
type DialFailureRecorder struct {
	store Store
}

func NewDialFailureRecorder(store Store) *DialFailureRecorder {
	return &DialFailureRecorder{store: store}
}

// Record marks the session failed with the failure's code and message. If
// the write itself fails, that is a second, distinct problem: the caller
// gets the wrapped store error and must surface it instead of the original
// failure, because the dial failed AND the row no longer reflects it.
func (r *DialFailureRecorder) Record(ctx context.Context, workspaceID, callID string, f Failure) error {
	msg := f.Message
	if f.ProviderErrorMessage != "" {
		msg = fmt.Sprintf("%s (provider: %s)", msg, f.ProviderErrorMessage)
	}
	code := f.Code
	if f.ProviderErrorCode != "" {
		code = fmt.Sprintf("%s/%s", f.Code, f.ProviderErrorCode)
	}
	return r.store.RecordDialOutcome(ctx, workspaceID, callID, DialOutcome{
		Status:       StatusFailed,
		ErrorCode:    code,
		ErrorMessage: msg,
	})
}
