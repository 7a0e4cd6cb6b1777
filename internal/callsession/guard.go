package callsession

import (
	"context"
	"fmt"
	"time"
)

// GuardOutcome is the dial guard's decision.
type GuardOutcome string

const (
	GuardAllowedToDial     GuardOutcome = "allowed_to_dial"
	GuardAlreadyInProgress GuardOutcome = "already_in_progress"
)

// GuardResult carries the decision plus, when the dial was refused, the row
// as it stood when the guard lost.
type GuardResult struct {
	Outcome GuardOutcome
	Session CallSession
}

// DialGuard is the single authorization point deciding whether a session may
// be dialed now. The decision is one atomic conditional update in the store;
// the guard never reads first and writes second.
type DialGuard struct {
	store Store
	clock func() time.Time
}

func NewDialGuard(store Store) *DialGuard {
	return &DialGuard{store: store, clock: time.Now}
}

// MarkDialRequested stamps dial_requested_at on the session. Exactly one of
// two concurrent callers for the same row gets GuardAllowedToDial; the other
// gets GuardAlreadyInProgress with the row re-read.
func (g *DialGuard) MarkDialRequested(ctx context.Context, workspaceID, callID string) (GuardResult, error) {
	ok, err := g.store.MarkDialRequested(ctx, workspaceID, callID, g.clock())
	if err != nil {
		return GuardResult{}, fmt.Errorf("dial request failed: %w", err)
	}
	if ok {
		return GuardResult{Outcome: GuardAllowedToDial}, nil
	}

	s, err := g.store.FindByID(ctx, workspaceID, callID)
	if err != nil {
		return GuardResult{}, fmt.Errorf("dial request failed: %w", err)
	}
	return GuardResult{Outcome: GuardAlreadyInProgress, Session: s}, nil
}
