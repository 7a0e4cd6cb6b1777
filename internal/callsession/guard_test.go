package callsession

import (
	"context"
	"sync"
	"testing"
)

func newTestSession(t *testing.T, store *MemoryStore) CallSession {
	t.Helper()
	s, err := store.Create(context.Background(), CreateInput{
		WorkspaceID: "w1",
		JobID:       "j1",
		CustomerID:  "c1",
		FromNumber:  "+15550001111",
		ToNumber:    "+15551230000",
		ScriptBody:  "Hi, following up on your quote",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return s
}

func TestDialGuard_FirstCallAllowed(t *testing.T) {
	store := NewMemoryStore()
	s := newTestSession(t, store)
	g := NewDialGuard(store)

	res, err := g.MarkDialRequested(context.Background(), "w1", s.ID)
	if err != nil {
		t.Fatalf("guard: %v", err)
	}
	if res.Outcome != GuardAllowedToDial {
		t.Fatalf("expected allowed_to_dial, got %q", res.Outcome)
	}

	got, err := store.FindByID(context.Background(), "w1", s.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.DialRequestedAt == nil {
		t.Fatalf("expected dial_requested_at to be stamped")
	}
	if got.ProviderStatus != StatusDialRequested {
		t.Fatalf("expected dial_requested status, got %q", got.ProviderStatus)
	}
}

func TestDialGuard_SecondCallRefused(t *testing.T) {
	store := NewMemoryStore()
	s := newTestSession(t, store)
	g := NewDialGuard(store)

	if _, err := g.MarkDialRequested(context.Background(), "w1", s.ID); err != nil {
		t.Fatalf("guard: %v", err)
	}
	res, err := g.MarkDialRequested(context.Background(), "w1", s.ID)
	if err != nil {
		t.Fatalf("guard: %v", err)
	}
	if res.Outcome != GuardAlreadyInProgress {
		t.Fatalf("expected already_in_progress, got %q", res.Outcome)
	}
	if res.Session.ID != s.ID {
		t.Fatalf("expected the guarded row back, got %q", res.Session.ID)
	}
}

func TestDialGuard_ConcurrentCallsResolveToOneWinner(t *testing.T) {
	store := NewMemoryStore()
	s := newTestSession(t, store)
	g := NewDialGuard(store)

	const callers = 8
	outcomes := make([]GuardOutcome, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := g.MarkDialRequested(context.Background(), "w1", s.ID)
			outcomes[i] = res.Outcome
			errs[i] = err
		}(i)
	}
	wg.Wait()

	allowed := 0
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if outcomes[i] == GuardAllowedToDial {
			allowed++
		} else if outcomes[i] != GuardAlreadyInProgress {
			t.Fatalf("caller %d: unexpected outcome %q", i, outcomes[i])
		}
	}
	if allowed != 1 {
		t.Fatalf("expected exactly one allowed_to_dial, got %d", allowed)
	}
}

func TestDialGuard_UnknownSession(t *testing.T) {
	store := NewMemoryStore()
	g := NewDialGuard(store)

	if _, err := g.MarkDialRequested(context.Background(), "w1", "missing"); err == nil {
		t.Fatalf("expected error for unknown session")
	}
}

func TestCreate_RefusesSecondInProgressForJob(t *testing.T) {
	store := NewMemoryStore()
	newTestSession(t, store)

	_, err := store.Create(context.Background(), CreateInput{
		WorkspaceID: "w1",
		JobID:       "j1",
		ToNumber:    "+15551230000",
		ScriptBody:  "second attempt",
	})
	if err != ErrDuplicateInProgress {
		t.Fatalf("expected ErrDuplicateInProgress, got %v", err)
	}
}

func TestCreate_AllowsNewSessionAfterTerminalFailure(t *testing.T) {
	store := NewMemoryStore()
	first := newTestSession(t, store)

	if err := store.RecordDialOutcome(context.Background(), "w1", first.ID, DialOutcome{Status: StatusFailed}); err != nil {
		t.Fatalf("record outcome: %v", err)
	}

	second, err := store.Create(context.Background(), CreateInput{
		WorkspaceID: "w1",
		JobID:       "j1",
		ToNumber:    "+15551230000",
		ScriptBody:  "second attempt",
	})
	if err != nil {
		t.Fatalf("expected retry create to succeed, got %v", err)
	}
	if second.ID == first.ID {
		t.Fatalf("expected a fresh row")
	}
}
