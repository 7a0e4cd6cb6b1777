package callsession

import "testing"

func TestProviderStatus_Sets(t *testing.T) {
	inProgress := []ProviderStatus{
		StatusCreated, StatusDialRequested, StatusInitiated,
		StatusQueued, StatusRinging, StatusInProgress,
	}
	for _, s := range inProgress {
		if !s.InProgress() {
			t.Fatalf("expected %q to be in-progress", s)
		}
		if s.Terminal() {
			t.Fatalf("expected %q not to be terminal", s)
		}
	}

	terminal := []ProviderStatus{
		StatusCompleted, StatusFailed, StatusBusy, StatusNoAnswer, StatusCanceled,
	}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Fatalf("expected %q to be terminal", s)
		}
		if s.InProgress() {
			t.Fatalf("expected %q not to be in-progress", s)
		}
	}
}

func TestProviderStatus_TerminalFailure(t *testing.T) {
	if StatusCompleted.TerminalFailure() {
		t.Fatalf("completed is not a terminal failure")
	}
	for _, s := range []ProviderStatus{StatusFailed, StatusBusy, StatusNoAnswer, StatusCanceled} {
		if !s.TerminalFailure() {
			t.Fatalf("expected %q to be a terminal failure", s)
		}
	}
	if StatusRinging.TerminalFailure() {
		t.Fatalf("ringing is not terminal")
	}
}
