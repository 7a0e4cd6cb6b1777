package callsession

import (
	"context"
	"strings"
	"testing"
)

func TestDialFailureRecorder_WritesFailureOntoRow(t *testing.T) {
	store := NewMemoryStore()
	s := newTestSession(t, store)
	rec := NewDialFailureRecorder(store)

	err := rec.Record(context.Background(), "w1", s.ID, Failure{
		Code:                 "twilio_call_failed",
		Message:              "provider rejected the dial",
		ProviderErrorCode:    "21211",
		ProviderErrorMessage: "invalid to number",
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	got, _ := store.FindByID(context.Background(), "w1", s.ID)
	if got.ProviderStatus != StatusFailed {
		t.Fatalf("expected failed, got %q", got.ProviderStatus)
	}
	if !strings.Contains(got.ErrorCode, "twilio_call_failed") || !strings.Contains(got.ErrorCode, "21211") {
		t.Fatalf("expected combined error code, got %q", got.ErrorCode)
	}
	if !strings.Contains(got.ErrorMessage, "invalid to number") {
		t.Fatalf("expected provider message, got %q", got.ErrorMessage)
	}
}

func TestDialFailureRecorder_UnknownRowSurfacesError(t *testing.T) {
	store := NewMemoryStore()
	rec := NewDialFailureRecorder(store)

	if err := rec.Record(context.Background(), "w1", "missing", Failure{Code: "x"}); err == nil {
		t.Fatalf("expected error when the failure cannot be recorded")
	}
}
