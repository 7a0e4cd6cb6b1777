package reporting

import (
	"context"
	"testing"
	"time"

	"fieldservice-crm/internal/callsession"
)

func TestCallsSummary(t *testing.T) {
	repo := NewMemoryRepository()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	put := func(status callsession.ProviderStatus, dur int, recording string, at time.Time) {
		repo.Put(callsession.CallSession{
			WorkspaceID:     "w1",
			JobID:           "j1",
			ProviderStatus:  status,
			DurationSeconds: dur,
			RecordingURL:    recording,
			CreatedAt:       at,
		})
	}
	put(callsession.StatusCompleted, 120, "https://api.twilio.com/r/RE1", base)
	put(callsession.StatusCompleted, 45, "", base.Add(time.Hour))
	put(callsession.StatusNoAnswer, 0, "", base.Add(2*time.Hour))
	put(callsession.StatusRinging, 0, "", base.Add(3*time.Hour))
	repo.Put(callsession.CallSession{WorkspaceID: "w2", JobID: "j9", ProviderStatus: callsession.StatusCompleted, CreatedAt: base})

	svc := NewService(repo)
	sum, err := svc.CallsSummary(context.Background(), SummaryRequest{WorkspaceID: "w1"})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Total != 4 {
		t.Fatalf("total = %d, want 4", sum.Total)
	}
	if sum.Completed != 2 || sum.TerminalFailures != 1 || sum.InProgress != 1 {
		t.Fatalf("unexpected breakdown: %+v", sum)
	}
	if sum.TotalTalkSeconds != 165 || sum.RecordedCalls != 1 {
		t.Fatalf("unexpected totals: %+v", sum)
	}
	if sum.ByStatus[callsession.StatusCompleted] != 2 {
		t.Fatalf("by_status wrong: %+v", sum.ByStatus)
	}
}

func TestCallsSummary_Window(t *testing.T) {
	repo := NewMemoryRepository()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	repo.Put(callsession.CallSession{WorkspaceID: "w1", ProviderStatus: callsession.StatusCompleted, CreatedAt: base})
	repo.Put(callsession.CallSession{WorkspaceID: "w1", ProviderStatus: callsession.StatusCompleted, CreatedAt: base.Add(48 * time.Hour)})

	svc := NewService(repo)
	sum, err := svc.CallsSummary(context.Background(), SummaryRequest{
		WorkspaceID: "w1",
		From:        base.Add(-time.Hour),
		To:          base.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Total != 1 {
		t.Fatalf("window not applied, total = %d", sum.Total)
	}

	if _, err := svc.CallsSummary(context.Background(), SummaryRequest{
		WorkspaceID: "w1",
		From:        base,
		To:          base.Add(-time.Hour),
	}); err != ErrInvalidWindow {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
}
