package audit

import (
	"context"
	"testing"
	"time"
)

func TestRecordAndListByJob(t *testing.T) {
	svc := NewService(NewMemoryLog())
	svc.clock = func() time.Time { return time.Unix(1700000000, 0) }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := svc.Record(ctx, Event{
			WorkspaceID: "w1",
			Type:        TypeDialOutcome,
			JobID:       "j1",
			Fields:      map[string]any{"kind": "success"},
		})
		if err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if err := svc.Record(ctx, Event{WorkspaceID: "w2", Type: TypeDialOutcome, JobID: "j1"}); err != nil {
		t.Fatalf("record other workspace: %v", err)
	}

	events, err := svc.ListByJob(ctx, "w1", "j1", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	for _, e := range events {
		if e.ID == "" || e.Actor != ActorSystem || e.CreatedAt.IsZero() {
			t.Fatalf("event not stamped: %+v", e)
		}
		if e.WorkspaceID != "w1" {
			t.Fatalf("cross-workspace event leaked: %+v", e)
		}
	}
}

func TestRecordRequiresWorkspaceAndType(t *testing.T) {
	svc := NewService(NewMemoryLog())
	if err := svc.Record(context.Background(), Event{Type: TypeDialAttempt}); err == nil {
		t.Fatalf("expected error without workspace_id")
	}
	if err := svc.Record(context.Background(), Event{WorkspaceID: "w1"}); err == nil {
		t.Fatalf("expected error without type")
	}
}

func TestEmitterRoutesFieldsIntoEvent(t *testing.T) {
	log := NewMemoryLog()
	em := Emitter{Audit: NewService(log)}
	ctx := context.Background()

	em.Emit(ctx, "dial_outcome", map[string]any{
		"workspace_id":     "w1",
		"job_id":           "j1",
		"call_id":          "c1",
		"provider_call_id": "CA1",
		"kind":             "success",
	})

	events, err := log.ListByJob(ctx, "w1", "j1", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	e := events[0]
	if e.Type != "dial_outcome" || e.CallID != "c1" || e.ProviderCallID != "CA1" {
		t.Fatalf("unexpected event: %+v", e)
	}
	if e.Fields["kind"] != "success" {
		t.Fatalf("detail field lost: %+v", e.Fields)
	}
	if _, ok := e.Fields["workspace_id"]; ok {
		t.Fatalf("scope keys should not be duplicated into fields")
	}
}

func TestEmitterWithoutWorkspaceIsDropped(t *testing.T) {
	log := NewMemoryLog()
	em := Emitter{Audit: NewService(log)}
	em.Emit(context.Background(), "dial_attempt", map[string]any{"job_id": "j1"})

	events, _ := log.ListByJob(context.Background(), "", "j1", 10)
	if len(events) != 0 {
		t.Fatalf("unscoped event should not be logged: %v", events)
	}
}
