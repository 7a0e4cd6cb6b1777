package telephony

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fieldservice-crm/internal/audit"
	"fieldservice-crm/internal/callsession"

	"github.com/gin-gonic/gin"
)

func newWebhookRouter(store *callsession.MemoryStore, log *audit.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	cb := CallbackHandler{Reconciler: callsession.NewReconciler(store), Audit: log}
	voice := VoiceHandler{Sessions: store}
	r.POST("/webhooks/twilio/status", cb.HandleStatusCallback)
	r.POST("/webhooks/twilio/recording", cb.HandleRecordingCallback)
	r.POST("/webhooks/twilio/voice", voice.HandleVoice)
	return r
}

func seedDialedSession(t *testing.T, store *callsession.MemoryStore, sid string) callsession.CallSession {
	t.Helper()
	ctx := context.Background()
	s, err := store.Create(ctx, callsession.CreateInput{
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
	if _, err := store.MarkDialRequested(ctx, "w1", s.ID, time.Now()); err != nil {
		t.Fatalf("mark dial requested: %v", err)
	}
	out := callsession.DialOutcome{Status: callsession.StatusInitiated, ProviderCallID: sid}
	if err := store.RecordDialOutcome(ctx, "w1", s.ID, out); err != nil {
		t.Fatalf("record outcome: %v", err)
	}
	return s
}

func postForm(r *gin.Engine, path, form string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleStatusCallback(t *testing.T) {
	store := callsession.NewMemoryStore()
	log := audit.NewMemoryLog()
	r := newWebhookRouter(store, audit.NewService(log))
	s := seedDialedSession(t, store, "CA1")

	w := postForm(r, "/webhooks/twilio/status?workspace_id=w1", "CallSid=CA1&CallStatus=completed&CallDuration=42")
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	got, err := store.FindByID(context.Background(), "w1", s.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ProviderStatus != callsession.StatusCompleted || got.DurationSeconds != 42 {
		t.Fatalf("row not reconciled: %+v", got)
	}

	events, _ := log.ListByJob(context.Background(), "w1", "", 10)
	if len(events) != 1 || events[0].Type != audit.TypeCallbackApplied || events[0].ProviderCallID != "CA1" {
		t.Fatalf("callback not audited: %v", events)
	}
}

func TestHandleStatusCallback_Rejections(t *testing.T) {
	store := callsession.NewMemoryStore()
	r := newWebhookRouter(store, nil)
	seedDialedSession(t, store, "CA1")

	// Missing workspace scope.
	if w := postForm(r, "/webhooks/twilio/status", "CallSid=CA1&CallStatus=completed"); w.Code != http.StatusBadRequest {
		t.Fatalf("missing workspace_id: status = %d", w.Code)
	}
	// Missing SID.
	if w := postForm(r, "/webhooks/twilio/status?workspace_id=w1", "CallStatus=completed"); w.Code != http.StatusBadRequest {
		t.Fatalf("missing CallSid: status = %d", w.Code)
	}
	// Unknown SID is acknowledged, not an error.
	if w := postForm(r, "/webhooks/twilio/status?workspace_id=w1", "CallSid=CA999&CallStatus=completed"); w.Code != http.StatusNoContent {
		t.Fatalf("unknown sid: status = %d", w.Code)
	}
	// Untracked lifecycle event is acknowledged so the provider stops retrying.
	if w := postForm(r, "/webhooks/twilio/status?workspace_id=w1", "CallSid=CA1&CallStatus=weird-event"); w.Code != http.StatusNoContent {
		t.Fatalf("untracked status: status = %d", w.Code)
	}
}

func TestHandleRecordingCallback(t *testing.T) {
	store := callsession.NewMemoryStore()
	r := newWebhookRouter(store, nil)
	s := seedDialedSession(t, store, "CA1")

	form := "CallSid=CA1&RecordingUrl=https%3A%2F%2Fapi.twilio.com%2Fr%2FRE1&RecordingDuration=31"
	w := postForm(r, "/webhooks/twilio/recording?workspace_id=w1", form)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	got, err := store.FindByID(context.Background(), "w1", s.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.RecordingURL == "" || got.RecordingDurationSeconds != 31 {
		t.Fatalf("recording not attached: %+v", got)
	}
}

func TestHandleVoice(t *testing.T) {
	store := callsession.NewMemoryStore()
	r := newWebhookRouter(store, nil)
	s := seedDialedSession(t, store, "CA1")

	w := postForm(r, "/webhooks/twilio/voice?workspace_id=w1&call_id="+s.ID, "AnsweredBy=human")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/xml") {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "Hi, following up on your quote") {
		t.Fatalf("script missing: %s", w.Body.String())
	}

	if w := postForm(r, "/webhooks/twilio/voice?workspace_id=w1&call_id=nope", ""); w.Code != http.StatusNotFound {
		t.Fatalf("unknown call: status = %d", w.Code)
	}
}
