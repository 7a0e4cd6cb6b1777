package telephony

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fieldservice-crm/internal/callsession"
)

func TestParseStatusCallback(t *testing.T) {
	body := strings.NewReader("CallSid=CA123&CallStatus=completed&CallDuration=42")
	r := httptest.NewRequest(http.MethodPost, "/webhooks/twilio/status?workspace_id=w1", body)
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	form, err := ParseStatusCallback(r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if form.CallSid != "CA123" || form.CallStatus != "completed" {
		t.Fatalf("unexpected form: %+v", form)
	}

	cb, ok := form.ToStatusCallback("w1")
	if !ok {
		t.Fatalf("expected tracked status")
	}
	if cb.WorkspaceID != "w1" || cb.ProviderCallID != "CA123" {
		t.Fatalf("unexpected callback: %+v", cb)
	}
	if cb.Status != callsession.StatusCompleted || cb.DurationSeconds != 42 {
		t.Fatalf("unexpected status/duration: %+v", cb)
	}
}

func TestToStatusCallback_UntrackedStatus(t *testing.T) {
	form := StatusCallbackForm{CallSid: "CA123", CallStatus: "some-new-event"}
	if _, ok := form.ToStatusCallback("w1"); ok {
		t.Fatalf("expected untracked status to be refused")
	}
}

func TestMapCallStatus(t *testing.T) {
	cases := map[string]callsession.ProviderStatus{
		"queued":      callsession.StatusQueued,
		"ringing":     callsession.StatusRinging,
		"in-progress": callsession.StatusInProgress,
		"answered":    callsession.StatusInProgress,
		"completed":   callsession.StatusCompleted,
		"busy":        callsession.StatusBusy,
		"no-answer":   callsession.StatusNoAnswer,
		"failed":      callsession.StatusFailed,
	}
	for in, want := range cases {
		got, ok := MapCallStatus(in)
		if !ok || got != want {
			t.Fatalf("MapCallStatus(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	if _, ok := MapCallStatus(""); ok {
		t.Fatalf("expected empty status to be refused")
	}
}

func TestParseRecordingCallback(t *testing.T) {
	body := strings.NewReader("CallSid=CA123&RecordingSid=RE1&RecordingUrl=https%3A%2F%2Fapi.twilio.com%2Fr%2FRE1&RecordingDuration=31")
	r := httptest.NewRequest(http.MethodPost, "/webhooks/twilio/recording?workspace_id=w1", body)
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	form, err := ParseRecordingCallback(r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cb := form.ToRecordingCallback("w1")
	if cb.ProviderCallID != "CA123" || cb.RecordingURL == "" || cb.DurationSeconds != 31 {
		t.Fatalf("unexpected callback: %+v", cb)
	}
}

func TestIsMachineAnswer(t *testing.T) {
	for _, v := range []string{"machine_start", "machine_end_beep", "machine_end_silence"} {
		if !IsMachineAnswer(v) {
			t.Fatalf("expected %q to be a machine answer", v)
		}
	}
	for _, v := range []string{"human", "unknown", ""} {
		if IsMachineAnswer(v) {
			t.Fatalf("expected %q not to be a machine answer", v)
		}
	}
}
