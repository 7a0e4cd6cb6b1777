package telephony

import (
	"net/http"
	"strconv"
	"strings"

	"fieldservice-crm/internal/callsession"
)

// StatusCallbackForm captures the subset of Twilio voice status callback
// fields this service cares about. Twilio posts
// application/x-www-form-urlencoded.
//
// Keep it minimal and provider-adapter-only; reconciliation decisions are
// not made here.
type StatusCallbackForm struct {
	CallSid      string
	CallStatus   string
	CallDuration string
	ErrorCode    string
	ErrorMessage string
	AnsweredBy   string
}

func ParseStatusCallback(r *http.Request) (StatusCallbackForm, error) {
	if err := r.ParseForm(); err != nil {
		return StatusCallbackForm{}, err
	}
	return StatusCallbackForm{
		CallSid:      r.PostFormValue("CallSid"),
		CallStatus:   r.PostFormValue("CallStatus"),
		CallDuration: r.PostFormValue("CallDuration"),
		ErrorCode:    r.PostFormValue("ErrorCode"),
		ErrorMessage: r.PostFormValue("ErrorMessage"),
		AnsweredBy:   r.PostFormValue("AnsweredBy"),
	}, nil
}

// ToStatusCallback converts the form into the reconciler's input.
// The second return is false when CallStatus is not a status we track.
func (f StatusCallbackForm) ToStatusCallback(workspaceID string) (callsession.StatusCallback, bool) {
	status, ok := MapCallStatus(f.CallStatus)
	if !ok {
		return callsession.StatusCallback{}, false
	}
	cb := callsession.StatusCallback{
		WorkspaceID:    workspaceID,
		ProviderCallID: f.CallSid,
		Status:         status,
		ErrorCode:      f.ErrorCode,
		ErrorMessage:   f.ErrorMessage,
	}
	if f.CallDuration != "" {
		if n, err := strconv.Atoi(f.CallDuration); err == nil {
			cb.DurationSeconds = n
		}
	}
	return cb, true
}

// RecordingCallbackForm captures Twilio's recording status callback fields.
type RecordingCallbackForm struct {
	CallSid           string
	RecordingSid      string
	RecordingURL      string
	RecordingDuration string
}

func ParseRecordingCallback(r *http.Request) (RecordingCallbackForm, error) {
	if err := r.ParseForm(); err != nil {
		return RecordingCallbackForm{}, err
	}
	return RecordingCallbackForm{
		CallSid:           r.PostFormValue("CallSid"),
		RecordingSid:      r.PostFormValue("RecordingSid"),
		RecordingURL:      r.PostFormValue("RecordingUrl"),
		RecordingDuration: r.PostFormValue("RecordingDuration"),
	}, nil
}

func (f RecordingCallbackForm) ToRecordingCallback(workspaceID string) callsession.RecordingCallback {
	cb := callsession.RecordingCallback{
		WorkspaceID:    workspaceID,
		ProviderCallID: f.CallSid,
		RecordingURL:   f.RecordingURL,
	}
	if f.RecordingDuration != "" {
		if n, err := strconv.Atoi(f.RecordingDuration); err == nil {
			cb.DurationSeconds = n
		}
	}
	return cb
}

// MapCallStatus translates Twilio's CallStatus vocabulary to ours.
func MapCallStatus(s string) (callsession.ProviderStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "queued":
		return callsession.StatusQueued, true
	case "initiated":
		return callsession.StatusInitiated, true
	case "ringing":
		return callsession.StatusRinging, true
	case "in-progress", "answered":
		return callsession.StatusInProgress, true
	case "completed":
		return callsession.StatusCompleted, true
	case "busy":
		return callsession.StatusBusy, true
	case "failed":
		return callsession.StatusFailed, true
	case "no-answer":
		return callsession.StatusNoAnswer, true
	case "canceled":
		return callsession.StatusCanceled, true
	default:
		return "", false
	}
}

// IsMachineAnswer reports whether AnsweredBy indicates an answering machine.
func IsMachineAnswer(answeredBy string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(answeredBy)), "machine")
}
