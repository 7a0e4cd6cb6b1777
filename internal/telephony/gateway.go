package telephony

import (
	"context"
	"fmt"
)

// Gateway is the provider-agnostic interface to the external phone-call
// provider's "place call" operation.
//
// Rules:
// - No provider SDK calls outside telephony adapters.
// - Dial only waits for the provider's synchronous acceptance; the call
//   outcome arrives later via webhooks.
type Gateway interface {
	Name() string
	Dial(ctx context.Context, req DialRequest) (DialResult, error)
}

// DialRequest carries everything the provider needs to place one call.
type DialRequest struct {
	// To and From are E.164 phone numbers.
	To   string
	From string

	// VoiceURL is fetched by the provider when the call connects; it must
	// return the call script markup.
	VoiceURL string

	StatusCallbackURL    string
	RecordingCallbackURL string

	// MachineDetection enables answering-machine detection; the detection
	// result reaches the voice webhook as AnsweredBy.
	MachineDetection bool

	RecordCall bool
}

// DialResult is the provider's synchronous acknowledgment of an accepted dial.
type DialResult struct {
	// ProviderCallID is the provider's unique identifier for this call.
	ProviderCallID string

	// InitialStatus is the provisional lifecycle status, typically "queued".
	InitialStatus string
}

// DialError is a structured dial refusal. Code is one of the gateway error
// codes below; provider fields are populated when the provider returned a
// structured error of its own.
type DialError struct {
	Code                 string
	Message              string
	ProviderErrorCode    string
	ProviderErrorMessage string
}

const (
	ErrCodeNotConfigured = "twilio_not_configured"
	ErrCodeCallFailed    = "twilio_call_failed"
)

func (e *DialError) Error() string {
	if e.ProviderErrorCode != "" {
		return fmt.Sprintf("telephony: %s: %s (provider %s: %s)", e.Code, e.Message, e.ProviderErrorCode, e.ProviderErrorMessage)
	}
	return fmt.Sprintf("telephony: %s: %s", e.Code, e.Message)
}
