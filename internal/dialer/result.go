package dialer

import "fieldservice-crm/internal/callsession"

// ResultKind is the terminal outcome of one orchestration run.
type ResultKind string

const (
	KindSuccess ResultKind = "success"

	// KindAlreadyInProgress is not an error: nothing new happened, the
	// result references the session already underway.
	KindAlreadyInProgress ResultKind = "already_in_progress"

	KindFailure ResultKind = "failure"
)

// Failure codes. Every failure the orchestrator can return carries exactly
// one of these.
const (
	// Input/validation.
	CodeMissingCustomerPhone = "missing_customer_phone"
	CodeMissingScript        = "missing_script"
	CodeInvalidPayload       = "invalid_payload"

	// Authorization/tenancy.
	CodeForbidden         = "forbidden"
	CodeUnauthenticated   = "unauthenticated"
	CodeWorkspaceNotFound = "workspace_not_found"
	CodeJobNotFound       = "job_not_found"
	CodeMissingCustomer   = "missing_customer"

	// Policy rejection.
	CodeRejectedDueToCompletedCall = "rejected_due_to_completed_call"

	// Infrastructure.
	CodeCallCreationFailed       = "call_creation_failed"
	CodeCallDialRequestFailed    = "call_dial_request_failed"
	CodeCallSpeechPlanFailed     = "call_speech_plan_failed"
	CodeCallMetadataUpdateFailed = "call_metadata_update_failed"
	CodeTwilioNotConfigured      = "twilio_not_configured"
	CodeTwilioCallFailed         = "twilio_call_failed"
	CodeWorkspaceCallCapReached  = "workspace_call_cap_reached"
)

// Diagnostic is the redacted failure bundle attached to a failure result.
// Message is operational detail for logs; UserMessage derives the short
// non-technical string shown to the end user.
type Diagnostic struct {
	Code                 string `json:"code"`
	Message              string `json:"message"`
	ProviderErrorCode    string `json:"provider_error_code,omitempty"`
	ProviderErrorMessage string `json:"provider_error_message,omitempty"`
}

// UserMessage maps the code to the string shown to the end user. Internal
// diagnostics are never exposed here.
func (d Diagnostic) UserMessage() string {
	switch d.Code {
	case CodeMissingCustomerPhone:
		return "This customer has no phone number to call."
	case CodeMissingScript:
		return "The call has no script. Add one and try again."
	case CodeInvalidPayload:
		return "The call request is invalid."
	case CodeForbidden:
		return "You do not have access to this job."
	case CodeUnauthenticated:
		return "Please sign in and try again."
	case CodeWorkspaceNotFound:
		return "Workspace not found."
	case CodeJobNotFound:
		return "Job not found."
	case CodeMissingCustomer:
		return "No customer is linked to this job."
	case CodeRejectedDueToCompletedCall:
		return "A call for this job already completed. It cannot be called again."
	case CodeTwilioNotConfigured:
		return "Calling is not set up for this workspace yet."
	case CodeWorkspaceCallCapReached:
		return "Too many calls are in progress right now. Try again in a moment."
	default:
		return "The call could not be placed. Please try again."
	}
}

// Result is what StartOutboundCall returns. CallID, ProviderCallID and
// ProviderStatus are set on success and already_in_progress; Failure is set
// only when Kind is KindFailure (CallID may still be set when a session row
// exists recording the failure).
type Result struct {
	Kind           ResultKind                 `json:"kind"`
	CallID         string                     `json:"call_id,omitempty"`
	ProviderCallID string                     `json:"provider_call_id,omitempty"`
	ProviderStatus callsession.ProviderStatus `json:"provider_status,omitempty"`
	Failure        *Diagnostic                `json:"failure,omitempty"`
}

func successResult(s callsession.CallSession) Result {
	return Result{
		Kind:           KindSuccess,
		CallID:         s.ID,
		ProviderCallID: s.ProviderCallID,
		ProviderStatus: s.ProviderStatus,
	}
}

func alreadyInProgressResult(s callsession.CallSession) Result {
	return Result{
		Kind:           KindAlreadyInProgress,
		CallID:         s.ID,
		ProviderCallID: s.ProviderCallID,
		ProviderStatus: s.ProviderStatus,
	}
}

func failureResult(code, message string) Result {
	return Result{Kind: KindFailure, Failure: &Diagnostic{Code: code, Message: message}}
}
