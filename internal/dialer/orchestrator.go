package dialer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"fieldservice-crm/internal/callsession"
	"fieldservice-crm/internal/crm"
	"fieldservice-crm/internal/telephony"
)

// Request is the input to one outbound call orchestration.
// CustomerID is optional; when empty the job's linked customer is used.
type Request struct {
	WorkspaceID   string
	JobID         string
	CustomerID    string
	ToNumber      string
	ScriptBody    string
	ScriptSummary string

	Voice          string
	GreetingStyle  string
	AllowVoicemail bool
}

// DialConfig is the outbound-dial configuration the orchestrator reads but
// does not own.
type DialConfig struct {
	// PublicBaseURL is the externally reachable base URL used to build the
	// voice/status/recording callback URLs. Empty means dialing is not
	// configured.
	PublicBaseURL string

	// DefaultFromNumber is the fleet-wide caller id, used when the workspace
	// has no outbound number of its own.
	DefaultFromNumber string

	MachineDetection bool
	RecordCalls      bool
}

// CallSlots limits concurrent outbound calls per workspace. Acquire returns
// false when the workspace is at its cap. The slot is released by the
// callback reconciler when the call reaches a terminal status, or by the
// orchestrator itself when the dial never left the building.
type CallSlots interface {
	Acquire(ctx context.Context, workspaceID string) (bool, error)
	Release(ctx context.Context, workspaceID string)
}

// Orchestrator is the public entry point turning "place an automated call to
// a customer" into a durable, race-free telephony action.
//
// Exactly-once-in-effect: the prior-session policy, the store's
// duplicate-in-progress constraint, and the dial guard's conditional update
// together guarantee at most one in-progress call per (workspace, job) no
// matter how many concurrent requests arrive.
type Orchestrator struct {
	sessions  callsession.Store
	guard     *callsession.DialGuard
	failures  *callsession.DialFailureRecorder
	directory crm.Directory
	gateway   telephony.Gateway
	cfg       DialConfig

	slots CallSlots
	emit  Emitter
}

func NewOrchestrator(sessions callsession.Store, directory crm.Directory, gateway telephony.Gateway, cfg DialConfig) *Orchestrator {
	return &Orchestrator{
		sessions:  sessions,
		guard:     callsession.NewDialGuard(sessions),
		failures:  callsession.NewDialFailureRecorder(sessions),
		directory: directory,
		gateway:   gateway,
		cfg:       cfg,
		emit:      NopEmitter{},
	}
}

// WithSlots enables the per-workspace concurrent-call cap.
func (o *Orchestrator) WithSlots(s CallSlots) *Orchestrator {
	o.slots = s
	return o
}

// WithEmitter routes orchestration events somewhere other than the void.
func (o *Orchestrator) WithEmitter(e Emitter) *Orchestrator {
	if e != nil {
		o.emit = e
	}
	return o
}

// StartOutboundCall runs the full dial flow and always returns a terminal
// result; it never retries anything on its own. Every failure after the
// session row exists is also written onto the row, so nothing fails without
// a durable trace.
func (o *Orchestrator) StartOutboundCall(ctx context.Context, req Request) Result {
	req.ToNumber = strings.TrimSpace(req.ToNumber)
	req.ScriptBody = strings.TrimSpace(req.ScriptBody)

	if req.WorkspaceID == "" || req.JobID == "" {
		return o.finish(ctx, req, failureResult(CodeInvalidPayload, "workspace_id and job_id are required"))
	}
	if req.ToNumber == "" {
		return o.finish(ctx, req, failureResult(CodeMissingCustomerPhone, "no destination phone number"))
	}
	if req.ScriptBody == "" {
		return o.finish(ctx, req, failureResult(CodeMissingScript, "script body is empty"))
	}

	o.emit.Emit(ctx, "dial_attempt", map[string]any{
		"workspace_id": req.WorkspaceID,
		"job_id":       req.JobID,
	})

	// Infrastructure errors on the lookups must not read as missing records;
	// only ErrNotFound earns a not-found outcome.
	ws, err := o.directory.FindWorkspace(ctx, req.WorkspaceID)
	if err != nil {
		if errors.Is(err, crm.ErrNotFound) {
			return o.finish(ctx, req, failureResult(CodeWorkspaceNotFound, "workspace does not exist"))
		}
		return o.finish(ctx, req, failureResult(CodeCallCreationFailed, fmt.Sprintf("workspace lookup failed: %v", err)))
	}

	job, err := o.directory.FindJob(ctx, req.JobID)
	if err != nil {
		if errors.Is(err, crm.ErrNotFound) {
			return o.finish(ctx, req, failureResult(CodeJobNotFound, "job does not exist"))
		}
		return o.finish(ctx, req, failureResult(CodeCallCreationFailed, fmt.Sprintf("job lookup failed: %v", err)))
	}
	if job.WorkspaceID != ws.ID {
		return o.finish(ctx, req, failureResult(CodeForbidden, "job belongs to another workspace"))
	}

	customerID := req.CustomerID
	if customerID == "" {
		customerID = job.CustomerID
	}
	if customerID == "" {
		return o.finish(ctx, req, failureResult(CodeMissingCustomer, "job has no linked customer"))
	}
	if _, err := o.directory.FindCustomer(ctx, ws.ID, customerID); err != nil {
		if errors.Is(err, crm.ErrNotFound) {
			return o.finish(ctx, req, failureResult(CodeMissingCustomer, "customer does not exist in this workspace"))
		}
		return o.finish(ctx, req, failureResult(CodeCallCreationFailed, fmt.Sprintf("customer lookup failed: %v", err)))
	}

	// Prior-session policy: an in-progress call makes the request idempotent,
	// a completed call is one-shot, a failed call may be retried with a fresh
	// row.
	prior, err := o.sessions.FindLatestOutbound(ctx, ws.ID, req.JobID)
	switch {
	case err == nil && prior.ProviderStatus.InProgress():
		return o.finish(ctx, req, alreadyInProgressResult(prior))
	case err == nil && prior.ProviderStatus == callsession.StatusCompleted:
		return o.finish(ctx, req, failureResult(CodeRejectedDueToCompletedCall, "a completed call already exists for this job"))
	case err == nil:
		// Terminal failure; fall through and create a new attempt.
	case errors.Is(err, callsession.ErrNotFound):
		// First attempt for this job.
	default:
		return o.finish(ctx, req, failureResult(CodeCallCreationFailed, fmt.Sprintf("prior session lookup failed: %v", err)))
	}

	from := ws.OutboundNumber
	if from == "" {
		from = o.cfg.DefaultFromNumber
	}

	s, err := o.sessions.Create(ctx, callsession.CreateInput{
		WorkspaceID:   ws.ID,
		JobID:         req.JobID,
		CustomerID:    customerID,
		FromNumber:    from,
		ToNumber:      req.ToNumber,
		ScriptBody:    req.ScriptBody,
		ScriptSummary: req.ScriptSummary,
	})
	if err != nil {
		if errors.Is(err, callsession.ErrDuplicateInProgress) {
			// A concurrent request slipped past the prior-session read and won
			// the insert; surface its session instead of erroring.
			winner, lerr := o.sessions.FindLatestOutbound(ctx, ws.ID, req.JobID)
			if lerr != nil {
				return o.finish(ctx, req, failureResult(CodeCallCreationFailed, fmt.Sprintf("concurrent session lookup failed: %v", lerr)))
			}
			return o.finish(ctx, req, alreadyInProgressResult(winner))
		}
		return o.finish(ctx, req, failureResult(CodeCallCreationFailed, fmt.Sprintf("session creation failed: %v", err)))
	}

	urls, cfgErr := o.buildCallbackURLs(ws.ID, s.ID)
	if from == "" || cfgErr != nil {
		return o.finish(ctx, req, o.recordFailure(ctx, ws.ID, s.ID, Diagnostic{
			Code:    CodeTwilioNotConfigured,
			Message: "outbound dialing is not configured (missing from number or public base url)",
		}))
	}

	g, err := o.guard.MarkDialRequested(ctx, ws.ID, s.ID)
	if err != nil {
		return o.finish(ctx, req, o.recordFailure(ctx, ws.ID, s.ID, Diagnostic{
			Code:    CodeCallDialRequestFailed,
			Message: fmt.Sprintf("dial authorization failed: %v", err),
		}))
	}
	if g.Outcome == callsession.GuardAlreadyInProgress {
		return o.finish(ctx, req, alreadyInProgressResult(g.Session))
	}

	plan := callsession.SpeechPlan{
		Voice:          req.Voice,
		GreetingStyle:  req.GreetingStyle,
		AllowVoicemail: req.AllowVoicemail,
		ScriptSummary:  req.ScriptSummary,
	}
	if err := o.sessions.UpdateSpeechPlan(ctx, ws.ID, s.ID, plan); err != nil {
		// The dial has not been placed yet; abort rather than dial blind.
		return o.finish(ctx, req, o.recordFailure(ctx, ws.ID, s.ID, Diagnostic{
			Code:    CodeCallSpeechPlanFailed,
			Message: fmt.Sprintf("speech plan update failed: %v", err),
		}))
	}

	if o.slots != nil {
		ok, err := o.slots.Acquire(ctx, ws.ID)
		if err != nil {
			return o.finish(ctx, req, o.recordFailure(ctx, ws.ID, s.ID, Diagnostic{
				Code:    CodeCallDialRequestFailed,
				Message: fmt.Sprintf("call slot acquisition failed: %v", err),
			}))
		}
		if !ok {
			return o.finish(ctx, req, o.recordFailure(ctx, ws.ID, s.ID, Diagnostic{
				Code:    CodeWorkspaceCallCapReached,
				Message: "workspace concurrent call cap reached",
			}))
		}
	}

	dial, err := o.gateway.Dial(ctx, telephony.DialRequest{
		To:                   req.ToNumber,
		From:                 from,
		VoiceURL:             urls.voice,
		StatusCallbackURL:    urls.status,
		RecordingCallbackURL: urls.recording,
		MachineDetection:     o.cfg.MachineDetection,
		RecordCall:           o.cfg.RecordCalls,
	})
	if err != nil {
		if o.slots != nil {
			o.slots.Release(ctx, ws.ID)
		}
		var dialErr *telephony.DialError
		if errors.As(err, &dialErr) {
			return o.finish(ctx, req, o.recordFailure(ctx, ws.ID, s.ID, Diagnostic{
				Code:                 dialErr.Code,
				Message:              dialErr.Message,
				ProviderErrorCode:    dialErr.ProviderErrorCode,
				ProviderErrorMessage: dialErr.ProviderErrorMessage,
			}))
		}
		return o.finish(ctx, req, o.recordFailure(ctx, ws.ID, s.ID, Diagnostic{
			Code:    CodeTwilioCallFailed,
			Message: fmt.Sprintf("gateway dial failed: %v", err),
		}))
	}

	err = o.sessions.RecordDialOutcome(ctx, ws.ID, s.ID, callsession.DialOutcome{
		Status:         callsession.StatusInitiated,
		ProviderCallID: dial.ProviderCallID,
	})
	if err != nil {
		// The call was placed; the row just does not say so. Flagged with its
		// own code so callers never blindly retry an already-placed dial.
		return o.finish(ctx, req, Result{
			Kind:   KindFailure,
			CallID: s.ID,
			Failure: &Diagnostic{
				Code:    CodeCallMetadataUpdateFailed,
				Message: fmt.Sprintf("call placed (provider id %s) but bookkeeping failed: %v", dial.ProviderCallID, err),
			},
		})
	}

	s.ProviderCallID = dial.ProviderCallID
	s.ProviderStatus = callsession.StatusInitiated
	return o.finish(ctx, req, successResult(s))
}

type callbackURLs struct {
	voice     string
	status    string
	recording string
}

// buildCallbackURLs embeds workspace_id and call_id as query parameters so
// every provider callback carries its own tenant scope.
func (o *Orchestrator) buildCallbackURLs(workspaceID, callID string) (callbackURLs, error) {
	base := strings.TrimRight(o.cfg.PublicBaseURL, "/")
	if base == "" {
		return callbackURLs{}, errors.New("public base url is not set")
	}
	q := url.Values{
		"workspace_id": {workspaceID},
		"call_id":      {callID},
	}.Encode()
	return callbackURLs{
		voice:     base + "/webhooks/twilio/voice?" + q,
		status:    base + "/webhooks/twilio/status?" + q,
		recording: base + "/webhooks/twilio/recording?" + q,
	}, nil
}

// recordFailure writes the failure onto the session row. If that write also
// fails, the write failure is surfaced instead of the original one, because
// the dial failed and the row no longer reflects it.
func (o *Orchestrator) recordFailure(ctx context.Context, workspaceID, callID string, d Diagnostic) Result {
	err := o.failures.Record(ctx, workspaceID, callID, callsession.Failure{
		Code:                 d.Code,
		Message:              d.Message,
		ProviderErrorCode:    d.ProviderErrorCode,
		ProviderErrorMessage: d.ProviderErrorMessage,
	})
	if err != nil {
		return Result{
			Kind:   KindFailure,
			CallID: callID,
			Failure: &Diagnostic{
				Code:    CodeCallMetadataUpdateFailed,
				Message: fmt.Sprintf("dial failed (%s) and recording the failure also failed: %v", d.Code, err),
			},
		}
	}
	return Result{Kind: KindFailure, CallID: callID, Failure: &d}
}

func (o *Orchestrator) finish(ctx context.Context, req Request, r Result) Result {
	fields := map[string]any{
		"workspace_id": req.WorkspaceID,
		"job_id":       req.JobID,
		"kind":         string(r.Kind),
	}
	if r.CallID != "" {
		fields["call_id"] = r.CallID
	}
	if r.ProviderCallID != "" {
		fields["provider_call_id"] = r.ProviderCallID
	}
	if r.Failure != nil {
		fields["code"] = r.Failure.Code
	}
	o.emit.Emit(ctx, "dial_outcome", fields)
	return r
}
