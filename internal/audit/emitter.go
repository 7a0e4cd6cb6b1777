package audit

import (
	"context"

	"fieldservice-crm/pkg/logger"
)

// Emitter bridges dial orchestration events into the audit log, on top of
// writing them to the request-scoped logger. It satisfies the orchestrator's
// event-emission contract.
type Emitter struct {
	Audit *Service
}

func (e Emitter) Emit(ctx context.Context, event string, fields map[string]any) {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	logger.From(ctx).Info(event, args...)

	workspaceID, _ := fields["workspace_id"].(string)
	if e.Audit == nil || workspaceID == "" {
		return
	}

	ev := Event{
		WorkspaceID: workspaceID,
		Type:        event,
		Fields:      map[string]any{},
	}
	for k, v := range fields {
		switch k {
		case "workspace_id":
		case "job_id":
			ev.JobID, _ = v.(string)
		case "call_id":
			ev.CallID, _ = v.(string)
		case "provider_call_id":
			ev.ProviderCallID, _ = v.(string)
		default:
			ev.Fields[k] = v
		}
	}

	// Audit is best effort; a failed append never fails the call flow.
	if err := e.Audit.Record(ctx, ev); err != nil {
		logger.From(ctx).Warn("audit append failed", "event", event, "err", err)
	}
}
