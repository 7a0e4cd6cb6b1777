package dialer

import (
	"context"

	"fieldservice-crm/pkg/logger"
)

// Emitter receives orchestration events (dial_attempt, dial_outcome) with
// structured fields. Tests assert on emitted events instead of log output.
type Emitter interface {
	Emit(ctx context.Context, event string, fields map[string]any)
}

// NopEmitter discards every event.
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, string, map[string]any) {}

// LogEmitter writes events to the request-scoped logger.
type LogEmitter struct{}

func (LogEmitter) Emit(ctx context.Context, event string, fields map[string]any) {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	logger.From(ctx).Info(event, args...)
}
