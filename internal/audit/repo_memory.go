package audit

import (
	"context"
	"sync"
)

// MemoryLog is an in-memory Log for tests and early development.
type MemoryLog struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

func (l *MemoryLog) Append(ctx context.Context, e Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	return nil
}

func (l *MemoryLog) ListByJob(ctx context.Context, workspaceID, jobID string, limit int) ([]Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Event
	for i := len(l.events) - 1; i >= 0 && len(out) < limit; i-- {
		e := l.events[i]
		if e.WorkspaceID == workspaceID && e.JobID == jobID {
			out = append(out, e)
		}
	}
	return out, nil
}
