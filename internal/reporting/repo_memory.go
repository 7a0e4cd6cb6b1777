package reporting

import (
	"context"
	"sync"
	"time"

	"fieldservice-crm/internal/callsession"
)

// MemoryRepository is an in-memory Repository for tests.
type MemoryRepository struct {
	mu       sync.Mutex
	sessions []callsession.CallSession
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Put(s callsession.CallSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, s)
}

func (r *MemoryRepository) ListByWorkspace(ctx context.Context, workspaceID string, from, to time.Time) ([]callsession.CallSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []callsession.CallSession
	for _, s := range r.sessions {
		if s.WorkspaceID != workspaceID {
			continue
		}
		if !from.IsZero() && s.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && s.CreatedAt.After(to) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}
