package callsession

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and early development.
// A single mutex serializes every operation, so the conditional updates
// (MarkDialRequested, ApplyProviderStatus) are atomic the same way the
// Postgres statements are, and the duplicate-in-progress invariant is
// enforced exactly like the partial unique index.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*CallSession // key: id

	// Clock is injectable for deterministic tests.
	Clock func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: map[string]*CallSession{},
		Clock:    time.Now,
	}
}

func (r *MemoryStore) FindLatestOutbound(ctx context.Context, workspaceID, jobID string) (CallSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matches []*CallSession
	for _, s := range r.sessions {
		if s.WorkspaceID == workspaceID && s.JobID == jobID && s.Direction == DirectionOutbound {
			matches = append(matches, s)
		}
	}
	if len(matches) == 0 {
		return CallSession{}, ErrNotFound
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return clone(matches[0]), nil
}

func (r *MemoryStore) FindByID(ctx context.Context, workspaceID, callID string) (CallSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[callID]
	if !ok || s.WorkspaceID != workspaceID {
		return CallSession{}, ErrNotFound
	}
	return clone(s), nil
}

func (r *MemoryStore) FindByProviderCallID(ctx context.Context, workspaceID, providerCallID string) (CallSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.byProviderCallID(workspaceID, providerCallID)
	if s == nil {
		return CallSession{}, ErrNotFound
	}
	return clone(s), nil
}

func (r *MemoryStore) Create(ctx context.Context, in CreateInput) (CallSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.sessions {
		if s.WorkspaceID == in.WorkspaceID && s.JobID == in.JobID && s.ProviderStatus.InProgress() {
			return CallSession{}, ErrDuplicateInProgress
		}
	}

	now := r.Clock().UTC()
	s := &CallSession{
		ID:             uuid.NewString(),
		WorkspaceID:    in.WorkspaceID,
		JobID:          in.JobID,
		CustomerID:     in.CustomerID,
		Direction:      DirectionOutbound,
		FromNumber:     in.FromNumber,
		ToNumber:       in.ToNumber,
		ScriptBody:     in.ScriptBody,
		ScriptSummary:  in.ScriptSummary,
		ProviderStatus: StatusCreated,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	r.sessions[s.ID] = s
	return clone(s), nil
}

func (r *MemoryStore) UpdateSpeechPlan(ctx context.Context, workspaceID, callID string, plan SpeechPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[callID]
	if !ok || s.WorkspaceID != workspaceID {
		return ErrNotFound
	}
	p := plan
	s.SpeechPlan = &p
	s.UpdatedAt = r.Clock().UTC()
	return nil
}

func (r *MemoryStore) RecordDialOutcome(ctx context.Context, workspaceID, callID string, out DialOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[callID]
	if !ok || s.WorkspaceID != workspaceID {
		return ErrNotFound
	}
	if out.Status != "" {
		s.ProviderStatus = out.Status
	}
	if out.ProviderCallID != "" {
		s.ProviderCallID = out.ProviderCallID
	}
	if out.ErrorCode != "" {
		s.ErrorCode = out.ErrorCode
	}
	if out.ErrorMessage != "" {
		s.ErrorMessage = out.ErrorMessage
	}
	s.UpdatedAt = r.Clock().UTC()
	return nil
}

func (r *MemoryStore) MarkDialRequested(ctx context.Context, workspaceID, callID string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[callID]
	if !ok || s.WorkspaceID != workspaceID {
		return false, ErrNotFound
	}
	if s.DialRequestedAt != nil {
		return false, nil
	}
	t := now.UTC()
	s.DialRequestedAt = &t
	s.ProviderStatus = StatusDialRequested
	s.UpdatedAt = t
	return true, nil
}

func (r *MemoryStore) ApplyProviderStatus(ctx context.Context, workspaceID, providerCallID string, status ProviderStatus, errorCode, errorMessage string, durationSeconds int) (CallSession, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.byProviderCallID(workspaceID, providerCallID)
	if s == nil {
		return CallSession{}, false, ErrNotFound
	}
	if s.ProviderStatus.Terminal() {
		return clone(s), false, nil
	}
	s.ProviderStatus = status
	if errorCode != "" {
		s.ErrorCode = errorCode
	}
	if errorMessage != "" {
		s.ErrorMessage = errorMessage
	}
	if durationSeconds > 0 {
		s.DurationSeconds = durationSeconds
	}
	s.UpdatedAt = r.Clock().UTC()
	return clone(s), true, nil
}

func (r *MemoryStore) ApplyRecording(ctx context.Context, workspaceID, providerCallID, recordingURL string, durationSeconds int) (CallSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.byProviderCallID(workspaceID, providerCallID)
	if s == nil {
		return CallSession{}, ErrNotFound
	}
	s.RecordingURL = recordingURL
	if durationSeconds > 0 {
		s.RecordingDurationSeconds = durationSeconds
	}
	s.UpdatedAt = r.Clock().UTC()
	return clone(s), nil
}

func (r *MemoryStore) byProviderCallID(workspaceID, providerCallID string) *CallSession {
	if providerCallID == "" {
		return nil
	}
	for _, s := range r.sessions {
		if s.WorkspaceID == workspaceID && s.ProviderCallID == providerCallID {
			return s
		}
	}
	return nil
}

func clone(s *CallSession) CallSession {
	out := *s
	if s.SpeechPlan != nil {
		p := *s.SpeechPlan
		out.SpeechPlan = &p
	}
	if s.DialRequestedAt != nil {
		t := *s.DialRequestedAt
		out.DialRequestedAt = &t
	}
	return out
}
