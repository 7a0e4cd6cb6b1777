package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrAppendFailed = errors.New("audit: append failed")

// Log is the persistence contract for audit events.
type Log interface {
	Append(ctx context.Context, e Event) error
	ListByJob(ctx context.Context, workspaceID, jobID string, limit int) ([]Event, error)
}

// Service stamps and appends audit events.
type Service struct {
	log   Log
	clock func() time.Time
}

func NewService(log Log) *Service {
	return &Service{log: log, clock: time.Now}
}

// Record appends the event, filling in id and timestamp. Actor defaults to
// "system" when empty.
func (s *Service) Record(ctx context.Context, e Event) error {
	if e.WorkspaceID == "" || e.Type == "" {
		return fmt.Errorf("%w: workspace_id and type are required", ErrAppendFailed)
	}
	e.ID = uuid.NewString()
	e.CreatedAt = s.clock().UTC()
	if e.Actor == "" {
		e.Actor = ActorSystem
	}
	if err := s.log.Append(ctx, e); err != nil {
		return fmt.Errorf("%w: %v", ErrAppendFailed, err)
	}
	return nil
}

// ListByJob returns the newest events for a job, newest first.
func (s *Service) ListByJob(ctx context.Context, workspaceID, jobID string, limit int) ([]Event, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.log.ListByJob(ctx, workspaceID, jobID, limit)
}
