package reporting

import (
	"context"
	"errors"
	"time"

	"fieldservice-crm/internal/callsession"
)

var ErrInvalidWindow = errors.New("reporting: from must be before to")

// Repository lists call sessions for aggregation. Kept separate from the
// call session store so reporting reads never grow write capabilities.
type Repository interface {
	ListByWorkspace(ctx context.Context, workspaceID string, from, to time.Time) ([]callsession.CallSession, error)
}

// Service computes call activity summaries.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CallsSummary(ctx context.Context, req SummaryRequest) (CallsSummary, error) {
	if !req.From.IsZero() && !req.To.IsZero() && req.To.Before(req.From) {
		return CallsSummary{}, ErrInvalidWindow
	}

	sessions, err := s.repo.ListByWorkspace(ctx, req.WorkspaceID, req.From, req.To)
	if err != nil {
		return CallsSummary{}, err
	}

	out := CallsSummary{
		WorkspaceID: req.WorkspaceID,
		From:        req.From,
		To:          req.To,
		ByStatus:    map[callsession.ProviderStatus]int{},
	}
	for _, cs := range sessions {
		out.Total++
		out.ByStatus[cs.ProviderStatus]++
		switch {
		case cs.ProviderStatus == callsession.StatusCompleted:
			out.Completed++
		case cs.ProviderStatus.TerminalFailure():
			out.TerminalFailures++
		case cs.ProviderStatus.InProgress():
			out.InProgress++
		}
		out.TotalTalkSeconds += cs.DurationSeconds
		if cs.RecordingURL != "" {
			out.RecordedCalls++
		}
	}
	return out, nil
}
