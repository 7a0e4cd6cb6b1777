package reporting

import (
	"time"

	"fieldservice-crm/internal/callsession"
)

// SummaryRequest scopes a call activity summary. Zero From/To means
// unbounded on that side.
type SummaryRequest struct {
	WorkspaceID string
	From        time.Time
	To          time.Time
}

// CallsSummary is the aggregate view of outbound call activity for a
// workspace over a window.
type CallsSummary struct {
	WorkspaceID string    `json:"workspace_id"`
	From        time.Time `json:"from,omitempty"`
	To          time.Time `json:"to,omitempty"`

	Total            int `json:"total"`
	InProgress       int `json:"in_progress"`
	Completed        int `json:"completed"`
	TerminalFailures int `json:"terminal_failures"`

	ByStatus map[callsession.ProviderStatus]int `json:"by_status"`

	TotalTalkSeconds int `json:"total_talk_seconds"`
	RecordedCalls    int `json:"recorded_calls"`
}
