package crm

import "time"

// Workspace is the tenant. OutboundNumber, when set, is the caller id for
// automated calls placed on behalf of this workspace.
type Workspace struct {
	ID             string    `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	OutboundNumber string    `json:"outbound_number,omitempty" db:"outbound_number"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Job is a field-service job (install, repair, estimate visit).
// Only the fields the call orchestrator needs are modeled here.
type Job struct {
	ID          string    `json:"id" db:"id"`
	WorkspaceID string    `json:"workspace_id" db:"workspace_id"`
	CustomerID  string    `json:"customer_id,omitempty" db:"customer_id"`
	Title       string    `json:"title" db:"title"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Customer is the person the automated call reaches.
type Customer struct {
	ID          string    `json:"id" db:"id"`
	WorkspaceID string    `json:"workspace_id" db:"workspace_id"`
	Name        string    `json:"name" db:"name"`
	Phone       string    `json:"phone,omitempty" db:"phone"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
