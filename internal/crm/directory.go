package crm

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("crm: not found")

// Directory is the read-only view of CRM records the call orchestrator
// depends on. The full CRM (pages, forms, record CRUD) lives elsewhere;
// this contract deliberately exposes only lookups.
//
// FindJob is intentionally unscoped: the orchestrator must distinguish "job
// does not exist" from "job belongs to another workspace" (forbidden), which
// a workspace-scoped lookup cannot do.
type Directory interface {
	FindWorkspace(ctx context.Context, workspaceID string) (Workspace, error)
	FindJob(ctx context.Context, jobID string) (Job, error)
	FindCustomer(ctx context.Context, workspaceID, customerID string) (Customer, error)
}
