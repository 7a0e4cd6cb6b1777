package crm

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresDirectory reads CRM records from the workspaces/jobs/customers
// tables owned by the main CRM application. This service never writes them.
type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (d *PostgresDirectory) FindWorkspace(ctx context.Context, workspaceID string) (Workspace, error) {
	const q = `
SELECT id, name, COALESCE(outbound_number, ''), created_at
FROM workspaces
WHERE id = $1
`
	var w Workspace
	err := d.db.QueryRowContext(ctx, q, workspaceID).Scan(
		&w.ID, &w.Name, &w.OutboundNumber, &w.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Workspace{}, ErrNotFound
		}
		return Workspace{}, err
	}
	return w, nil
}

func (d *PostgresDirectory) FindJob(ctx context.Context, jobID string) (Job, error) {
	const q = `
SELECT id, workspace_id, COALESCE(customer_id, ''), title, status, created_at
FROM jobs
WHERE id = $1
`
	var j Job
	err := d.db.QueryRowContext(ctx, q, jobID).Scan(
		&j.ID, &j.WorkspaceID, &j.CustomerID, &j.Title, &j.Status, &j.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Job{}, ErrNotFound
		}
		return Job{}, err
	}
	return j, nil
}

func (d *PostgresDirectory) FindCustomer(ctx context.Context, workspaceID, customerID string) (Customer, error) {
	const q = `
SELECT id, workspace_id, name, COALESCE(phone, ''), created_at
FROM customers
WHERE workspace_id = $1 AND id = $2
`
	var c Customer
	err := d.db.QueryRowContext(ctx, q, workspaceID, customerID).Scan(
		&c.ID, &c.WorkspaceID, &c.Name, &c.Phone, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Customer{}, ErrNotFound
		}
		return Customer{}, err
	}
	return c, nil
}
