package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PostgresLog persists audit events.
//
// Schema:
//
//	CREATE TABLE audit_events (
//	    id               UUID PRIMARY KEY,
//	    workspace_id     TEXT NOT NULL,
//	    actor            TEXT NOT NULL,
//	    type             TEXT NOT NULL,
//	    job_id           TEXT NOT NULL DEFAULT '',
//	    call_id          TEXT NOT NULL DEFAULT '',
//	    provider_call_id TEXT NOT NULL DEFAULT '',
//	    fields           JSONB NOT NULL DEFAULT '{}',
//	    created_at       TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX ix_audit_events_job ON audit_events (workspace_id, job_id, created_at DESC);
type PostgresLog struct {
	db *sql.DB
}

func NewPostgresLog(db *sql.DB) *PostgresLog {
	return &PostgresLog{db: db}
}

func (l *PostgresLog) Append(ctx context.Context, e Event) error {
	fields, err := json.Marshal(e.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	_, err = l.db.ExecContext(ctx, `
		INSERT INTO audit_events
			(id, workspace_id, actor, type, job_id, call_id, provider_call_id, fields, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.WorkspaceID, e.Actor, e.Type, e.JobID, e.CallID, e.ProviderCallID, fields, e.CreatedAt,
	)
	return err
}

func (l *PostgresLog) ListByJob(ctx context.Context, workspaceID, jobID string, limit int) ([]Event, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, workspace_id, actor, type, job_id, call_id, provider_call_id, fields, created_at
		FROM audit_events
		WHERE workspace_id = $1 AND job_id = $2
		ORDER BY created_at DESC
		LIMIT $3`,
		workspaceID, jobID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var fields []byte
		if err := rows.Scan(&e.ID, &e.WorkspaceID, &e.Actor, &e.Type, &e.JobID, &e.CallID, &e.ProviderCallID, &fields, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(fields) > 0 {
			if err := json.Unmarshal(fields, &e.Fields); err != nil {
				return nil, fmt.Errorf("unmarshal fields: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
