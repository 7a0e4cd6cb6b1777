package reporting

import (
	"context"
	"database/sql"
	"time"

	"fieldservice-crm/internal/callsession"
)

// PostgresRepository reads call_sessions for aggregation. It only selects
// the columns the summary needs.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListByWorkspace(ctx context.Context, workspaceID string, from, to time.Time) ([]callsession.CallSession, error) {
	const q = `
SELECT id, workspace_id, job_id, provider_status, duration_seconds, recording_url, created_at
FROM call_sessions
WHERE workspace_id = $1
  AND ($2::timestamptz IS NULL OR created_at >= $2)
  AND ($3::timestamptz IS NULL OR created_at <= $3)
ORDER BY created_at
`
	rows, err := r.db.QueryContext(ctx, q, workspaceID, nullTime(from), nullTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []callsession.CallSession
	for rows.Next() {
		var s callsession.CallSession
		if err := rows.Scan(&s.ID, &s.WorkspaceID, &s.JobID, &s.ProviderStatus, &s.DurationSeconds, &s.RecordingURL, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
