package callsession

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresStore persists call sessions in Postgres via database/sql.
//
// Expected schema:
//
//	CREATE TABLE call_sessions (
//	  id                         TEXT PRIMARY KEY,
//	  workspace_id               TEXT NOT NULL,
//	  job_id                     TEXT NOT NULL,
//	  customer_id                TEXT NOT NULL DEFAULT '',
//	  direction                  TEXT NOT NULL,
//	  from_number                TEXT NOT NULL,
//	  to_number                  TEXT NOT NULL,
//	  script_body                TEXT NOT NULL,
//	  script_summary             TEXT NOT NULL DEFAULT '',
//	  speech_voice               TEXT,
//	  speech_greeting_style      TEXT,
//	  speech_allow_voicemail     BOOLEAN,
//	  speech_script_summary      TEXT,
//	  dial_requested_at          TIMESTAMPTZ,
//	  provider_call_id           TEXT NOT NULL DEFAULT '',
//	  provider_status            TEXT NOT NULL,
//	  error_code                 TEXT NOT NULL DEFAULT '',
//	  error_message              TEXT NOT NULL DEFAULT '',
//	  recording_url              TEXT NOT NULL DEFAULT '',
//	  recording_duration_seconds INT NOT NULL DEFAULT 0,
//	  duration_seconds           INT NOT NULL DEFAULT 0,
//	  created_at                 TIMESTAMPTZ NOT NULL,
//	  updated_at                 TIMESTAMPTZ NOT NULL
//	);
//
// The double-dial invariant (at most one in-progress session per job) is
// enforced at the storage layer, not by application timing:
//
//	CREATE UNIQUE INDEX ux_call_sessions_job_in_progress
//	ON call_sessions (workspace_id, job_id)
//	WHERE provider_status IN
//	  ('created','dial_requested','initiated','queued','ringing','in-progress');
type PostgresStore struct {
	db *sql.DB

	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, clock: time.Now}
}

const inProgressIndexName = "ux_call_sessions_job_in_progress"

const sessionColumns = `
id, workspace_id, job_id, customer_id, direction, from_number, to_number,
script_body, script_summary,
speech_voice, speech_greeting_style, speech_allow_voicemail, speech_script_summary,
dial_requested_at, provider_call_id, provider_status,
error_code, error_message,
recording_url, recording_duration_seconds, duration_seconds,
created_at, updated_at`

func (r *PostgresStore) FindLatestOutbound(ctx context.Context, workspaceID, jobID string) (CallSession, error) {
	q := `
SELECT ` + sessionColumns + `
FROM call_sessions
WHERE workspace_id = $1 AND job_id = $2 AND direction = $3
ORDER BY created_at DESC
LIMIT 1
`
	return scanSession(r.db.QueryRowContext(ctx, q, workspaceID, jobID, DirectionOutbound))
}

func (r *PostgresStore) FindByID(ctx context.Context, workspaceID, callID string) (CallSession, error) {
	q := `
SELECT ` + sessionColumns + `
FROM call_sessions
WHERE workspace_id = $1 AND id = $2
`
	return scanSession(r.db.QueryRowContext(ctx, q, workspaceID, callID))
}

func (r *PostgresStore) FindByProviderCallID(ctx context.Context, workspaceID, providerCallID string) (CallSession, error) {
	if providerCallID == "" {
		return CallSession{}, ErrNotFound
	}
	q := `
SELECT ` + sessionColumns + `
FROM call_sessions
WHERE workspace_id = $1 AND provider_call_id = $2
LIMIT 1
`
	return scanSession(r.db.QueryRowContext(ctx, q, workspaceID, providerCallID))
}

func (r *PostgresStore) Create(ctx context.Context, in CreateInput) (CallSession, error) {
	now := r.clock().UTC()
	s := CallSession{
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

	const q = `
INSERT INTO call_sessions (
  id, workspace_id, job_id, customer_id, direction, from_number, to_number,
  script_body, script_summary, provider_call_id, provider_status,
  error_code, error_message, recording_url, recording_duration_seconds,
  duration_seconds, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,'',$10,'','','',0,0,$11,$12
)
`
	_, err := r.db.ExecContext(ctx, q,
		s.ID, s.WorkspaceID, s.JobID, s.CustomerID, s.Direction,
		s.FromNumber, s.ToNumber, s.ScriptBody, s.ScriptSummary,
		s.ProviderStatus, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isInProgressConflict(err) {
			return CallSession{}, ErrDuplicateInProgress
		}
		return CallSession{}, fmt.Errorf("%w: %v", ErrCreationFailed, err)
	}
	return s, nil
}

func (r *PostgresStore) UpdateSpeechPlan(ctx context.Context, workspaceID, callID string, plan SpeechPlan) error {
	const q = `
UPDATE call_sessions
SET speech_voice = $3,
    speech_greeting_style = $4,
    speech_allow_voicemail = $5,
    speech_script_summary = $6,
    updated_at = $7
WHERE workspace_id = $1 AND id = $2
`
	res, err := r.db.ExecContext(ctx, q,
		workspaceID, callID,
		plan.Voice, plan.GreetingStyle, plan.AllowVoicemail, plan.ScriptSummary,
		r.clock().UTC(),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}
	return mustAffectOne(res)
}

func (r *PostgresStore) RecordDialOutcome(ctx context.Context, workspaceID, callID string, out DialOutcome) error {
	// COALESCE/NULLIF keeps untouched fields untouched: empty inputs fall
	// back to the current column value.
	const q = `
UPDATE call_sessions
SET provider_status = COALESCE(NULLIF($3, ''), provider_status),
    provider_call_id = COALESCE(NULLIF($4, ''), provider_call_id),
    error_code = COALESCE(NULLIF($5, ''), error_code),
    error_message = COALESCE(NULLIF($6, ''), error_message),
    updated_at = $7
WHERE workspace_id = $1 AND id = $2
`
	res, err := r.db.ExecContext(ctx, q,
		workspaceID, callID,
		string(out.Status), out.ProviderCallID, out.ErrorCode, out.ErrorMessage,
		r.clock().UTC(),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}
	return mustAffectOne(res)
}

// MarkDialRequested is the single serialization point for dialing: one
// conditional UPDATE, no read-then-write.
func (r *PostgresStore) MarkDialRequested(ctx context.Context, workspaceID, callID string, now time.Time) (bool, error) {
	const q = `
UPDATE call_sessions
SET dial_requested_at = $3,
    provider_status = $4,
    updated_at = $3
WHERE workspace_id = $1 AND id = $2 AND dial_requested_at IS NULL
`
	res, err := r.db.ExecContext(ctx, q, workspaceID, callID, now.UTC(), StatusDialRequested)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}
	return n == 1, nil
}

func (r *PostgresStore) ApplyProviderStatus(ctx context.Context, workspaceID, providerCallID string, status ProviderStatus, errorCode, errorMessage string, durationSeconds int) (CallSession, bool, error) {
	// Terminal rows are left alone; redelivered callbacks become no-ops.
	q := `
UPDATE call_sessions
SET provider_status = $3,
    error_code = COALESCE(NULLIF($4, ''), error_code),
    error_message = COALESCE(NULLIF($5, ''), error_message),
    duration_seconds = CASE WHEN $6 > 0 THEN $6 ELSE duration_seconds END,
    updated_at = $7
WHERE workspace_id = $1 AND provider_call_id = $2
  AND provider_status NOT IN (` + terminalStatusList() + `)
RETURNING ` + sessionColumns + `
`
	s, err := scanSession(r.db.QueryRowContext(ctx, q,
		workspaceID, providerCallID, string(status), errorCode, errorMessage,
		durationSeconds, r.clock().UTC(),
	))
	if err == nil {
		return s, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return CallSession{}, false, err
	}

	// Zero rows: either the SID is unknown in this workspace or the row is
	// already terminal. Re-read to tell the two apart.
	s, err = r.FindByProviderCallID(ctx, workspaceID, providerCallID)
	if err != nil {
		return CallSession{}, false, err
	}
	return s, false, nil
}

func (r *PostgresStore) ApplyRecording(ctx context.Context, workspaceID, providerCallID, recordingURL string, durationSeconds int) (CallSession, error) {
	q := `
UPDATE call_sessions
SET recording_url = $3,
    recording_duration_seconds = CASE WHEN $4 > 0 THEN $4 ELSE recording_duration_seconds END,
    updated_at = $5
WHERE workspace_id = $1 AND provider_call_id = $2
RETURNING ` + sessionColumns + `
`
	return scanSession(r.db.QueryRowContext(ctx, q,
		workspaceID, providerCallID, recordingURL, durationSeconds, r.clock().UTC(),
	))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (CallSession, error) {
	var s CallSession
	var voice, greeting, planSummary sql.NullString
	var allowVoicemail sql.NullBool
	var dialRequestedAt sql.NullTime

	err := row.Scan(
		&s.ID, &s.WorkspaceID, &s.JobID, &s.CustomerID, &s.Direction,
		&s.FromNumber, &s.ToNumber,
		&s.ScriptBody, &s.ScriptSummary,
		&voice, &greeting, &allowVoicemail, &planSummary,
		&dialRequestedAt, &s.ProviderCallID, &s.ProviderStatus,
		&s.ErrorCode, &s.ErrorMessage,
		&s.RecordingURL, &s.RecordingDurationSeconds, &s.DurationSeconds,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CallSession{}, ErrNotFound
		}
		return CallSession{}, err
	}

	if voice.Valid || greeting.Valid || allowVoicemail.Valid || planSummary.Valid {
		s.SpeechPlan = &SpeechPlan{
			Voice:          voice.String,
			GreetingStyle:  greeting.String,
			AllowVoicemail: allowVoicemail.Bool,
			ScriptSummary:  planSummary.String,
		}
	}
	if dialRequestedAt.Valid {
		t := dialRequestedAt.Time
		s.DialRequestedAt = &t
	}
	return s, nil
}

func terminalStatusList() string {
	terminal := []ProviderStatus{StatusCompleted, StatusFailed, StatusBusy, StatusNoAnswer, StatusCanceled}
	parts := make([]string, len(terminal))
	for i, st := range terminal {
		parts[i] = "'" + string(st) + "'"
	}
	return strings.Join(parts, ",")
}

func isInProgressConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == inProgressIndexName
	}
	return false
}

func mustAffectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
