package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/relayworks/jobrelay/internal/core"
	"github.com/relayworks/jobrelay/internal/data/pgxutil"
	"github.com/relayworks/jobrelay/internal/domain/model"
)

// RepoConfig holds configuration options for the job repository.
type RepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// JobRepo provides database operations for the job store. It is the single
// source of truth for job state; all mutation goes through Insert and
// CompleteIf.
type JobRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

var _ core.JobRepository = (*JobRepo)(nil)

// NewJobRepo creates a new JobRepo instance with the given database connection and configuration.
func NewJobRepo(db *sql.DB, cfg RepoConfig) *JobRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}

	return &JobRepo{
		DB:           db,
		timeProvider: tp,
		logger:       cfg.Logger,
	}
}

const jobColumns = `
  id,
  status,
  vendor,
  vendor_type,
  payload,
  result,
  created_at,
  updated_at,
  completed_at
`

// Insert persists a new job record. A unique-constraint collision on the
// identifier maps to ErrDuplicateJob rather than being swallowed.
func (r *JobRepo) Insert(ctx context.Context, job *model.Job) error {
	if job == nil {
		return errors.New("job is required")
	}
	if job.ID == "" {
		return errors.New("job id is required")
	}
	if !job.Status.Valid() {
		return fmt.Errorf("invalid job status %q", job.Status)
	}

	now := r.timeProvider.Now().UTC()
	payload := job.Payload
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO jobs (id, status, vendor, vendor_type, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`, job.ID, string(job.Status), job.Vendor, string(job.VendorType), []byte(payload), now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("insert job %s: %w", job.ID, ErrDuplicateJob)
		}
		return fmt.Errorf("insert job %s: %w", job.ID, err)
	}

	job.CreatedAt = now
	job.UpdatedAt = now
	return nil
}

// GetByID retrieves a job by its ID.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	var job *model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, qerr := conn.Query(ctx, `
			SELECT `+jobColumns+`
			FROM jobs
			WHERE id = $1
		`, id)
		if qerr != nil {
			return qerr
		}
		defer rows.Close()
		job, qerr = collectJobFromRows(rows)
		return qerr
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return job, nil
}

// CompleteIf atomically applies the terminal mutation iff the stored status is
// a member of the allowed set. The row-level atomicity of the conditional
// UPDATE is the system's only concurrency primitive: when two completion
// deliveries race, exactly one matches the guard and the rest report
// applied=false.
func (r *JobRepo) CompleteIf(ctx context.Context, params core.CompleteIfParams) (bool, error) {
	if params.ID == "" {
		return false, errors.New("job id is required")
	}
	if len(params.Allowed) == 0 {
		return false, errors.New("allowed statuses are required")
	}
	if !params.Status.Terminal() {
		return false, fmt.Errorf("status %q is not terminal", params.Status)
	}

	allowed := make([]string, 0, len(params.Allowed))
	for _, s := range params.Allowed {
		allowed = append(allowed, string(s))
	}

	result := params.Result
	if len(result) == 0 {
		result = json.RawMessage(`null`)
	}

	now := r.timeProvider.Now().UTC()
	var applied bool
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, execErr := conn.Exec(ctx, `
			UPDATE jobs
			SET status = $2,
			    result = $3,
			    completed_at = $4,
			    updated_at = $4
			WHERE id = $1 AND status = ANY($5)
		`, params.ID, string(params.Status), []byte(result), now, allowed)
		if execErr != nil {
			return execErr
		}
		applied = tag.RowsAffected() > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("conditional update job %s: %w", params.ID, err)
	}

	if applied && r.logger != nil {
		r.logger.DebugContext(ctx, "job transitioned",
			"id", params.ID,
			"status", params.Status,
		)
	}
	return applied, nil
}

// ListAll streams every job record through fn, one row at a time, so the
// caller never materializes the full collection. No ordering is promised.
func (r *JobRepo) ListAll(ctx context.Context, fn func(*model.Job) error) error {
	if fn == nil {
		return errors.New("row callback is required")
	}

	return pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+jobColumns+`
			FROM jobs
		`)
		if err != nil {
			return fmt.Errorf("query all jobs: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			job, scanErr := scanJobFromRow(rows)
			if scanErr != nil {
				return fmt.Errorf("scan job: %w", scanErr)
			}
			if cbErr := fn(job); cbErr != nil {
				return cbErr
			}
		}
		return rows.Err()
	})
}

// ListStalePending returns pending jobs older than the given age, oldest
// first, capped at the batch size. Used by the reconciliation sweep.
func (r *JobRepo) ListStalePending(
	ctx context.Context,
	params core.StalePendingParams,
) ([]*model.Job, error) {
	if params.MaxAge <= 0 {
		return nil, errors.New("max age must be positive")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = 100
	}

	cutoff := r.timeProvider.Now().UTC().Add(-params.MaxAge)

	var result []*model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, qerr := conn.Query(ctx, `
			SELECT `+jobColumns+`
			FROM jobs
			WHERE status = $1 AND created_at <= $2
			ORDER BY created_at ASC, id ASC
			LIMIT $3
		`, string(model.JobStatusPending), cutoff, batch)
		if qerr != nil {
			return fmt.Errorf("query stale pending jobs: %w", qerr)
		}
		defer rows.Close()

		for rows.Next() {
			job, scanErr := scanJobFromRow(rows)
			if scanErr != nil {
				return fmt.Errorf("scan stale pending job: %w", scanErr)
			}
			result = append(result, job)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteAll purges every job record and reports how many were removed.
// Ops escape hatch only; not part of the lifecycle contract.
func (r *JobRepo) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM jobs`)
	if err != nil {
		return 0, fmt.Errorf("delete all jobs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete all jobs rows affected: %w", err)
	}
	if r.logger != nil {
		r.logger.InfoContext(ctx, "purged job store", "count", n)
	}
	return n, nil
}

// collectJobFromRows collects a single job from pgx rows.
func collectJobFromRows(rows pgx.Rows) (*model.Job, error) {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, pgx.ErrNoRows
	}

	job, err := scanJobFromRow(rows)
	if err != nil {
		return nil, err
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, rowsErr
	}
	return job, nil
}

type jobRowScanner interface {
	Scan(dest ...any) error
}

func scanJobFromRow(scanner jobRowScanner) (*model.Job, error) {
	var (
		job         model.Job
		payload     []byte
		result      []byte
		completedAt sql.NullTime
	)

	if err := scanner.Scan(
		&job.ID,
		&job.Status,
		&job.Vendor,
		&job.VendorType,
		&payload,
		&result,
		&job.CreatedAt,
		&job.UpdatedAt,
		&completedAt,
	); err != nil {
		return nil, err
	}

	job.Payload = cloneJSON(payload)
	job.Result = cloneNullableJSON(result)
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	return &job, nil
}

func cloneJSON(raw []byte) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage(`{}`)
	}
	return append(json.RawMessage(nil), raw...)
}

// cloneNullableJSON preserves the absent/null distinction: a result is absent
// until completion, then write-once.
func cloneNullableJSON(raw []byte) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return append(json.RawMessage(nil), raw...)
}
