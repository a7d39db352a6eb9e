package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ai-tools-platform/internal/domain"
	"ai-tools-platform/internal/domain/model"
	"ai-tools-platform/internal/domain/ports/repository"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

var _ repository.JobRepository = (*jobRepo)(nil)

type jobRepo struct {
	pool *pgxpool.Pool
	tm   repository.TransactionManager
}

func NewJobRepo(pool *pgxpool.Pool, tm repository.TransactionManager) *jobRepo {
	return &jobRepo{pool: pool, tm: tm}
}

const jobColumns = `id, tool_type, input, options, user_id, status, stage, progress, result, error, metadata, created_at, updated_at`

func (r *jobRepo) Create(ctx context.Context, tx repository.Tx, job *model.Job) error {
	input, _ := json.Marshal(job.Input)
	options, _ := json.Marshal(job.Options)
	metadata, _ := json.Marshal(job.Metadata)

	const q = `
INSERT INTO jobs (id, tool_type, input, options, user_id, status, stage, progress, result, error, metadata, created_at, updated_at)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, NULL, NULL, $9, $10, $11);`

	_, err := execSQL(ctx, r.pool, tx, q,
		job.ID, job.ToolType, input, options, job.UserID,
		job.Status, job.Stage, job.Progress, metadata, job.CreatedAt, job.UpdatedAt)
	return err
}

func (r *jobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Job, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1;`, id)
	if err != nil {
		return nil, err
	}
	return scanJob(row)
}

// Update merges u into the stored job under a row lock so concurrent
// pollers never observe a partial write. Terminal-state freezing and the
// monotonic-progress rule live in model.Job.Apply; this method only
// persists whatever Apply accepted.
func (r *jobRepo) Update(ctx context.Context, id string, u model.JobUpdate) (*model.Job, error) {
	var out *model.Job
	err := r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		row, err := pickRow(ctx, r.pool, tx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1 FOR UPDATE;`, id)
		if err != nil {
			return err
		}
		job, err := scanJob(row)
		if err != nil {
			return err
		}
		job.Apply(u)
		if err := r.save(ctx, tx, job); err != nil {
			return err
		}
		out = job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *jobRepo) save(ctx context.Context, tx repository.Tx, job *model.Job) error {
	result, _ := json.Marshal(job.Result)
	if job.Result == nil {
		result = nil
	}
	jerr, _ := json.Marshal(job.Error)
	if job.Error == nil {
		jerr = nil
	}
	metadata, _ := json.Marshal(job.Metadata)

	const q = `
UPDATE jobs SET status = $2, stage = $3, progress = $4, result = $5, error = $6, metadata = $7, updated_at = $8
WHERE id = $1;`
	_, err := execSQL(ctx, r.pool, tx, q,
		job.ID, job.Status, job.Stage, job.Progress, result, jerr, metadata, job.UpdatedAt)
	return err
}

func (r *jobRepo) FetchAndMarkProcessing(ctx context.Context) (*model.Job, error) {
	var job *model.Job

	err := r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		const fetchQuery = `
SELECT ` + jobColumns + `
FROM jobs
WHERE status = 'queued'
ORDER BY created_at
LIMIT 1
FOR UPDATE SKIP LOCKED;`

		row, err := pickRow(ctx, r.pool, tx, fetchQuery)
		if err != nil {
			return err
		}
		fetched, err := scanJob(row)
		if err != nil {
			return err
		}

		// Claim it so no other worker picks it up.
		status := model.JobStatusProcessing
		fetched.Apply(model.JobUpdate{
			Status:   &status,
			Metadata: map[string]any{"processing_started_at": time.Now().Format(time.RFC3339)},
		})
		if err := r.save(ctx, tx, fetched); err != nil {
			return err
		}
		job = fetched
		return nil
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (r *jobRepo) FailStale(ctx context.Context, deadline time.Duration, jerr model.JobError) ([]string, error) {
	errJSON, _ := json.Marshal(jerr)
	const q = `
UPDATE jobs
SET status = 'failed', error = $1, result = NULL, updated_at = now()
WHERE status IN ('pending', 'queued', 'processing') AND updated_at < now() - ($2 * interval '1 second')
RETURNING id;`

	rows, err := pickRows(ctx, r.pool, nil, q, errJSON, deadline.Seconds())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanJob(row pgx.Row) (*model.Job, error) {
	var (
		job      model.Job
		status   string
		userID   *string
		input    []byte
		options  []byte
		result   []byte
		jerr     []byte
		metadata []byte
	)
	err := row.Scan(
		&job.ID, &job.ToolType, &input, &options, &userID,
		&status, &job.Stage, &job.Progress, &result, &jerr, &metadata,
		&job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	job.Status = model.JobStatus(status)
	if userID != nil {
		job.UserID = *userID
	}
	_ = json.Unmarshal(input, &job.Input)
	_ = json.Unmarshal(options, &job.Options)
	if result != nil {
		_ = json.Unmarshal(result, &job.Result)
	}
	if jerr != nil {
		_ = json.Unmarshal(jerr, &job.Error)
	}
	_ = json.Unmarshal(metadata, &job.Metadata)
	return &job, nil
}
