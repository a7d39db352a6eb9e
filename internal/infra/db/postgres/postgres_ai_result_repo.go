package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ai-tools-platform/internal/domain"
	"ai-tools-platform/internal/domain/model"
	"ai-tools-platform/internal/domain/ports/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

var _ repository.AIResultRepository = (*aiResultRepo)(nil)

type aiResultRepo struct {
	pool *pgxpool.Pool
}

func NewAIResultRepo(pool *pgxpool.Pool) *aiResultRepo {
	return &aiResultRepo{pool: pool}
}

const aiResultColumns = `id, user_id, tool_type, title, description, input, result_data, metadata, file_ref, version, created_at, updated_at`

func (r *aiResultRepo) Save(ctx context.Context, tx repository.Tx, res *model.AIResult) error {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	res.UpdatedAt = time.Now()

	input, _ := json.Marshal(res.Input)
	data, _ := json.Marshal(res.ResultData)
	metadata, _ := json.Marshal(res.Metadata)

	const q = `
INSERT INTO ai_results (id, user_id, tool_type, title, description, input, result_data, metadata, file_ref, version, created_at, updated_at)
VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id) DO UPDATE SET
  title = EXCLUDED.title,
  description = EXCLUDED.description,
  result_data = EXCLUDED.result_data,
  metadata = EXCLUDED.metadata,
  file_ref = EXCLUDED.file_ref,
  version = EXCLUDED.version,
  updated_at = EXCLUDED.updated_at;`

	_, err := execSQL(ctx, r.pool, tx, q,
		res.ID, res.UserID, res.ToolType, res.Title, res.Description,
		input, data, metadata, res.FileRef, res.Version, res.CreatedAt, res.UpdatedAt)
	return err
}

func (r *aiResultRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.AIResult, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+aiResultColumns+` FROM ai_results WHERE id = $1;`, id)
	if err != nil {
		return nil, err
	}
	return scanAIResult(row)
}

func (r *aiResultRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.AIResult, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT ` + aiResultColumns + ` FROM ai_results WHERE user_id = $1 ORDER BY created_at DESC OFFSET $2 LIMIT $3;`
	rows, err := pickRows(ctx, r.pool, tx, q, userID, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.AIResult
	for rows.Next() {
		res, err := scanAIResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func scanAIResult(row pgx.Row) (*model.AIResult, error) {
	var (
		res      model.AIResult
		userID   *string
		input    []byte
		data     []byte
		metadata []byte
		fileRef  *string
	)
	err := row.Scan(
		&res.ID, &userID, &res.ToolType, &res.Title, &res.Description,
		&input, &data, &metadata, &fileRef, &res.Version, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if userID != nil {
		res.UserID = *userID
	}
	if fileRef != nil {
		res.FileRef = *fileRef
	}
	_ = json.Unmarshal(input, &res.Input)
	_ = json.Unmarshal(data, &res.ResultData)
	_ = json.Unmarshal(metadata, &res.Metadata)
	return &res, nil
}
