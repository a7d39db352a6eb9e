package repository

import (
	"context"

	"ai-tools-platform/internal/domain/model"
)

// AIResultRepository stores the durable artifacts completed jobs produce.
type AIResultRepository interface {
	Save(ctx context.Context, tx Tx, res *model.AIResult) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.AIResult, error)
	ListByUser(ctx context.Context, tx Tx, userID string, offset, limit int) ([]*model.AIResult, error)
}
