package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"ai-tools-platform/internal/domain"
	"ai-tools-platform/internal/domain/model"
	"ai-tools-platform/internal/domain/ports/repository"

	"github.com/google/uuid"
)

var _ repository.AIResultRepository = (*AIResultRepo)(nil)

type AIResultRepo struct {
	mu      sync.Mutex
	results map[string]*model.AIResult
}

func NewAIResultRepo() *AIResultRepo {
	return &AIResultRepo{results: map[string]*model.AIResult{}}
}

func (r *AIResultRepo) Save(ctx context.Context, tx repository.Tx, res *model.AIResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	res.UpdatedAt = time.Now()
	cp := *res
	r.results[res.ID] = &cp
	return nil
}

func (r *AIResultRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.AIResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.results[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *res
	return &cp, nil
}

func (r *AIResultRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.AIResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	var out []*model.AIResult
	for _, res := range r.results {
		if res.UserID == userID {
			cp := *res
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
