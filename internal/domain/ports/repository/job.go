package repository

import (
	"context"
	"time"

	"ai-tools-platform/internal/domain/model"
)

// JobRepository is the persistent store for job records.
//
// Update semantics (all implementations must hold these):
//   - partial merge per model.JobUpdate, refreshing updated_at;
//   - progress never decreases while the job is non-terminal;
//   - a terminal status/result/error is written exactly once: a second
//     terminal write is a no-op returning the stored job, not an error;
//   - metadata may still be merged after the terminal transition.
type JobRepository interface {
	Create(ctx context.Context, tx Tx, job *model.Job) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Job, error)
	Update(ctx context.Context, id string, u model.JobUpdate) (*model.Job, error)

	// FetchAndMarkProcessing atomically claims the oldest queued job for
	// the calling worker (queued -> processing) so two workers never race
	// on the same job. Returns domain.ErrNotFound when the queue is empty.
	FetchAndMarkProcessing(ctx context.Context) (*model.Job, error)

	// FailStale force-fails jobs that have been non-terminal for longer
	// than deadline (worker crashed mid-run). Returns the ids failed.
	FailStale(ctx context.Context, deadline time.Duration, jerr model.JobError) ([]string, error)
}
