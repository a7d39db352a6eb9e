package usecase

import (
	"context"

	"ai-tools-platform/internal/domain/model"
)

// JobOrchestrator is the public entry point of the job engine. The
// create+queue path never blocks on tool execution; callers poll GetJob.
type JobOrchestrator interface {
	// CreateJob validates the tool type and its input and persists a
	// pending job. Unregistered tool types fail before anything is queued.
	CreateJob(ctx context.Context, toolType model.ToolType, input model.JobInput, options map[string]string, userID string) (*model.Job, error)

	// QueueJob moves a pending job to queued and schedules asynchronous
	// dispatch. Queueing an already queued or terminal job is a no-op.
	QueueJob(ctx context.Context, id string) error

	// GetJob returns a read-only snapshot for polling.
	GetJob(ctx context.Context, id string) (*model.Job, error)

	// ListResults pages through the caller's persisted artifacts, newest
	// first.
	ListResults(ctx context.Context, userID string, offset, limit int) ([]*model.AIResult, error)
}
