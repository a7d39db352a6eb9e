package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"ai-tools-platform/internal/domain"
	"ai-tools-platform/internal/domain/model"
	"ai-tools-platform/internal/domain/ports/repository"
	uc "ai-tools-platform/internal/domain/ports/usecase"
)

var _ uc.JobOrchestrator = (*jobOrchestrator)(nil)

type jobOrchestrator struct {
	jobs    repository.JobRepository
	results repository.AIResultRepository
	execs   *ExecutorSet
	log     *zerolog.Logger
}

func NewJobOrchestrator(jobs repository.JobRepository, results repository.AIResultRepository, execs *ExecutorSet, log *zerolog.Logger) *jobOrchestrator {
	return &jobOrchestrator{jobs: jobs, results: results, execs: execs, log: log}
}

// CreateJob persists a new pending job. A tool type with no registered
// executor still gets a job record, failed immediately, so the caller's
// polling contract holds even for unsupported tools.
func (o *jobOrchestrator) CreateJob(ctx context.Context, toolType model.ToolType, input model.JobInput, options map[string]string, userID string) (*model.Job, error) {
	job, err := model.NewJob(ulid.Make().String(), toolType, input, options, userID)
	if err != nil {
		return nil, err
	}

	if !o.execs.Registered(toolType) {
		failed := model.JobStatusFailed
		job.Apply(model.JobUpdate{
			Status: &failed,
			Error:  &model.JobError{Message: fmt.Sprintf("Unsupported tool type: %s", toolType)},
		})
		if err := o.jobs.Create(ctx, repository.NoTX, job); err != nil {
			return nil, fmt.Errorf("create job: %w", err)
		}
		o.log.Warn().Str("job_id", job.ID).Str("tool_type", string(toolType)).Msg("job created for unregistered tool")
		return job, nil
	}

	if err := validateInput(toolType, input); err != nil {
		return nil, err
	}

	if err := o.jobs.Create(ctx, repository.NoTX, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	o.log.Info().Str("job_id", job.ID).Str("tool_type", string(toolType)).Msg("job created")
	return job, nil
}

// QueueJob moves a pending job to queued. Already queued, processing or
// terminal jobs are left untouched so the call is idempotent.
func (o *jobOrchestrator) QueueJob(ctx context.Context, id string) error {
	job, err := o.jobs.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return err
	}
	if job.Status != model.JobStatusPending {
		return nil
	}
	queued := model.JobStatusQueued
	if _, err := o.jobs.Update(ctx, id, model.JobUpdate{Status: &queued}); err != nil {
		return fmt.Errorf("queue job %s: %w", id, err)
	}
	return nil
}

func (o *jobOrchestrator) GetJob(ctx context.Context, id string) (*model.Job, error) {
	return o.jobs.FindByID(ctx, repository.NoTX, id)
}

// ListResults pages the caller's artifacts. Anonymous callers own nothing,
// so an empty user id is rejected rather than listing anonymous artifacts
// platform-wide.
func (o *jobOrchestrator) ListResults(ctx context.Context, userID string, offset, limit int) ([]*model.AIResult, error) {
	if userID == "" {
		return nil, domain.ErrForbidden
	}
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return o.results.ListByUser(ctx, repository.NoTX, userID, offset, limit)
}

// CancelStale force-fails jobs stuck non-terminal past olderThan (a worker
// died mid-run). Used by the reaper, not exposed on the public port.
func (o *jobOrchestrator) CancelStale(ctx context.Context, olderThan time.Duration) ([]string, error) {
	retryAfter := int(olderThan.Seconds())
	ids, err := o.jobs.FailStale(ctx, olderThan, model.JobError{
		Message:     "Processing took too long and was cancelled",
		Recoverable: true,
		RetryAfter:  retryAfter,
	})
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		o.log.Warn().Str("job_id", id).Msg("stale job failed by reaper")
	}
	return ids, nil
}

// validateInput checks the per-tool input schema at the boundary so malformed
// payloads never reach an executor.
func validateInput(toolType model.ToolType, in model.JobInput) error {
	missing := func(what string) error {
		return fmt.Errorf("%s requires %s: %w", toolType, what, domain.ErrInvalidArgument)
	}
	hasSource := strings.TrimSpace(in.Source) != ""
	hasFile := in.FileID != ""

	switch toolType {
	case model.ToolSummarize, model.ToolFlashcards, model.ToolTranscription:
		if !hasSource && !hasFile {
			return missing("source or file_id")
		}
	case model.ToolContentWrite:
		if strings.TrimSpace(in.Prompt) == "" {
			return missing("prompt")
		}
	case model.ToolContentRewrite:
		if !hasSource && in.ResultID == "" {
			return missing("source or result_id")
		}
	case model.ToolMath:
		if !hasSource && !hasFile {
			return missing("a problem statement or image file_id")
		}
	case model.ToolPresentation, model.ToolDiagram:
		if strings.TrimSpace(in.Prompt) == "" && !hasSource {
			return missing("prompt or source")
		}
	case model.ToolPresentationExport:
		if in.ResultID == "" {
			return missing("result_id")
		}
	case model.ToolDocumentChat:
		if in.DocID == "" && !hasFile {
			return missing("doc_id or file_id")
		}
		if strings.TrimSpace(in.Question) == "" {
			return missing("question")
		}
	case model.ToolDocumentExtraction:
		if in.DocID == "" && !hasFile {
			return missing("doc_id or file_id")
		}
	case model.ToolPDFEdit:
		if !hasFile {
			return missing("file_id")
		}
	}
	return nil
}
