package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ai-tools-platform/internal/domain"
	"ai-tools-platform/internal/domain/model"
	"ai-tools-platform/internal/domain/ports/repository"
	"ai-tools-platform/internal/infra/metrics"
	"ai-tools-platform/internal/usecase"
)

// JobProcessor polls the store for queued jobs and dispatches each to its
// tool's executor on the pool. FetchAndMarkProcessing is the claim: only
// one worker ever owns a job.
type JobProcessor struct {
	jobs         repository.JobRepository
	execs        *usecase.ExecutorSet
	pollInterval time.Duration
	jobDeadline  time.Duration
	log          *zerolog.Logger
}

func NewJobProcessor(
	jobs repository.JobRepository,
	execs *usecase.ExecutorSet,
	pollInterval, jobDeadline time.Duration,
	logger *zerolog.Logger,
) *JobProcessor {
	procLog := logger.With().Str("component", "JobProcessor").Logger()
	return &JobProcessor{
		jobs:         jobs,
		execs:        execs,
		pollInterval: pollInterval,
		jobDeadline:  jobDeadline,
		log:          &procLog,
	}
}

// Start runs the polling loop. Run it in a goroutine; it returns when ctx
// is cancelled.
func (p *JobProcessor) Start(ctx context.Context, pool *Pool) {
	p.log.Info().Msg("job processor started")
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("job processor stopping")
			return
		case <-ticker.C:
			_ = pool.Submit(func(ctx context.Context) error {
				p.processOne(ctx)
				return nil
			})
		}
	}
}

func (p *JobProcessor) processOne(ctx context.Context) {
	job, err := p.jobs.FetchAndMarkProcessing(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			p.log.Error().Err(err).Msg("failed to fetch job")
		}
		return
	}

	p.log.Info().Str("job_id", job.ID).Str("tool_type", string(job.ToolType)).Msg("processing job")
	start := time.Now()

	execErr := p.runExecutor(ctx, job)

	// re-read: the executor wrote the terminal state through the store
	final, err := p.jobs.FindByID(context.Background(), repository.NoTX, job.ID)
	if err != nil {
		p.log.Error().Err(err).Str("job_id", job.ID).Msg("job vanished after execution")
		return
	}

	if !final.Terminal() {
		// executor broke without writing an outcome; fail the job so it
		// does not sit in processing until the reaper finds it
		jerr := model.JobError{Message: "Processing failed unexpectedly", Recoverable: true, RetryAfter: 60}
		if execErr != nil {
			p.log.Error().Err(execErr).Str("job_id", job.ID).Msg("executor error")
		}
		st := model.JobStatusFailed
		if final, err = p.jobs.Update(context.Background(), job.ID, model.JobUpdate{Status: &st, Error: &jerr}); err != nil {
			p.log.Error().Err(err).Str("job_id", job.ID).Msg("failed to fail job")
			return
		}
	}

	elapsed := time.Since(start)
	metrics.IncJob(string(final.ToolType), string(final.Status))
	metrics.ObserveJobDuration(string(final.ToolType), elapsed.Seconds())
	if used, _ := final.Metadata["fallback_used"].(bool); used {
		metrics.IncFallback(string(final.ToolType))
	}
	_, _ = p.jobs.Update(context.Background(), job.ID, model.JobUpdate{Metadata: map[string]any{
		"processing_completed_at":  time.Now().Format(time.RFC3339),
		"total_processing_time_ms": elapsed.Milliseconds(),
	}})
	p.log.Info().
		Str("job_id", job.ID).
		Str("status", string(final.Status)).
		Dur("duration", elapsed).
		Msg("job finished")
}

// runExecutor dispatches the job with a per-job deadline and converts a
// panicking executor into an error instead of killing the worker.
func (p *JobProcessor) runExecutor(ctx context.Context, job *model.Job) (err error) {
	exec, ok := p.execs.For(job.ToolType)
	if !ok {
		return fmt.Errorf("%s: %w", job.ToolType, domain.ErrToolNotRegistered)
	}

	runCtx, cancel := context.WithTimeout(ctx, p.jobDeadline)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("executor panic: %v", r)
		}
	}()
	return exec.Execute(runCtx, job)
}
