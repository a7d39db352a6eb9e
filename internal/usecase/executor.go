package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ai-tools-platform/internal/domain"
	"ai-tools-platform/internal/domain/model"
	"ai-tools-platform/internal/domain/ports/adapter"
	"ai-tools-platform/internal/domain/ports/repository"
)

// Executor is one tool family's pipeline strategy. Execute drives the job
// through its stages and writes the terminal outcome through the job store;
// a returned error means the pipeline itself broke (the worker then
// force-fails the job if it is still non-terminal).
type Executor interface {
	ToolTypes() []model.ToolType
	Execute(ctx context.Context, job *model.Job) error
}

// ExecutorSet is the immutable tool_type -> executor table, built once at
// process start.
type ExecutorSet struct {
	byTool map[model.ToolType]Executor
}

func NewExecutorSet(execs ...Executor) *ExecutorSet {
	byTool := make(map[model.ToolType]Executor, len(execs))
	for _, e := range execs {
		for _, t := range e.ToolTypes() {
			byTool[t] = e
		}
	}
	return &ExecutorSet{byTool: byTool}
}

func (s *ExecutorSet) For(t model.ToolType) (Executor, bool) {
	e, ok := s.byTool[t]
	return e, ok
}

func (s *ExecutorSet) Registered(t model.ToolType) bool {
	_, ok := s.byTool[t]
	return ok
}

// execBase carries what every executor needs: the job store for stage and
// terminal writes, the artifact store, and a logger.
type execBase struct {
	jobs    repository.JobRepository
	results repository.AIResultRepository
	log     *zerolog.Logger
}

// saveArtifact persists the durable AIResult a content-producing tool ends
// with. The job's result payload references the artifact id.
func (b *execBase) saveArtifact(ctx context.Context, job *model.Job, title string, data map[string]any) (*model.AIResult, error) {
	res, err := model.NewAIResult(uuid.NewString(), job.UserID, job.ToolType, title, job.Input, data)
	if err != nil {
		return nil, err
	}
	if err := b.results.Save(ctx, repository.NoTX, res); err != nil {
		return nil, fmt.Errorf("save ai result for job %s: %w", job.ID, err)
	}
	return res, nil
}

// advance records a stage transition with its progress. Store errors are
// logged and swallowed: losing one progress tick must not abort a pipeline.
func (b *execBase) advance(ctx context.Context, job *model.Job, stage string, progress int) {
	updated, err := b.jobs.Update(ctx, job.ID, model.JobUpdate{Stage: &stage, Progress: &progress})
	if err != nil {
		b.log.Warn().Err(err).Str("job_id", job.ID).Str("stage", stage).Msg("stage update failed")
		return
	}
	*job = *updated
}

// complete writes the terminal success outcome.
func (b *execBase) complete(ctx context.Context, job *model.Job, result map[string]any, meta map[string]any) error {
	st := model.JobStatusCompleted
	updated, err := b.jobs.Update(ctx, job.ID, model.JobUpdate{Status: &st, Result: result, Metadata: meta})
	if err != nil {
		return fmt.Errorf("complete job %s: %w", job.ID, err)
	}
	*job = *updated
	return nil
}

// fail writes the terminal failure outcome.
func (b *execBase) fail(ctx context.Context, job *model.Job, jerr model.JobError, meta map[string]any) error {
	st := model.JobStatusFailed
	updated, err := b.jobs.Update(ctx, job.ID, model.JobUpdate{Status: &st, Error: &jerr, Metadata: meta})
	if err != nil {
		return fmt.Errorf("fail job %s: %w", job.ID, err)
	}
	*job = *updated
	return nil
}

// failFromErr translates a downstream error into the job's terminal error
// fields. Unavailable/ServerFault outcomes are marked recoverable with a
// retry hint so clients know resubmitting later may succeed.
func (b *execBase) failFromErr(ctx context.Context, job *model.Job, err error) error {
	jerr := model.JobError{Message: "Processing failed"}
	if svcErr, ok := adapter.AsServiceError(err); ok {
		jerr.Message = svcErr.Msg
		if svcErr.Retryable() {
			jerr.Recoverable = true
			jerr.RetryAfter = 60
		}
	} else if errors.Is(err, context.DeadlineExceeded) {
		jerr.Message = "Operation timed out"
		jerr.Recoverable = true
		jerr.RetryAfter = 60
	} else if err != nil {
		jerr.Message = err.Error()
	}
	return b.fail(ctx, job, jerr, nil)
}

const (
	retryAttempts = 3
	retryBackoff  = 500 * time.Millisecond
)

// callWithRetry runs fn up to retryAttempts times, backing off exponentially
// between tries. Only Unavailable/ServerFault service errors are retried;
// everything else returns immediately.
func callWithRetry(ctx context.Context, fn func() error) error {
	backoff := retryBackoff
	var err error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		svcErr, ok := adapter.AsServiceError(err)
		if !ok || !svcErr.Retryable() {
			return err
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
	}
	return err
}

// Fingerprint derives the identity of an idempotent expensive operation from
// its source artifact, that artifact's version at submit time, and the
// requested parameters (canonicalized by sorted key).
func Fingerprint(tool model.ToolType, sourceID string, version int, options map[string]string) string {
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s|%s|%d", tool, sourceID, version)
	for _, k := range keys {
		fmt.Fprintf(&sb, "|%s=%s", k, options[k])
	}
	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// fallbackMeta marks a job as served by the degraded path and records how
// large a prompt the local provider was handed. The worker turns the flag
// into the fallback metric after the job finishes.
func fallbackMeta(ctx context.Context, llm adapter.AIServiceAdapter, messages []adapter.Message) map[string]any {
	meta := map[string]any{"fallback_used": true}
	if n, err := llm.CountTokens(ctx, "", messages); err == nil && n > 0 {
		meta["prompt_tokens"] = n
	}
	return meta
}

var errEmptyUpstreamResult = fmt.Errorf("empty upstream result: %w", domain.ErrServiceUnavailable)
