package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"ai-tools-platform/internal/domain/model"
	"ai-tools-platform/internal/domain/ports/adapter"
	"ai-tools-platform/internal/domain/ports/repository"
)

var _ Executor = (*DiagramExecutor)(nil)

// DiagramExecutor renders a diagram from a textual description via the
// presentation renderer: submit, poll, then hand the client the image URL.
type DiagramExecutor struct {
	execBase
	renderer adapter.PresentationService
}

func NewDiagramExecutor(
	jobs repository.JobRepository,
	results repository.AIResultRepository,
	renderer adapter.PresentationService,
	log *zerolog.Logger,
) *DiagramExecutor {
	return &DiagramExecutor{
		execBase: execBase{jobs: jobs, results: results, log: log},
		renderer: renderer,
	}
}

func (e *DiagramExecutor) ToolTypes() []model.ToolType {
	return []model.ToolType{model.ToolDiagram}
}

func (e *DiagramExecutor) Execute(ctx context.Context, job *model.Job) error {
	e.advance(ctx, job, "generating_diagram", 20)
	description := job.Input.Prompt
	if description == "" {
		description = job.Input.Source
	}

	var remote *adapter.RemoteJobResponse
	err := callWithRetry(ctx, func() error {
		r, callErr := e.renderer.SubmitDiagram(ctx, adapter.DiagramRequest{
			Description: description,
			Format:      job.Options["format"],
			Options:     job.Options,
		})
		if callErr != nil {
			return callErr
		}
		remote = r
		return nil
	})
	if err != nil {
		return e.failFromErr(ctx, job, err)
	}

	e.advance(ctx, job, "polling_renderer", 40)
	for !remote.Done() && !remote.Failed() {
		select {
		case <-time.After(renderPollTick):
		case <-ctx.Done():
			return e.failFromErr(ctx, job, ctx.Err())
		}
		next, pollErr := e.renderer.RenderStatus(ctx, remote.RemoteJobID)
		if pollErr != nil {
			return e.failFromErr(ctx, job, pollErr)
		}
		remote = next
		e.advance(ctx, job, "polling_renderer", 40+(remote.Progress*40)/100)
	}
	if remote.Failed() {
		return e.fail(ctx, job, model.JobError{Message: "Diagram rendering failed: " + remote.Error, Recoverable: true, RetryAfter: 60}, nil)
	}

	e.advance(ctx, job, "downloading_image", 85)
	artifact, err := e.saveArtifact(ctx, job, "Diagram", map[string]any{
		"image_url": remote.ResultURL,
	})
	if err != nil {
		return err
	}
	artifact.FileRef = remote.ResultURL
	artifact.UpdatedAt = time.Now()
	if err := e.results.Save(ctx, repository.NoTX, artifact); err != nil {
		return err
	}

	e.advance(ctx, job, "finalizing", 95)
	return e.complete(ctx, job, map[string]any{
		"image_url": remote.ResultURL,
		"result_id": artifact.ID,
	}, map[string]any{"remote_job_id": remote.RemoteJobID})
}
