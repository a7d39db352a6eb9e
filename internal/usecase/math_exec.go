package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"ai-tools-platform/internal/domain/model"
	"ai-tools-platform/internal/domain/ports/adapter"
	"ai-tools-platform/internal/domain/ports/repository"
)

var _ Executor = (*MathExecutor)(nil)

// MathExecutor solves a math problem given as text or as a photographed
// problem image. There is no local fallback; a failing AI manager makes
// the job fail recoverably.
type MathExecutor struct {
	execBase
	aiManager adapter.AIManagerService
}

func NewMathExecutor(
	jobs repository.JobRepository,
	results repository.AIResultRepository,
	aiManager adapter.AIManagerService,
	log *zerolog.Logger,
) *MathExecutor {
	return &MathExecutor{
		execBase:  execBase{jobs: jobs, results: results, log: log},
		aiManager: aiManager,
	}
}

func (e *MathExecutor) ToolTypes() []model.ToolType {
	return []model.ToolType{model.ToolMath}
}

func (e *MathExecutor) Execute(ctx context.Context, job *model.Job) error {
	e.advance(ctx, job, "analyzing_problem", 15)

	e.advance(ctx, job, "solving_problem", 50)
	var resp *adapter.MathSolveResponse
	err := callWithRetry(ctx, func() error {
		r, callErr := e.aiManager.SolveMath(ctx, adapter.MathSolveRequest{
			Problem:  job.Input.Source,
			ImageRef: job.Input.FileID,
		})
		if callErr != nil {
			return callErr
		}
		resp = r
		return nil
	})
	if err != nil {
		return e.failFromErr(ctx, job, err)
	}

	e.advance(ctx, job, "finalizing", 90)
	artifact, err := e.saveArtifact(ctx, job, "Math solution", map[string]any{
		"solution": resp.Solution,
		"steps":    resp.Steps,
		"answer":   resp.Answer,
	})
	if err != nil {
		return err
	}
	return e.complete(ctx, job, map[string]any{
		"solution":  resp.Solution,
		"steps":     resp.Steps,
		"answer":    resp.Answer,
		"result_id": artifact.ID,
	}, nil)
}
