package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"ai-tools-platform/internal/domain/model"
	"ai-tools-platform/internal/domain/ports/adapter"
	"ai-tools-platform/internal/domain/ports/repository"
)

var _ Executor = (*ContentWriterExecutor)(nil)

// ContentWriterExecutor handles both content_write (fresh text from a
// prompt) and content_rewrite (restyling an existing text or artifact).
type ContentWriterExecutor struct {
	execBase
	aiManager adapter.AIManagerService
	fallback  adapter.AIServiceAdapter
}

func NewContentWriterExecutor(
	jobs repository.JobRepository,
	results repository.AIResultRepository,
	aiManager adapter.AIManagerService,
	fallback adapter.AIServiceAdapter,
	log *zerolog.Logger,
) *ContentWriterExecutor {
	return &ContentWriterExecutor{
		execBase:  execBase{jobs: jobs, results: results, log: log},
		aiManager: aiManager,
		fallback:  fallback,
	}
}

func (e *ContentWriterExecutor) ToolTypes() []model.ToolType {
	return []model.ToolType{model.ToolContentWrite, model.ToolContentRewrite}
}

func (e *ContentWriterExecutor) Execute(ctx context.Context, job *model.Job) error {
	e.advance(ctx, job, "validating_input", 10)

	mode := "write"
	source := ""
	if job.ToolType == model.ToolContentRewrite {
		mode = "rewrite"
		source = job.Input.Source
		if source == "" && job.Input.ResultID != "" {
			prior, err := e.results.FindByID(ctx, repository.NoTX, job.Input.ResultID)
			if err != nil {
				return e.fail(ctx, job, model.JobError{Message: "Source content not found"}, nil)
			}
			if text, ok := prior.ResultData["content"].(string); ok {
				source = text
			}
		}
		if strings.TrimSpace(source) == "" {
			return e.fail(ctx, job, model.JobError{Message: "Nothing to rewrite"}, nil)
		}
	}

	e.advance(ctx, job, "generating_content", 40)
	content, tokens, meta, err := e.generate(ctx, job, mode, source)
	if err != nil {
		return e.failFromErr(ctx, job, err)
	}

	e.advance(ctx, job, "refining_content", 70)
	content = strings.TrimSpace(content)
	if content == "" {
		return e.failFromErr(ctx, job, errEmptyUpstreamResult)
	}

	e.advance(ctx, job, "finalizing", 90)
	title := "Written content"
	if mode == "rewrite" {
		title = "Rewritten content"
	}
	artifact, err := e.saveArtifact(ctx, job, title, map[string]any{"content": content})
	if err != nil {
		return err
	}
	if meta == nil {
		meta = map[string]any{}
	}
	meta["tokens_used"] = tokens
	return e.complete(ctx, job, map[string]any{
		"content":   content,
		"result_id": artifact.ID,
	}, meta)
}

func (e *ContentWriterExecutor) generate(ctx context.Context, job *model.Job, mode, source string) (string, int, map[string]any, error) {
	if e.aiManager.HealthCheck(ctx) {
		var resp *adapter.GenerateResponse
		err := callWithRetry(ctx, func() error {
			r, callErr := e.aiManager.Generate(ctx, adapter.GenerateRequest{
				Prompt:  job.Input.Prompt,
				Mode:    mode,
				Source:  source,
				Options: job.Options,
			})
			if callErr != nil {
				return callErr
			}
			resp = r
			return nil
		})
		if err == nil {
			return resp.Content, resp.TokensUsed, nil, nil
		}
		if svcErr, ok := adapter.AsServiceError(err); ok && !svcErr.Retryable() {
			return "", 0, nil, err
		}
		e.log.Warn().Err(err).Str("job_id", job.ID).Msg("ai manager unavailable, using llm fallback")
	}

	prompt := job.Input.Prompt
	if mode == "rewrite" {
		prompt = fmt.Sprintf("Rewrite the following text. %s\n\n%s", job.Input.Prompt, source)
	}
	messages := []adapter.Message{{Role: "user", Content: prompt}}
	content, usage, err := e.fallback.ChatWithUsage(ctx, "", messages)
	if err != nil {
		return "", 0, nil, err
	}
	return content, usage.TotalTokens, fallbackMeta(ctx, e.fallback, messages), nil
}
