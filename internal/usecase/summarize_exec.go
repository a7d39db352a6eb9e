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

var _ Executor = (*SummarizeExecutor)(nil)

// SummarizeExecutor condenses text, documents and media into a summary.
// Text and links go straight to the AI manager; uploaded documents are
// extracted first through document intelligence, and audio/video sources
// are transcribed first. When the AI manager is down the summary is
// produced by the local LLM fallback instead.
type SummarizeExecutor struct {
	execBase
	aiManager   adapter.AIManagerService
	docIntel    adapter.DocumentIntelligenceService
	transcriber adapter.TranscriberService
	fallback    adapter.AIServiceAdapter
}

func NewSummarizeExecutor(
	jobs repository.JobRepository,
	results repository.AIResultRepository,
	aiManager adapter.AIManagerService,
	docIntel adapter.DocumentIntelligenceService,
	transcriber adapter.TranscriberService,
	fallback adapter.AIServiceAdapter,
	log *zerolog.Logger,
) *SummarizeExecutor {
	return &SummarizeExecutor{
		execBase:    execBase{jobs: jobs, results: results, log: log},
		aiManager:   aiManager,
		docIntel:    docIntel,
		transcriber: transcriber,
		fallback:    fallback,
	}
}

func (e *SummarizeExecutor) ToolTypes() []model.ToolType {
	return []model.ToolType{model.ToolSummarize}
}

func (e *SummarizeExecutor) Execute(ctx context.Context, job *model.Job) error {
	e.advance(ctx, job, "analyzing_content", 10)

	content, err := e.sourceContent(ctx, job)
	if err != nil {
		return e.failFromErr(ctx, job, err)
	}
	if strings.TrimSpace(content) == "" {
		return e.fail(ctx, job, model.JobError{Message: "No content to summarize"}, nil)
	}

	e.advance(ctx, job, "generating_summary", 60)
	summary, tokens, meta, err := e.summarize(ctx, job, content)
	if err != nil {
		return e.failFromErr(ctx, job, err)
	}

	e.advance(ctx, job, "finalizing", 90)
	artifact, err := e.saveArtifact(ctx, job, "Summary", map[string]any{"summary": summary})
	if err != nil {
		return err
	}
	if meta == nil {
		meta = map[string]any{}
	}
	meta["tokens_used"] = tokens
	return e.complete(ctx, job, map[string]any{
		"summary":   summary,
		"result_id": artifact.ID,
	}, meta)
}

// sourceContent resolves the job input to plain text.
func (e *SummarizeExecutor) sourceContent(ctx context.Context, job *model.Job) (string, error) {
	in := job.Input
	switch in.ContentType {
	case "pdf", "file":
		e.advance(ctx, job, "extracting_content", 30)
		var content string
		err := callWithRetry(ctx, func() error {
			docID := in.DocID
			if docID == "" {
				proc, err := e.docIntel.ProcessDocument(ctx, adapter.ProcessDocumentRequest{FileID: in.FileID})
				if err != nil {
					return err
				}
				docID = proc.DocID
			}
			extracted, err := e.docIntel.Extract(ctx, adapter.ExtractRequest{DocID: docID})
			if err != nil {
				return err
			}
			content = extracted.Content
			return nil
		})
		return content, err
	case "audio", "video":
		e.advance(ctx, job, "extracting_content", 30)
		var transcript string
		err := callWithRetry(ctx, func() error {
			resp, err := e.transcriber.Transcribe(ctx, adapter.TranscribeRequest{Source: in.Source, FileID: in.FileID})
			if err != nil {
				return err
			}
			transcript = resp.Transcript
			return nil
		})
		return transcript, err
	default:
		// text and web links go to the AI manager as-is
		return in.Source, nil
	}
}

// summarize tries the AI manager first and falls back to the local LLM
// when the service is unhealthy or keeps failing with retryable errors.
func (e *SummarizeExecutor) summarize(ctx context.Context, job *model.Job, content string) (string, int, map[string]any, error) {
	if e.aiManager.HealthCheck(ctx) {
		var resp *adapter.SummarizeResponse
		err := callWithRetry(ctx, func() error {
			r, callErr := e.aiManager.Summarize(ctx, adapter.SummarizeRequest{Content: content, Options: job.Options})
			if callErr != nil {
				return callErr
			}
			resp = r
			return nil
		})
		if err == nil {
			return resp.Summary, resp.TokensUsed, nil, nil
		}
		if svcErr, ok := adapter.AsServiceError(err); ok && !svcErr.Retryable() {
			return "", 0, nil, err
		}
		e.log.Warn().Err(err).Str("job_id", job.ID).Msg("ai manager unavailable, using llm fallback")
	}

	prompt := fmt.Sprintf("Summarize the following content concisely:\n\n%s", content)
	messages := []adapter.Message{{Role: "user", Content: prompt}}
	summary, usage, err := e.fallback.ChatWithUsage(ctx, "", messages)
	if err != nil {
		return "", 0, nil, err
	}
	if strings.TrimSpace(summary) == "" {
		return "", 0, nil, errEmptyUpstreamResult
	}
	return summary, usage.TotalTokens, fallbackMeta(ctx, e.fallback, messages), nil
}
