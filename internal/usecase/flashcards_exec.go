package usecase

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"ai-tools-platform/internal/domain/model"
	"ai-tools-platform/internal/domain/ports/adapter"
	"ai-tools-platform/internal/domain/ports/repository"
)

var _ Executor = (*FlashcardsExecutor)(nil)

// FlashcardsExecutor turns study material (inline text or an uploaded
// document) into question/answer cards.
type FlashcardsExecutor struct {
	execBase
	aiManager adapter.AIManagerService
	docIntel  adapter.DocumentIntelligenceService
}

func NewFlashcardsExecutor(
	jobs repository.JobRepository,
	results repository.AIResultRepository,
	aiManager adapter.AIManagerService,
	docIntel adapter.DocumentIntelligenceService,
	log *zerolog.Logger,
) *FlashcardsExecutor {
	return &FlashcardsExecutor{
		execBase:  execBase{jobs: jobs, results: results, log: log},
		aiManager: aiManager,
		docIntel:  docIntel,
	}
}

func (e *FlashcardsExecutor) ToolTypes() []model.ToolType {
	return []model.ToolType{model.ToolFlashcards}
}

func (e *FlashcardsExecutor) Execute(ctx context.Context, job *model.Job) error {
	e.advance(ctx, job, "analyzing_content", 15)

	content := job.Input.Source
	if content == "" && job.Input.FileID != "" {
		var err error
		content, err = e.extractDocument(ctx, job)
		if err != nil {
			return e.failFromErr(ctx, job, err)
		}
	}
	if strings.TrimSpace(content) == "" {
		return e.fail(ctx, job, model.JobError{Message: "No study material provided"}, nil)
	}

	count := 0
	if raw, ok := job.Options["count"]; ok {
		count, _ = strconv.Atoi(raw)
	}

	e.advance(ctx, job, "generating_flashcards", 50)
	var resp *adapter.FlashcardsResponse
	err := callWithRetry(ctx, func() error {
		r, callErr := e.aiManager.Flashcards(ctx, adapter.FlashcardsRequest{
			Content: content,
			Count:   count,
			Options: job.Options,
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
	if len(resp.Cards) == 0 {
		return e.failFromErr(ctx, job, errEmptyUpstreamResult)
	}

	e.advance(ctx, job, "finalizing", 90)
	cards := make([]map[string]any, 0, len(resp.Cards))
	for _, c := range resp.Cards {
		cards = append(cards, map[string]any{"front": c.Front, "back": c.Back})
	}
	artifact, err := e.saveArtifact(ctx, job, "Flashcard deck", map[string]any{"cards": cards})
	if err != nil {
		return err
	}
	return e.complete(ctx, job, map[string]any{
		"cards":     cards,
		"result_id": artifact.ID,
	}, map[string]any{"tokens_used": resp.TokensUsed})
}

func (e *FlashcardsExecutor) extractDocument(ctx context.Context, job *model.Job) (string, error) {
	var content string
	err := callWithRetry(ctx, func() error {
		proc, err := e.docIntel.ProcessDocument(ctx, adapter.ProcessDocumentRequest{FileID: job.Input.FileID})
		if err != nil {
			return err
		}
		extracted, err := e.docIntel.Extract(ctx, adapter.ExtractRequest{DocID: proc.DocID})
		if err != nil {
			return err
		}
		content = extracted.Content
		return nil
	})
	return content, err
}
