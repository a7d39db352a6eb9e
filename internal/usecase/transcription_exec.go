package usecase

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"ai-tools-platform/internal/domain/model"
	"ai-tools-platform/internal/domain/ports/adapter"
	"ai-tools-platform/internal/domain/ports/repository"
)

var _ Executor = (*TranscriptionExecutor)(nil)

// TranscriptionExecutor converts audio/video (a media URL or an uploaded
// file) into text. The transcriber call itself may take minutes; its
// timeout is configured on the client.
type TranscriptionExecutor struct {
	execBase
	transcriber adapter.TranscriberService
}

func NewTranscriptionExecutor(
	jobs repository.JobRepository,
	results repository.AIResultRepository,
	transcriber adapter.TranscriberService,
	log *zerolog.Logger,
) *TranscriptionExecutor {
	return &TranscriptionExecutor{
		execBase:    execBase{jobs: jobs, results: results, log: log},
		transcriber: transcriber,
	}
}

func (e *TranscriptionExecutor) ToolTypes() []model.ToolType {
	return []model.ToolType{model.ToolTranscription}
}

func (e *TranscriptionExecutor) Execute(ctx context.Context, job *model.Job) error {
	e.advance(ctx, job, "fetching_media", 15)

	e.advance(ctx, job, "transcribing", 40)
	var resp *adapter.TranscribeResponse
	err := callWithRetry(ctx, func() error {
		r, callErr := e.transcriber.Transcribe(ctx, adapter.TranscribeRequest{
			Source:  job.Input.Source,
			FileID:  job.Input.FileID,
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
	if strings.TrimSpace(resp.Transcript) == "" {
		return e.failFromErr(ctx, job, errEmptyUpstreamResult)
	}

	e.advance(ctx, job, "finalizing", 90)
	artifact, err := e.saveArtifact(ctx, job, "Transcript", map[string]any{
		"transcript": resp.Transcript,
		"language":   resp.Language,
	})
	if err != nil {
		return err
	}
	return e.complete(ctx, job, map[string]any{
		"transcript": resp.Transcript,
		"language":   resp.Language,
		"result_id":  artifact.ID,
	}, map[string]any{"duration_seconds": resp.DurationS})
}
