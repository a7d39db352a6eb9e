package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"ai-tools-platform/internal/domain/model"
	"ai-tools-platform/internal/domain/ports/adapter"
	"ai-tools-platform/internal/domain/ports/repository"
)

var _ Executor = (*DocumentExecutor)(nil)

// DocumentExecutor covers the document-intelligence tools: conversational
// Q&A over a document, full-text extraction, and PDF editing (a remote
// submit-then-poll job).
type DocumentExecutor struct {
	execBase
	docIntel adapter.DocumentIntelligenceService
}

func NewDocumentExecutor(
	jobs repository.JobRepository,
	results repository.AIResultRepository,
	docIntel adapter.DocumentIntelligenceService,
	log *zerolog.Logger,
) *DocumentExecutor {
	return &DocumentExecutor{
		execBase: execBase{jobs: jobs, results: results, log: log},
		docIntel: docIntel,
	}
}

func (e *DocumentExecutor) ToolTypes() []model.ToolType {
	return []model.ToolType{model.ToolDocumentChat, model.ToolDocumentExtraction, model.ToolPDFEdit}
}

func (e *DocumentExecutor) Execute(ctx context.Context, job *model.Job) error {
	switch job.ToolType {
	case model.ToolDocumentChat:
		return e.chat(ctx, job)
	case model.ToolDocumentExtraction:
		return e.extraction(ctx, job)
	default:
		return e.pdfEdit(ctx, job)
	}
}

// ensureDocID resolves the input to a processed document id, running the
// document through processing first when only a raw file was provided.
func (e *DocumentExecutor) ensureDocID(ctx context.Context, job *model.Job, stage string, progress int) (string, error) {
	if job.Input.DocID != "" {
		return job.Input.DocID, nil
	}
	e.advance(ctx, job, stage, progress)
	var docID string
	err := callWithRetry(ctx, func() error {
		proc, callErr := e.docIntel.ProcessDocument(ctx, adapter.ProcessDocumentRequest{FileID: job.Input.FileID})
		if callErr != nil {
			return callErr
		}
		docID = proc.DocID
		return nil
	})
	return docID, err
}

func (e *DocumentExecutor) chat(ctx context.Context, job *model.Job) error {
	e.advance(ctx, job, "validating_file", 10)
	docID, err := e.ensureDocID(ctx, job, "processing_document", 30)
	if err != nil {
		return e.failFromErr(ctx, job, err)
	}

	e.advance(ctx, job, "extracting_content", 60)
	var resp *adapter.ConversationResponse
	err = callWithRetry(ctx, func() error {
		r, callErr := e.docIntel.Converse(ctx, adapter.ConversationRequest{
			DocID:    docID,
			Question: job.Input.Question,
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
	return e.complete(ctx, job, map[string]any{
		"answer":          resp.Answer,
		"conversation_id": resp.ConversationID,
		"citations":       resp.Citations,
	}, map[string]any{"doc_id": docID})
}

func (e *DocumentExecutor) extraction(ctx context.Context, job *model.Job) error {
	e.advance(ctx, job, "validating_file", 10)
	docID, err := e.ensureDocID(ctx, job, "extracting_content", 30)
	if err != nil {
		return e.failFromErr(ctx, job, err)
	}

	e.advance(ctx, job, "monitoring_extraction", 60)
	var resp *adapter.ExtractResponse
	err = callWithRetry(ctx, func() error {
		r, callErr := e.docIntel.Extract(ctx, adapter.ExtractRequest{DocID: docID})
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
	artifact, err := e.saveArtifact(ctx, job, "Extracted document", map[string]any{
		"content":    resp.Content,
		"page_count": resp.PageCount,
	})
	if err != nil {
		return err
	}
	return e.complete(ctx, job, map[string]any{
		"content":    resp.Content,
		"page_count": resp.PageCount,
		"confidence": resp.Confidence,
		"result_id":  artifact.ID,
	}, map[string]any{"doc_id": docID})
}

func (e *DocumentExecutor) pdfEdit(ctx context.Context, job *model.Job) error {
	e.advance(ctx, job, "validating", 10)
	operations := job.Input.Operations
	if len(operations) == 0 {
		return e.fail(ctx, job, model.JobError{Message: "No edit operations provided"}, nil)
	}

	e.advance(ctx, job, "preparing_files", 20)
	e.advance(ctx, job, "starting_remote_job", 30)
	var remote *adapter.RemoteJobResponse
	err := callWithRetry(ctx, func() error {
		r, callErr := e.docIntel.SubmitPDFEdit(ctx, adapter.PDFEditRequest{
			FileID:     job.Input.FileID,
			Operations: operations,
			Options:    job.Options,
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

	e.advance(ctx, job, "monitoring", 40)
	for !remote.Done() && !remote.Failed() {
		select {
		case <-time.After(renderPollTick):
		case <-ctx.Done():
			return e.failFromErr(ctx, job, ctx.Err())
		}
		next, pollErr := e.docIntel.JobStatus(ctx, remote.RemoteJobID)
		if pollErr != nil {
			return e.failFromErr(ctx, job, pollErr)
		}
		remote = next
		e.advance(ctx, job, "monitoring", 40+(remote.Progress*45)/100)
	}
	if remote.Failed() {
		return e.fail(ctx, job, model.JobError{Message: "PDF edit failed: " + remote.Error, Recoverable: true, RetryAfter: 60}, nil)
	}

	e.advance(ctx, job, "fetching_result", 90)
	return e.complete(ctx, job, map[string]any{
		"file_url": remote.ResultURL,
	}, map[string]any{"remote_job_id": remote.RemoteJobID})
}
