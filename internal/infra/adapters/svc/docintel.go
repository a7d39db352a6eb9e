package svc

import (
	"context"
	"time"

	"ai-tools-platform/internal/config"
	"ai-tools-platform/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

var _ adapter.DocumentIntelligenceService = (*DocIntelClient)(nil)

// DocIntelClient talks to the document-intelligence microservice:
// OCR/extraction, document Q&A conversations and PDF editing. Long-running
// operations are submitted and then polled via JobStatus.
type DocIntelClient struct {
	*Client
	timeout time.Duration
}

func NewDocIntelClient(cfg config.ServiceConfig, health VerdictCache, log *zerolog.Logger) *DocIntelClient {
	return &DocIntelClient{
		Client:  NewClient("document_intelligence", cfg.BaseURL, health, log),
		timeout: cfg.Timeout,
	}
}

func (c *DocIntelClient) ProcessDocument(ctx context.Context, req adapter.ProcessDocumentRequest) (*adapter.ProcessDocumentResponse, error) {
	var out adapter.ProcessDocumentResponse
	if err := c.Call(ctx, "/api/process", req, &out, c.timeout); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *DocIntelClient) Extract(ctx context.Context, req adapter.ExtractRequest) (*adapter.ExtractResponse, error) {
	var out adapter.ExtractResponse
	if err := c.Call(ctx, "/api/extract", req, &out, c.timeout); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *DocIntelClient) Converse(ctx context.Context, req adapter.ConversationRequest) (*adapter.ConversationResponse, error) {
	var out adapter.ConversationResponse
	if err := c.Call(ctx, "/api/conversation", req, &out, c.timeout); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitPDFEdit starts a remote edit job; poll with JobStatus.
func (c *DocIntelClient) SubmitPDFEdit(ctx context.Context, req adapter.PDFEditRequest) (*adapter.RemoteJobResponse, error) {
	var out adapter.RemoteJobResponse
	if err := c.Call(ctx, "/api/pdf/edit", req, &out, c.timeout); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *DocIntelClient) JobStatus(ctx context.Context, remoteJobID string) (*adapter.RemoteJobResponse, error) {
	var out adapter.RemoteJobResponse
	req := struct {
		JobID string `json:"job_id"`
	}{JobID: remoteJobID}
	if err := c.Call(ctx, "/api/job-status", req, &out, 30*time.Second); err != nil {
		return nil, err
	}
	return &out, nil
}
