package svc

import (
	"context"
	"time"

	"ai-tools-platform/internal/config"
	"ai-tools-platform/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

var _ adapter.PresentationService = (*PresentationClient)(nil)

// PresentationClient talks to the presentation-renderer microservice:
// outline and slide-content generation, diagram rendering, and export to a
// downloadable artifact (pptx/pdf). Renders are submit-then-poll.
type PresentationClient struct {
	*Client
	timeout time.Duration
}

func NewPresentationClient(cfg config.ServiceConfig, health VerdictCache, log *zerolog.Logger) *PresentationClient {
	return &PresentationClient{
		Client:  NewClient("presentation", cfg.BaseURL, health, log),
		timeout: cfg.Timeout,
	}
}

func (c *PresentationClient) Outline(ctx context.Context, req adapter.OutlineRequest) (*adapter.OutlineResponse, error) {
	var out adapter.OutlineResponse
	if err := c.Call(ctx, "/api/outline", req, &out, c.timeout); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *PresentationClient) SlideContent(ctx context.Context, req adapter.SlideContentRequest) (*adapter.SlideContentResponse, error) {
	var out adapter.SlideContentResponse
	if err := c.Call(ctx, "/api/content", req, &out, c.timeout); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitExport starts a remote render job; poll with RenderStatus.
func (c *PresentationClient) SubmitExport(ctx context.Context, req adapter.ExportRequest) (*adapter.RemoteJobResponse, error) {
	var out adapter.RemoteJobResponse
	if err := c.Call(ctx, "/api/export", req, &out, c.timeout); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitDiagram starts a remote diagram render; poll with RenderStatus.
func (c *PresentationClient) SubmitDiagram(ctx context.Context, req adapter.DiagramRequest) (*adapter.RemoteJobResponse, error) {
	var out adapter.RemoteJobResponse
	if err := c.Call(ctx, "/api/diagram", req, &out, c.timeout); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *PresentationClient) RenderStatus(ctx context.Context, remoteJobID string) (*adapter.RemoteJobResponse, error) {
	var out adapter.RemoteJobResponse
	req := struct {
		JobID string `json:"job_id"`
	}{JobID: remoteJobID}
	if err := c.Call(ctx, "/api/job-status", req, &out, 30*time.Second); err != nil {
		return nil, err
	}
	return &out, nil
}
