package svc

import (
	"context"
	"time"

	"ai-tools-platform/internal/config"
	"ai-tools-platform/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

var _ adapter.TranscriberService = (*TranscriberClient)(nil)

// TranscriberClient talks to the media transcription microservice.
// Transcription of long media is the slowest call in the platform, so the
// configured timeout here is much larger than the other services' (up to
// ten minutes).
type TranscriberClient struct {
	*Client
	timeout time.Duration
}

func NewTranscriberClient(cfg config.ServiceConfig, health VerdictCache, log *zerolog.Logger) *TranscriberClient {
	return &TranscriberClient{
		Client:  NewClient("transcriber", cfg.BaseURL, health, log),
		timeout: cfg.Timeout,
	}
}

func (c *TranscriberClient) Transcribe(ctx context.Context, req adapter.TranscribeRequest) (*adapter.TranscribeResponse, error) {
	var out adapter.TranscribeResponse
	if err := c.Call(ctx, "/api/transcribe", req, &out, c.timeout); err != nil {
		return nil, err
	}
	return &out, nil
}
