package svc

import (
	"context"
	"time"

	"ai-tools-platform/internal/config"
	"ai-tools-platform/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

var _ adapter.AIManagerService = (*AIManagerClient)(nil)

// AIManagerClient talks to the AI-manager microservice, which fronts the
// LLM fleet for generation, summarization, flashcards and math solving.
type AIManagerClient struct {
	*Client
	timeout time.Duration
}

func NewAIManagerClient(cfg config.ServiceConfig, health VerdictCache, log *zerolog.Logger) *AIManagerClient {
	return &AIManagerClient{
		Client:  NewClient("ai_manager", cfg.BaseURL, health, log),
		timeout: cfg.Timeout,
	}
}

func (c *AIManagerClient) Generate(ctx context.Context, req adapter.GenerateRequest) (*adapter.GenerateResponse, error) {
	var out adapter.GenerateResponse
	if err := c.Call(ctx, "/api/generate", req, &out, c.timeout); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *AIManagerClient) Summarize(ctx context.Context, req adapter.SummarizeRequest) (*adapter.SummarizeResponse, error) {
	var out adapter.SummarizeResponse
	if err := c.Call(ctx, "/api/summarize", req, &out, c.timeout); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *AIManagerClient) Flashcards(ctx context.Context, req adapter.FlashcardsRequest) (*adapter.FlashcardsResponse, error) {
	var out adapter.FlashcardsResponse
	if err := c.Call(ctx, "/api/flashcards", req, &out, c.timeout); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *AIManagerClient) SolveMath(ctx context.Context, req adapter.MathSolveRequest) (*adapter.MathSolveResponse, error) {
	var out adapter.MathSolveResponse
	if err := c.Call(ctx, "/api/math/solve", req, &out, c.timeout); err != nil {
		return nil, err
	}
	return &out, nil
}
