package ai

import (
	"context"
	"time"

	"ai-tools-platform/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*NoopAIAdapter)(nil)

// NoopAIAdapter implements adapter.AIServiceAdapter for local/dev runs where
// no provider keys are configured. It returns canned responses after a small
// delay instead of sending real AI requests.
type NoopAIAdapter struct{}

func NewNoopAIAdapter() *NoopAIAdapter {
	return &NoopAIAdapter{}
}

func (a *NoopAIAdapter) CountTokens(ctx context.Context, _ string, messages []adapter.Message) (int, error) {
	n := 0
	for _, m := range messages {
		n += len(m.Content) / 4 // rough chars-per-token estimate
	}
	return n, nil
}

func (a *NoopAIAdapter) Chat(ctx context.Context, _ string, _ []adapter.Message) (string, error) {
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return "This is a noop AI response.", nil
}

func (a *NoopAIAdapter) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	reply, err := a.Chat(ctx, model, messages)
	return reply, adapter.Usage{}, err
}
