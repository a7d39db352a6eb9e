// File: internal/infra/adapters/ai/failover_adapter.go
package ai

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"ai-tools-platform/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*FailoverAdapter)(nil)

// FailoverAdapter chains provider adapters in priority order. Each call is
// tried against the first provider; on error the next one is tried, and the
// last error is returned only when every provider has failed. Context
// cancellation is never retried against another provider.
type FailoverAdapter struct {
	chain []adapter.AIServiceAdapter
	log   *zerolog.Logger
}

func NewFailoverAdapter(log *zerolog.Logger, chain ...adapter.AIServiceAdapter) *FailoverAdapter {
	providers := make([]adapter.AIServiceAdapter, 0, len(chain))
	for _, a := range chain {
		if a != nil {
			providers = append(providers, a)
		}
	}
	return &FailoverAdapter{chain: providers, log: log}
}

func (f *FailoverAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	var lastErr error
	for _, a := range f.chain {
		n, err := a.CountTokens(ctx, model, messages)
		if err == nil {
			return n, nil
		}
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		lastErr = err
	}
	return 0, f.exhausted(lastErr)
}

func (f *FailoverAdapter) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	var lastErr error
	for i, a := range f.chain {
		reply, err := a.Chat(ctx, model, messages)
		if err == nil {
			return reply, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		f.log.Warn().Err(err).Int("provider_index", i).Msg("ai provider failed, trying next")
		lastErr = err
	}
	return "", f.exhausted(lastErr)
}

func (f *FailoverAdapter) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	var lastErr error
	for i, a := range f.chain {
		reply, u, err := a.ChatWithUsage(ctx, model, messages)
		if err == nil {
			return reply, u, nil
		}
		if ctx.Err() != nil {
			return "", adapter.Usage{}, ctx.Err()
		}
		f.log.Warn().Err(err).Int("provider_index", i).Msg("ai provider failed, trying next")
		lastErr = err
	}
	return "", adapter.Usage{}, f.exhausted(lastErr)
}

func (f *FailoverAdapter) exhausted(lastErr error) error {
	if lastErr != nil {
		return lastErr
	}
	return errors.New("no ai providers configured")
}
