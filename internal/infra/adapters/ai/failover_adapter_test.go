package ai_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"ai-tools-platform/internal/domain/ports/adapter"
	ai "ai-tools-platform/internal/infra/adapters/ai"
)

type stubAI struct {
	name  string
	err   error
	calls int
}

func (s *stubAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return 7, nil
}
func (s *stubAI) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return "ok from " + s.name, nil
}
func (s *stubAI) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	reply, err := s.Chat(ctx, model, messages)
	return reply, adapter.Usage{PromptTokens: 1, CompletionTokens: 1}, err
}

func TestFailover_PrimaryWins(t *testing.T) {
	t.Parallel()
	log := zerolog.Nop()
	primary := &stubAI{name: "primary"}
	secondary := &stubAI{name: "secondary"}
	f := ai.NewFailoverAdapter(&log, primary, secondary)

	reply, err := f.Chat(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "ok from primary" {
		t.Fatalf("expected primary reply, got %q", reply)
	}
	if secondary.calls != 0 {
		t.Fatalf("secondary should not be called when primary succeeds")
	}
}

func TestFailover_FallsToSecondary(t *testing.T) {
	t.Parallel()
	log := zerolog.Nop()
	primary := &stubAI{name: "primary", err: errors.New("quota exceeded")}
	secondary := &stubAI{name: "secondary"}
	f := ai.NewFailoverAdapter(&log, primary, secondary)

	reply, u, err := f.ChatWithUsage(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "ok from secondary" {
		t.Fatalf("expected secondary reply, got %q", reply)
	}
	if u.PromptTokens != 1 {
		t.Fatalf("usage should come from the provider that answered")
	}
	if primary.calls != 1 || secondary.calls != 1 {
		t.Fatalf("expected one call each, got primary:%d secondary:%d", primary.calls, secondary.calls)
	}
}

func TestFailover_AllFail_ReturnsLastError(t *testing.T) {
	t.Parallel()
	log := zerolog.Nop()
	errA := errors.New("down A")
	errB := errors.New("down B")
	f := ai.NewFailoverAdapter(&log, &stubAI{err: errA}, &stubAI{err: errB})

	_, err := f.Chat(context.Background(), "", nil)
	if !errors.Is(err, errB) {
		t.Fatalf("expected last provider error, got %v", err)
	}
}

func TestFailover_CanceledContextNotRetried(t *testing.T) {
	t.Parallel()
	log := zerolog.Nop()
	ctx, cancel := context.WithCancel(context.Background())
	primary := &stubAI{name: "primary", err: errors.New("aborted")}
	secondary := &stubAI{name: "secondary"}
	f := ai.NewFailoverAdapter(&log, primary, secondary)

	cancel()
	_, err := f.Chat(ctx, "", nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if secondary.calls != 0 {
		t.Fatalf("secondary must not be tried after cancellation")
	}
}
