package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"ai-tools-platform/internal/infra/metrics"
)

// StaleCanceller is satisfied by the job orchestrator.
type StaleCanceller interface {
	CancelStale(ctx context.Context, olderThan time.Duration) ([]string, error)
}

// StaleJobWorker periodically force-fails jobs stuck non-terminal past the
// wall-clock deadline. A worker that crashed mid-run leaves its job in
// processing forever otherwise.
type StaleJobWorker struct {
	interval time.Duration
	deadline time.Duration
	jobs     StaleCanceller
	log      *zerolog.Logger
}

func NewStaleJobWorker(interval, deadline time.Duration, jobs StaleCanceller, logger *zerolog.Logger) *StaleJobWorker {
	staleLog := logger.With().Str("component", "StaleJobWorker").Logger()
	return &StaleJobWorker{
		interval: interval,
		deadline: deadline,
		jobs:     jobs,
		log:      &staleLog,
	}
}

func (w *StaleJobWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("deadline", w.deadline).Msg("starting stale job worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping stale job worker")
			return ctx.Err()
		case <-ticker.C:
			ids, err := w.jobs.CancelStale(ctx, w.deadline)
			if err != nil {
				w.log.Error().Err(err).Msg("stale job sweep error")
			}
			if len(ids) > 0 {
				metrics.IncStaleFailed(len(ids))
				w.log.Warn().Int("count", len(ids)).Msg("stale jobs failed")
			}
		}
	}
}
