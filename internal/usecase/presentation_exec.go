package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ai-tools-platform/internal/domain"
	"ai-tools-platform/internal/domain/model"
	"ai-tools-platform/internal/domain/ports/adapter"
	"ai-tools-platform/internal/domain/ports/repository"
)

var _ Executor = (*PresentationExecutor)(nil)

const (
	// Export leases and cached artifacts mirror the renderer's own job
	// lifetime: a crashed worker frees the fingerprint after ten minutes,
	// and an identical re-export within fifteen reuses the artifact.
	exportLeaseTTL = 10 * time.Minute
	exportCacheTTL = 15 * time.Minute
	renderPollTick = 2 * time.Second
)

// PresentationExecutor covers the full generation pipeline (outline then
// slide content) and the export of a finished presentation to a
// downloadable file. Exports are fingerprinted and de-duplicated through
// the concurrency guard, since re-rendering an unchanged presentation in
// the same format is pure waste.
type PresentationExecutor struct {
	execBase
	renderer adapter.PresentationService
	fallback adapter.AIServiceAdapter
	guard    adapter.ConcurrencyGuard
}

func NewPresentationExecutor(
	jobs repository.JobRepository,
	results repository.AIResultRepository,
	renderer adapter.PresentationService,
	fallback adapter.AIServiceAdapter,
	guard adapter.ConcurrencyGuard,
	log *zerolog.Logger,
) *PresentationExecutor {
	return &PresentationExecutor{
		execBase: execBase{jobs: jobs, results: results, log: log},
		renderer: renderer,
		fallback: fallback,
		guard:    guard,
	}
}

func (e *PresentationExecutor) ToolTypes() []model.ToolType {
	return []model.ToolType{model.ToolPresentation, model.ToolPresentationExport}
}

func (e *PresentationExecutor) Execute(ctx context.Context, job *model.Job) error {
	if job.ToolType == model.ToolPresentationExport {
		return e.export(ctx, job)
	}
	return e.generate(ctx, job)
}

// --- generation ---

func (e *PresentationExecutor) generate(ctx context.Context, job *model.Job) error {
	e.advance(ctx, job, "analyzing_content", 10)
	topic := job.Input.Prompt
	if topic == "" {
		topic = job.Input.Source
	}

	e.advance(ctx, job, "generating_outline", 30)
	if !e.renderer.HealthCheck(ctx) {
		return e.outlineFallback(ctx, job, topic)
	}

	var outline *adapter.OutlineResponse
	err := callWithRetry(ctx, func() error {
		o, callErr := e.renderer.Outline(ctx, adapter.OutlineRequest{Topic: topic, Options: job.Options})
		if callErr != nil {
			return callErr
		}
		outline = o
		return nil
	})
	if err != nil {
		if svcErr, ok := adapter.AsServiceError(err); ok && svcErr.Retryable() {
			e.log.Warn().Err(err).Str("job_id", job.ID).Msg("renderer unavailable, producing outline-only fallback")
			return e.outlineFallback(ctx, job, topic)
		}
		return e.failFromErr(ctx, job, err)
	}

	e.advance(ctx, job, "generating_content", 60)
	var slides *adapter.SlideContentResponse
	err = callWithRetry(ctx, func() error {
		s, callErr := e.renderer.SlideContent(ctx, adapter.SlideContentRequest{Outline: *outline, Options: job.Options})
		if callErr != nil {
			return callErr
		}
		slides = s
		return nil
	})
	if err != nil {
		return e.failFromErr(ctx, job, err)
	}

	e.advance(ctx, job, "finalizing", 90)
	artifact, err := e.saveArtifact(ctx, job, outline.Title, map[string]any{
		"title":  outline.Title,
		"slides": slides.Slides,
	})
	if err != nil {
		return err
	}
	return e.complete(ctx, job, map[string]any{
		"result_id":   artifact.ID,
		"title":       outline.Title,
		"slide_count": len(slides.Slides),
	}, nil)
}

// outlineFallback produces a text outline with the local LLM when the
// renderer cannot. The artifact carries only the outline; the client can
// re-run the full pipeline later.
func (e *PresentationExecutor) outlineFallback(ctx context.Context, job *model.Job, topic string) error {
	prompt := fmt.Sprintf("Create a slide-by-slide presentation outline for the topic: %s", topic)
	messages := []adapter.Message{{Role: "user", Content: prompt}}
	outline, _, err := e.fallback.ChatWithUsage(ctx, "", messages)
	if err != nil {
		return e.failFromErr(ctx, job, err)
	}
	if strings.TrimSpace(outline) == "" {
		return e.failFromErr(ctx, job, errEmptyUpstreamResult)
	}
	artifact, err := e.saveArtifact(ctx, job, "Presentation outline", map[string]any{"outline": outline})
	if err != nil {
		return err
	}
	return e.complete(ctx, job, map[string]any{
		"result_id":    artifact.ID,
		"outline_only": true,
	}, fallbackMeta(ctx, e.fallback, messages))
}

// --- export ---

// exportOutcome is what the guard caches per fingerprint.
type exportOutcome struct {
	FileURL string `json:"file_url"`
	Format  string `json:"format"`
}

func (e *PresentationExecutor) export(ctx context.Context, job *model.Job) error {
	e.advance(ctx, job, "preparing_slides", 10)
	artifact, err := e.results.FindByID(ctx, repository.NoTX, job.Input.ResultID)
	if err != nil {
		return e.fail(ctx, job, model.JobError{Message: "Presentation not found"}, nil)
	}

	format := job.Options["format"]
	if format == "" {
		format = "pptx"
	}
	fp := Fingerprint(job.ToolType, artifact.ID, artifact.Version, job.Options)

	var cached exportOutcome
	if hit, _ := e.guard.CacheGet(ctx, fp, &cached); hit {
		return e.completeExport(ctx, job, artifact.ID, cached, map[string]any{"deduplicated": "cache"})
	}

	lease, err := e.guard.Acquire(ctx, fp, exportLeaseTTL)
	if errors.Is(err, domain.ErrOperationInFlight) {
		return e.awaitPeerExport(ctx, job, artifact.ID, fp)
	}
	if err != nil {
		return e.failFromErr(ctx, job, err)
	}
	defer lease.Release(ctx)

	e.advance(ctx, job, "rendering_presentation", 40)
	slides, err := decodeSlides(artifact.ResultData["slides"])
	if err != nil || len(slides) == 0 {
		return e.fail(ctx, job, model.JobError{Message: "Presentation has no slides to export"}, nil)
	}

	var remote *adapter.RemoteJobResponse
	err = callWithRetry(ctx, func() error {
		r, callErr := e.renderer.SubmitExport(ctx, adapter.ExportRequest{
			ResultID: artifact.ID,
			Format:   format,
			Slides:   slides,
			Options:  job.Options,
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

	final, err := e.pollRender(ctx, job, remote)
	if err != nil {
		return e.failFromErr(ctx, job, err)
	}
	if final.Failed() {
		return e.fail(ctx, job, model.JobError{Message: "Export failed: " + final.Error, Recoverable: true, RetryAfter: 60}, nil)
	}

	e.advance(ctx, job, "finalizing", 90)
	outcome := exportOutcome{FileURL: final.ResultURL, Format: format}
	if err := e.guard.CachePut(ctx, fp, outcome, exportCacheTTL); err != nil {
		e.log.Warn().Err(err).Str("job_id", job.ID).Msg("export cache write failed")
	}
	return e.completeExport(ctx, job, artifact.ID, outcome, nil)
}

func (e *PresentationExecutor) completeExport(ctx context.Context, job *model.Job, artifactID string, out exportOutcome, meta map[string]any) error {
	return e.complete(ctx, job, map[string]any{
		"file_url":  out.FileURL,
		"format":    out.Format,
		"result_id": artifactID,
	}, meta)
}

// awaitPeerExport waits for the worker holding the lease to publish its
// outcome, so the second caller gets the first caller's result instead of
// a duplicate render.
func (e *PresentationExecutor) awaitPeerExport(ctx context.Context, job *model.Job, artifactID, fp string) error {
	e.advance(ctx, job, "rendering_presentation", 40)
	ticker := time.NewTicker(renderPollTick)
	defer ticker.Stop()
	deadline := time.NewTimer(exportLeaseTTL)
	defer deadline.Stop()
	for {
		select {
		case <-ticker.C:
			var cached exportOutcome
			if hit, _ := e.guard.CacheGet(ctx, fp, &cached); hit {
				return e.completeExport(ctx, job, artifactID, cached, map[string]any{"deduplicated": "in_flight"})
			}
		case <-deadline.C:
			return e.fail(ctx, job, model.JobError{Message: "An identical export is already running", Recoverable: true, RetryAfter: 60}, nil)
		case <-ctx.Done():
			return e.failFromErr(ctx, job, ctx.Err())
		}
	}
}

// pollRender follows a remote render job to its terminal state, mapping
// the remote progress into this job's 40-85 band.
func (e *PresentationExecutor) pollRender(ctx context.Context, job *model.Job, remote *adapter.RemoteJobResponse) (*adapter.RemoteJobResponse, error) {
	current := remote
	for !current.Done() && !current.Failed() {
		select {
		case <-time.After(renderPollTick):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		next, err := e.renderer.RenderStatus(ctx, current.RemoteJobID)
		if err != nil {
			return nil, err
		}
		current = next
		e.advance(ctx, job, job.Stage, 40+(current.Progress*45)/100)
	}
	return current, nil
}

// decodeSlides converts the artifact's stored slide payload (JSON shapes
// vary by store) back into typed slides.
func decodeSlides(v any) ([]adapter.Slide, error) {
	if v == nil {
		return nil, nil
	}
	if slides, ok := v.([]adapter.Slide); ok {
		return slides, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var slides []adapter.Slide
	if err := json.Unmarshal(raw, &slides); err != nil {
		return nil, err
	}
	return slides, nil
}
