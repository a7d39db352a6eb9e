package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"ai-tools-platform/internal/domain"
	"ai-tools-platform/internal/domain/model"
	"ai-tools-platform/internal/usecase"
)

// ===== envelope =====

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, details any) {
	body := map[string]any{"success": false, "error": msg}
	if details != nil {
		body["details"] = details
	}
	writeJSON(w, status, body)
}

// writeDomainError maps engine errors onto the HTTP surface.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Job not found", nil)
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusUnprocessableEntity, "Validation failed", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "You do not have access to this job", nil)
	case errors.Is(err, domain.ErrOperationInFlight):
		writeError(w, http.StatusConflict, "An identical operation is already running", nil)
	case errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, "A required service is temporarily unavailable", nil)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", nil)
	}
}

// ===== submit =====

type submitRequest struct {
	Input   model.JobInput    `json:"input"`
	Options map[string]string `json:"options,omitempty"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	tool := model.ToolType(chi.URLParam(r, "tool"))

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	job, err := s.orchestrator.CreateJob(r.Context(), tool, req.Input, req.Options, CallerID(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if job.Status == model.JobStatusPending {
		if err := s.orchestrator.QueueJob(r.Context(), job.ID); err != nil {
			s.log.Error().Err(err).Str("job_id", job.ID).Msg("failed to queue job")
			writeDomainError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"success":    true,
		"job_id":     job.ID,
		"status":     job.Status,
		"poll_url":   fmt.Sprintf("/api/%s/status?job_id=%s", tool, job.ID),
		"result_url": fmt.Sprintf("/api/%s/result?job_id=%s", tool, job.ID),
	})
}

// ===== polling =====

// loadOwnedJob fetches the job and enforces URL-tool consistency plus
// ownership.
func (s *Server) loadOwnedJob(w http.ResponseWriter, r *http.Request) (*model.Job, bool) {
	id := r.URL.Query().Get("job_id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "job_id is required", nil)
		return nil, false
	}
	job, err := s.orchestrator.GetJob(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	if tool := chi.URLParam(r, "tool"); tool != "" && model.ToolType(tool) != job.ToolType {
		writeError(w, http.StatusBadRequest, "Job does not belong to this tool", nil)
		return nil, false
	}
	if !job.OwnedBy(CallerID(r.Context())) {
		writeError(w, http.StatusForbidden, "You do not have access to this job", nil)
		return nil, false
	}
	return job, true
}

// handleStatus always answers 200 for a known, accessible job; a failed
// job is a first-class state, not an HTTP error.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := s.loadOwnedJob(w, r)
	if !ok {
		return
	}

	info := usecase.StageFor(job.ToolType, stageOrStatus(job))
	body := map[string]any{
		"success":           true,
		"job_id":            job.ID,
		"status":            job.Status,
		"progress":          job.Progress,
		"stage":             job.Stage,
		"stage_message":     info.Message,
		"stage_description": info.Description,
		"created_at":        job.CreatedAt.Format(time.RFC3339),
		"updated_at":        job.UpdatedAt.Format(time.RFC3339),
	}
	if job.Error != nil {
		body["error"] = job.Error
	}
	writeJSON(w, http.StatusOK, body)
}

// stageOrStatus keys terminal jobs on their status so the registry's
// completed/failed entries apply.
func stageOrStatus(job *model.Job) string {
	if job.Terminal() {
		return string(job.Status)
	}
	return job.Stage
}

// handleResult returns 202 with only {status, progress} until the job
// completes; result payloads are never partially exposed.
func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	job, ok := s.loadOwnedJob(w, r)
	if !ok {
		return
	}

	switch job.Status {
	case model.JobStatusCompleted:
		writeJSON(w, http.StatusOK, map[string]any{
			"success":  true,
			"data":     job.Result,
			"metadata": job.Metadata,
		})
	case model.JobStatusFailed:
		writeError(w, http.StatusOK, job.Error.Message, map[string]any{
			"recoverable": job.Error.Recoverable,
			"retry_after": job.Error.RetryAfter,
		})
	default:
		writeJSON(w, http.StatusAccepted, map[string]any{
			"success":  true,
			"status":   job.Status,
			"progress": job.Progress,
		})
	}
}

// handleListResults pages the caller's saved artifacts; authentication is
// required since artifacts are always listed per user.
func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	caller := CallerID(r.Context())
	if caller == "" {
		writeError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	results, err := s.orchestrator.ListResults(r.Context(), caller, offset, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]map[string]any, 0, len(results))
	for _, res := range results {
		item := map[string]any{
			"id":         res.ID,
			"tool_type":  res.ToolType,
			"title":      res.Title,
			"version":    res.Version,
			"created_at": res.CreatedAt.Format(time.RFC3339),
			"updated_at": res.UpdatedAt.Format(time.RFC3339),
		}
		if res.FileRef != "" {
			item["file_ref"] = res.FileRef
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "results": items})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
