package model

import (
	"strings"
	"time"

	"ai-tools-platform/internal/domain"
)

type ToolType string

const (
	ToolSummarize          ToolType = "summarize"
	ToolContentWrite       ToolType = "content_write"
	ToolContentRewrite     ToolType = "content_rewrite"
	ToolMath               ToolType = "math"
	ToolFlashcards         ToolType = "flashcards"
	ToolPresentation       ToolType = "presentation"
	ToolPresentationExport ToolType = "presentation_export"
	ToolDiagram            ToolType = "diagram"
	ToolDocumentChat       ToolType = "document_chat"
	ToolDocumentExtraction ToolType = "document_extraction"
	ToolPDFEdit            ToolType = "pdf_edit"
	ToolTranscription      ToolType = "transcription"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status is absorbing.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// StageInitializing is the stage every job starts in.
const StageInitializing = "initializing"

// JobError is the terminal error payload of a failed job.
type JobError struct {
	Message     string `json:"message"`
	Recoverable bool   `json:"recoverable"`
	RetryAfter  int    `json:"retry_after,omitempty"` // seconds
}

// JobInput is the tool-specific payload a job was submitted with.
// Which fields are required depends on the tool type; the orchestrator
// validates the combination before a job is persisted.
type JobInput struct {
	ContentType string `json:"content_type,omitempty"` // text | link | pdf | image | audio | video
	Source      string `json:"source,omitempty"`       // inline text or a URL
	FileID      string `json:"file_id,omitempty"`      // uploaded file reference
	DocID       string `json:"doc_id,omitempty"`       // document-intelligence doc id
	ResultID    string `json:"result_id,omitempty"`    // source AIResult (exports, rewrites)
	Version     int    `json:"version,omitempty"`      // source AIResult version at submit time
	Prompt      string `json:"prompt,omitempty"`
	Question    string `json:"question,omitempty"`

	// Operations carries the edit list for pdf_edit jobs.
	Operations []map[string]any `json:"operations,omitempty"`
}

// Job tracks one asynchronous tool invocation from submission to its
// terminal outcome. Result and Error are mutually exclusive; exactly one
// is set once the status is terminal.
type Job struct {
	ID        string
	ToolType  ToolType
	Input     JobInput
	Options   map[string]string
	UserID    string // empty = anonymous
	Status    JobStatus
	Stage     string
	Progress  int
	Result    map[string]any
	Error     *JobError
	Metadata  map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewJob(id string, toolType ToolType, input JobInput, options map[string]string, userID string) (*Job, error) {
	if id == "" {
		return nil, domain.ErrInvalidArgument
	}
	if strings.TrimSpace(string(toolType)) == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Job{
		ID:        id,
		ToolType:  toolType,
		Input:     input,
		Options:   options,
		UserID:    userID,
		Status:    JobStatusPending,
		Stage:     StageInitializing,
		Progress:  0,
		Metadata:  map[string]any{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (j *Job) Terminal() bool { return j.Status.Terminal() }

// OwnedBy reports whether callerID may read this job. Anonymous jobs are
// readable by anyone; owned jobs only by their owner.
func (j *Job) OwnedBy(callerID string) bool {
	return j.UserID == "" || j.UserID == callerID
}

// JobUpdate is a partial mutation merged into a job by the store.
// Nil pointer fields are left untouched; Result/Error/Metadata merge in
// when non-nil.
type JobUpdate struct {
	Status   *JobStatus
	Stage    *string
	Progress *int
	Result   map[string]any
	Error    *JobError
	Metadata map[string]any
}

// Apply merges u into the job, enforcing the lifecycle invariants:
// progress is non-decreasing, terminal status/result/error are frozen,
// and metadata may still be appended after a terminal transition.
// It reports whether anything beyond metadata was changed.
func (j *Job) Apply(u JobUpdate) bool {
	if u.Metadata != nil {
		if j.Metadata == nil {
			j.Metadata = map[string]any{}
		}
		for k, v := range u.Metadata {
			j.Metadata[k] = v
		}
		j.UpdatedAt = time.Now()
	}
	if j.Terminal() {
		return false
	}

	changed := false
	if u.Stage != nil && *u.Stage != j.Stage {
		j.Stage = *u.Stage
		changed = true
	}
	if u.Progress != nil && *u.Progress > j.Progress {
		p := *u.Progress
		if p > 100 {
			p = 100
		}
		j.Progress = p
		changed = true
	}
	if u.Status != nil && *u.Status != j.Status {
		j.Status = *u.Status
		changed = true
	}
	if j.Status == JobStatusCompleted {
		j.Result = u.Result
		if j.Result == nil {
			j.Result = map[string]any{}
		}
		j.Error = nil
		j.Progress = 100
	}
	if j.Status == JobStatusFailed {
		j.Error = u.Error
		// A failed job always carries an error payload.
		if j.Error == nil {
			j.Error = &JobError{Message: "Processing failed"}
		}
		j.Result = nil
	}
	if changed {
		j.UpdatedAt = time.Now()
	}
	return changed
}
