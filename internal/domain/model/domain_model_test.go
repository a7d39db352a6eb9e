//go:build !integration

package model

import (
	"errors"
	"testing"
	"time"

	"ai-tools-platform/internal/domain"
)

// --- Job Model Tests ---

func TestNewJob(t *testing.T) {
	t.Run("should create a pending job with defaults", func(t *testing.T) {
		start := time.Now()
		job, err := NewJob("01J0000000000000000000TEST", ToolSummarize, JobInput{ContentType: "text", Source: "hello"}, nil, "user-1")

		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if job.Status != JobStatusPending {
			t.Errorf("expected status pending, got %s", job.Status)
		}
		if job.Stage != StageInitializing {
			t.Errorf("expected stage initializing, got %s", job.Stage)
		}
		if job.Progress != 0 {
			t.Errorf("expected progress 0, got %d", job.Progress)
		}
		if job.Result != nil || job.Error != nil {
			t.Error("expected neither result nor error on a fresh job")
		}
		if time.Since(start) > time.Second {
			t.Error("job.CreatedAt timestamp is too far from current time")
		}
	})

	t.Run("should fail with empty id or tool type", func(t *testing.T) {
		if _, err := NewJob("", ToolMath, JobInput{}, nil, ""); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for empty id, got %v", err)
		}
		if _, err := NewJob("id", "", JobInput{}, nil, ""); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for empty tool type, got %v", err)
		}
	})
}

func TestJobApply(t *testing.T) {
	newTestJob := func(t *testing.T) *Job {
		t.Helper()
		job, err := NewJob("job-1", ToolSummarize, JobInput{ContentType: "text", Source: "hi"}, nil, "")
		if err != nil {
			t.Fatalf("NewJob: %v", err)
		}
		return job
	}

	t.Run("progress is non-decreasing", func(t *testing.T) {
		job := newTestJob(t)
		p := 40
		job.Apply(JobUpdate{Progress: &p})
		lower := 10
		job.Apply(JobUpdate{Progress: &lower})
		if job.Progress != 40 {
			t.Errorf("expected progress to stay at 40, got %d", job.Progress)
		}
		over := 250
		job.Apply(JobUpdate{Progress: &over})
		if job.Progress != 100 {
			t.Errorf("expected progress clamped to 100, got %d", job.Progress)
		}
	})

	t.Run("completion sets result, clears error, pins progress", func(t *testing.T) {
		job := newTestJob(t)
		st := JobStatusCompleted
		job.Apply(JobUpdate{Status: &st, Result: map[string]any{"summary": "short"}})
		if !job.Terminal() {
			t.Fatal("expected job to be terminal")
		}
		if job.Result == nil || job.Error != nil {
			t.Error("expected result set and error nil after completion")
		}
		if job.Progress != 100 {
			t.Errorf("expected progress 100 on completion, got %d", job.Progress)
		}
	})

	t.Run("terminal state is frozen except metadata", func(t *testing.T) {
		job := newTestJob(t)
		failed := JobStatusFailed
		job.Apply(JobUpdate{Status: &failed, Error: &JobError{Message: "boom", Recoverable: true, RetryAfter: 60}})

		// A racing second terminal write must be a no-op.
		done := JobStatusCompleted
		changed := job.Apply(JobUpdate{Status: &done, Result: map[string]any{"x": 1}})
		if changed {
			t.Error("expected terminal update to report no change")
		}
		if job.Status != JobStatusFailed {
			t.Errorf("expected status to remain failed, got %s", job.Status)
		}
		if job.Result != nil {
			t.Error("expected result to remain nil on a failed job")
		}
		if job.Error == nil || !job.Error.Recoverable || job.Error.RetryAfter != 60 {
			t.Errorf("expected recoverable error with retry hint, got %+v", job.Error)
		}

		// Metadata appends are still allowed after the terminal transition.
		job.Apply(JobUpdate{Metadata: map[string]any{"total_processing_time_ms": 1234}})
		if job.Metadata["total_processing_time_ms"] != 1234 {
			t.Error("expected metadata merge on a terminal job")
		}
	})

	t.Run("failed transition without an error payload gets a generic one", func(t *testing.T) {
		job := newTestJob(t)
		failed := JobStatusFailed
		job.Apply(JobUpdate{Status: &failed})
		if job.Error == nil || job.Error.Message == "" {
			t.Fatalf("failed job must always carry an error, got %+v", job.Error)
		}
		if job.Result != nil {
			t.Error("failed job must not carry a result")
		}
	})

	t.Run("exactly one of result and error once terminal", func(t *testing.T) {
		job := newTestJob(t)
		st := JobStatusCompleted
		job.Apply(JobUpdate{Status: &st})
		if job.Result == nil {
			t.Error("expected an empty result map rather than nil on completion")
		}
		if job.Error != nil {
			t.Error("expected no error on a completed job")
		}
	})
}

func TestJobOwnership(t *testing.T) {
	job, _ := NewJob("job-1", ToolMath, JobInput{ContentType: "text", Source: "2+2"}, nil, "42")
	if job.OwnedBy("7") {
		t.Error("expected caller 7 to be rejected for job owned by 42")
	}
	if !job.OwnedBy("42") {
		t.Error("expected owner to pass the ownership check")
	}
	anon, _ := NewJob("job-2", ToolMath, JobInput{ContentType: "text", Source: "2+2"}, nil, "")
	if !anon.OwnedBy("") || !anon.OwnedBy("7") {
		t.Error("expected anonymous jobs to be readable by anyone")
	}
}

// --- AIResult Model Tests ---

func TestNewAIResult(t *testing.T) {
	res, err := NewAIResult("r-1", "u-1", ToolPresentation, "Q3 deck", JobInput{Prompt: "quarterly results"}, map[string]any{"slides": []any{}})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.Version != 1 {
		t.Errorf("expected initial version 1, got %d", res.Version)
	}
	if _, err := NewAIResult("", "u-1", ToolPresentation, "t", JobInput{}, nil); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for empty id, got %v", err)
	}
}
