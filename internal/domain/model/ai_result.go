package model

import (
	"time"

	"ai-tools-platform/internal/domain"
)

// AIResult is the durable artifact persisted when a tool invocation
// completes. Jobs are ephemeral; downstream screens fetch and edit the
// AIResult referenced from the job's result payload.
type AIResult struct {
	ID          string
	UserID      string
	ToolType    ToolType
	Title       string
	Description string
	Input       JobInput // snapshot of what produced this artifact
	ResultData  map[string]any
	Metadata    map[string]any
	FileRef     string // optional rendered-artifact reference (e.g. export file)
	Version     int    // bumped on every edit; part of export fingerprints
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewAIResult(id, userID string, toolType ToolType, title string, input JobInput, data map[string]any) (*AIResult, error) {
	if id == "" || toolType == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &AIResult{
		ID:         id,
		UserID:     userID,
		ToolType:   toolType,
		Title:      title,
		Input:      input,
		ResultData: data,
		Metadata:   map[string]any{},
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}
