// Package domain holds the analysis pipeline types shared by the repo, service and transport
package domain

import (
	"time"

	"satyanetra/internal/core/content"
	"satyanetra/internal/core/scoring"
)

// Status is where a submission is in the pipeline
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transition happens without a re-analysis
func (s Status) Terminal() bool { return s == StatusCompleted || s == StatusFailed }

// ReasonWithdrawn is the failure reason recorded when a submission is withdrawn
const ReasonWithdrawn = "content withdrawn"

// Record is the stored state of one analysis. Result is set only when Completed and is never
// mutated; a re-analysis replaces it with a new Result and bumps Revision.
type Record struct {
	ID           string          `json:"analysis_id"`
	Kind         content.Kind    `json:"kind"`
	Status       Status          `json:"status"`
	SourceHandle string          `json:"source_handle,omitempty"`
	SubmittedAt  time.Time       `json:"submitted_at"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
	Attempts     int             `json:"attempts"`
	Revision     int             `json:"revision"`
	Reason       string          `json:"reason,omitempty"`
	Result       *scoring.Result `json:"result,omitempty"`

	// Item is kept so a re-analysis can run without the caller resubmitting
	Item content.Item `json:"-"`
}

// Event is what the results stream carries
type Event struct {
	scoring.Result
	SourceHandle string `json:"source_handle,omitempty"`
	Revision     int    `json:"revision"`
}

// TextInput is the body of POST /analysis/text
type TextInput struct {
	Text         string `json:"text" validate:"required"`
	SourceHandle string `json:"source_handle,omitempty" validate:"omitempty,handle"`
}

// ImageInput is the body of POST /analysis/image; Data is base64 in JSON
type ImageInput struct {
	Data         []byte `json:"data" validate:"required"`
	ContentType  string `json:"content_type,omitempty"`
	Overlay      string `json:"overlay_text,omitempty" validate:"omitempty,max=4000"`
	SourceHandle string `json:"source_handle,omitempty" validate:"omitempty,handle"`
}

// Submitted acknowledges an accepted submission
type Submitted struct {
	ID          string       `json:"analysis_id"`
	Kind        content.Kind `json:"kind"`
	Status      Status       `json:"status"`
	SubmittedAt time.Time    `json:"submitted_at"`
}

// Counts summarizes the records held by a repo
type Counts struct {
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// Total is the number of records
func (c Counts) Total() int { return c.Pending + c.Completed + c.Failed }
