// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package models

import "time"

// Job statuses. A job is created pending and flips to completed when an
// uploader attaches a rendered video, or to failed. Both are terminal; the
// scheduler re-queues by creating new jobs, never by retrying old ones.
const (
	JobStatusPending   = "pending"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Workflow types describing who enqueued a job.
const (
	WorkflowExplorer  = "explorer"
	WorkflowExploiter = "exploiter"
	WorkflowMain      = "main"
	WorkflowWeb       = "web"
)

// MaxPromptLen caps prompt length for jobs, loop state entries, and
// interpretation rows.
const MaxPromptLen = 500

// Job is a unit of render work. Invariant: Status==completed implies
// R2Key is non-nil and resolves to a stored blob.
type Job struct {
	ID              string   `json:"id"`
	Prompt          string   `json:"prompt"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
	Status          string   `json:"status"`
	R2Key           *string  `json:"r2_key,omitempty"`
	WorkflowType    *string  `json:"workflow_type,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ValidWorkflowType reports whether wt is an accepted workflow_type value.
func ValidWorkflowType(wt string) bool {
	switch wt {
	case WorkflowExplorer, WorkflowExploiter, WorkflowMain, WorkflowWeb:
		return true
	}
	return false
}

// Feedback is a per-job thumbs rating: 1=down, 2=up. Unique on JobID (upsert).
type Feedback struct {
	JobID     string    `json:"job_id"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}
