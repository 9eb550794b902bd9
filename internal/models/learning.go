// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package models

import "time"

// LearningRun records one interpret -> generate -> analyze pass. Immutable
// once inserted. Spec and Analysis are opaque serialized JSON from the
// renderer worker.
type LearningRun struct {
	ID        int64     `json:"id"`
	JobID     *string   `json:"job_id,omitempty"`
	Prompt    string    `json:"prompt"`
	Spec      string    `json:"spec"`
	Analysis  string    `json:"analysis"`
	CreatedAt time.Time `json:"created_at"`
}

// DiscoveryRun records that a discoveries batch was attempted for a job,
// even when every category accepted zero items. Diagnostics use it to tell
// "attempted" apart from "never tried".
type DiscoveryRun struct {
	ID           int64     `json:"id"`
	JobID        string    `json:"job_id"`
	ResultsJSON  string    `json:"results_json"`
	TotalWritten int       `json:"total_written"`
	CreatedAt    time.Time `json:"created_at"`
}

// Event types accepted by POST /events.
const (
	EventPromptSubmitted = "prompt_submitted"
	EventJobCompleted    = "job_completed"
	EventVideoPlayed     = "video_played"
	EventVideoAbandoned  = "video_abandoned"
	EventDownloadClicked = "download_clicked"
	EventError           = "error"
	EventFeedback        = "feedback"
)

// Event is an append-only activity record with an opaque payload.
type Event struct {
	ID        int64     `json:"id"`
	EventType string    `json:"event_type"`
	JobID     *string   `json:"job_id,omitempty"`
	Payload   string    `json:"payload,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidEventType reports whether t is in the allowed event type set.
func ValidEventType(t string) bool {
	switch t {
	case EventPromptSubmitted, EventJobCompleted, EventVideoPlayed,
		EventVideoAbandoned, EventDownloadClicked, EventError, EventFeedback:
		return true
	}
	return false
}

// Interpretation sources.
const (
	InterpSourceWeb      = "web"
	InterpSourceWorker   = "worker"
	InterpSourceLoop     = "loop"
	InterpSourceBackfill = "backfill"
)

// Interpretation statuses.
const (
	InterpStatusPending = "pending"
	InterpStatusDone    = "done"
)

// Interpretation maps a prompt to a structured instruction. Pending rows form
// the interpretation queue; the queue is prioritized web > others, then
// created_at ascending.
type Interpretation struct {
	ID          string    `json:"id"`
	Prompt      string    `json:"prompt"`
	Instruction *string   `json:"instruction,omitempty"`
	Source      string    `json:"source"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LinguisticVariant maps a surface span to its canonical term within a
// domain. Unique on (span, domain); duplicate writes increment Count.
type LinguisticVariant struct {
	ID          int64     `json:"id"`
	Span        string    `json:"span"`
	Canonical   string    `json:"canonical"`
	Domain      string    `json:"domain"`
	VariantType string    `json:"variant_type"`
	Count       int       `json:"count"`
	CreatedAt   time.Time `json:"created_at"`
}
