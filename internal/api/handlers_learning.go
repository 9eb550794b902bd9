// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package api

import (
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/motionprod/motion-productions/internal/models"
)

type createLearningRequest struct {
	JobID    *string `json:"job_id,omitempty"`
	Prompt   string  `json:"prompt"`
	Spec     string  `json:"spec"`
	Analysis string  `json:"analysis"`
}

func (s *Server) handleCreateLearningRun(w http.ResponseWriter, r *http.Request) {
	var req createLearningRequest
	if err := decodeJSON(w, r, &req, 4<<20); err != nil {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		respondError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	run, err := s.db.InsertLearningRun(r.Context(), req.JobID, req.Prompt, req.Spec, req.Analysis)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, run)
}

func (s *Server) handleListLearningRuns(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50, 500)
	runs, err := s.db.ListLearningRuns(r.Context(), limit, queryInt(r, "offset", 0, 1<<30))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"runs": runs, "count": len(runs)})
}

// Payload is opaque to the server: objects, arrays, and bare strings are
// all stored verbatim.
type createEventRequest struct {
	EventType string          `json:"event_type"`
	JobID     *string         `json:"job_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := decodeJSON(w, r, &req, 1<<20); err != nil {
		return
	}
	if !models.ValidEventType(req.EventType) {
		respondError(w, http.StatusBadRequest, "invalid event_type")
		return
	}

	ev, err := s.db.InsertEvent(r.Context(), req.EventType, req.JobID, string(req.Payload))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, ev)
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	eventType := r.URL.Query().Get("type")
	if eventType != "" && !models.ValidEventType(eventType) {
		respondError(w, http.StatusBadRequest, "invalid event type filter")
		return
	}

	limit := queryInt(r, "limit", 100, 1000)
	events, err := s.db.ListEvents(r.Context(), eventType, limit, queryInt(r, "offset", 0, 1<<30))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
}
