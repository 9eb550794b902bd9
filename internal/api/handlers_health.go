// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package api

import (
	"context"
	"net/http"
	"time"
)

// handleHealth answers the service identity probe.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"service": "motion-productions",
	})
}

// handleLive reports process liveness only.
func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "alive"})
}

// handleReady reports readiness by touching the required job table.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := s.db.CountJobs(ctx, ""); err != nil {
		respondError(w, http.StatusServiceUnavailable, "store not ready", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"tables": s.db.Features(),
	})
}
