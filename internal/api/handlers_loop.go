// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package api

import (
	"errors"
	"fmt"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/motionprod/motion-productions/internal/kv"
	"github.com/motionprod/motion-productions/internal/metrics"
	"github.com/motionprod/motion-productions/internal/models"
	"github.com/motionprod/motion-productions/internal/validation"
)

func (s *Server) loadLoopConfig() models.LoopConfig {
	cfg := models.DefaultLoopConfig()
	raw, err := s.kv.Get(kv.LoopConfigKey)
	if err == nil {
		_ = json.Unmarshal(raw, &cfg)
	}
	return cfg
}

func (s *Server) loadLoopState() models.LoopState {
	var state models.LoopState
	raw, err := s.kv.Get(kv.LoopStateKey)
	if err == nil {
		_ = json.Unmarshal(raw, &state)
	}
	return state
}

// respondRateLimited renders the KV write budget violation.
func respondRateLimited(w http.ResponseWriter) {
	w.Header().Set("Retry-After", fmt.Sprintf("%d", int(kv.RetryAfter.Seconds())))
	respondError(w, http.StatusTooManyRequests, "rate limited", "state writes are limited to 1/s")
}

func (s *Server) handleGetLoopConfig(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.loadLoopConfig())
}

// handleSetLoopConfig merge-patches the loop config: only fields present in
// the request body change.
func (s *Server) handleSetLoopConfig(w http.ResponseWriter, r *http.Request) {
	cfg := s.loadLoopConfig()
	if err := decodeJSON(w, r, &cfg, 1<<16); err != nil {
		return
	}
	if verr := validation.ValidateStruct(&cfg); verr != nil {
		respondValidationError(w, verr)
		return
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to encode config", err.Error())
		return
	}
	if err := s.kv.Set(kv.LoopConfigKey, raw, 0); err != nil {
		if errors.Is(err, kv.ErrRateLimited) {
			respondRateLimited(w)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to save config", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleGetLoopState(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.loadLoopState())
}

// handleSetLoopState replaces the loop state blob wholesale. The version
// field is monotonic: a write that moves it backward is rejected, defending
// against a second accidental writer.
func (s *Server) handleSetLoopState(w http.ResponseWriter, r *http.Request) {
	var state models.LoopState
	if err := decodeJSON(w, r, &state, s.cfg.API.MaxUploadBytes); err != nil {
		return
	}

	current := s.loadLoopState()
	if state.Version < current.Version {
		respondError(w, http.StatusConflict, "stale state version",
			fmt.Sprintf("stored version %d, submitted %d", current.Version, state.Version))
		return
	}
	state.Clamp()

	raw, err := json.Marshal(state)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to encode state", err.Error())
		return
	}
	if err := s.kv.Set(kv.LoopStateKey, raw, 0); err != nil {
		if errors.Is(err, kv.ErrRateLimited) {
			respondRateLimited(w)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to save state", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleLoopStatus(w http.ResponseWriter, r *http.Request) {
	recent, err := s.db.ListJobs(r.Context(), models.JobStatusCompleted, 10, 0)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	views := make([]*jobResponse, 0, len(recent))
	for _, job := range recent {
		views = append(views, s.jobView(job))
	}
	learningTotal, err := s.db.CountLearningRuns(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	discoveryTotal, err := s.db.CountDiscoveryRuns(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"config":         s.loadLoopConfig(),
		"state":          s.loadLoopState(),
		"recent_runs":    views,
		"learning_runs":  learningTotal,
		"discovery_runs": discoveryTotal,
	})
}

// loopProgressResponse bundles the learning projection with the coverage
// snapshot so one poll answers the whole dashboard headline.
type loopProgressResponse struct {
	PrecisionPct     float64 `json:"precision_pct"`
	DiscoveryRatePct float64 `json:"discovery_rate_pct"`
	RepetitionScore  float64 `json:"repetition_score"`
	TargetPct        float64 `json:"target_pct"`
	TotalRuns        int     `json:"total_runs"`
	Coverage         any     `json:"coverage"`
}

func (s *Server) handleLoopProgress(w http.ResponseWriter, r *http.Request) {
	lastN := queryInt(r, "last", 20, 100)

	// Serve the 60s snapshot when the window matches the cached one.
	cacheKey := fmt.Sprintf("%s:%d", kv.LearningStatsKey, lastN)
	if raw, err := s.kv.Get(cacheKey); err == nil {
		var cached loopProgressResponse
		if json.Unmarshal(raw, &cached) == nil {
			respondJSON(w, http.StatusOK, cached)
			return
		}
	}

	prog, err := s.db.GetProgress(r.Context(), lastN)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	cov, err := s.db.GetCoverage(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}

	resp := loopProgressResponse{
		PrecisionPct:     prog.PrecisionPct,
		DiscoveryRatePct: prog.DiscoveryRatePct,
		RepetitionScore:  prog.RepetitionScore,
		TargetPct:        prog.TargetPct,
		TotalRuns:        prog.TotalRuns,
		Coverage:         cov,
	}
	metrics.SetLearningStats(prog.TotalRuns, prog.PrecisionPct, prog.DiscoveryRatePct)

	if raw, err := json.Marshal(resp); err == nil {
		// Best effort; a rate-limited cache write is fine.
		_ = s.kv.Set(cacheKey, raw, kv.LearningStatsTTL)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLoopDiagnostics(w http.ResponseWriter, r *http.Request) {
	lastN := queryInt(r, "last", 20, 50)
	diags, err := s.db.GetDiagnostics(r.Context(), lastN)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"jobs": diags, "count": len(diags)})
}
