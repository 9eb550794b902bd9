// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/motionprod/motion-productions/internal/database"
	"github.com/motionprod/motion-productions/internal/models"
	"github.com/motionprod/motion-productions/internal/namegen"
)

// maxBatchInterpretations caps one POST /interpretations/batch request.
const maxBatchInterpretations = 50

func validInterpSource(s string) bool {
	switch s {
	case models.InterpSourceWeb, models.InterpSourceWorker,
		models.InterpSourceLoop, models.InterpSourceBackfill:
		return true
	}
	return false
}

type enqueueInterpRequest struct {
	Prompt string `json:"prompt"`
	Source string `json:"source,omitempty"`
}

func (s *Server) handleEnqueueInterpretation(w http.ResponseWriter, r *http.Request) {
	var req enqueueInterpRequest
	if err := decodeJSON(w, r, &req, 1<<20); err != nil {
		return
	}
	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Prompt == "" {
		respondError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	if req.Source == "" {
		req.Source = models.InterpSourceWeb
	}
	if !validInterpSource(req.Source) {
		respondError(w, http.StatusBadRequest, "invalid source")
		return
	}

	in, err := s.db.EnqueueInterpretation(r.Context(), uuid.New().String(), req.Prompt, req.Source)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, in)
}

// handleNextInterpretation hands the interpretation worker the next pending
// prompt: web submissions first, then oldest-first.
func (s *Server) handleNextInterpretation(w http.ResponseWriter, r *http.Request) {
	in, err := s.db.NextPendingInterpretation(r.Context())
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "queue empty")
		return
	}
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, in)
}

type patchInterpRequest struct {
	Instruction string `json:"instruction"`
}

func (s *Server) handlePatchInterpretation(w http.ResponseWriter, r *http.Request) {
	var req patchInterpRequest
	if err := decodeJSON(w, r, &req, 4<<20); err != nil {
		return
	}
	if strings.TrimSpace(req.Instruction) == "" {
		respondError(w, http.StatusBadRequest, "instruction is required")
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.db.CompleteInterpretation(r.Context(), id, req.Instruction); err != nil {
		respondStoreError(w, err)
		return
	}
	in, err := s.db.GetInterpretation(r.Context(), id)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, in)
}

type interpItem struct {
	Prompt      string `json:"prompt"`
	Instruction string `json:"instruction,omitempty"`
	Source      string `json:"source,omitempty"`
}

// storeInterpretation writes one done-status interpretation.
func (s *Server) storeInterpretation(r *http.Request, item interpItem) (*models.Interpretation, error) {
	in, err := s.db.EnqueueInterpretation(r.Context(), uuid.New().String(), item.Prompt, item.Source)
	if err != nil {
		return nil, err
	}
	if err := s.db.CompleteInterpretation(r.Context(), in.ID, item.Instruction); err != nil {
		return nil, err
	}
	return s.db.GetInterpretation(r.Context(), in.ID)
}

// handleCreateInterpretation stores one interpretation with status=done.
// Gibberish prompts are rejected unless they come from the loop, which is
// allowed to experiment.
func (s *Server) handleCreateInterpretation(w http.ResponseWriter, r *http.Request) {
	var item interpItem
	if err := decodeJSON(w, r, &item, 4<<20); err != nil {
		return
	}
	item.Prompt = strings.TrimSpace(item.Prompt)
	if item.Prompt == "" {
		respondError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	if item.Source == "" {
		item.Source = models.InterpSourceWorker
	}
	if !validInterpSource(item.Source) {
		respondError(w, http.StatusBadRequest, "invalid source")
		return
	}
	if item.Source != models.InterpSourceLoop && namegen.IsGibberishPrompt(item.Prompt, true) {
		respondError(w, http.StatusBadRequest, "gibberish prompt rejected")
		return
	}

	in, err := s.storeInterpretation(r, item)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, in)
}

type batchInterpRequest struct {
	Items []interpItem `json:"items"`
}

// handleBatchInterpretations stores up to 50 done-status interpretations.
// Gibberish items are skipped silently rather than failing the batch.
func (s *Server) handleBatchInterpretations(w http.ResponseWriter, r *http.Request) {
	var req batchInterpRequest
	if err := decodeJSON(w, r, &req, 8<<20); err != nil {
		return
	}
	if len(req.Items) == 0 {
		respondError(w, http.StatusBadRequest, "items is required")
		return
	}
	if len(req.Items) > maxBatchInterpretations {
		respondError(w, http.StatusBadRequest, "too many items",
			"maximum batch size is 50")
		return
	}

	written, skipped := 0, 0
	for _, item := range req.Items {
		item.Prompt = strings.TrimSpace(item.Prompt)
		if item.Prompt == "" {
			skipped++
			continue
		}
		if item.Source == "" {
			item.Source = models.InterpSourceWorker
		}
		if !validInterpSource(item.Source) {
			skipped++
			continue
		}
		if item.Source != models.InterpSourceLoop && namegen.IsGibberishPrompt(item.Prompt, true) {
			skipped++
			continue
		}
		if _, err := s.storeInterpretation(r, item); err != nil {
			respondStoreError(w, err)
			return
		}
		written++
	}
	respondJSON(w, http.StatusCreated, map[string]int{"written": written, "skipped": skipped})
}

type linguisticItem struct {
	Span        string `json:"span"`
	Canonical   string `json:"canonical,omitempty"`
	Domain      string `json:"domain"`
	VariantType string `json:"variant_type,omitempty"`
}

type linguisticBatchRequest struct {
	Items []linguisticItem `json:"items"`
}

// handleLinguisticBatch lets the interpretation worker record span→canonical
// mappings it encountered. Duplicate (span, domain) pairs increment counts.
func (s *Server) handleLinguisticBatch(w http.ResponseWriter, r *http.Request) {
	var req linguisticBatchRequest
	if err := decodeJSON(w, r, &req, 4<<20); err != nil {
		return
	}
	if len(req.Items) == 0 {
		respondError(w, http.StatusBadRequest, "items is required")
		return
	}

	written, skipped := 0, 0
	for _, item := range req.Items {
		span := strings.ToLower(strings.TrimSpace(item.Span))
		domain := strings.ToLower(strings.TrimSpace(item.Domain))
		if span == "" || domain == "" {
			skipped++
			continue
		}
		lv := &models.LinguisticVariant{
			Span: span, Canonical: item.Canonical,
			Domain: domain, VariantType: item.VariantType,
		}
		err := s.db.UpsertLinguisticVariant(r.Context(), lv)
		if errors.Is(err, database.ErrTableAbsent) {
			skipped++
			continue
		}
		if err != nil {
			respondStoreError(w, err)
			return
		}
		written++
	}
	respondJSON(w, http.StatusCreated, map[string]int{"written": written, "skipped": skipped})
}

func (s *Server) handleListInterpretations(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && status != models.InterpStatusPending && status != models.InterpStatusDone {
		respondError(w, http.StatusBadRequest, "invalid status filter")
		return
	}
	limit := queryInt(r, "limit", 100, 500)
	items, err := s.db.ListInterpretations(r.Context(), status, limit, queryInt(r, "offset", 0, 1<<30))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"interpretations": items, "count": len(items)})
}
