// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package api

import (
	"context"
	"net/http"

	"github.com/motionprod/motion-productions/internal/models"
)

// handleKnowledgeForCreation serves the creation-side view the renderer and
// loop read before synthesizing a new video: everything learned so far plus
// the canonical origin lists.
func (s *Server) handleKnowledgeForCreation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const limit = 500

	colors, err := s.db.ListBlends(ctx, "color", limit, 0)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	learnedColors := make(map[string]*models.Blend, len(colors))
	for _, b := range colors {
		learnedColors[b.ProfileKey] = b
	}

	motion, err := s.db.ListBlends(ctx, "motion", limit, 0)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	audio, err := s.db.ListBlends(ctx, "audio_semantic", limit, 0)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	fallbacks, err := s.db.ListLearnedBlends(ctx, limit, 0)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	gradient, err := s.unionWithFallbacks(ctx, "gradient", fallbacks, limit)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	camera, err := s.unionWithFallbacks(ctx, "camera", fallbacks, limit)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	learnedAudio := make([]*models.Blend, 0, len(audio))
	learnedAudio = append(learnedAudio, audio...)
	for _, lb := range fallbacks {
		if lb.Domain == "audio" || lb.Domain == "audio_semantic" {
			learnedAudio = append(learnedAudio, &models.Blend{
				Domain: "audio_semantic", ProfileKey: lb.Name, Name: lb.Name, Count: 1,
			})
		}
	}

	interps, err := s.db.ListInterpretations(ctx, "", limit, 0)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	prompts := make([]string, 0, len(interps))
	for _, in := range interps {
		prompts = append(prompts, in.Prompt)
	}

	staticColors, err := s.db.ListStaticColors(ctx, limit, 0)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	staticSounds, err := s.db.ListStaticSounds(ctx, limit, 0)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"learned_colors":         learnedColors,
		"learned_motion":         motion,
		"learned_audio":          learnedAudio,
		"learned_gradient":       gradient,
		"learned_camera":         camera,
		"origin_gradient":        models.OriginGradient,
		"origin_camera":          models.OriginCamera,
		"origin_motion":          models.OriginMotion,
		"interpretation_prompts": prompts,
		"static_colors":          staticColors,
		"static_sound":           staticSounds,
	})
}

// unionWithFallbacks merges a domain table with fallback blends of the same
// domain, de-duplicated by name.
func (s *Server) unionWithFallbacks(ctx context.Context, domain string, fallbacks []*models.LearnedBlend, limit int) ([]*models.Blend, error) {
	rows, err := s.db.ListBlends(ctx, domain, limit, 0)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(rows))
	out := make([]*models.Blend, 0, len(rows))
	for _, b := range rows {
		seen[b.Name] = true
		out = append(out, b)
	}
	for _, lb := range fallbacks {
		if lb.Domain != domain || seen[lb.Name] {
			continue
		}
		seen[lb.Name] = true
		out = append(out, &models.Blend{
			Domain: domain, ProfileKey: lb.Name, Name: lb.Name, Count: 1,
		})
	}
	return out, nil
}
