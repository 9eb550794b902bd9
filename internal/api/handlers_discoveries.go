// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/motionprod/motion-productions/internal/database"
	"github.com/motionprod/motion-productions/internal/depth"
	"github.com/motionprod/motion-productions/internal/logging"
	"github.com/motionprod/motion-productions/internal/metrics"
	"github.com/motionprod/motion-productions/internal/models"
	"github.com/motionprod/motion-productions/internal/namegen"
)

// discoveryRun carries the per-request budget and tallies for one
// POST /knowledge/discoveries call.
type discoveryRun struct {
	srv       *Server
	results   models.DiscoveryResults
	inserts   int
	truncated bool
	seenNames map[string]bool
}

// errBudgetExhausted stops the processing loop when the insert cap trips.
// Not an error condition for the caller; the response carries truncated:true.
var errBudgetExhausted = errors.New("discovery insert budget exhausted")

// reserveInsert charges one new-row insert against the per-request cap.
// Increments of existing rows are cheap (no allocation, no reserve write)
// and do not consume budget; only inserts do, at ~3 store queries each.
func (d *discoveryRun) reserveInsert() error {
	if d.inserts >= models.MaxDiscoveryItems {
		d.truncated = true
		return errBudgetExhausted
	}
	d.inserts++
	return nil
}

func (d *discoveryRun) count(category string) {
	d.results[category]++
	metrics.RecordDiscovery(category)
}

// handleDiscoveries is the hot write path. Items are processed in category
// order until the 14-item cap; a mid-loop store error short-circuits with
// the partial results so the caller can retry the remainder.
func (s *Server) handleDiscoveries(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r, 8<<20)
	if err != nil {
		return
	}

	// Reject unknown top-level categories instead of dropping them: a typo'd
	// key would otherwise 201 and the discoveries would be lost.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body", err.Error())
		return
	}
	for key := range raw {
		if !models.ValidDiscoveryCategory(key) {
			respondError(w, http.StatusBadRequest, "unknown discovery category", key)
			return
		}
	}

	var batch models.DiscoveryBatch
	if err := json.Unmarshal(body, &batch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body", err.Error())
		return
	}
	for aspect := range batch.Narrative {
		if !models.ValidNarrativeAspect(strings.ToLower(strings.TrimSpace(aspect))) {
			respondError(w, http.StatusBadRequest, "unknown narrative aspect", aspect)
			return
		}
	}

	run := &discoveryRun{
		srv:       s,
		results:   models.DiscoveryResults{},
		seenNames: make(map[string]bool),
	}

	err = run.process(r.Context(), &batch)
	if errors.Is(err, errBudgetExhausted) {
		err = nil
	}

	// Record the attempt for diagnostics even on zero writes or failure.
	if batch.JobID != nil && *batch.JobID != "" {
		resultsJSON, _ := json.Marshal(run.results)
		if dbErr := s.db.InsertDiscoveryRun(r.Context(), *batch.JobID, string(resultsJSON), run.results.Total()); dbErr != nil {
			logging.Warn().Err(dbErr).Str("job_id", *batch.JobID).Msg("Failed to record discovery run")
		}
	}

	if err != nil {
		logging.Error().Err(err).Msg("Discovery batch failed mid-loop")
		respondJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "discovery processing failed",
			"details": err.Error(),
			"results": run.results,
		})
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"results":   run.results,
		"total":     run.results.Total(),
		"truncated": run.truncated,
	})
}

// blendCategories maps request arrays to their domains in processing order.
func blendCategories(b *models.DiscoveryBatch) []struct {
	category, domain string
	items            []models.BlendItem
} {
	return []struct {
		category, domain string
		items            []models.BlendItem
	}{
		{"colors", "color", b.Colors},
		{"motion", "motion", b.Motion},
		{"lighting", "lighting", b.Lighting},
		{"composition", "composition", b.Composition},
		{"graphics", "graphics", b.Graphics},
		{"temporal", "temporal", b.Temporal},
		{"technical", "technical", b.Technical},
		{"audio_semantic", "audio_semantic", b.AudioSemantic},
		{"time", "time", b.Time},
		{"gradient", "gradient", b.Gradient},
		{"camera", "camera", b.Camera},
		{"transition", "transition", b.Transition},
		{"depth", "depth", b.Depth},
	}
}

func (d *discoveryRun) process(ctx context.Context, batch *models.DiscoveryBatch) error {
	for _, item := range batch.StaticColors {
		if err := d.staticColor(ctx, item); err != nil {
			return err
		}
	}
	for _, item := range batch.StaticSound {
		if err := d.staticSound(ctx, item); err != nil {
			return err
		}
	}
	for _, group := range blendCategories(batch) {
		for _, item := range group.items {
			if err := d.blend(ctx, group.category, group.domain, item); err != nil {
				return err
			}
		}
	}
	for _, item := range batch.Blends {
		if err := d.blendFallback(ctx, item); err != nil {
			return err
		}
	}
	for aspect, items := range batch.Narrative {
		aspect = strings.ToLower(strings.TrimSpace(aspect))
		for _, item := range items {
			// Empty entry keys are skipped without spending budget.
			key := strings.ToLower(strings.TrimSpace(item.Key))
			if key == "" {
				continue
			}
			if err := d.narrative(ctx, aspect, key, item); err != nil {
				return err
			}
		}
	}
	return nil
}

// colorName picks a semantic name for a new color row: the deterministic RGB
// family word when free, otherwise a freshly reserved allocator name.
func (d *discoveryRun) colorName(ctx context.Context, r, g, b int) (string, error) {
	name := namegen.RGBToSemanticColorName(r, g, b, d.seenNames)
	taken, err := d.srv.db.NameInUse(ctx, name)
	if err != nil {
		return "", err
	}
	if !taken {
		if err := d.srv.db.ReserveName(ctx, name); err == nil {
			d.seenNames[name] = true
			return name, nil
		}
		// Lost the reserve race; fall through to the allocator.
	}
	d.seenNames[name] = true
	return d.srv.alloc.ReserveUniqueName(ctx)
}

func (d *discoveryRun) staticColor(ctx context.Context, item models.StaticColorItem) error {
	key, r, g, b, keyOpacity, err := depth.CanonicalColorKey(item.Key)
	if err != nil {
		logging.Debug().Str("key", item.Key).Err(err).Msg("Skipping malformed color key")
		return nil
	}
	if item.R != nil && item.G != nil && item.B != nil {
		r, g, b = *item.R, *item.G, *item.B
	}

	split := depth.SplitBreakdown(item.Breakdown)
	if len(split.Depth) == 0 {
		split.Depth = depth.LuminanceBreakdown(r, g, b)
	}
	opacity := split.Opacity
	if keyOpacity != nil {
		opacity = keyOpacity
	}

	_, err = d.srv.db.GetStaticColorByKey(ctx, key)
	switch {
	case err == nil:
		if _, err := d.srv.db.IncrementStaticColor(ctx, key); err != nil {
			return err
		}
		if len(item.Breakdown) > 0 {
			if err := d.srv.db.UpdateStaticColorBreakdown(ctx, key, split.Depth, split.Theme, opacity); err != nil {
				return err
			}
		}
		d.count("static_colors")
		return nil
	case errors.Is(err, database.ErrNotFound):
		// New key; fall through to insert.
	default:
		return err
	}

	if err := d.reserveInsert(); err != nil {
		return err
	}
	name := item.Name
	if name == "" {
		if name, err = d.colorName(ctx, r, g, b); err != nil {
			return err
		}
	}

	sc := &models.StaticColor{
		Key: key, R: r, G: g, B: b, Name: name,
		DepthBreakdown: split.Depth,
		ThemeBreakdown: split.Theme,
		OpacityPct:     opacity,
	}
	err = d.srv.db.InsertStaticColor(ctx, sc)
	if errors.Is(err, database.ErrDuplicate) {
		// Lost the insert race; another writer owns the row now.
		if _, err := d.srv.db.IncrementStaticColor(ctx, key); err != nil {
			return err
		}
	} else if errors.Is(err, database.ErrTableAbsent) {
		return nil
	} else if err != nil {
		return err
	}
	d.count("static_colors")
	return nil
}

func (d *discoveryRun) staticSound(ctx context.Context, item models.StaticSoundItem) error {
	key := strings.TrimSpace(item.Key)
	if key == "" {
		return nil
	}

	_, err := d.srv.db.GetStaticSoundByKey(ctx, key)
	switch {
	case err == nil:
		if _, err := d.srv.db.IncrementStaticSound(ctx, key); err != nil {
			return err
		}
		d.count("static_sound")
		return nil
	case errors.Is(err, database.ErrNotFound):
	default:
		return err
	}

	if err := d.reserveInsert(); err != nil {
		return err
	}
	name := item.Name
	if name == "" {
		if name, err = d.srv.alloc.ReserveUniqueName(ctx); err != nil {
			return err
		}
	}

	breakdown, _ := depth.FlattenDepths(item.Breakdown)
	ss := &models.StaticSound{
		Key: key, Amplitude: item.Amplitude, StrengthPct: item.StrengthPct,
		Tone: item.Tone, Timbre: item.Timbre, Name: name,
		DepthBreakdown: breakdown,
	}
	err = d.srv.db.InsertStaticSound(ctx, ss)
	if errors.Is(err, database.ErrDuplicate) {
		if _, err := d.srv.db.IncrementStaticSound(ctx, key); err != nil {
			return err
		}
	} else if errors.Is(err, database.ErrTableAbsent) {
		return nil
	} else if err != nil {
		return err
	}
	d.count("static_sound")
	return nil
}

func (d *discoveryRun) blend(ctx context.Context, category, domain string, item models.BlendItem) error {
	key := strings.TrimSpace(item.ProfileKey)
	if key == "" {
		return nil
	}

	_, err := d.srv.db.GetBlendByKey(ctx, domain, key)
	switch {
	case err == nil:
		if _, err := d.srv.db.IncrementBlend(ctx, domain, key, item.SourcePrompt); err != nil {
			return err
		}
		d.count(category)
		return nil
	case errors.Is(err, database.ErrNotFound):
	default:
		return err
	}

	if err := d.reserveInsert(); err != nil {
		return err
	}
	name := item.Name
	if name == "" {
		if name, err = d.srv.alloc.ReserveUniqueName(ctx); err != nil {
			return err
		}
	}

	depths, depthPct := depth.FlattenDepths(item.Depths)
	var extra string
	if len(item.Profile) > 0 {
		if raw, err := json.Marshal(item.Profile); err == nil {
			extra = string(raw)
		}
	}
	var sources []string
	if item.SourcePrompt != "" {
		sources = []string{item.SourcePrompt}
	}

	b := &models.Blend{
		Domain: domain, ProfileKey: key, Name: name,
		Sources: sources, DepthBreakdown: depths, DepthPct: depthPct, Extra: extra,
	}
	err = d.srv.db.InsertBlend(ctx, b)
	if errors.Is(err, database.ErrDuplicate) {
		if _, err := d.srv.db.IncrementBlend(ctx, domain, key, item.SourcePrompt); err != nil {
			return err
		}
	} else if errors.Is(err, database.ErrTableAbsent) {
		return nil
	} else if err != nil {
		return err
	}
	d.count(category)
	return nil
}

// blendFallback always inserts: fallback blends are point observations, not
// equivalence classes, so there is nothing to deduplicate. Only the name
// needs resolving.
func (d *discoveryRun) blendFallback(ctx context.Context, item models.BlendFallbackItem) error {
	if err := d.reserveInsert(); err != nil {
		return err
	}
	base := strings.TrimSpace(item.Name)
	var err error
	if base == "" {
		if base, err = d.srv.alloc.ReserveUniqueName(ctx); err != nil {
			return err
		}
	}
	name, err := d.srv.alloc.ResolveUniqueBlendName(ctx, base)
	if err != nil {
		return err
	}

	lb := &models.LearnedBlend{
		Name:   name,
		Domain: item.Domain,
	}
	if item.Inputs != nil {
		if raw, err := json.Marshal(item.Inputs); err == nil {
			lb.InputsJSON = string(raw)
		}
	}
	if item.Output != nil {
		if raw, err := json.Marshal(item.Output); err == nil {
			lb.OutputJSON = string(raw)
		}
	}
	if len(item.PrimitiveDepths) > 0 {
		flat, _ := depth.FlattenDepths(item.PrimitiveDepths)
		if raw, err := json.Marshal(flat); err == nil {
			lb.PrimitiveDepths = string(raw)
		}
	}

	err = d.srv.db.InsertLearnedBlend(ctx, lb)
	if errors.Is(err, database.ErrDuplicate) {
		// Name collided after all; retry once with a numeric suffix.
		lb.Name, err = d.srv.alloc.ResolveUniqueBlendName(ctx, fmt.Sprintf("%s2", name))
		if err != nil {
			return err
		}
		if err := d.srv.db.InsertLearnedBlend(ctx, lb); err != nil &&
			!errors.Is(err, database.ErrTableAbsent) {
			return err
		}
	} else if errors.Is(err, database.ErrTableAbsent) {
		return nil
	} else if err != nil {
		return err
	}
	d.count("blends")
	return nil
}

func (d *discoveryRun) narrative(ctx context.Context, aspect, key string, item models.NarrativeItem) error {
	value := item.Value
	if value == "" {
		value = key
	}
	ne := &models.NarrativeEntry{
		Aspect: aspect, EntryKey: key, Value: value, Name: item.Name,
	}
	_, inserted, err := d.srv.db.UpsertNarrativeEntry(ctx, ne)
	if errors.Is(err, database.ErrTableAbsent) {
		return nil
	}
	if err != nil {
		return err
	}
	if inserted {
		// Upserts can't be pre-charged; charge after the fact. The next
		// insert attempt sees the spent budget.
		if err := d.reserveInsert(); errors.Is(err, errBudgetExhausted) {
			d.count("narrative")
			return err
		}
	}
	d.count("narrative")
	return nil
}
