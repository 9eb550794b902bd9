// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package api

import (
	"net/http"
	"strings"

	"github.com/motionprod/motion-productions/internal/depth"
	"github.com/motionprod/motion-productions/internal/models"
)

// registryEntry is the uniform row shape of the composite registries view.
type registryEntry struct {
	Key            string             `json:"key"`
	Name           string             `json:"name"`
	Count          int                `json:"count"`
	DepthPct       float64            `json:"depth_pct"`
	DepthBreakdown map[string]float64 `json:"depth_breakdown,omitempty"`
	OpacityPct     *float64           `json:"opacity_pct,omitempty"`
	Value          string             `json:"value,omitempty"`
}

// narrativeTypoFixes corrects misspellings that leaked into early narrative
// rows before input normalization existed.
var narrativeTypoFixes = map[string]string{
	"melancholly": "melancholy",
	"mysterius":   "mysterious",
	"futurisitc":  "futuristic",
	"enviroment":  "environment",
	"transiton":   "transition",
}

// nameDeduper appends " (key)" to display names already used by another row
// so the UI never shows two identical labels.
type nameDeduper struct {
	seen map[string]bool
}

func newNameDeduper() *nameDeduper {
	return &nameDeduper{seen: make(map[string]bool)}
}

func (d *nameDeduper) resolve(name, key string) string {
	if name == "" {
		name = key
	}
	if d.seen[name] {
		name = name + " (" + key + ")"
	}
	d.seen[name] = true
	return name
}

// narrativeLowCountThreshold: below this count a narrative row displays its
// raw value; the curated name only takes over once the entry is established.
const narrativeLowCountThreshold = 5

func (s *Server) handleRegistries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := queryInt(r, "limit", 200, 500)
	dedup := newNameDeduper()

	out := map[string]any{
		"static_primitives": map[string]any{
			"colors": models.ColorPrimitives,
			"sound":  models.SoundPrimitives,
		},
		"dynamic_canonical": map[string]any{
			"gradient_type": models.OriginGradient,
			"camera_motion": models.OriginCamera,
			"motion":        models.OriginMotion,
			"sound":         models.OriginSound,
		},
	}

	// Pure tier.
	staticColors, err := s.db.ListStaticColors(ctx, limit, 0)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	colorEntries := make([]registryEntry, 0, len(staticColors))
	for _, sc := range staticColors {
		entry := registryEntry{
			Key:            normalizeColorKey(sc.Key),
			Count:          sc.Count,
			DepthBreakdown: sc.DepthBreakdown,
			OpacityPct:     sc.OpacityPct,
		}
		if len(sc.DepthBreakdown) > 0 {
			entry.DepthPct = maxValue(sc.DepthBreakdown)
		} else {
			entry.DepthPct = depth.LuminanceDepthPct(sc.R, sc.G, sc.B)
		}
		entry.Name = dedup.resolve(sc.Name, entry.Key)
		colorEntries = append(colorEntries, entry)
	}

	staticSounds, err := s.db.ListStaticSounds(ctx, limit, 0)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	soundEntries := make([]registryEntry, 0, len(staticSounds))
	for _, ss := range staticSounds {
		entry := registryEntry{
			Key:            ss.Key,
			Count:          ss.Count,
			DepthBreakdown: ss.DepthBreakdown,
			DepthPct:       maxValue(ss.DepthBreakdown),
		}
		entry.Name = dedup.resolve(ss.Name, ss.Key)
		soundEntries = append(soundEntries, entry)
	}
	out["static"] = map[string]any{
		"colors": colorEntries,
		"sound":  soundEntries,
	}

	// Blended tier. Each domain section merges discovered rows with its
	// undiscovered origin terms at count 0.
	dynamic := map[string]any{}
	domainSections := []struct {
		section, domain string
		origins         []string
	}{
		{"colors", "color", nil},
		{"motion", "motion", models.OriginMotion},
		{"gradient", "gradient", models.OriginGradient},
		{"camera", "camera", models.OriginCamera},
		{"sound", "audio_semantic", models.OriginSound},
		{"lighting", "lighting", nil},
		{"composition", "composition", nil},
		{"graphics", "graphics", nil},
		{"temporal", "temporal", nil},
		{"technical", "technical", nil},
	}
	for _, sec := range domainSections {
		blends, err := s.db.ListBlends(ctx, sec.domain, limit, 0)
		if err != nil {
			respondStoreError(w, err)
			return
		}
		entries := make([]registryEntry, 0, len(blends)+len(sec.origins))
		discovered := make(map[string]bool, len(blends))
		for _, b := range blends {
			discovered[b.ProfileKey] = true
			entries = append(entries, registryEntry{
				Key:            b.ProfileKey,
				Name:           dedup.resolve(b.Name, b.ProfileKey),
				Count:          b.Count,
				DepthPct:       b.DepthPct,
				DepthBreakdown: b.DepthBreakdown,
			})
		}
		for _, origin := range sec.origins {
			if discovered[origin] {
				continue
			}
			entries = append(entries, registryEntry{Key: origin, Name: origin, Count: 0})
		}
		dynamic[sec.section] = entries
	}

	fallbacks, err := s.db.ListLearnedBlends(ctx, limit, 0)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	blendEntries := make([]registryEntry, 0, len(fallbacks))
	colorsFromBlends := make([]registryEntry, 0)
	for _, lb := range fallbacks {
		entry := registryEntry{Key: lb.Name, Name: dedup.resolve(lb.Name, lb.Domain), Count: 1}
		blendEntries = append(blendEntries, entry)
		if lb.Domain == "color" {
			colorsFromBlends = append(colorsFromBlends, entry)
		}
	}
	dynamic["blends"] = blendEntries
	dynamic["colors_from_blends"] = colorsFromBlends
	out["dynamic"] = dynamic

	// Semantic tier: every origin term appears, typos are corrected, and
	// low-count entries display their raw value.
	narrative, err := s.narrativeView(r, limit)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	out["narrative"] = narrative

	interps, err := s.db.ListInterpretations(ctx, "", limit, 0)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	out["interpretation"] = interps

	variants, err := s.db.ListLinguisticVariants(ctx, limit, 0)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	out["linguistic"] = variants

	respondJSON(w, http.StatusOK, out)
}

func (s *Server) narrativeView(r *http.Request, limit int) (map[string][]registryEntry, error) {
	rows, err := s.db.ListNarrativeEntries(r.Context(), "", limit, 0)
	if err != nil {
		return nil, err
	}

	view := make(map[string][]registryEntry, len(models.NarrativeAspects))
	discovered := make(map[string]map[string]bool)
	for _, aspect := range models.NarrativeAspects {
		view[aspect] = []registryEntry{}
		discovered[aspect] = make(map[string]bool)
	}

	for _, ne := range rows {
		if _, ok := view[ne.Aspect]; !ok {
			continue
		}
		key := ne.EntryKey
		if fixed, ok := narrativeTypoFixes[key]; ok {
			key = fixed
		}
		value := ne.Value
		if fixed, ok := narrativeTypoFixes[strings.ToLower(value)]; ok {
			value = fixed
		}

		name := ne.Name
		if ne.Count < narrativeLowCountThreshold || name == "" {
			name = value
		}
		if name == "" {
			name = key
		}

		discovered[ne.Aspect][key] = true
		view[ne.Aspect] = append(view[ne.Aspect], registryEntry{
			Key: key, Name: name, Count: ne.Count, Value: value,
		})
	}

	for aspect, origins := range models.NarrativeOrigins {
		for _, origin := range origins {
			if discovered[aspect][origin] {
				continue
			}
			view[aspect] = append(view[aspect], registryEntry{
				Key: origin, Name: origin, Count: 0, Value: origin,
			})
		}
	}
	return view, nil
}

func (s *Server) handleCoverage(w http.ResponseWriter, r *http.Request) {
	cov, err := s.db.GetCoverage(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cov)
}

// normalizeColorKey strips any trailing "_<opacity>" suffix, leaving the
// canonical "r,g,b" form.
func normalizeColorKey(key string) string {
	if norm, _, _, _, _, err := depth.CanonicalColorKey(key); err == nil {
		return norm
	}
	return key
}

func maxValue(m map[string]float64) float64 {
	max := 0.0
	for _, v := range m {
		if v > max {
			max = v
		}
	}
	return max
}
