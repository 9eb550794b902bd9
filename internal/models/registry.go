// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package models

import "time"

// StaticColor is a pure-registry per-frame color discovery. The canonical key
// is "r,g,b" (any "_<opacity>" suffix is stripped on export). DepthBreakdown
// maps color primitives to contribution percentages; non-primitive preset
// names live in ThemeBreakdown and opacity in OpacityPct.
type StaticColor struct {
	ID             int64              `json:"id"`
	Key            string             `json:"key"`
	R              int                `json:"r"`
	G              int                `json:"g"`
	B              int                `json:"b"`
	Count          int                `json:"count"`
	Name           string             `json:"name"`
	DepthBreakdown map[string]float64 `json:"depth_breakdown,omitempty"`
	ThemeBreakdown map[string]float64 `json:"theme_breakdown,omitempty"`
	OpacityPct     *float64           `json:"opacity_pct,omitempty"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// StaticSound is a pure-registry per-sample sound discovery keyed
// "<strength>_<tone>_<timbre>".
type StaticSound struct {
	ID             int64              `json:"id"`
	Key            string             `json:"key"`
	Amplitude      float64            `json:"amplitude"`
	StrengthPct    float64            `json:"strength_pct"`
	Tone           string             `json:"tone"`
	Timbre         string             `json:"timbre"`
	Count          int                `json:"count"`
	Name           string             `json:"name"`
	DepthBreakdown map[string]float64 `json:"depth_breakdown,omitempty"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// Blend domains with a dedicated learned_<domain> table.
var BlendDomains = []string{
	"color", "motion", "lighting", "composition", "graphics", "temporal",
	"technical", "time", "gradient", "camera", "transition", "depth",
	"audio_semantic",
}

// Blend is a blended-registry multi-frame profile row. One table per domain,
// unique on ProfileKey; duplicate submissions increment Count. Extra holds
// domain-specific columns (motion_level, motion_std, direction, ... for the
// motion domain) serialized as JSON.
type Blend struct {
	ID             int64              `json:"id"`
	Domain         string             `json:"domain"`
	ProfileKey     string             `json:"profile_key"`
	Name           string             `json:"name"`
	Count          int                `json:"count"`
	Sources        []string           `json:"sources,omitempty"`
	DepthBreakdown map[string]float64 `json:"depth_breakdown,omitempty"`
	DepthPct       float64            `json:"depth_pct"`
	Extra          string             `json:"extra,omitempty"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// MaxBlendSources truncates sources_json so a popular profile cannot grow a
// row without bound.
const MaxBlendSources = 20

// LearnedBlend is the uncategorized blend fallback: a named combination with
// raw inputs, output, and primitive depth contributions. Always inserted,
// never deduplicated; name uniqueness is resolved by the allocator.
type LearnedBlend struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Domain          string    `json:"domain"`
	InputsJSON      string    `json:"inputs_json"`
	OutputJSON      string    `json:"output_json"`
	PrimitiveDepths string    `json:"primitive_depths_json"`
	CreatedAt       time.Time `json:"created_at"`
}

// Narrative aspects for the semantic registry.
var NarrativeAspects = []string{
	"genre", "mood", "themes", "plots", "settings", "style", "scene_type",
}

// ValidNarrativeAspect reports whether a is a known narrative aspect.
func ValidNarrativeAspect(a string) bool {
	for _, v := range NarrativeAspects {
		if v == a {
			return true
		}
	}
	return false
}

// NarrativeEntry is a semantic-registry row keyed by (aspect, entry_key).
// EntryKey is lowercased and trimmed before storage.
type NarrativeEntry struct {
	ID        int64     `json:"id"`
	Aspect    string    `json:"aspect"`
	EntryKey  string    `json:"entry_key"`
	Value     string    `json:"value"`
	Name      string    `json:"name"`
	Count     int       `json:"count"`
	UpdatedAt time.Time `json:"updated_at"`
}
