// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package models

// MaxDiscoveryItems is the hard cap per POST /knowledge/discoveries request
// across the union of all category arrays. The underlying store permits ~50
// queries per request and each item costs about 3 (lookup, reserve, insert).
const MaxDiscoveryItems = 14

// StaticColorItem is one submitted static-color discovery. Breakdown carries
// the raw, possibly mixed-key mapping; the depth calculator splits it into
// depth/theme/opacity parts before storage.
type StaticColorItem struct {
	Key       string                 `json:"key"`
	R         *int                   `json:"r,omitempty"`
	G         *int                   `json:"g,omitempty"`
	B         *int                   `json:"b,omitempty"`
	Name      string                 `json:"name,omitempty"`
	Breakdown map[string]interface{} `json:"depth_breakdown,omitempty"`
}

// StaticSoundItem is one submitted static-sound discovery.
type StaticSoundItem struct {
	Key         string                 `json:"key"`
	Amplitude   float64                `json:"amplitude,omitempty"`
	StrengthPct float64                `json:"strength_pct,omitempty"`
	Tone        string                 `json:"tone,omitempty"`
	Timbre      string                 `json:"timbre,omitempty"`
	Name        string                 `json:"name,omitempty"`
	Breakdown   map[string]interface{} `json:"depth_breakdown,omitempty"`
}

// BlendItem is one submitted blended-registry discovery for a keyed domain
// table. Profile carries domain-specific columns (motion_level, direction,
// rhythm, ...) that are stored alongside the canonical fields.
type BlendItem struct {
	ProfileKey   string                 `json:"profile_key"`
	Name         string                 `json:"name,omitempty"`
	SourcePrompt string                 `json:"source_prompt,omitempty"`
	Depths       map[string]interface{} `json:"depths,omitempty"`
	Profile      map[string]interface{} `json:"profile,omitempty"`
}

// BlendFallbackItem is one uncategorized blend for learned_blend. Always
// inserted; the allocator resolves a unique name from Name.
type BlendFallbackItem struct {
	Name            string                 `json:"name,omitempty"`
	Domain          string                 `json:"domain"`
	Inputs          interface{}            `json:"inputs,omitempty"`
	Output          interface{}            `json:"output,omitempty"`
	PrimitiveDepths map[string]interface{} `json:"primitive_depths,omitempty"`
}

// NarrativeItem is one submitted semantic discovery under an aspect.
type NarrativeItem struct {
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
	Name  string `json:"name,omitempty"`
}

// DiscoveryBatch is the POST /knowledge/discoveries request body.
type DiscoveryBatch struct {
	JobID         *string                    `json:"job_id,omitempty"`
	StaticColors  []StaticColorItem          `json:"static_colors,omitempty"`
	StaticSound   []StaticSoundItem          `json:"static_sound,omitempty"`
	Colors        []BlendItem                `json:"colors,omitempty"`
	Blends        []BlendFallbackItem        `json:"blends,omitempty"`
	Motion        []BlendItem                `json:"motion,omitempty"`
	Lighting      []BlendItem                `json:"lighting,omitempty"`
	Composition   []BlendItem                `json:"composition,omitempty"`
	Graphics      []BlendItem                `json:"graphics,omitempty"`
	Temporal      []BlendItem                `json:"temporal,omitempty"`
	Technical     []BlendItem                `json:"technical,omitempty"`
	AudioSemantic []BlendItem                `json:"audio_semantic,omitempty"`
	Time          []BlendItem                `json:"time,omitempty"`
	Gradient      []BlendItem                `json:"gradient,omitempty"`
	Camera        []BlendItem                `json:"camera,omitempty"`
	Transition    []BlendItem                `json:"transition,omitempty"`
	Depth         []BlendItem                `json:"depth,omitempty"`
	Narrative     map[string][]NarrativeItem `json:"narrative,omitempty"`
}

// discoveryBatchKeys lists every accepted top-level key of a batch body.
// Requests carrying keys outside this set are rejected rather than silently
// dropped, so a renderer typo ("static_colours") cannot lose data.
var discoveryBatchKeys = map[string]bool{
	"job_id": true, "static_colors": true, "static_sound": true,
	"colors": true, "blends": true, "motion": true, "lighting": true,
	"composition": true, "graphics": true, "temporal": true,
	"technical": true, "audio_semantic": true, "time": true,
	"gradient": true, "camera": true, "transition": true, "depth": true,
	"narrative": true,
}

// ValidDiscoveryCategory reports whether k is an accepted top-level key of a
// discovery batch.
func ValidDiscoveryCategory(k string) bool { return discoveryBatchKeys[k] }

// DiscoveryResults counts accepted items per category in a batch response.
type DiscoveryResults map[string]int

// Total sums accepted items across all categories.
func (r DiscoveryResults) Total() int {
	n := 0
	for _, v := range r {
		n += v
	}
	return n
}
