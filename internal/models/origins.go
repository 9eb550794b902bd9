// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package models

// ColorPrimitives is the fixed set of 16 color primaries. A StaticColor or
// learned-color depth_breakdown may contain only these keys; anything else is
// redirected to theme_breakdown.
var ColorPrimitives = []string{
	"black", "white", "red", "green", "blue", "yellow",
	"cyan", "magenta", "orange", "purple", "pink", "brown",
	"gray", "lime", "teal", "navy",
}

// colorPrimitiveSet is the membership index over ColorPrimitives.
var colorPrimitiveSet = func() map[string]bool {
	m := make(map[string]bool, len(ColorPrimitives))
	for _, p := range ColorPrimitives {
		m[p] = true
	}
	return m
}()

// IsColorPrimitive reports whether k names one of the 16 color primaries.
func IsColorPrimitive(k string) bool { return colorPrimitiveSet[k] }

// SoundPrimitives is the fixed set of 4 sound primaries.
var SoundPrimitives = []string{"silence", "tone", "noise", "pulse"}

// Canonical lists for the dynamic registries. Entries appear in the
// registries view with count 0 until discovered.
var (
	OriginGradient = []string{"linear", "radial", "conic", "diagonal", "mirrored", "none"}
	OriginCamera   = []string{"static", "pan", "tilt", "zoom", "orbit", "track"}
	OriginMotion   = []string{"still", "drift", "steady", "dynamic", "chaotic"}
	OriginSound    = []string{"silence", "ambient", "rhythmic", "melodic"}
)

// StaticColorTarget is the fixed target cardinality for static-color
// coverage: coverage_pct = 100 * count / StaticColorTarget.
const StaticColorTarget = 27951

// NarrativeOrigins lists the a-priori entries per narrative aspect. The
// per-aspect lengths are the denominators for narrative coverage.
var NarrativeOrigins = map[string][]string{
	"genre":      {"abstract", "documentary", "drama", "comedy", "thriller", "scifi", "fantasy"},
	"mood":       {"calm", "tense", "joyful", "melancholy", "mysterious", "energetic", "serene"},
	"style":      {"minimal", "retro", "futuristic", "painterly", "geometric"},
	"plots":      {"journey", "transformation", "conflict", "discovery"},
	"settings":   {"ocean", "forest", "city", "desert", "mountain", "space", "interior", "sky"},
	"themes":     {"nature", "technology", "time", "memory", "freedom", "isolation", "growth", "change"},
	"scene_type": {"intro", "establishing", "action", "transition", "climax", "montage", "closeup", "outro"},
}

// IsOriginTerm reports whether name is a canonical/origin term in any
// registry base set. Origin terms are exempt from the name-reserve invariant.
func IsOriginTerm(name string) bool {
	if colorPrimitiveSet[name] {
		return true
	}
	for _, set := range [][]string{SoundPrimitives, OriginGradient, OriginCamera, OriginMotion, OriginSound} {
		for _, v := range set {
			if v == name {
				return true
			}
		}
	}
	for _, entries := range NarrativeOrigins {
		for _, v := range entries {
			if v == name {
				return true
			}
		}
	}
	return false
}
