// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package loop

// seedPrompts bootstraps exploration before the interpretation registry has
// accumulated any prompts of its own. Curated to spread coverage across
// settings, moods, motion styles, and palettes.
var seedPrompts = []string{
	"calm blue ocean waves at dawn",
	"slow drift through a misty pine forest",
	"neon city lights reflecting on wet asphalt",
	"golden desert dunes under a harsh noon sun",
	"aurora ribbons over a frozen mountain lake",
	"warm candlelight flickering in a dark interior",
	"time-lapse clouds racing across a violet sky",
	"gentle rain on a gray window, melancholy mood",
	"abstract geometric shapes pulsing to a slow rhythm",
	"a conic gradient spinning from teal to magenta",
	"orbiting camera around a glowing glass sphere",
	"chaotic sparks scattering over a black void",
	"serene zen garden with raked sand patterns",
	"deep space nebula drifting past distant stars",
	"sunset over the ocean with a mirrored gradient",
	"dense jungle canopy swaying in a tropical storm",
	"minimal white room with a single red cube",
	"retro scanlines over a synthwave grid horizon",
	"montage of autumn leaves falling in slow motion",
	"rhythmic pulses of amber light in thick fog",
}
