// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package namegen

// RGBToSemanticColorName deterministically names an RGB color: classify it
// into one of the hint families, then take the first family word absent from
// seen. When every family word is used, an invented word is synthesized from
// the seed |r*31 + g*37 + b*41|.
func RGBToSemanticColorName(r, g, b int, seen map[string]bool) string {
	family := familyFor(r, g, b)
	for _, w := range ColorFamilies[family] {
		if !seen[w] {
			return w
		}
	}
	// Neighboring families before inventing a word keeps names meaningful
	// for palettes that exhaust one hue bucket.
	for _, f := range familyOrder {
		if f == family {
			continue
		}
		for _, w := range ColorFamilies[f] {
			if !seen[w] {
				return w
			}
		}
	}
	return inventedWord(r, g, b)
}

// familyFor buckets an RGB triple into a hint family by luminance,
// saturation, and dominant channel.
func familyFor(r, g, b int) string {
	mx := r
	if g > mx {
		mx = g
	}
	if b > mx {
		mx = b
	}
	mn := r
	if g < mn {
		mn = g
	}
	if b < mn {
		mn = b
	}
	l := float64(r+g+b) / 765.0
	sat := float64(mx-mn) / 255.0

	if l < 0.08 {
		return "shadow"
	}
	if sat < 0.12 {
		switch {
		case l < 0.2:
			return "graphite"
		case l < 0.4:
			return "slate"
		case l > 0.85:
			return "mist"
		default:
			return "neutral"
		}
	}

	switch mx {
	case r:
		if g >= b {
			switch {
			case l > 0.55:
				return "sunset"
			case g > r/2:
				return "rust"
			default:
				return "ember"
			}
		}
		return "violet"
	case g:
		if r >= b {
			switch {
			case l < 0.35:
				return "forest"
			case sat < 0.35:
				return "olive"
			default:
				return "moss"
			}
		}
		return "teal"
	default:
		if r > g {
			return "violet"
		}
		if l < 0.25 {
			return "midnight"
		}
		return "ocean"
	}
}

// inventedWord builds a pronounceable three-syllable word from the RGB seed.
func inventedWord(r, g, b int) string {
	seed := r*31 + g*37 + b*41
	if seed < 0 {
		seed = -seed
	}
	n := len(syllables)
	return syllables[seed%n] + syllables[(seed/n)%n] + syllables[(seed/(n*n))%n]
}
