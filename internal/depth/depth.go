// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

// Package depth computes contribution breakdowns of discoveries against
// origin primitives. For colors it applies a luminance model against the
// black/white primaries; for stored breakdowns it normalizes values and
// splits them into depth/theme/opacity parts; for blends it flattens nested
// numeric maps to dot-joined leaf paths.
package depth

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/motionprod/motion-productions/internal/models"
)

// Split is a raw breakdown separated into its storage destinations.
// Depth holds only the 16 color primitives, Theme everything else,
// and Opacity the stripped "opacity" key (as a percentage).
type Split struct {
	Depth   map[string]float64
	Theme   map[string]float64
	Opacity *float64
}

// DepthPct returns the headline depth percentage for the split: the maximum
// depth value, or 100 when only theme/opacity keys were present.
func (s Split) DepthPct() float64 {
	if len(s.Depth) == 0 {
		if len(s.Theme) > 0 || s.Opacity != nil {
			return 100
		}
		return 0
	}
	max := 0.0
	for _, v := range s.Depth {
		if v > max {
			max = v
		}
	}
	return max
}

// LuminanceBreakdown computes the black/white contribution of an RGB color:
// L = (r+g+b)/765, black = 1-L, white = L. Components under 1% are dropped.
func LuminanceBreakdown(r, g, b int) map[string]float64 {
	l := float64(r+g+b) / 765.0
	out := make(map[string]float64, 2)
	if black := math.Round((1 - l) * 100); black >= 1 {
		out["black"] = black
	}
	if white := math.Round(l * 100); white >= 1 {
		out["white"] = white
	}
	return out
}

// LuminanceDepthPct is the headline percentage for a color with no stored
// breakdown: max(round((1-L)*100), round(L*100)).
func LuminanceDepthPct(r, g, b int) float64 {
	l := float64(r+g+b) / 765.0
	return math.Max(math.Round((1-l)*100), math.Round(l*100))
}

// SplitBreakdown normalizes a raw breakdown and routes each key: color
// primitives to Depth, "opacity" to Opacity, everything else to Theme.
// Fractional values (<=1) are scaled to percentages; all values are rounded
// and clamped to [0,100]. Non-numeric values are ignored.
func SplitBreakdown(raw map[string]interface{}) Split {
	s := Split{}
	for k, v := range raw {
		pct, ok := normalizePct(v)
		if !ok {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(k))
		switch {
		case key == "opacity":
			p := pct
			s.Opacity = &p
		case models.IsColorPrimitive(key):
			if s.Depth == nil {
				s.Depth = make(map[string]float64)
			}
			s.Depth[key] = pct
		default:
			if s.Theme == nil {
				s.Theme = make(map[string]float64)
			}
			s.Theme[key] = pct
		}
	}
	return s
}

// FlattenDepths flattens a nested numeric map into dot-joined leaf paths with
// normalized percentage values. The second return is the maximum leaf value,
// used as the blend's depth_pct.
func FlattenDepths(raw map[string]interface{}) (map[string]float64, float64) {
	out := make(map[string]float64)
	flattenInto(out, "", raw)
	max := 0.0
	for _, v := range out {
		if v > max {
			max = v
		}
	}
	return out, max
}

func flattenInto(out map[string]float64, prefix string, m map[string]interface{}) {
	for k, v := range m {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]interface{}:
			flattenInto(out, path, val)
		default:
			if pct, ok := normalizePct(v); ok {
				out[path] = pct
			}
		}
	}
}

// normalizePct coerces a JSON numeric to a percentage in [0,100]. Values at
// or below 1 are treated as fractions and scaled by 100; larger values are
// rounded in place.
func normalizePct(v interface{}) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return 0, false
	}
	if f <= 1 {
		f *= 100
	}
	f = math.Round(f)
	if f < 0 {
		f = 0
	}
	if f > 100 {
		f = 100
	}
	return f, true
}

// CanonicalColorKey normalizes a submitted color key to "r,g,b", stripping
// any "_<opacity>" suffix. The stripped opacity (scaled to a percentage) is
// returned when present. Returns an error when the key does not parse.
func CanonicalColorKey(key string) (norm string, r, g, b int, opacityPct *float64, err error) {
	base := key
	if idx := strings.IndexByte(key, '_'); idx >= 0 {
		base = key[:idx]
		if op, serr := strconv.ParseFloat(key[idx+1:], 64); serr == nil {
			if op <= 1 {
				op *= 100
			}
			op = math.Round(op)
			opacityPct = &op
		}
	}
	parts := strings.Split(base, ",")
	if len(parts) != 3 {
		return "", 0, 0, 0, nil, fmt.Errorf("color key %q is not r,g,b", key)
	}
	vals := make([]int, 3)
	for i, p := range parts {
		n, serr := strconv.Atoi(strings.TrimSpace(p))
		if serr != nil {
			return "", 0, 0, 0, nil, fmt.Errorf("color key %q component %q: %w", key, p, serr)
		}
		if n < 0 || n > 255 {
			return "", 0, 0, 0, nil, fmt.Errorf("color key %q component out of range", key)
		}
		vals[i] = n
	}
	return fmt.Sprintf("%d,%d,%d", vals[0], vals[1], vals[2]), vals[0], vals[1], vals[2], opacityPct, nil
}
