// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package depth

import (
	"math"
	"testing"
)

func TestLuminanceBreakdown(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		r, g, b int
		black   float64
		white   float64
	}{
		{"pure black", 0, 0, 0, 100, 0},
		{"pure white", 255, 255, 255, 0, 100},
		{"mid gray", 128, 128, 128, 50, 50},
		{"dark", 10, 20, 30, 92, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := LuminanceBreakdown(tt.r, tt.g, tt.b)
			if tt.black >= 1 && got["black"] != tt.black {
				t.Errorf("black = %v, want %v", got["black"], tt.black)
			}
			if tt.white >= 1 && got["white"] != tt.white {
				t.Errorf("white = %v, want %v", got["white"], tt.white)
			}
		})
	}
}

// The round-trip law: depth_pct equals max(round((1-L)*100), round(L*100))
// with L = (r+g+b)/765 whenever no explicit breakdown is stored.
func TestLuminanceDepthPctLaw(t *testing.T) {
	t.Parallel()

	for _, c := range [][3]int{{0, 0, 0}, {255, 255, 255}, {100, 125, 150}, {1, 2, 3}, {200, 10, 90}} {
		l := float64(c[0]+c[1]+c[2]) / 765.0
		want := math.Max(math.Round((1-l)*100), math.Round(l*100))
		if got := LuminanceDepthPct(c[0], c[1], c[2]); got != want {
			t.Errorf("LuminanceDepthPct(%v) = %v, want %v", c, got, want)
		}
	}
}

func TestSplitBreakdown(t *testing.T) {
	t.Parallel()

	raw := map[string]interface{}{
		"black":   0.6,
		"white":   40.0,
		"opacity": 1.0,
		"sunset":  0.25,
		"Teal":    12.0,
		"bogus":   "not a number",
	}
	s := SplitBreakdown(raw)

	if s.Depth["black"] != 60 {
		t.Errorf("black = %v, want 60 (fraction scaled)", s.Depth["black"])
	}
	if s.Depth["white"] != 40 {
		t.Errorf("white = %v, want 40", s.Depth["white"])
	}
	if s.Depth["teal"] != 12 {
		t.Errorf("teal = %v, want 12 (case-folded primitive)", s.Depth["teal"])
	}
	if s.Opacity == nil || *s.Opacity != 100 {
		t.Errorf("opacity = %v, want 100", s.Opacity)
	}
	if s.Theme["sunset"] != 25 {
		t.Errorf("theme sunset = %v, want 25", s.Theme["sunset"])
	}
	if _, ok := s.Depth["sunset"]; ok {
		t.Error("theme key leaked into depth breakdown")
	}
	if _, ok := s.Depth["opacity"]; ok {
		t.Error("opacity leaked into depth breakdown")
	}
	if got := s.DepthPct(); got != 60 {
		t.Errorf("DepthPct = %v, want 60", got)
	}
}

func TestSplitBreakdownThemeOnly(t *testing.T) {
	t.Parallel()

	s := SplitBreakdown(map[string]interface{}{"ember": 0.8})
	if got := s.DepthPct(); got != 100 {
		t.Errorf("DepthPct with only theme keys = %v, want 100", got)
	}
}

func TestFlattenDepths(t *testing.T) {
	t.Parallel()

	flat, max := FlattenDepths(map[string]interface{}{
		"motion": map[string]interface{}{
			"drift":  0.3,
			"steady": 70.0,
		},
		"gradient": 0.9,
	})

	if flat["motion.drift"] != 30 {
		t.Errorf("motion.drift = %v, want 30", flat["motion.drift"])
	}
	if flat["motion.steady"] != 70 {
		t.Errorf("motion.steady = %v, want 70", flat["motion.steady"])
	}
	if flat["gradient"] != 90 {
		t.Errorf("gradient = %v, want 90", flat["gradient"])
	}
	if max != 90 {
		t.Errorf("max leaf = %v, want 90", max)
	}
}

func TestCanonicalColorKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key     string
		want    string
		opacity *float64
		wantErr bool
	}{
		{key: "100,125,150", want: "100,125,150"},
		{key: "100,125,150_1.0", want: "100,125,150", opacity: f64(100)},
		{key: "0, 0, 0", want: "0,0,0"},
		{key: "10,20,30_0.5", want: "10,20,30", opacity: f64(50)},
		{key: "300,0,0", wantErr: true},
		{key: "10,20", wantErr: true},
		{key: "red", wantErr: true},
		{key: "12abc,0,0", wantErr: true},
		{key: "10,20,30_junk", want: "10,20,30"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Parallel()
			norm, _, _, _, op, err := CanonicalColorKey(tt.key)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.key)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if norm != tt.want {
				t.Errorf("norm = %q, want %q", norm, tt.want)
			}
			if tt.opacity == nil && op != nil {
				t.Errorf("unexpected opacity %v", *op)
			}
			if tt.opacity != nil && (op == nil || *op != *tt.opacity) {
				t.Errorf("opacity = %v, want %v", op, *tt.opacity)
			}
		})
	}
}

func f64(v float64) *float64 { return &v }
