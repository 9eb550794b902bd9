// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package models

import "time"

// Loop state caps. Arrays are clamped to MaxLoopPrompts entries of at most
// MaxPromptLen characters each before the blob is persisted.
const MaxLoopPrompts = 200

// LoopState is the single-writer blob the loop controller persists between
// ticks. Version is monotonic; the state handler rejects writes that move it
// backward (defense against a second accidental writer).
type LoopState struct {
	Version       int64     `json:"version"`
	RunCount      int       `json:"run_count"`
	GoodPrompts   []string  `json:"good_prompts"`
	RecentPrompts []string  `json:"recent_prompts"`
	DurationBase  float64   `json:"duration_base"`
	ExploitCount  int       `json:"exploit_count"`
	ExploreCount  int       `json:"explore_count"`
	LastRunAt     time.Time `json:"last_run_at"`
	LastPrompt    string    `json:"last_prompt"`
	LastJobID     string    `json:"last_job_id"`
}

// Clamp enforces the array and per-entry caps in place, keeping the most
// recent entries (the tail).
func (s *LoopState) Clamp() {
	s.GoodPrompts = clampPrompts(s.GoodPrompts)
	s.RecentPrompts = clampPrompts(s.RecentPrompts)
}

func clampPrompts(in []string) []string {
	if len(in) > MaxLoopPrompts {
		in = in[len(in)-MaxLoopPrompts:]
	}
	out := make([]string, 0, len(in))
	for _, p := range in {
		if len(p) > MaxPromptLen {
			p = p[:MaxPromptLen]
		}
		out = append(out, p)
	}
	return out
}

// LoopConfig controls the scheduler. Ranges: DelaySeconds in [0,600],
// ExploitRatio in [0,1], DurationSeconds in [1,60].
type LoopConfig struct {
	Enabled         bool    `json:"enabled"`
	DelaySeconds    int     `json:"delay_seconds" validate:"min=0,max=600"`
	ExploitRatio    float64 `json:"exploit_ratio" validate:"min=0,max=1"`
	DurationSeconds float64 `json:"duration_seconds" validate:"min=1,max=60"`
}

// DefaultLoopConfig returns the config used before any POST /loop/config.
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		Enabled:         false,
		DelaySeconds:    30,
		ExploitRatio:    0.5,
		DurationSeconds: 6,
	}
}
