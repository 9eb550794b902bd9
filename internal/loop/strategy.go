// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package loop

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/motionprod/motion-productions/internal/models"
	"github.com/motionprod/motion-productions/internal/namegen"
)

// Mode names for counters and job workflow types.
const (
	ModeExploit = "exploit"
	ModeExplore = "explore"
)

// recentExclusionWindow is how many of the newest recent_prompts the exploit
// picker avoids repeating.
const recentExclusionWindow = 20

// promptSource supplies explore candidates from the interpretation registry.
type promptSource interface {
	ListInterpretations(ctx context.Context, status string, limit, offset int) ([]*models.Interpretation, error)
}

// chooseMode rolls the exploit/explore selector. Exploit with an empty
// good-prompts pool always falls back to explore.
func chooseMode(rng *rand.Rand, exploitRatio float64, goodPrompts []string) string {
	if len(goodPrompts) == 0 {
		return ModeExplore
	}
	if rng.Float64() < exploitRatio {
		return ModeExploit
	}
	return ModeExplore
}

// pickExploit returns a random good prompt not seen in the last 20 recent
// prompts. When the exclusion filter empties the pool, it is dropped.
func pickExploit(rng *rand.Rand, goodPrompts, recentPrompts []string) string {
	recent := recentPrompts
	if len(recent) > recentExclusionWindow {
		recent = recent[len(recent)-recentExclusionWindow:]
	}
	excluded := make(map[string]bool, len(recent))
	for _, p := range recent {
		excluded[p] = true
	}

	candidates := make([]string, 0, len(goodPrompts))
	for _, p := range goodPrompts {
		if !excluded[p] {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		candidates = goodPrompts
	}
	return candidates[rng.Intn(len(candidates))]
}

// pickExplore synthesizes a fresh prompt from the interpretation registry
// and the seed list, rejecting gibberish candidates in strict mode.
func pickExplore(ctx context.Context, rng *rand.Rand, source promptSource) string {
	var pool []string
	if interps, err := source.ListInterpretations(ctx, "", 200, 0); err == nil {
		for _, in := range interps {
			if !namegen.IsGibberishPrompt(in.Prompt, true) {
				pool = append(pool, in.Prompt)
			}
		}
	}

	// Half the time mutate a registry prompt, otherwise draw a seed. With
	// an empty registry the seeds carry exploration alone.
	if len(pool) > 0 && rng.Intn(2) == 0 {
		base := pool[rng.Intn(len(pool))]
		candidate := mutatePrompt(rng, base)
		if !namegen.IsGibberishPrompt(candidate, true) {
			return candidate
		}
		return base
	}
	return seedPrompts[rng.Intn(len(seedPrompts))]
}

// exploreModifiers recombine known prompts into near neighbors.
var exploreModifiers = []string{
	"at night", "in heavy fog", "with a slow zoom", "in vivid colors",
	"under soft light", "with a steady drift", "in monochrome",
	"with a radial gradient", "at golden hour", "with rhythmic motion",
}

func mutatePrompt(rng *rand.Rand, base string) string {
	base = strings.TrimSpace(base)
	mod := exploreModifiers[rng.Intn(len(exploreModifiers))]
	if strings.HasSuffix(base, mod) {
		return base
	}
	candidate := fmt.Sprintf("%s %s", base, mod)
	if len(candidate) > models.MaxPromptLen {
		return base
	}
	return candidate
}
