// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

// Package namegen allocates unique semantic display names for discoveries
// and detects machine-generated gibberish. Uniqueness is enforced by the
// registry store (name reserve plus every registry name column); the
// allocator's retry loop is the only coordination needed, so no process-wide
// lock is held across the reserve insert.
package namegen

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
)

// maxAttempts bounds the draw-check-reserve loop. Collisions with a
// concurrent allocator surface as reserve-insert conflicts and consume an
// attempt like any other taken name.
const maxAttempts = 50

// Store is the registry surface the allocator needs. NameInUse must check
// the name reserve and every registry name column. ReserveName must fail on
// duplicate insert (first-writer-wins).
type Store interface {
	NameInUse(ctx context.Context, name string) (bool, error)
	ReserveName(ctx context.Context, name string) error
	BlendNameInUse(ctx context.Context, name string) (bool, error)
}

// Allocator draws semantic names from the vocabularies and reserves them.
type Allocator struct {
	store Store

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates an allocator seeded for reproducible draws in tests. A seed of
// 0 is replaced with 1 (rand.NewSource(0) is legal but conventionally the
// callers pass time.Now().UnixNano()).
func New(store Store, seed int64) *Allocator {
	if seed == 0 {
		seed = 1
	}
	return &Allocator{store: store, rng: rand.New(rand.NewSource(seed))}
}

func (a *Allocator) draw() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rng.Int63()
}

// candidate produces one vocabulary name from a pseudorandom draw: a
// start+end combination, falling back to a single word when the junction
// characters collide.
func candidate(n int64) string {
	start := Starts[n%int64(len(Starts))]
	end := Ends[(n/int64(len(Starts)))%int64(len(Ends))]
	if start[len(start)-1] == end[0] {
		return Singles[n%int64(len(Singles))]
	}
	return start + end
}

// ReserveUniqueName draws a semantic name unique across the name reserve and
// every registry name column, inserts it into the reserve, and returns it.
// After maxAttempts exhausted draws it falls back to "Novel<5 digits>".
func (a *Allocator) ReserveUniqueName(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		name := candidate(a.draw())
		taken, err := a.store.NameInUse(ctx, name)
		if err != nil {
			return "", fmt.Errorf("name lookup: %w", err)
		}
		if taken {
			continue
		}
		if err := a.store.ReserveName(ctx, name); err != nil {
			// Lost a race for this name; treat as taken and redraw.
			continue
		}
		return name, nil
	}

	name := fmt.Sprintf("Novel%05d", a.draw()%100000)
	if err := a.store.ReserveName(ctx, name); err != nil {
		return "", fmt.Errorf("reserve fallback name: %w", err)
	}
	return name, nil
}

// ResolveUniqueBlendName makes base unique across the name reserve and the
// blend table. A free base is returned as-is; a taken base gets the first
// free numeric suffix 2..100, then a random 4-digit suffix as last resort.
func (a *Allocator) ResolveUniqueBlendName(ctx context.Context, base string) (string, error) {
	taken, err := a.blendTaken(ctx, base)
	if err != nil {
		return "", err
	}
	if !taken {
		return base, nil
	}

	for i := 2; i <= 100; i++ {
		name := fmt.Sprintf("%s%d", base, i)
		taken, err := a.blendTaken(ctx, name)
		if err != nil {
			return "", err
		}
		if !taken {
			return name, nil
		}
	}

	return fmt.Sprintf("%s%04d", base, a.draw()%10000), nil
}

func (a *Allocator) blendTaken(ctx context.Context, name string) (bool, error) {
	reserved, err := a.store.NameInUse(ctx, name)
	if err != nil {
		return false, fmt.Errorf("name lookup: %w", err)
	}
	if reserved {
		return true, nil
	}
	inBlends, err := a.store.BlendNameInUse(ctx, name)
	if err != nil {
		return false, fmt.Errorf("blend name lookup: %w", err)
	}
	return inBlends, nil
}
