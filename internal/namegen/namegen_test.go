// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package namegen

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeStore implements Store over in-memory sets.
type fakeStore struct {
	reserved   map[string]bool
	inRegistry map[string]bool
	inBlends   map[string]bool
	reserveErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		reserved:   map[string]bool{},
		inRegistry: map[string]bool{},
		inBlends:   map[string]bool{},
	}
}

func (f *fakeStore) NameInUse(_ context.Context, name string) (bool, error) {
	return f.reserved[name] || f.inRegistry[name], nil
}

func (f *fakeStore) ReserveName(_ context.Context, name string) error {
	if f.reserveErr != nil {
		return f.reserveErr
	}
	if f.reserved[name] {
		return errors.New("duplicate name")
	}
	f.reserved[name] = true
	return nil
}

func (f *fakeStore) BlendNameInUse(_ context.Context, name string) (bool, error) {
	return f.inBlends[name], nil
}

func TestVocabularySizes(t *testing.T) {
	t.Parallel()

	if len(Starts) < 50 || len(Starts) > 60 {
		t.Errorf("Starts has %d entries, want ~55", len(Starts))
	}
	if len(Ends) < 40 || len(Ends) > 50 {
		t.Errorf("Ends has %d entries, want ~45", len(Ends))
	}
	if len(Singles) < 70 || len(Singles) > 80 {
		t.Errorf("Singles has %d entries, want ~75", len(Singles))
	}
	if len(ColorFamilies) != 15 {
		t.Errorf("ColorFamilies has %d families, want 15", len(ColorFamilies))
	}
}

func TestReserveUniqueName(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	a := New(store, 42)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 30; i++ {
		name, err := a.ReserveUniqueName(ctx)
		if err != nil {
			t.Fatalf("ReserveUniqueName: %v", err)
		}
		if seen[name] {
			t.Fatalf("duplicate name %q returned", name)
		}
		seen[name] = true
		if !store.reserved[name] {
			t.Fatalf("name %q not in reserve after return", name)
		}
	}
}

func TestReserveUniqueNameRejectsJunctionCollision(t *testing.T) {
	t.Parallel()

	// Every combined candidate must avoid start-last == end-first; the
	// generator falls back to Singles in that case.
	for n := int64(0); n < 5000; n++ {
		name := candidate(n)
		if vocabSet[name] {
			continue // single-word fallback
		}
		for _, s := range Starts {
			if strings.HasPrefix(name, s) && len(name) > len(s) {
				rest := name[len(s):]
				if s[len(s)-1] == rest[0] {
					t.Fatalf("candidate %q has junction collision", name)
				}
			}
		}
	}
}

func TestReserveUniqueNameExhaustionFallsBackToNovel(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	// Poison every vocabulary-derived lookup so all 50 attempts fail.
	for _, s := range Starts {
		for _, e := range Ends {
			store.inRegistry[s+e] = true
		}
	}
	for _, s := range Singles {
		store.inRegistry[s] = true
	}

	a := New(store, 7)
	name, err := a.ReserveUniqueName(context.Background())
	if err != nil {
		t.Fatalf("ReserveUniqueName: %v", err)
	}
	if !novelPattern.MatchString(name) {
		t.Errorf("exhaustion fallback = %q, want Novel<5 digits>", name)
	}
	if len(name) != len("Novel")+5 {
		t.Errorf("fallback %q not zero-padded to 5 digits", name)
	}
}

func TestResolveUniqueBlendName(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	a := New(store, 99)
	ctx := context.Background()

	// Free base comes back untouched.
	got, err := a.ResolveUniqueBlendName(ctx, "driftwave")
	if err != nil {
		t.Fatalf("ResolveUniqueBlendName: %v", err)
	}
	if got != "driftwave" {
		t.Errorf("free base = %q, want driftwave", got)
	}

	// Taken base walks numeric suffixes.
	store.inBlends["driftwave"] = true
	store.inBlends["driftwave2"] = true
	got, err = a.ResolveUniqueBlendName(ctx, "driftwave")
	if err != nil {
		t.Fatalf("ResolveUniqueBlendName: %v", err)
	}
	if got != "driftwave3" {
		t.Errorf("suffixed = %q, want driftwave3", got)
	}
}

func TestIsGibberish(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want bool
	}{
		{"dsc_ab12cd", true},
		{"Novel00042", true},
		{"emberbrook", false},
		{"sunset", false},
		{"xqzvbnmtrwplkjhgfdsazxcvq", true},
		{"emberbrookofthelongvalleyside", false}, // vocabulary-anchored prefix
		{"short", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsGibberish(tt.name); got != tt.want {
				t.Errorf("IsGibberish(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestIsGibberishPrompt(t *testing.T) {
	t.Parallel()

	if IsGibberishPrompt("Sunset over the ocean", false) {
		t.Error("clean prompt flagged")
	}
	if !IsGibberishPrompt("render dsc_ab12cd now", false) {
		t.Error("dsc token not flagged")
	}
	if !IsGibberishPrompt("calm xqzvbnmtrwplkjhgfdsazxcvq dusk", true) {
		t.Error("long consonant token not flagged in strict mode")
	}
}

func TestRGBToSemanticColorName(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	name := RGBToSemanticColorName(5, 5, 5, seen)
	if name != ColorFamilies["shadow"][0] {
		t.Errorf("near-black = %q, want first shadow word %q", name, ColorFamilies["shadow"][0])
	}

	// Deterministic for identical inputs.
	if again := RGBToSemanticColorName(5, 5, 5, seen); again != name {
		t.Errorf("non-deterministic: %q then %q", name, again)
	}

	// Exhausting the family moves to the next word.
	seen[name] = true
	next := RGBToSemanticColorName(5, 5, 5, seen)
	if next == name {
		t.Errorf("seen word %q returned again", name)
	}

	// Exhausting everything invents a word from the RGB seed.
	all := map[string]bool{}
	for _, words := range ColorFamilies {
		for _, w := range words {
			all[w] = true
		}
	}
	invented := RGBToSemanticColorName(10, 220, 40, all)
	if invented == "" || all[invented] {
		t.Errorf("invented word %q not novel", invented)
	}
	if invented != RGBToSemanticColorName(10, 220, 40, all) {
		t.Error("invented word not deterministic")
	}
}
