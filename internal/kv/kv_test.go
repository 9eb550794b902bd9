// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package kv

import (
	"errors"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return s
}

func TestGetMissingKey(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	if _, err := s.Get("absent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(absent) = %v, want ErrNotFound", err)
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	if err := s.Set(LoopConfigKey, []byte(`{"enabled":true}`), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(LoopConfigKey)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `{"enabled":true}` {
		t.Errorf("Get = %s", got)
	}
}

func TestWriteRateLimitPerKey(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	if err := s.Set(LoopStateKey, []byte("a"), 0); err != nil {
		t.Fatalf("first write: %v", err)
	}
	// Immediate second write to the same key exceeds the 1/s budget.
	if err := s.Set(LoopStateKey, []byte("b"), 0); !errors.Is(err, ErrRateLimited) {
		t.Errorf("second write = %v, want ErrRateLimited", err)
	}
	// A different key has its own budget.
	if err := s.Set(LoopConfigKey, []byte("c"), 0); err != nil {
		t.Errorf("other-key write = %v, want nil", err)
	}
}
