// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

// Package kv is the BadgerDB-backed side-channel for the two non-relational
// blobs (loop_config, loop_state) and the 60s-TTL learning stats snapshot.
// Writes are rate-limited to one per second per key; a limited write returns
// ErrRateLimited, which the API surfaces as 429 with Retry-After.
package kv

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"golang.org/x/time/rate"

	"github.com/motionprod/motion-productions/internal/logging"
)

// Well-known keys.
const (
	LoopConfigKey    = "loop_config"
	LoopStateKey     = "loop_state"
	LearningStatsKey = "learning:stats"
)

// LearningStatsTTL is the cache lifetime of the coverage/progress snapshot.
const LearningStatsTTL = 60 * time.Second

// RetryAfter is the advisory delay returned with rate-limited writes.
const RetryAfter = 2 * time.Second

var (
	// ErrNotFound is returned when a key has no value (or it expired).
	ErrNotFound = errors.New("kv: key not found")

	// ErrRateLimited is returned when a key's write budget (1/s) is spent.
	ErrRateLimited = errors.New("kv: write rate limit exceeded")
)

// Store wraps a Badger database with per-key write limiters.
type Store struct {
	db *badger.DB

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// Open opens (or creates) the KV store at path. An empty path opens an
// in-memory store, used by tests and dev mode.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open kv store: %w", err)
	}
	return &Store{db: db, limiters: make(map[string]*rate.Limiter)}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the value stored under key, or ErrNotFound.
func (s *Store) Get(key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kv get %s: %w", key, err)
	}
	return out, nil
}

// Set writes value under key, honoring the per-key 1/s write budget.
// A zero ttl stores the value without expiry.
func (s *Store) Set(key string, value []byte, ttl time.Duration) error {
	if !s.limiter(key).Allow() {
		logging.Warn().Str("key", key).Msg("KV write rate limited")
		return ErrRateLimited
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("kv set %s: %w", key, err)
	}
	return nil
}

// limiter returns the write limiter for key, creating it on first use.
// Burst 1 enforces a strict 1 write/s/key ceiling.
func (s *Store) limiter(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[key]
	if !ok {
		l = rate.NewLimiter(rate.Every(time.Second), 1)
		s.limiters[key] = l
	}
	return l
}
