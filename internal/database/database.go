// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

// Package database is the DuckDB-backed registry store: jobs, learning runs,
// events, the pure/blended/semantic discovery registries, the name reserve,
// interpretations, and linguistic variants.
//
// Concurrency note: writes to the same canonical key are not serialized
// here. Two racing inserts both pass the existence check; the UNIQUE
// constraint rejects the loser and the caller converts that to an increment.
// A missed increment under that race is an accepted lost update.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/motionprod/motion-productions/internal/config"
	"github.com/motionprod/motion-productions/internal/logging"
)

// DB wraps the DuckDB connection and provides data access methods.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig

	// features marks which optional tables exist in this deployment.
	// Required tables (job, learning_run, event) are always present.
	features map[string]bool
}

// New opens the database, creates the schema, and detects optional tables.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s",
		cfg.Path, numThreads, cfg.MaxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn, cfg: cfg}

	if err := db.createTables(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := db.detectFeatures(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to detect tables: %w", err)
	}
	if err := db.checkRequiredTables(); err != nil {
		closeQuietly(conn)
		return nil, err
	}

	return db, nil
}

// Close releases the connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func closeQuietly(conn *sql.DB) {
	if err := conn.Close(); err != nil {
		logging.Warn().Err(err).Msg("Failed to close database connection")
	}
}

// now returns the timestamp written for created_at/updated_at columns.
func now() time.Time {
	return time.Now().UTC()
}

// queryContext applies a default timeout when the caller's context has none.
func queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 30*time.Second)
}
