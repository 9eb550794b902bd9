// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/motionprod/motion-productions/internal/models"
)

// requiredTables must exist or startup fails. Everything else is optional
// and degrades gracefully when absent.
var requiredTables = []string{"job", "learning_run", "event"}

// optionalTables are registry and bookkeeping tables a trimmed deployment
// may omit. Reads against an absent table return empty results; writes are
// logged and skipped.
var optionalTables = []string{
	"feedback", "discovery_run",
	"static_color", "static_sound",
	"learned_blend", "narrative_entry",
	"name_reserve", "linguistic_variant", "interpretation",
}

func init() {
	for _, d := range models.BlendDomains {
		optionalTables = append(optionalTables, "learned_"+d)
	}
}

// getSchemaQueries returns DDL in dependency order. All statements are
// idempotent so startup can re-run them on an existing file.
func getSchemaQueries() []string {
	queries := []string{
		`CREATE SEQUENCE IF NOT EXISTS seq_learning_run START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_event START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_discovery_run START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_registry START 1`,

		`CREATE TABLE IF NOT EXISTS job (
			id VARCHAR PRIMARY KEY,
			prompt VARCHAR NOT NULL,
			duration_seconds DOUBLE,
			status VARCHAR NOT NULL DEFAULT 'pending',
			r2_key VARCHAR,
			workflow_type VARCHAR,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS learning_run (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_learning_run'),
			job_id VARCHAR,
			prompt VARCHAR,
			spec VARCHAR,
			analysis VARCHAR,
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS event (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_event'),
			event_type VARCHAR NOT NULL,
			job_id VARCHAR,
			payload VARCHAR,
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS feedback (
			job_id VARCHAR PRIMARY KEY,
			rating INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS discovery_run (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_discovery_run'),
			job_id VARCHAR,
			results_json VARCHAR,
			total_written INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		)`,

		// Pure registries. key is the canonical profile key ("r,g,b" for
		// colors); the UNIQUE constraint backs the insert-or-increment
		// race reconciliation.
		`CREATE TABLE IF NOT EXISTS static_color (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_registry'),
			key VARCHAR NOT NULL UNIQUE,
			r INTEGER NOT NULL,
			g INTEGER NOT NULL,
			b INTEGER NOT NULL,
			count INTEGER NOT NULL DEFAULT 1,
			name VARCHAR,
			depth_breakdown VARCHAR,
			theme_breakdown VARCHAR,
			opacity_pct DOUBLE,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS static_sound (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_registry'),
			key VARCHAR NOT NULL UNIQUE,
			amplitude DOUBLE,
			strength_pct DOUBLE,
			tone VARCHAR,
			timbre VARCHAR,
			count INTEGER NOT NULL DEFAULT 1,
			name VARCHAR,
			depth_breakdown VARCHAR,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS learned_blend (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_registry'),
			name VARCHAR NOT NULL UNIQUE,
			domain VARCHAR NOT NULL,
			inputs VARCHAR,
			output VARCHAR,
			primitive_depths VARCHAR,
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS narrative_entry (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_registry'),
			aspect VARCHAR NOT NULL,
			entry_key VARCHAR NOT NULL,
			value VARCHAR,
			name VARCHAR,
			count INTEGER NOT NULL DEFAULT 1,
			updated_at TIMESTAMP NOT NULL,
			UNIQUE (aspect, entry_key)
		)`,

		`CREATE TABLE IF NOT EXISTS name_reserve (
			name VARCHAR PRIMARY KEY,
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS linguistic_variant (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_registry'),
			span VARCHAR NOT NULL,
			canonical VARCHAR,
			domain VARCHAR NOT NULL,
			variant_type VARCHAR,
			count INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL,
			UNIQUE (span, domain)
		)`,

		`CREATE TABLE IF NOT EXISTS interpretation (
			id VARCHAR PRIMARY KEY,
			prompt VARCHAR NOT NULL,
			instruction VARCHAR,
			source VARCHAR NOT NULL,
			status VARCHAR NOT NULL DEFAULT 'pending',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
	}

	// One blended-registry table per domain, all the same shape. The
	// domain-specific profile fields live in the profile JSON column.
	for _, d := range models.BlendDomains {
		queries = append(queries, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS learned_%s (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_registry'),
			profile_key VARCHAR NOT NULL UNIQUE,
			name VARCHAR,
			count INTEGER NOT NULL DEFAULT 1,
			sources VARCHAR,
			depth_breakdown VARCHAR,
			depth_pct DOUBLE,
			profile VARCHAR,
			updated_at TIMESTAMP NOT NULL
		)`, d))
	}

	queries = append(queries,
		`CREATE INDEX IF NOT EXISTS idx_job_status ON job(status)`,
		`CREATE INDEX IF NOT EXISTS idx_job_updated ON job(updated_at)`,
		`CREATE INDEX IF NOT EXISTS idx_learning_run_job ON learning_run(job_id)`,
		`CREATE INDEX IF NOT EXISTS idx_event_type ON event(event_type)`,
		`CREATE INDEX IF NOT EXISTS idx_event_created ON event(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_discovery_run_job ON discovery_run(job_id)`,
		`CREATE INDEX IF NOT EXISTS idx_interpretation_status ON interpretation(status)`,
	)

	return queries
}

func (db *DB) createTables() error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	for _, query := range getSchemaQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}

// detectFeatures populates the optional-table presence map from the
// catalog. Deployments that drop registry tables keep working with the
// corresponding operations degraded.
func (db *DB) detectFeatures() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT table_name FROM information_schema.tables WHERE table_schema = 'main'`)
	if err != nil {
		return err
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		present[name] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	db.features = make(map[string]bool, len(optionalTables)+len(requiredTables))
	for _, t := range requiredTables {
		db.features[t] = present[t]
	}
	for _, t := range optionalTables {
		db.features[t] = present[t]
	}
	return nil
}

func (db *DB) checkRequiredTables() error {
	for _, t := range requiredTables {
		if !db.features[t] {
			return fmt.Errorf("required table %q is missing", t)
		}
	}
	return nil
}

// HasTable reports whether the named table exists in this deployment.
func (db *DB) HasTable(name string) bool {
	return db.features[name]
}

// Features returns a copy of the table presence map for diagnostics.
func (db *DB) Features() map[string]bool {
	out := make(map[string]bool, len(db.features))
	for k, v := range db.features {
		out[k] = v
	}
	return out
}
