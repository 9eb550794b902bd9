// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/motionprod/motion-productions/internal/logging"
	"github.com/motionprod/motion-productions/internal/models"
)

// InsertLearningRun records one interpret -> generate -> analyze pass.
func (db *DB) InsertLearningRun(ctx context.Context, jobID *string, prompt, spec, analysis string) (*models.LearningRun, error) {
	ctx, cancel := queryContext(ctx)
	defer cancel()

	run := &models.LearningRun{
		JobID:     jobID,
		Prompt:    prompt,
		Spec:      spec,
		Analysis:  analysis,
		CreatedAt: now(),
	}
	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO learning_run (job_id, prompt, spec, analysis, created_at)
		 VALUES (?, ?, ?, ?, ?) RETURNING id`,
		run.JobID, run.Prompt, run.Spec, run.Analysis, run.CreatedAt).Scan(&run.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert learning run: %w", err)
	}
	return run, nil
}

// ListLearningRuns returns runs newest-first.
func (db *DB) ListLearningRuns(ctx context.Context, limit, offset int) ([]*models.LearningRun, error) {
	ctx, cancel := queryContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, job_id, prompt, spec, analysis, created_at
		 FROM learning_run ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list learning runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.LearningRun
	for rows.Next() {
		var run models.LearningRun
		if err := rows.Scan(&run.ID, &run.JobID, &run.Prompt, &run.Spec, &run.Analysis, &run.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// CountLearningRuns returns the total learning run count.
func (db *DB) CountLearningRuns(ctx context.Context) (int, error) {
	ctx, cancel := queryContext(ctx)
	defer cancel()

	var n int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM learning_run`).Scan(&n)
	return n, err
}

// InsertEvent appends an activity record.
func (db *DB) InsertEvent(ctx context.Context, eventType string, jobID *string, payload string) (*models.Event, error) {
	ctx, cancel := queryContext(ctx)
	defer cancel()

	ev := &models.Event{
		EventType: eventType,
		JobID:     jobID,
		Payload:   payload,
		CreatedAt: now(),
	}
	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO event (event_type, job_id, payload, created_at)
		 VALUES (?, ?, ?, ?) RETURNING id`,
		ev.EventType, ev.JobID, ev.Payload, ev.CreatedAt).Scan(&ev.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}
	return ev, nil
}

// ListEvents returns events newest-first, optionally filtered by type.
func (db *DB) ListEvents(ctx context.Context, eventType string, limit, offset int) ([]*models.Event, error) {
	ctx, cancel := queryContext(ctx)
	defer cancel()

	query := `SELECT id, event_type, job_id, payload, created_at FROM event`
	args := []any{}
	if eventType != "" {
		query += ` WHERE event_type = ?`
		args = append(args, eventType)
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		var ev models.Event
		if err := rows.Scan(&ev.ID, &ev.EventType, &ev.JobID, &ev.Payload, &ev.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, &ev)
	}
	return events, rows.Err()
}

// UpsertFeedback stores a rating for a job, replacing any earlier rating.
func (db *DB) UpsertFeedback(ctx context.Context, jobID string, rating int) error {
	if !db.features["feedback"] {
		logging.Warn().Str("table", "feedback").Msg("Skipping write: table not present")
		return ErrTableAbsent
	}
	ctx, cancel := queryContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO feedback (job_id, rating, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (job_id) DO UPDATE SET rating = excluded.rating, created_at = excluded.created_at`,
		jobID, rating, now())
	if err != nil {
		return fmt.Errorf("failed to upsert feedback: %w", err)
	}
	return nil
}

// GetFeedback returns the rating for a job, or ErrNotFound.
func (db *DB) GetFeedback(ctx context.Context, jobID string) (int, error) {
	if !db.features["feedback"] {
		return 0, ErrNotFound
	}
	ctx, cancel := queryContext(ctx)
	defer cancel()

	var rating int
	err := db.conn.QueryRowContext(ctx,
		`SELECT rating FROM feedback WHERE job_id = ?`, jobID).Scan(&rating)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return rating, err
}

// InsertDiscoveryRun records that a discoveries batch was processed for a
// job, including zero-write batches.
func (db *DB) InsertDiscoveryRun(ctx context.Context, jobID, resultsJSON string, totalWritten int) error {
	if !db.features["discovery_run"] {
		logging.Warn().Str("table", "discovery_run").Msg("Skipping write: table not present")
		return nil
	}
	ctx, cancel := queryContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO discovery_run (job_id, results_json, total_written, created_at) VALUES (?, ?, ?, ?)`,
		jobID, resultsJSON, totalWritten, now())
	if err != nil {
		return fmt.Errorf("failed to insert discovery run: %w", err)
	}
	return nil
}

// DiscoveryTotalForJob sums total_written across a job's discovery runs.
// Zero means the job produced no new registry rows (or the table is absent).
func (db *DB) DiscoveryTotalForJob(ctx context.Context, jobID string) (int, error) {
	if !db.features["discovery_run"] {
		return 0, nil
	}
	ctx, cancel := queryContext(ctx)
	defer cancel()

	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total_written), 0) FROM discovery_run WHERE job_id = ?`, jobID).Scan(&n)
	return n, err
}

// HasLearningRunForJob reports whether any learning run is recorded for a job.
func (db *DB) HasLearningRunForJob(ctx context.Context, jobID string) (bool, error) {
	ctx, cancel := queryContext(ctx)
	defer cancel()

	var one int
	err := db.conn.QueryRowContext(ctx,
		`SELECT 1 FROM learning_run WHERE job_id = ? LIMIT 1`, jobID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// CountDiscoveryRuns returns the total discovery run count.
func (db *DB) CountDiscoveryRuns(ctx context.Context) (int, error) {
	if !db.features["discovery_run"] {
		return 0, nil
	}
	ctx, cancel := queryContext(ctx)
	defer cancel()

	var n int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM discovery_run`).Scan(&n)
	return n, err
}
