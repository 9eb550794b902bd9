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

	"github.com/google/uuid"

	"github.com/motionprod/motion-productions/internal/models"
)

// CreateJob inserts a new pending job and returns it with ID and timestamps
// assigned.
func (db *DB) CreateJob(ctx context.Context, prompt string, durationSeconds *float64, workflowType *string) (*models.Job, error) {
	ctx, cancel := queryContext(ctx)
	defer cancel()

	job := &models.Job{
		ID:              uuid.New().String(),
		Prompt:          prompt,
		DurationSeconds: durationSeconds,
		Status:          models.JobStatusPending,
		WorkflowType:    workflowType,
		CreatedAt:       now(),
	}
	job.UpdatedAt = job.CreatedAt

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO job (id, prompt, duration_seconds, status, r2_key, workflow_type, created_at, updated_at)
		 VALUES (?, ?, ?, ?, NULL, ?, ?, ?)`,
		job.ID, job.Prompt, job.DurationSeconds, job.Status, job.WorkflowType, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert job: %w", err)
	}
	return job, nil
}

// GetJob returns the job with the given ID, or ErrNotFound.
func (db *DB) GetJob(ctx context.Context, id string) (*models.Job, error) {
	ctx, cancel := queryContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		`SELECT id, prompt, duration_seconds, status, r2_key, workflow_type, created_at, updated_at
		 FROM job WHERE id = ?`, id)
	return scanJob(row)
}

// ListJobs returns jobs newest-first, optionally filtered by status.
func (db *DB) ListJobs(ctx context.Context, status string, limit, offset int) ([]*models.Job, error) {
	ctx, cancel := queryContext(ctx)
	defer cancel()

	query := `SELECT id, prompt, duration_seconds, status, r2_key, workflow_type, created_at, updated_at
		 FROM job`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	// Pending jobs feed the renderer queue oldest-first; completed listings
	// surface the freshest uploads.
	switch status {
	case models.JobStatusPending:
		query += ` ORDER BY created_at ASC`
	case models.JobStatusCompleted:
		query += ` ORDER BY updated_at DESC`
	default:
		query += ` ORDER BY created_at DESC`
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// CountJobs returns the total number of jobs, optionally filtered by status.
func (db *DB) CountJobs(ctx context.Context, status string) (int, error) {
	ctx, cancel := queryContext(ctx)
	defer cancel()

	query := `SELECT COUNT(*) FROM job`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	var n int
	if err := db.conn.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// UpdateJobStatus transitions a job and stamps updated_at.
func (db *DB) UpdateJobStatus(ctx context.Context, id, status string) error {
	ctx, cancel := queryContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE job SET status = ?, updated_at = ? WHERE id = ?`, status, now(), id)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return expectOneRow(res)
}

// SetJobR2Key records the blob key after a successful video upload and marks
// the job completed.
func (db *DB) SetJobR2Key(ctx context.Context, id, key string) error {
	ctx, cancel := queryContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE job SET r2_key = ?, status = ?, updated_at = ? WHERE id = ?`,
		key, models.JobStatusCompleted, now(), id)
	if err != nil {
		return fmt.Errorf("failed to set job r2 key: %w", err)
	}
	return expectOneRow(res)
}

func scanJob(row interface{ Scan(...any) error }) (*models.Job, error) {
	var job models.Job
	err := row.Scan(&job.ID, &job.Prompt, &job.DurationSeconds, &job.Status,
		&job.R2Key, &job.WorkflowType, &job.CreatedAt, &job.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}
	return &job, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
