// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package database

import (
	"context"
	"fmt"
	"math"

	"github.com/motionprod/motion-productions/internal/models"
)

// ProgressTargetPct is the headline learning target reported alongside the
// measured precision.
const ProgressTargetPct = 95.0

// Progress is the read-side learning projection over the last N completed
// jobs.
type Progress struct {
	PrecisionPct     float64 `json:"precision_pct"`
	DiscoveryRatePct float64 `json:"discovery_rate_pct"`
	RepetitionScore  float64 `json:"repetition_score"`
	TargetPct        float64 `json:"target_pct"`
	TotalRuns        int     `json:"total_runs"`
}

// JobDiagnostic reports per-job learning attribution.
type JobDiagnostic struct {
	JobID        string `json:"job_id"`
	Prompt       string `json:"prompt"`
	HasLearning  bool   `json:"has_learning"`
	HasDiscovery bool   `json:"has_discovery"`
}

// AspectCoverage is one semantic aspect measured against its origin size.
type AspectCoverage struct {
	Count       int     `json:"count"`
	OriginSize  int     `json:"origin_size"`
	CoveragePct float64 `json:"coverage_pct"`
}

// Coverage is the registry coverage snapshot. Kept to a handful of queries
// so it can ride along on every loop poll.
type Coverage struct {
	StaticColorCount       int                       `json:"static_color_count"`
	StaticColorCoveragePct float64                   `json:"static_color_coverage_pct"`
	StaticSoundCount       int                       `json:"static_sound_count"`
	SoundPrimitives        map[string]bool           `json:"sound_primitives"`
	Narrative              map[string]AspectCoverage `json:"narrative"`
	BlendCounts            map[string]int            `json:"blend_counts"`
}

// GetProgress computes precision (share of the last N completed jobs with
// any learning_run), discovery rate (same over discovery_run), and the
// repetition score (top-20 share of learned_motion counts).
func (db *DB) GetProgress(ctx context.Context, lastN int) (*Progress, error) {
	ctx, cancel := queryContext(ctx)
	defer cancel()

	p := &Progress{TargetPct: ProgressTargetPct}

	var examined, withLearning int
	err := db.conn.QueryRowContext(ctx,
		`WITH recent AS (
			SELECT id FROM job WHERE status = ? ORDER BY updated_at DESC LIMIT ?
		)
		SELECT COUNT(*), COUNT(DISTINCT lr.job_id)
		FROM recent LEFT JOIN learning_run lr ON lr.job_id = recent.id`,
		models.JobStatusCompleted, lastN).Scan(&examined, &withLearning)
	if err != nil {
		return nil, fmt.Errorf("failed to compute precision: %w", err)
	}
	p.TotalRuns = examined
	if examined > 0 {
		p.PrecisionPct = round2(float64(withLearning) / float64(examined) * 100)
	}

	if db.features["discovery_run"] && examined > 0 {
		var withDiscovery int
		err := db.conn.QueryRowContext(ctx,
			`WITH recent AS (
				SELECT id FROM job WHERE status = ? ORDER BY updated_at DESC LIMIT ?
			)
			SELECT COUNT(DISTINCT dr.job_id)
			FROM recent LEFT JOIN discovery_run dr ON dr.job_id = recent.id`,
			models.JobStatusCompleted, lastN).Scan(&withDiscovery)
		if err != nil {
			return nil, fmt.Errorf("failed to compute discovery rate: %w", err)
		}
		p.DiscoveryRatePct = round2(float64(withDiscovery) / float64(examined) * 100)
	}

	score, err := db.repetitionScore(ctx)
	if err != nil {
		return nil, err
	}
	p.RepetitionScore = score

	return p, nil
}

// repetitionScore is the share of learned_motion total count held by its
// top-20 rows. High concentration means the loop is revisiting the same
// motion profiles instead of exploring.
func (db *DB) repetitionScore(ctx context.Context) (float64, error) {
	if !db.features["learned_motion"] {
		return 0, nil
	}

	var top, total int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COALESCE((SELECT SUM(count) FROM (
			SELECT count FROM learned_motion ORDER BY count DESC LIMIT 20
		 ) AS top20), 0),
		 COALESCE((SELECT SUM(count) FROM learned_motion), 0)`).Scan(&top, &total)
	if err != nil {
		return 0, fmt.Errorf("failed to compute repetition score: %w", err)
	}
	if total == 0 {
		return 0, nil
	}
	return round2(float64(top) / float64(total)), nil
}

// GetDiagnostics returns per-job learning attribution for the last N
// completed jobs.
func (db *DB) GetDiagnostics(ctx context.Context, lastN int) ([]*JobDiagnostic, error) {
	ctx, cancel := queryContext(ctx)
	defer cancel()

	discoveryClause := `FALSE`
	if db.features["discovery_run"] {
		discoveryClause = `EXISTS (SELECT 1 FROM discovery_run dr WHERE dr.job_id = j.id)`
	}

	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(
		`SELECT j.id, j.prompt,
		        EXISTS (SELECT 1 FROM learning_run lr WHERE lr.job_id = j.id),
		        %s
		 FROM job j WHERE j.status = ?
		 ORDER BY j.updated_at DESC LIMIT ?`, discoveryClause),
		models.JobStatusCompleted, lastN)
	if err != nil {
		return nil, fmt.Errorf("failed to compute diagnostics: %w", err)
	}
	defer rows.Close()

	var out []*JobDiagnostic
	for rows.Next() {
		var d JobDiagnostic
		if err := rows.Scan(&d.JobID, &d.Prompt, &d.HasLearning, &d.HasDiscovery); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

// GetCoverage computes the registry coverage snapshot.
func (db *DB) GetCoverage(ctx context.Context) (*Coverage, error) {
	ctx, cancel := queryContext(ctx)
	defer cancel()

	cov := &Coverage{
		SoundPrimitives: make(map[string]bool, len(models.SoundPrimitives)),
		Narrative:       make(map[string]AspectCoverage, len(models.NarrativeAspects)),
		BlendCounts:     make(map[string]int, len(models.BlendDomains)),
	}

	if db.features["static_color"] {
		if err := db.conn.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM static_color`).Scan(&cov.StaticColorCount); err != nil {
			return nil, err
		}
	}
	cov.StaticColorCoveragePct = round2(float64(cov.StaticColorCount) / float64(models.StaticColorTarget) * 100)

	for _, p := range models.SoundPrimitives {
		cov.SoundPrimitives[p] = false
	}
	if db.features["static_sound"] {
		if err := db.conn.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM static_sound`).Scan(&cov.StaticSoundCount); err != nil {
			return nil, err
		}
		rows, err := db.conn.QueryContext(ctx,
			`SELECT DISTINCT tone FROM static_sound WHERE tone IS NOT NULL`)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var tone string
			if err := rows.Scan(&tone); err != nil {
				return nil, err
			}
			if _, ok := cov.SoundPrimitives[tone]; ok {
				cov.SoundPrimitives[tone] = true
			}
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}

	for _, aspect := range models.NarrativeAspects {
		origin := len(models.NarrativeOrigins[aspect])
		ac := AspectCoverage{OriginSize: origin}
		if db.features["narrative_entry"] {
			if err := db.conn.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM narrative_entry WHERE aspect = ?`, aspect).Scan(&ac.Count); err != nil {
				return nil, err
			}
		}
		if origin > 0 {
			ac.CoveragePct = round2(float64(ac.Count) / float64(origin) * 100)
		}
		cov.Narrative[aspect] = ac
	}

	for _, d := range models.BlendDomains {
		table := "learned_" + d
		if !db.features[table] {
			cov.BlendCounts[d] = 0
			continue
		}
		var n int
		if err := db.conn.QueryRowContext(ctx,
			fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)).Scan(&n); err != nil {
			return nil, err
		}
		cov.BlendCounts[d] = n
	}

	return cov, nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
