// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package database

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/motionprod/motion-productions/internal/logging"
	"github.com/motionprod/motion-productions/internal/models"
)

// NamedRow is a (row, name) pair surfaced to the gibberish scan.
type NamedRow struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// BackfillRow is a registry row surfaced for external depth recomputation.
type BackfillRow struct {
	ID             int64  `json:"id"`
	Key            string `json:"key"`
	Name           string `json:"name,omitempty"`
	DepthBreakdown string `json:"depth_breakdown,omitempty"`
}

// renameableTable reports whether table carries a name column eligible for
// backfill renaming.
func renameableTable(table string) bool {
	for _, t := range namedTables() {
		if t == table {
			return true
		}
	}
	return false
}

// backfillKeyColumn maps a registry table to its canonical key column.
func backfillKeyColumn(table string) (string, bool) {
	switch table {
	case "static_color", "static_sound":
		return "key", true
	}
	if strings.HasPrefix(table, "learned_") && table != "learned_blend" {
		return "profile_key", true
	}
	return "", false
}

// ListNamedRows returns up to limit named rows from a registry table for the
// gibberish scan. The caller filters with the detector.
func (db *DB) ListNamedRows(ctx context.Context, table string, limit int) ([]NamedRow, error) {
	if !renameableTable(table) {
		return nil, fmt.Errorf("table %q has no renameable name column", table)
	}
	if !db.features[table] {
		return nil, nil
	}
	ctx, cancel := queryContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(
		`SELECT id, name FROM %s WHERE name IS NOT NULL AND name <> '' ORDER BY id LIMIT ?`, table), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s names: %w", table, err)
	}
	defer rows.Close()

	var out []NamedRow
	for rows.Next() {
		var r NamedRow
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RenameRow replaces a registry row's name.
func (db *DB) RenameRow(ctx context.Context, table string, id int64, newName string) error {
	if !renameableTable(table) {
		return fmt.Errorf("table %q has no renameable name column", table)
	}
	if !db.features[table] {
		return ErrTableAbsent
	}
	ctx, cancel := queryContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx, fmt.Sprintf(
		`UPDATE %s SET name = ? WHERE id = ?`, table), newName, id)
	if err != nil {
		return fmt.Errorf("failed to rename %s row: %w", table, err)
	}
	return expectOneRow(res)
}

// cascadeTarget is one (table, column) pair that may embed registry names
// inside free text or serialized JSON.
type cascadeTarget struct {
	table  string
	column string
}

// cascadeTargets lists every column a rename must propagate through.
func cascadeTargets() []cascadeTarget {
	targets := []cascadeTarget{
		{"job", "prompt"},
		{"learning_run", "prompt"},
		{"interpretation", "prompt"},
		{"interpretation", "instruction"},
		{"learned_blend", "inputs"},
		{"learned_blend", "output"},
		{"learned_blend", "primitive_depths"},
	}
	for _, d := range models.BlendDomains {
		targets = append(targets,
			cascadeTarget{"learned_" + d, "sources"},
			cascadeTarget{"learned_" + d, "profile"},
		)
	}
	return targets
}

// escapeLike escapes LIKE wildcards so the old name matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// CascadeRename rewrites oldName to newName across every column that may
// reference it. Absent tables are skipped silently. With wordBoundary set,
// replacement only fires on whole-word occurrences; the default substring
// mode matches the historical behavior and can touch names that embed the
// old name as a substring.
func (db *DB) CascadeRename(ctx context.Context, oldName, newName string, wordBoundary bool) (int64, error) {
	if oldName == "" || oldName == newName {
		return 0, nil
	}
	ctx, cancel := queryContext(ctx)
	defer cancel()

	var total int64
	for _, t := range cascadeTargets() {
		if !db.features[t.table] {
			continue
		}

		var query string
		var args []any
		if wordBoundary {
			pattern := `\b` + regexp.QuoteMeta(oldName) + `\b`
			query = fmt.Sprintf(
				`UPDATE %s SET %s = regexp_replace(%s, ?, ?, 'g') WHERE regexp_matches(%s, ?)`,
				t.table, t.column, t.column, t.column)
			args = []any{pattern, newName, pattern}
		} else {
			query = fmt.Sprintf(
				`UPDATE %s SET %s = REPLACE(%s, ?, ?) WHERE %s LIKE ? ESCAPE '\'`,
				t.table, t.column, t.column, t.column)
			args = []any{oldName, newName, "%" + escapeLike(oldName) + "%"}
		}

		res, err := db.conn.ExecContext(ctx, query, args...)
		if err != nil {
			return total, fmt.Errorf("cascade rename on %s.%s: %w", t.table, t.column, err)
		}
		n, err := res.RowsAffected()
		if err == nil && n > 0 {
			total += n
			logging.Debug().Str("table", t.table).Str("column", t.column).
				Int64("rows", n).Msg("Cascaded rename")
		}
	}
	return total, nil
}

// ListBackfillRows surfaces raw registry rows for external depth
// recomputation.
func (db *DB) ListBackfillRows(ctx context.Context, table string, limit int) ([]BackfillRow, error) {
	keyCol, ok := backfillKeyColumn(table)
	if !ok {
		return nil, fmt.Errorf("table %q does not carry depth breakdowns", table)
	}
	if !db.features[table] {
		return nil, nil
	}
	ctx, cancel := queryContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(
		`SELECT id, %s, name, depth_breakdown FROM %s ORDER BY id LIMIT ?`, keyCol, table), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s backfill rows: %w", table, err)
	}
	defer rows.Close()

	var out []BackfillRow
	for rows.Next() {
		var r BackfillRow
		var name, depths *string
		if err := rows.Scan(&r.ID, &r.Key, &name, &depths); err != nil {
			return nil, err
		}
		r.Name = deref(name)
		r.DepthBreakdown = deref(depths)
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateDepthBreakdown writes an externally recomputed breakdown back to a
// registry row.
func (db *DB) UpdateDepthBreakdown(ctx context.Context, table string, id int64, breakdownJSON string) error {
	if _, ok := backfillKeyColumn(table); !ok {
		return fmt.Errorf("table %q does not carry depth breakdowns", table)
	}
	if !db.features[table] {
		return ErrTableAbsent
	}
	ctx, cancel := queryContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx, fmt.Sprintf(
		`UPDATE %s SET depth_breakdown = ? WHERE id = ?`, table), breakdownJSON, id)
	if err != nil {
		return fmt.Errorf("failed to update %s depth breakdown: %w", table, err)
	}
	return expectOneRow(res)
}
