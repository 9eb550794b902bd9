// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package api

import (
	"errors"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/motionprod/motion-productions/internal/database"
	"github.com/motionprod/motion-productions/internal/logging"
	"github.com/motionprod/motion-productions/internal/models"
	"github.com/motionprod/motion-productions/internal/namegen"
)

// backfillTables lists the registry tables eligible for name backfill, in
// scan order.
func backfillTables() []string {
	tables := []string{"static_color", "static_sound", "learned_blend", "narrative_entry"}
	for _, d := range models.BlendDomains {
		tables = append(tables, "learned_"+d)
	}
	return tables
}

type renamedRow struct {
	Table   string `json:"table"`
	ID      int64  `json:"id"`
	OldName string `json:"old_name"`
	NewName string `json:"new_name"`
	Cascade int64  `json:"cascaded_rows,omitempty"`
}

// handleBackfillNames scans registry tables for gibberish names, replaces
// each with allocator output, and cascades the rename through every column
// that may embed the old name. dry_run=1 reports candidates without writing.
// word_boundary=1 switches the cascade from substring REPLACE to whole-word
// replacement.
func (s *Server) handleBackfillNames(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dryRun := q.Get("dry_run") == "1"
	wordBoundary := q.Get("word_boundary") == "1"
	limit := queryInt(r, "limit", 50, 500)

	tables := backfillTables()
	if t := q.Get("table"); t != "" {
		tables = []string{t}
	}

	renamed := make([]renamedRow, 0)
	budget := limit
	for _, table := range tables {
		if budget <= 0 {
			break
		}
		rows, err := s.db.ListNamedRows(r.Context(), table, 10000)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid table", err.Error())
			return
		}
		for _, row := range rows {
			if budget <= 0 {
				break
			}
			if !namegen.IsGibberish(row.Name) {
				continue
			}
			budget--

			entry := renamedRow{Table: table, ID: row.ID, OldName: row.Name}
			if dryRun {
				renamed = append(renamed, entry)
				continue
			}

			newName, err := s.alloc.ReserveUniqueName(r.Context())
			if err != nil {
				respondStoreError(w, err)
				return
			}
			if err := s.db.RenameRow(r.Context(), table, row.ID, newName); err != nil {
				respondStoreError(w, err)
				return
			}
			// The cascade runs before success is reported so callers
			// never observe a half-renamed registry.
			cascaded, err := s.db.CascadeRename(r.Context(), row.Name, newName, wordBoundary)
			if err != nil {
				respondStoreError(w, err)
				return
			}
			entry.NewName = newName
			entry.Cascade = cascaded
			renamed = append(renamed, entry)
			logging.Info().Str("table", table).Str("old", row.Name).Str("new", newName).
				Int64("cascaded", cascaded).Msg("Backfilled gibberish name")
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"renamed": renamed,
		"count":   len(renamed),
		"dry_run": dryRun,
	})
}

func (s *Server) handleBackfillRows(w http.ResponseWriter, r *http.Request) {
	table := r.URL.Query().Get("table")
	if table == "" {
		respondError(w, http.StatusBadRequest, "table is required")
		return
	}
	limit := queryInt(r, "limit", 100, 1000)

	rows, err := s.db.ListBackfillRows(r.Context(), table, limit)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid table", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"table": table, "rows": rows, "count": len(rows)})
}

type depthUpdate struct {
	Table          string             `json:"table"`
	ID             int64              `json:"id"`
	DepthBreakdown map[string]float64 `json:"depth_breakdown"`
}

type backfillDepthsRequest struct {
	Updates []depthUpdate `json:"updates"`
}

func (s *Server) handleBackfillDepths(w http.ResponseWriter, r *http.Request) {
	var req backfillDepthsRequest
	if err := decodeJSON(w, r, &req, 8<<20); err != nil {
		return
	}
	if len(req.Updates) == 0 {
		respondError(w, http.StatusBadRequest, "updates is required")
		return
	}

	applied, skipped := 0, 0
	for _, u := range req.Updates {
		raw, err := json.Marshal(u.DepthBreakdown)
		if err != nil {
			skipped++
			continue
		}
		err = s.db.UpdateDepthBreakdown(r.Context(), u.Table, u.ID, string(raw))
		switch {
		case err == nil:
			applied++
		case errors.Is(err, database.ErrNotFound), errors.Is(err, database.ErrTableAbsent):
			skipped++
		default:
			respondError(w, http.StatusBadRequest, "invalid update", err.Error())
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]int{"applied": applied, "skipped": skipped})
}
