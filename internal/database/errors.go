// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package database

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when an insert loses the insert-or-increment
	// race and hits a UNIQUE constraint. Callers reconcile by incrementing.
	ErrDuplicate = errors.New("duplicate key")

	// ErrTableAbsent is returned for writes against an optional table this
	// deployment does not carry.
	ErrTableAbsent = errors.New("table not present")
)

// isUniqueViolation recognizes DuckDB constraint errors. The driver does not
// expose a typed error, so this matches the message the engine emits.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Constraint Error") ||
		strings.Contains(msg, "violates unique constraint") ||
		strings.Contains(msg, "Duplicate key")
}
