// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/motionprod/motion-productions/internal/database"
	"github.com/motionprod/motion-productions/internal/logging"
	"github.com/motionprod/motion-productions/internal/validation"
)

// errorBody is the uniform error envelope: {error, details?}.
type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error().Err(err).Msg("Failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, message string, details ...string) {
	body := errorBody{Error: message}
	if len(details) > 0 {
		body.Details = details[0]
	}
	respondJSON(w, status, body)
}

// respondStoreError maps store errors onto the error envelope.
func respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, database.ErrTableAbsent):
		respondError(w, http.StatusServiceUnavailable, "feature not available", err.Error())
	default:
		logging.Error().Err(err).Msg("Store operation failed")
		respondError(w, http.StatusInternalServerError, "internal error", err.Error())
	}
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "request body too large",
				fmt.Sprintf("limit is %d bytes", maxBytes))
			return err
		}
		respondError(w, http.StatusBadRequest, "invalid JSON body", err.Error())
		return err
	}
	return nil
}

// respondValidationError renders a validator failure with the offending
// field named.
func respondValidationError(w http.ResponseWriter, verr *validation.RequestError) {
	if len(verr.Fields) > 0 {
		f := verr.Fields[0]
		respondError(w, http.StatusBadRequest, "validation failed",
			fmt.Sprintf("%s: %s", f.Field, f.Message))
		return
	}
	respondError(w, http.StatusBadRequest, "validation failed")
}

// queryInt parses an integer query parameter with a default and an upper
// clamp.
func queryInt(r *http.Request, name string, def, max int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// readBody drains a bounded raw body.
func readBody(w http.ResponseWriter, r *http.Request, maxBytes int64) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "request body too large",
				fmt.Sprintf("limit is %d bytes", maxBytes))
			return nil, err
		}
		respondError(w, http.StatusBadRequest, "failed to read body", err.Error())
		return nil, err
	}
	return data, nil
}
