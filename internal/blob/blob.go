// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

// Package blob stores rendered video bytes. The production backend is an
// S3-compatible bucket (Cloudflare R2); an in-memory backend serves tests
// and endpoint-less development. Keys follow "jobs/<id>/video.mp4".
package blob

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a key has no stored object.
var ErrNotFound = errors.New("blob: object not found")

// Object is a stored blob with its metadata.
type Object struct {
	Data        []byte
	ContentType string
	Size        int64
}

// Store is the narrow surface the job upload/download path needs.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) (*Object, error)
}

// JobVideoKey is the canonical blob key for a job's rendered video.
func JobVideoKey(jobID string) string {
	return fmt.Sprintf("jobs/%s/video.mp4", jobID)
}
