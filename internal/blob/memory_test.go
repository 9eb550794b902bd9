// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package blob

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	t.Parallel()

	m := NewMemoryStore()
	ctx := context.Background()
	key := JobVideoKey("job-1")

	if _, err := m.Get(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get before Put = %v, want ErrNotFound", err)
	}

	data := []byte{0x00, 0x01, 0x02}
	if err := m.Put(ctx, key, data, "video/mp4"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	obj, err := m.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if obj.Size != 3 || obj.ContentType != "video/mp4" {
		t.Errorf("object = %+v", obj)
	}
	if obj.Data[0] != 0x00 || obj.Data[2] != 0x02 {
		t.Errorf("data mismatch: %v", obj.Data)
	}

	// Stored bytes are isolated from caller mutation.
	data[0] = 0xFF
	obj2, _ := m.Get(ctx, key)
	if obj2.Data[0] != 0x00 {
		t.Error("Put did not copy caller bytes")
	}
}

func TestJobVideoKey(t *testing.T) {
	t.Parallel()

	if got := JobVideoKey("abc"); got != "jobs/abc/video.mp4" {
		t.Errorf("JobVideoKey = %q", got)
	}
}
