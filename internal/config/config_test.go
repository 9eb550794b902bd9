// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package config

import "testing"

func TestEnvToKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"MP_SERVER_PORT", "server.port"},
		{"MP_BLOB_SECRET_ACCESS_KEY", "blob.secret_access_key"},
		{"MP_LOGGING_LEVEL", "logging.level"},
		{"PATH", ""},
		{"HOME", ""},
	}
	for _, tt := range tests {
		if got := envToKey(tt.in); got != tt.want {
			t.Errorf("envToKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	bad := defaultConfig()
	bad.Blob.Backend = "r2"
	if err := bad.Validate(); err == nil {
		t.Error("r2 backend without credentials should fail validation")
	}

	bad = defaultConfig()
	bad.Server.Port = 0
	if err := bad.Validate(); err == nil {
		t.Error("port 0 should fail validation")
	}

	bad = defaultConfig()
	bad.Blob.Backend = "filesystem"
	if err := bad.Validate(); err == nil {
		t.Error("unknown blob backend should fail validation")
	}
}
