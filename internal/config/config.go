// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

// Package config loads application configuration with Koanf v2, layered as
// defaults, then an optional YAML config file, then environment variables
// (highest priority). Config is immutable after Load and safe for concurrent
// reads.
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	KV       KVConfig       `koanf:"kv"`
	Blob     BlobConfig     `koanf:"blob"`
	Loop     LoopConfig     `koanf:"loop"`
	API      APIConfig      `koanf:"api"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// DatabaseConfig holds DuckDB settings for the registry store.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

// KVConfig holds the Badger side-channel location. An empty path opens an
// in-memory store (dev/tests).
type KVConfig struct {
	Path string `koanf:"path"`
}

// BlobConfig selects the video blob backend. Backend "r2" requires the
// credential fields; "memory" ignores them.
type BlobConfig struct {
	Backend         string `koanf:"backend"`
	AccountID       string `koanf:"account_id"`
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
	Bucket          string `koanf:"bucket"`
}

// LoopConfig holds loop-controller process settings. The behavioral knobs
// (enabled, delay, exploit ratio, duration) live in the KV blob and are
// managed over HTTP; this only seeds them on first boot.
type LoopConfig struct {
	SeedEnabled         bool    `koanf:"seed_enabled"`
	SeedDelaySeconds    int     `koanf:"seed_delay_seconds"`
	SeedExploitRatio    float64 `koanf:"seed_exploit_ratio"`
	SeedDurationSeconds float64 `koanf:"seed_duration_seconds"`
}

// APIConfig holds request-shaping settings.
type APIConfig struct {
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	MaxUploadBytes  int64         `koanf:"max_upload_bytes"`
}

// LoggingConfig holds log level and format.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Validate checks invariants that defaults cannot guarantee.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	switch c.Blob.Backend {
	case "memory":
	case "r2":
		if c.Blob.AccountID == "" || c.Blob.AccessKeyID == "" || c.Blob.SecretAccessKey == "" || c.Blob.Bucket == "" {
			return fmt.Errorf("blob backend r2 requires account_id, access_key_id, secret_access_key, and bucket")
		}
	default:
		return fmt.Errorf("blob.backend %q must be memory or r2", c.Blob.Backend)
	}
	if c.API.MaxUploadBytes <= 0 {
		return fmt.Errorf("api.max_upload_bytes must be positive")
	}
	return nil
}
