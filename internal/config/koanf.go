// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists config file locations searched in order; the
// first that exists wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/motion-productions/config.yaml",
}

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8080,
			Timeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path:      "/data/motionprod.duckdb",
			MaxMemory: "1GB",
			Threads:   0, // 0 = runtime.NumCPU()
		},
		KV: KVConfig{
			Path: "/data/kv",
		},
		Blob: BlobConfig{
			Backend: "memory",
		},
		Loop: LoopConfig{
			SeedEnabled:         false,
			SeedDelaySeconds:    30,
			SeedExploitRatio:    0.5,
			SeedDurationSeconds: 6,
		},
		API: APIConfig{
			RateLimitReqs:   300,
			RateLimitWindow: time.Minute,
			MaxUploadBytes:  25 << 20, // 25 MB, matches the payload cap
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment variables, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// MP_SERVER_PORT=9000 -> server.port, MP_BLOB_ACCESS_KEY_ID ->
	// blob.access_key_id. The first segment after the prefix is the section.
	if err := k.Load(env.Provider("", ".", envToKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// envToKey maps MP-prefixed environment variables onto config keys:
// MP_SERVER_PORT -> server.port, MP_BLOB_SECRET_ACCESS_KEY ->
// blob.secret_access_key. Non-prefixed variables are ignored so unrelated
// environment noise cannot override config.
func envToKey(s string) string {
	const prefix = "MP_"
	if !strings.HasPrefix(s, prefix) {
		return ""
	}
	s = strings.ToLower(strings.TrimPrefix(s, prefix))
	parts := strings.SplitN(s, "_", 2)
	if len(parts) == 1 {
		return parts[0]
	}
	return parts[0] + "." + parts[1]
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
