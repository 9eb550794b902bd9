// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

// Package main is the entry point for the Motion Productions server.
//
// The server hosts three cooperating pieces behind one process:
//
//  1. The jobs/registry HTTP API that renderers and the web UI talk to.
//  2. The registry store: DuckDB for relational learning data, Badger for
//     the loop config/state blobs, and a blob backend for rendered video.
//  3. The learning-loop controller, a supervised background service that
//     creates jobs, waits for the renderer, and promotes productive prompts.
//
// Startup order: configuration (Koanf: defaults, optional YAML file, then
// environment), logging, DuckDB, Badger KV, blob backend, name allocator,
// HTTP server, then the Suture tree that supervises the HTTP server and the
// loop controller. SIGINT/SIGTERM trigger a graceful shutdown bounded by the
// supervisor's shutdown timeout.
//
// Minimal dev run (in-memory blobs, DuckDB and KV under /data):
//
//	export MP_BLOB_BACKEND=memory
//	./motion-productions
//
// Production with Cloudflare R2:
//
//	export MP_BLOB_BACKEND=r2
//	export MP_BLOB_ACCOUNT_ID=...
//	export MP_BLOB_ACCESS_KEY_ID=...
//	export MP_BLOB_SECRET_ACCESS_KEY=...
//	export MP_BLOB_BUCKET=motion-videos
//	./motion-productions
package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	json "github.com/goccy/go-json"

	"github.com/motionprod/motion-productions/internal/api"
	"github.com/motionprod/motion-productions/internal/blob"
	"github.com/motionprod/motion-productions/internal/config"
	"github.com/motionprod/motion-productions/internal/database"
	"github.com/motionprod/motion-productions/internal/kv"
	"github.com/motionprod/motion-productions/internal/logging"
	"github.com/motionprod/motion-productions/internal/loop"
	"github.com/motionprod/motion-productions/internal/models"
	"github.com/motionprod/motion-productions/internal/namegen"
	"github.com/motionprod/motion-productions/internal/supervisor"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("blob_backend", cfg.Blob.Backend).
		Int("port", cfg.Server.Port).
		Msg("Starting Motion Productions server")

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Database close failed")
		}
	}()

	kvStore, err := kv.Open(cfg.KV.Path)
	if err != nil {
		return fmt.Errorf("open kv store: %w", err)
	}
	defer func() {
		if err := kvStore.Close(); err != nil {
			logging.Error().Err(err).Msg("KV close failed")
		}
	}()

	if err := seedLoopConfig(kvStore, cfg); err != nil {
		return fmt.Errorf("seed loop config: %w", err)
	}

	blobs, err := newBlobStore(cfg)
	if err != nil {
		return fmt.Errorf("init blob store: %w", err)
	}

	alloc := namegen.New(db, time.Now().UnixNano())
	srv := api.NewServer(db, kvStore, blobs, alloc, cfg)
	httpSrv := srv.HTTPServer(fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddAPIService(supervisor.NewHTTPService(httpSrv, 10*time.Second))
	tree.AddLoopService(loop.New(db, kvStore, time.Now().UnixNano()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", httpSrv.Addr).Msg("Supervisor tree starting")
	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", err)
	}

	if report, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service missed shutdown timeout")
		}
	}
	logging.Info().Msg("Server stopped")
	return nil
}

// seedLoopConfig writes the initial loop config blob on first boot only.
// After that the HTTP config endpoint owns the blob.
func seedLoopConfig(kvStore *kv.Store, cfg *config.Config) error {
	if _, err := kvStore.Get(kv.LoopConfigKey); err == nil {
		return nil
	} else if !errors.Is(err, kv.ErrNotFound) {
		return err
	}

	seed := models.DefaultLoopConfig()
	seed.Enabled = cfg.Loop.SeedEnabled
	if cfg.Loop.SeedDelaySeconds > 0 {
		seed.DelaySeconds = cfg.Loop.SeedDelaySeconds
	}
	if cfg.Loop.SeedExploitRatio > 0 {
		seed.ExploitRatio = cfg.Loop.SeedExploitRatio
	}
	if cfg.Loop.SeedDurationSeconds > 0 {
		seed.DurationSeconds = cfg.Loop.SeedDurationSeconds
	}

	raw, err := json.Marshal(seed)
	if err != nil {
		return err
	}
	logging.Info().Bool("enabled", seed.Enabled).Msg("Seeding initial loop config")
	return kvStore.Set(kv.LoopConfigKey, raw, 0)
}

func newBlobStore(cfg *config.Config) (blob.Store, error) {
	switch cfg.Blob.Backend {
	case "r2":
		return blob.NewR2Store(blob.R2Config{
			AccountID:       cfg.Blob.AccountID,
			AccessKeyID:     cfg.Blob.AccessKeyID,
			SecretAccessKey: cfg.Blob.SecretAccessKey,
			Bucket:          cfg.Blob.Bucket,
		})
	case "memory":
		logging.Warn().Msg("Using in-memory blob store; videos will not survive restarts")
		return blob.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.Blob.Backend)
	}
}
