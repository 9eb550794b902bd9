// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

// Package api is the HTTP ingestion and read surface: jobs, learning runs,
// events, interpretations, the discoveries write path, the registries view,
// loop config/state, progress, coverage, and backfill administration.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/motionprod/motion-productions/internal/blob"
	"github.com/motionprod/motion-productions/internal/config"
	"github.com/motionprod/motion-productions/internal/database"
	"github.com/motionprod/motion-productions/internal/kv"
	"github.com/motionprod/motion-productions/internal/metrics"
	"github.com/motionprod/motion-productions/internal/middleware"
	"github.com/motionprod/motion-productions/internal/namegen"
)

// Server carries the shared dependencies for every handler.
type Server struct {
	db    *database.DB
	kv    *kv.Store
	blobs blob.Store
	alloc *namegen.Allocator
	cfg   *config.Config
}

// NewServer wires the handler set against its stores.
func NewServer(db *database.DB, kvStore *kv.Store, blobs blob.Store, alloc *namegen.Allocator, cfg *config.Config) *Server {
	return &Server{db: db, kv: kvStore, blobs: blobs, alloc: alloc, cfg: cfg}
}

// Router builds the chi router with the full route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(s.cfg.Server.Timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(httprate.LimitByIP(s.cfg.API.RateLimitReqs, s.cfg.API.RateLimitWindow))
	r.Use(middleware.PrometheusMetrics)

	r.Get("/health", s.handleHealth)
	r.Get("/api/health", s.handleHealth)
	r.Get("/health/live", s.handleLive)
	r.Get("/health/ready", s.handleReady)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/jobs", func(r chi.Router) {
		r.Post("/", s.handleCreateJob)
		r.Get("/", s.handleListJobs)
		r.Get("/{id}", s.handleGetJob)
		r.Post("/{id}/upload", s.handleUploadVideo)
		r.Get("/{id}/download", s.handleDownloadVideo)
		r.Post("/{id}/feedback", s.handleJobFeedback)
	})

	r.Post("/learning", s.handleCreateLearningRun)
	r.Get("/learning/runs", s.handleListLearningRuns)
	r.Post("/events", s.handleCreateEvent)
	r.Get("/events", s.handleListEvents)

	r.Route("/interpret", func(r chi.Router) {
		r.Post("/queue", s.handleEnqueueInterpretation)
		r.Get("/queue", s.handleNextInterpretation)
		r.Patch("/{id}", s.handlePatchInterpretation)
	})
	r.Post("/interpretations", s.handleCreateInterpretation)
	r.Post("/interpretations/batch", s.handleBatchInterpretations)
	r.Get("/interpretations", s.handleListInterpretations)
	r.Post("/linguistic/batch", s.handleLinguisticBatch)

	r.Post("/knowledge/discoveries", s.handleDiscoveries)
	r.Get("/knowledge/for-creation", s.handleKnowledgeForCreation)

	r.Route("/registries", func(r chi.Router) {
		r.Get("/", s.handleRegistries)
		r.Get("/coverage", s.handleCoverage)
		r.Post("/backfill-names", s.handleBackfillNames)
		r.Get("/backfill-rows", s.handleBackfillRows)
		r.Post("/backfill-depths", s.handleBackfillDepths)
	})

	r.Route("/loop", func(r chi.Router) {
		r.Get("/config", s.handleGetLoopConfig)
		r.Post("/config", s.handleSetLoopConfig)
		r.Get("/state", s.handleGetLoopState)
		r.Post("/state", s.handleSetLoopState)
		r.Get("/status", s.handleLoopStatus)
		r.Get("/progress", s.handleLoopProgress)
		r.Get("/diagnostics", s.handleLoopDiagnostics)
	})

	return r
}

// HTTPServer wraps the router in an http.Server with sane timeouts.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
