// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

// Package metrics exposes Prometheus instrumentation for the learning loop
// and the ingestion API. The learning gauges (total runs, precision,
// discovery rate) are refreshed by the progress reader; HTTP counters are
// recorded by middleware on every request.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	totalRuns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "motionprod_total_runs",
		Help: "Learning loop run count",
	})

	precisionPct = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "motionprod_precision_pct",
		Help: "Share of recent completed jobs with a learning run (percent)",
	})

	discoveryRatePct = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "motionprod_discovery_rate_pct",
		Help: "Share of recent completed jobs with a discovery run (percent)",
	})

	jobsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "motionprod_jobs_total",
		Help: "Total jobs ever created",
	})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "motionprod_http_requests_total",
		Help: "HTTP requests by method, path, and status",
	}, []string{"method", "path", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "motionprod_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	activeRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "motionprod_http_active_requests",
		Help: "In-flight HTTP requests",
	})

	discoveriesWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "motionprod_discoveries_written_total",
		Help: "Registry rows written or incremented by category",
	}, []string{"category"})
)

// SetLearningStats refreshes the learning gauges from a progress snapshot.
func SetLearningStats(runs int, precision, discoveryRate float64) {
	totalRuns.Set(float64(runs))
	precisionPct.Set(precision)
	discoveryRatePct.Set(discoveryRate)
}

// SetJobsTotal refreshes the jobs gauge.
func SetJobsTotal(n int64) {
	jobsTotal.Set(float64(n))
}

// RecordAPIRequest records one completed HTTP request.
func RecordAPIRequest(method, path, status string, duration time.Duration) {
	httpRequests.WithLabelValues(method, path, status).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight gauge.
func TrackActiveRequest(start bool) {
	if start {
		activeRequests.Inc()
	} else {
		activeRequests.Dec()
	}
}

// RecordDiscovery counts one accepted discovery item.
func RecordDiscovery(category string) {
	discoveriesWritten.WithLabelValues(category).Inc()
}

// Handler returns the Prometheus text-format scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
