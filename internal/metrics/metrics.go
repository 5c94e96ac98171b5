// Collectag - Collection Tag Synchronization for Media Servers
// Copyright 2026 Collectag contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/collectag/collectag

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides instrumentation for:
// - Tag reconciliation runs (duration, counts, failures)
// - Media server API health (circuit breaker)
// - API endpoint throughput

var (
	// Reconciliation Run Metrics
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagsync_runs_total",
			Help: "Total number of tag reconciliation runs",
		},
		[]string{"result"}, // "completed", "canceled", "error"
	)

	SyncRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tagsync_run_duration_seconds",
			Help:    "Duration of tag reconciliation runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600}, // Full-library runs can take minutes
		},
	)

	SyncItemsChecked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tagsync_items_checked_total",
			Help: "Total number of library items examined during reconciliation",
		},
	)

	SyncItemsUpdated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tagsync_items_updated_total",
			Help: "Total number of items whose tag list was rewritten",
		},
	)

	SyncUpdateFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tagsync_update_failures_total",
			Help: "Total number of per-item persistence failures during reconciliation",
		},
	)

	SyncCollectionsInScope = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tagsync_collections_in_scope",
			Help: "Number of collections selected for tagging in the last run",
		},
	)

	SyncProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tagsync_run_progress_percent",
			Help: "Progress of the current reconciliation run (0-100, 100 when idle)",
		},
	)

	SyncLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tagsync_last_success_timestamp",
			Help: "Unix timestamp of last successful reconciliation run",
		},
	)

	// Circuit Breaker Metrics (media server API)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through the circuit breaker",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)
)

// RecordRunCompleted records the outcome of a finished reconciliation run.
func RecordRunCompleted(result string, duration time.Duration, checked, updated, failed int) {
	SyncRunsTotal.WithLabelValues(result).Inc()
	SyncRunDuration.Observe(duration.Seconds())
	SyncItemsChecked.Add(float64(checked))
	SyncItemsUpdated.Add(float64(updated))
	SyncUpdateFailures.Add(float64(failed))
	if result == "completed" {
		SyncLastSuccess.Set(float64(time.Now().Unix()))
	}
}
