/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// APIRequestsTotal counts HTTP requests by method, endpoint, and status.
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mimir_guide_api_requests_total",
		Help: "Total HTTP API requests",
	}, []string{"method", "endpoint", "status"})

	// APIRequestDuration observes HTTP request latency.
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mimir_guide_api_request_duration_seconds",
		Help:    "HTTP API request duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})

	// APIActiveConnections gauges in-flight HTTP requests.
	APIActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mimir_guide_api_active_connections",
		Help: "In-flight HTTP API requests",
	})

	// LineupMutationsTotal counts committed lineup mutations by operation.
	LineupMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mimir_guide_lineup_mutations_total",
		Help: "Committed program lineup mutations",
	}, []string{"operation"})

	// IntegrityFindings gauges the error and warning counts from the most
	// recent integrity scan, by check category.
	IntegrityFindings = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mimir_guide_integrity_findings",
		Help: "Findings from the most recent integrity scan",
	}, []string{"category", "severity"})

	// IntegrityScanDuration observes integrity scan latency.
	IntegrityScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mimir_guide_integrity_scan_duration_seconds",
		Help:    "Integrity scan duration",
		Buckets: prometheus.DefBuckets,
	})
)

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
