// Morfonica - Conversational Pixiv Browsing Service
// Copyright 2026 Roast-2007
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Roast-2007/morfonica

// Package metrics provides Prometheus metrics collection for observability.
//
// Metrics are exposed at the /metrics endpoint in Prometheus text format
// and cover the command pipeline (commands, filtering, delivery), the
// remote Pixiv API (latency, errors, circuit breaker state), the session
// store, and favorite persistence.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Command Pipeline Metrics

	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "morfonica_commands_total",
			Help: "Total browse commands processed",
		},
		[]string{"command", "outcome"}, // outcome: ok, rejected, empty, error
	)

	FilteredItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "morfonica_filtered_items_total",
			Help: "Illustrations dropped by the content filter",
		},
		[]string{"reason"}, // "adult", "ai"
	)

	DeliveredItemsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "morfonica_delivered_items_total",
			Help: "Illustrations delivered to the outbound webhook",
		},
	)

	DeliveryErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "morfonica_delivery_errors_total",
			Help: "Failed outbound message deliveries",
		},
	)

	// Remote Pixiv API Metrics

	RemoteRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "morfonica_pixiv_request_duration_seconds",
			Help:    "Duration of Pixiv app-API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	RemoteRequestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "morfonica_pixiv_request_errors_total",
			Help: "Total Pixiv app-API request errors",
		},
		[]string{"endpoint", "error_type"}, // error_type: auth, network, http, decode
	)

	// Circuit Breaker Metrics

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "morfonica_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "morfonica_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Session Store Metrics

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "morfonica_active_sessions",
			Help: "Browse sessions currently held in the session store",
		},
	)

	SessionsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "morfonica_sessions_expired_total",
			Help: "Sessions removed by the idle-expiry janitor",
		},
	)

	// Favorites Metrics

	FavoriteOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "morfonica_favorite_ops_total",
			Help: "Favorite store operations",
		},
		[]string{"operation", "outcome"}, // operation: list, exists, create
	)

	// HTTP API Metrics

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "morfonica_http_requests_total",
			Help: "Total HTTP requests to the command API",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "morfonica_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

// RecordCommand records one processed command with its outcome.
func RecordCommand(command, outcome string) {
	CommandsTotal.WithLabelValues(command, outcome).Inc()
}

// RecordRemoteRequest records duration and, when err is non-nil, an error
// for one Pixiv API request.
func RecordRemoteRequest(endpoint string, duration time.Duration, errType string) {
	RemoteRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
	if errType != "" {
		RemoteRequestErrors.WithLabelValues(endpoint, errType).Inc()
	}
}

// RecordAPIRequest records one HTTP request against the command API.
func RecordAPIRequest(method, endpoint string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordFavoriteOp records one favorite store operation.
func RecordFavoriteOp(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	FavoriteOpsTotal.WithLabelValues(operation, outcome).Inc()
}
