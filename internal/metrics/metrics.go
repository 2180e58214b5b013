// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

// Package metrics provides Prometheus instrumentation for the content
// protection pipeline: access decisions, DRM session lifecycle, URL
// decryption, anti-piracy detection, and API traffic.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Access Decision Metrics
	AccessDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_decisions_total",
			Help: "Total number of access decisions evaluated",
		},
		[]string{"outcome", "reason"}, // outcome: "granted", "denied"
	)

	// DRM Session Metrics
	SessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "drm_sessions_created_total",
			Help: "Total number of DRM sessions created",
		},
	)

	SessionsRevoked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drm_sessions_revoked_total",
			Help: "Total number of DRM sessions revoked",
		},
		[]string{"revoked_by"}, // "admin", "sweeper", "user"
	)

	SessionsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "drm_sessions_expired_total",
			Help: "Total number of DRM sessions removed after expiry",
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "drm_active_sessions",
			Help: "Current number of active DRM sessions",
		},
	)

	SessionValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drm_session_validations_total",
			Help: "Total number of session validation checks",
		},
		[]string{"result"}, // "active", "expired", "revoked", "not_found"
	)

	// URL Codec Metrics
	URLDecryptions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "drm_url_decryptions_total",
			Help: "Total number of successful playback URL decryptions",
		},
	)

	URLDecryptFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drm_url_decrypt_failures_total",
			Help: "Total number of failed playback URL decryptions",
		},
		[]string{"reason"}, // "invalid_ciphertext", "auth_failed", "session"
	)

	// Anti-Piracy Detection Metrics
	ViolationsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "piracy_violations_total",
			Help: "Total number of anti-piracy violations detected",
		},
		[]string{"heuristic", "severity"},
	)

	HeuristicErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "piracy_heuristic_errors_total",
			Help: "Total number of heuristic evaluation errors (treated as no violation)",
		},
		[]string{"heuristic"},
	)

	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "piracy_sweep_duration_seconds",
			Help:    "Duration of background session sweeps in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	SweepSessionsScanned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "piracy_sweep_sessions_scanned_total",
			Help: "Total number of sessions scanned by the background sweeper",
		},
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

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Audit Metrics
	AuditEventsLogged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_events_logged_total",
			Help: "Total number of audit events logged",
		},
		[]string{"event_type"},
	)

	AuditEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_events_dropped_total",
			Help: "Total number of audit events dropped due to a full buffer",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordAccessDecision records an access decision outcome.
func RecordAccessDecision(granted bool, reason string) {
	outcome := "denied"
	if granted {
		outcome = "granted"
		reason = ""
	}
	AccessDecisions.WithLabelValues(outcome, reason).Inc()
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordViolation records a detected anti-piracy violation.
func RecordViolation(heuristic, severity string) {
	ViolationsDetected.WithLabelValues(heuristic, severity).Inc()
}

// RecordSweep records a completed background sweep.
func RecordSweep(duration time.Duration, scanned int) {
	SweepDuration.Observe(duration.Seconds())
	SweepSessionsScanned.Add(float64(scanned))
}
