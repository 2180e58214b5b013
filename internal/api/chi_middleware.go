// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/courseguard/courseguard/internal/audit"
	"github.com/courseguard/courseguard/internal/metrics"
)

// ChiMiddlewareConfig holds rate limiting and CORS settings for the router.
type ChiMiddlewareConfig struct {
	CORSAllowedOrigins []string

	// RateLimitRequests per RateLimitWindow per client IP on protected routes.
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// RelaxedLimitRequests is the ceiling for admin callers and relaxed mode.
	RelaxedLimitRequests int

	// RateLimitRelaxed switches protected routes to the relaxed limiter.
	RateLimitRelaxed bool

	// RateLimitDisabled turns limiting off entirely (tests only).
	RateLimitDisabled bool
}

// DefaultChiMiddlewareConfig returns the documented protection defaults.
// CORS origins default to empty, requiring explicit configuration.
func DefaultChiMiddlewareConfig() *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins:   []string{},
		RateLimitRequests:    100,
		RateLimitWindow:      15 * time.Minute,
		RelaxedLimitRequests: 1000,
	}
}

// ChiMiddleware provides chi-compatible middleware factories built on the
// production-hardened chi ecosystem packages.
type ChiMiddleware struct {
	config *ChiMiddlewareConfig
	cors   func(http.Handler) http.Handler
	audits *audit.Logger
}

// NewChiMiddleware creates the middleware factory. audits may be nil.
func NewChiMiddleware(config *ChiMiddlewareConfig, audits *audit.Logger) *ChiMiddleware {
	if config == nil {
		config = DefaultChiMiddlewareConfig()
	}

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins: config.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		MaxAge:         86400,
	})

	return &ChiMiddleware{
		config: config,
		cors:   corsHandler,
		audits: audits,
	}
}

// CORS returns the CORS middleware.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit returns the standard per-IP limiter for protected routes.
// In relaxed mode it falls back to the relaxed ceiling.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	requests := m.config.RateLimitRequests
	if m.config.RateLimitRelaxed {
		requests = m.config.RelaxedLimitRequests
	}
	return m.limit(requests)
}

// RateLimitRelaxed returns the permissive limiter used for admin routes
// and health endpoints.
func (m *ChiMiddleware) RateLimitRelaxed() func(http.Handler) http.Handler {
	return m.limit(m.config.RelaxedLimitRequests)
}

func (m *ChiMiddleware) limit(requests int) func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		requests,
		m.config.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(m.onLimit),
	)
}

// onLimit writes the 429 envelope with Retry-After and records the hit.
func (m *ChiMiddleware) onLimit(w http.ResponseWriter, r *http.Request) {
	metrics.APIRateLimitHits.WithLabelValues(r.URL.Path).Inc()
	if m.audits != nil {
		m.audits.LogRateLimited(r.Context(), r.URL.Path, audit.SourceFromRequest(r))
	}
	NewResponseWriter(w, r).TooManyRequests("rate limit exceeded", m.config.RateLimitWindow)
}
