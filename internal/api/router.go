// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/courseguard/courseguard/internal/auth"
	"github.com/courseguard/courseguard/internal/middleware"
)

// Router assembles the HTTP surface.
type Router struct {
	handler *Handler
	authn   *auth.Middleware
	chi     *ChiMiddleware
}

// NewRouter creates the router from its collaborators.
func NewRouter(handler *Handler, tokens *auth.JWTManager, chiMW *ChiMiddleware) *Router {
	authn := auth.NewMiddleware(tokens, func(w http.ResponseWriter, r *http.Request, reason string) {
		w.Header().Set("WWW-Authenticate", "Bearer")
		NewResponseWriter(w, r).Unauthorized(reason)
	})
	return &Router{
		handler: handler,
		authn:   authn,
		chi:     chiMW,
	}
}

// Setup wires all routes. Protected groups run the ordered pipeline:
// header validation, then rate limiting, then authentication, then the
// content-protection response headers. Malformed coordination headers
// are rejected before any registry access.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chi.CORS())
	r.Use(middleware.ValidateCDNHeaders)

	// Health endpoints: relaxed limiter, no auth.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chi.RateLimitRelaxed())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Protected content and DRM endpoints.
	r.Group(func(r chi.Router) {
		r.Use(router.chi.RateLimit())
		r.Use(middleware.PrometheusMetrics)
		r.Use(router.authn.Authenticate)
		r.Use(middleware.ContentProtectionHeaders)
		r.Use(middleware.Compression)

		r.Get("/api/v1/videos/{id}", router.handler.GetVideo)
		r.Get("/api/v1/courses/{id}/videos", router.handler.ListCourseVideos)
		r.Post("/api/v1/drm/decrypt-url", router.handler.DecryptURL)
		r.Post("/api/v1/drm/sessions/{id}/validate", router.handler.ValidateSession)
		r.Post("/api/v1/drm/sessions/{id}/report", router.handler.ReportEnvironment)
		// Owners revoke their own sessions on logout; the handler widens
		// this to any session for admins.
		r.Delete("/api/v1/drm/sessions/{id}", router.handler.RevokeSession)
	})

	// Admin endpoints: relaxed limiter so operator tooling is never
	// starved by the per-IP viewer limit, admin role required.
	r.Group(func(r chi.Router) {
		r.Use(router.chi.RateLimitRelaxed())
		r.Use(middleware.PrometheusMetrics)
		r.Use(router.authn.Authenticate)
		r.Use(router.authn.RequireAdmin)
		r.Use(middleware.ContentProtectionHeaders)

		r.Get("/api/v1/drm/stats", router.handler.Stats)
		r.Get("/api/v1/audit/events", router.handler.AuditEvents)
	})

	// Prometheus scrape endpoint, outside the protected pipeline.
	r.Handle("/metrics", promhttp.Handler())

	return r
}
