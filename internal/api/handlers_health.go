// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

package api

import (
	"net/http"
	"time"
)

var startTime = time.Now()

// Version is stamped at build time via -ldflags.
var Version = "dev"

// HealthLive is the liveness probe: the process is up and serving.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "alive"})
}

// HealthReady is the readiness probe: the session registry answers.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if _, err := h.sessions.Stats(r.Context()); err != nil {
		rw.Error(http.StatusServiceUnavailable, ErrCodeInternalError, "session registry unavailable")
		return
	}
	rw.Success(map[string]string{"status": "ready"})
}

// Health reports overall service health with version and uptime.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	status := "healthy"
	httpStatus := http.StatusOK
	if _, err := h.sessions.Stats(r.Context()); err != nil {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	payload := map[string]interface{}{
		"status":         status,
		"version":        Version,
		"uptime_seconds": int64(time.Since(startTime).Seconds()),
	}
	if httpStatus == http.StatusOK {
		rw.Success(payload)
		return
	}
	rw.writeJSON(httpStatus, APIResponse{Success: false, Data: payload, Meta: rw.meta()})
}
