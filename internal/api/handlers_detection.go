// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/courseguard/courseguard/internal/audit"
	"github.com/courseguard/courseguard/internal/detection"
	"github.com/courseguard/courseguard/internal/drm"
	"github.com/courseguard/courseguard/internal/validation"
)

// ReportEnvironment is the playback heartbeat: the player posts an
// environment sample, the detection engine evaluates it immediately, and
// the sample is retained as the session's latest for the sweeper.
// Only active sessions may report; a terminated session gets the same
// lifecycle codes as validation.
func (h *Handler) ReportEnvironment(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	sessionID := chi.URLParam(r, "id")

	session, err := h.sessions.Validate(r.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, drm.ErrSessionNotFound):
			rw.Error(http.StatusNotFound, ErrCodeSessionNotFound, "session not found")
		case errors.Is(err, drm.ErrSessionExpired):
			rw.Error(http.StatusForbidden, ErrCodeSessionExpired, "session expired")
		case errors.Is(err, drm.ErrSessionRevoked):
			rw.Error(http.StatusForbidden, ErrCodeSessionRevoked, "session revoked")
		default:
			rw.InternalError("session validation failed")
		}
		return
	}

	var sample detection.EnvironmentSample
	if err := decodeJSON(r, &sample); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	// The URL, not the body, names the session.
	sample.SessionID = sessionID

	if verr := validation.ValidateStruct(&sample); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	if err := h.samples.Put(r.Context(), &sample); err != nil {
		rw.InternalError("failed to store sample")
		return
	}

	report := h.detector.Evaluate(r.Context(), session.UserID, &sample)

	source := audit.SourceFromRequest(r)
	for _, violation := range report.Violations {
		h.audits.LogViolation(r.Context(), session.UserID, sessionID,
			string(violation.Heuristic), string(violation.Severity), violation.Message, source)
	}

	rw.Success(report)
}
