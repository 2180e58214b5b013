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
	"github.com/courseguard/courseguard/internal/auth"
	"github.com/courseguard/courseguard/internal/drm"
	"github.com/courseguard/courseguard/internal/validation"
)

// DecryptURL opens a sealed playback URL for an active session.
// Lifecycle failures are distinct from cryptographic ones: an expired or
// revoked session gets its own code so the player reacts correctly, and
// a sealed URL replayed against another session fails authentication.
func (h *Handler) DecryptURL(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req DecryptURLRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	url, err := h.sessions.DecryptURL(r.Context(), req.SessionID, req.EncryptedURL, r.RemoteAddr)
	if err != nil {
		source := audit.SourceFromRequest(r)
		switch {
		case errors.Is(err, drm.ErrSessionNotFound):
			rw.Error(http.StatusNotFound, ErrCodeSessionNotFound, "session not found")
		case errors.Is(err, drm.ErrSessionExpired):
			h.audits.LogSessionExpired(r.Context(), req.SessionID, source)
			rw.Error(http.StatusForbidden, ErrCodeSessionExpired, "session expired")
		case errors.Is(err, drm.ErrSessionRevoked):
			rw.Error(http.StatusForbidden, ErrCodeSessionRevoked, "session revoked")
		case errors.Is(err, drm.ErrInvalidCiphertext):
			h.audits.LogDecryptFailed(r.Context(), req.SessionID, "invalid_ciphertext", source)
			rw.Error(http.StatusBadRequest, ErrCodeDecryptionFailed, "malformed encrypted URL")
		case errors.Is(err, drm.ErrDecryptionFailed):
			h.audits.LogDecryptFailed(r.Context(), req.SessionID, "auth_failed", source)
			rw.Error(http.StatusForbidden, ErrCodeDecryptionFailed, "decryption failed")
		default:
			rw.InternalError("decryption failed")
		}
		return
	}

	rw.Success(map[string]string{"decryptedUrl": url})
}

// SessionStatus is the payload of the validate endpoint.
type SessionStatus struct {
	Valid     bool   `json:"valid"`
	State     string `json:"state"`
	ExpiresAt int64  `json:"expiresAt,omitempty"`
}

// ValidateSession reports whether a session is still playable. Expiry
// and revocation are answered with 200 and valid=false; only an unknown
// session is a 404. Validation touches the session's last-seen time.
func (h *Handler) ValidateSession(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	sessionID := chi.URLParam(r, "id")

	session, err := h.sessions.Validate(r.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, drm.ErrSessionNotFound):
			rw.Error(http.StatusNotFound, ErrCodeSessionNotFound, "session not found")
		case errors.Is(err, drm.ErrSessionExpired):
			h.audits.LogSessionExpired(r.Context(), sessionID, audit.SourceFromRequest(r))
			rw.Success(SessionStatus{Valid: false, State: string(drm.StateExpired)})
		case errors.Is(err, drm.ErrSessionRevoked):
			rw.Success(SessionStatus{Valid: false, State: string(drm.StateRevoked)})
		default:
			rw.InternalError("session validation failed")
		}
		return
	}

	rw.Success(SessionStatus{
		Valid:     true,
		State:     string(drm.StateActive),
		ExpiresAt: session.ExpiresAt.Unix(),
	})
}

// RevokeSession terminates a session immediately. Owners revoke their
// own sessions (logout); admins revoke any. Revoking an already-revoked
// session is an idempotent 200.
func (h *Handler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	sessionID := chi.URLParam(r, "id")

	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		rw.Unauthorized("authentication required")
		return
	}

	session, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, drm.ErrSessionNotFound) {
			rw.Error(http.StatusNotFound, ErrCodeSessionNotFound, "session not found")
		} else {
			rw.InternalError("revocation failed")
		}
		return
	}
	if session.UserID != user.ID && !user.IsAdmin() {
		rw.Forbidden("session belongs to another user")
		return
	}

	var req RevokeRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			rw.BadRequest(err.Error())
			return
		}
	}

	err = h.sessions.Revoke(r.Context(), sessionID, user.Username, r.RemoteAddr)
	if err != nil {
		switch {
		case errors.Is(err, drm.ErrSessionNotFound):
			rw.Error(http.StatusNotFound, ErrCodeSessionNotFound, "session not found")
		case errors.Is(err, drm.ErrSessionExpired):
			rw.Error(http.StatusForbidden, ErrCodeSessionExpired, "session already expired")
		default:
			rw.InternalError("revocation failed")
		}
		return
	}

	h.audits.LogSessionRevoked(r.Context(), sessionID, user.Username, audit.SourceFromRequest(r))
	rw.Success(map[string]string{"status": "revoked"})
}

// StatsResponse summarizes sessions and the detection engine for admins.
type StatsResponse struct {
	Sessions   drm.Stats         `json:"sessions"`
	Heuristics []HeuristicStatus `json:"heuristics"`
}

// HeuristicStatus is the admin view of one detection heuristic.
type HeuristicStatus struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// Stats returns session lifecycle counts and heuristic states. Admin only.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	stats, err := h.sessions.Stats(r.Context())
	if err != nil {
		rw.InternalError("stats unavailable")
		return
	}

	heuristics := h.detector.List()
	statuses := make([]HeuristicStatus, len(heuristics))
	for i, heuristic := range heuristics {
		statuses[i] = HeuristicStatus{
			Name:    string(heuristic.Name()),
			Enabled: heuristic.Enabled(),
		}
	}

	rw.Success(StatsResponse{
		Sessions:   stats,
		Heuristics: statuses,
	})
}
