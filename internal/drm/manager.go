// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

package drm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/courseguard/courseguard/internal/access"
	"github.com/courseguard/courseguard/internal/catalog"
	"github.com/courseguard/courseguard/internal/logging"
	"github.com/courseguard/courseguard/internal/metrics"
	"github.com/courseguard/courseguard/internal/watermark"
)

// Manager owns the session lifecycle: creation gated on an access decision,
// wall-clock validation, idempotent revocation, and sealed playback URLs.
type Manager struct {
	store    SessionStore
	codec    *URLCodec
	tokens   *TokenIssuer
	resolver catalog.StorageResolver
	ttl      time.Duration
	security *logging.SecurityLogger

	// now is swappable for tests.
	now func() time.Time
}

// NewManager creates a session manager.
func NewManager(store SessionStore, codec *URLCodec, tokens *TokenIssuer, resolver catalog.StorageResolver, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Manager{
		store:    store,
		codec:    codec,
		tokens:   tokens,
		resolver: resolver,
		ttl:      ttl,
		security: logging.NewSecurityLogger(),
		now:      time.Now,
	}
}

// CreateRequest carries everything needed to open a playback session.
type CreateRequest struct {
	UserID   string
	ClientIP string

	// Decision is the access evaluation for (UserID, video). Sessions are
	// only ever created from a granting decision; the manager re-checks
	// rather than trusting the caller's routing.
	Decision access.Decision
}

// Create opens a new playback session.
//
// The session carries a deterministic watermark payload, a signed playback
// token, and the video's raw signed URL sealed under the session's derived
// key. Returns ErrAccessDenied when the decision does not grant access.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (*Session, error) {
	if !req.Decision.HasAccess || req.Decision.Video == nil {
		return nil, ErrAccessDenied
	}
	video := req.Decision.Video

	id, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	now := m.now()
	session := &Session{
		ID:               id,
		UserID:           req.UserID,
		VideoID:          video.ID,
		CourseID:         video.CourseID,
		CreatedAt:        now,
		ExpiresAt:        now.Add(m.ttl),
		LastSeenAt:       now,
		WatermarkPayload: watermark.DerivePayload(req.UserID, video.ID, now),
	}

	token, err := m.tokens.Issue(session)
	if err != nil {
		return nil, err
	}
	session.AccessToken = token

	rawURL, err := m.resolver.SignedURL(ctx, video.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("resolve playback url: %w", err)
	}

	session.EncryptedURL, err = m.codec.EncryptURL(id, rawURL)
	if err != nil {
		return nil, fmt.Errorf("seal playback url: %w", err)
	}

	if err := m.store.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	metrics.SessionsCreated.Inc()
	metrics.ActiveSessions.Inc()
	m.security.LogSessionCreated(req.UserID, video.ID, id, req.ClientIP)

	return session, nil
}

// Validate checks that a session authorizes playback right now.
//
// The state is evaluated against the wall clock at call time: a session past
// its expiry is reported expired even if the record has not been swept.
// Successful validation refreshes LastSeenAt.
func (m *Manager) Validate(ctx context.Context, id string) (*Session, error) {
	session, err := m.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			metrics.SessionValidations.WithLabelValues("not_found").Inc()
		}
		return nil, err
	}

	switch session.StateAt(m.now()) {
	case StateRevoked:
		metrics.SessionValidations.WithLabelValues("revoked").Inc()
		return nil, ErrSessionRevoked
	case StateExpired:
		metrics.SessionValidations.WithLabelValues("expired").Inc()
		return nil, ErrSessionExpired
	}

	// Touch only moves LastSeenAt; writing the whole record back from this
	// snapshot could overwrite a revocation that landed since the Get.
	session.LastSeenAt = m.now()
	if err := m.store.Touch(ctx, id, session.LastSeenAt); err != nil {
		// Validation already succeeded; a failed touch is not a denial.
		logging.Ctx(ctx).Warn().Err(err).
			Str("session_id", logging.SanitizeSessionID(id)).
			Msg("session touch failed")
	}

	metrics.SessionValidations.WithLabelValues("active").Inc()
	return session, nil
}

// Revoke terminates a session.
//
// Revoking an already revoked session is a no-op, so retried revocations and
// concurrent admin action converge on the same terminal state. Expired
// sessions stay expired; they cannot be rewritten into revoked.
func (m *Manager) Revoke(ctx context.Context, id, revokedBy, clientIP string) error {
	session, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}

	switch session.StateAt(m.now()) {
	case StateRevoked:
		return nil
	case StateExpired:
		return ErrSessionExpired
	}

	session.Revoked = true
	session.RevokedBy = revokedBy
	session.RevokedAt = m.now()

	if err := m.store.Update(ctx, session); err != nil {
		return fmt.Errorf("persist revocation: %w", err)
	}

	metrics.SessionsRevoked.WithLabelValues(revokedBy).Inc()
	metrics.ActiveSessions.Dec()
	m.security.LogSessionRevoked(session.UserID, id, revokedBy, clientIP)

	return nil
}

// DecryptURL validates the session and opens a sealed playback URL under its
// key. Session-state errors and cryptographic errors stay distinguishable so
// callers can tell a lapsed session from a tampered blob.
func (m *Manager) DecryptURL(ctx context.Context, sessionID, sealed, clientIP string) (string, error) {
	session, err := m.Validate(ctx, sessionID)
	if err != nil {
		metrics.URLDecryptFailures.WithLabelValues("session").Inc()
		return "", err
	}

	rawURL, err := m.codec.DecryptURL(sessionID, sealed)
	if err != nil {
		reason := "auth_failed"
		if errors.Is(err, ErrInvalidCiphertext) {
			reason = "invalid_ciphertext"
		}
		metrics.URLDecryptFailures.WithLabelValues(reason).Inc()
		m.security.LogDecryptFailure(session.UserID, sessionID, clientIP, reason)
		return "", err
	}

	metrics.URLDecryptions.Inc()
	return rawURL, nil
}

// Get returns the raw session record without lifecycle checks.
// Handlers that need to show terminal sessions (stats, audit) use this;
// playback paths go through Validate.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	return m.store.Get(ctx, id)
}

// Stats summarizes the store by lifecycle state.
type Stats struct {
	Total   int `json:"total"`
	Active  int `json:"active"`
	Expired int `json:"expired"`
	Revoked int `json:"revoked"`
}

// Stats reports session counts by state as of now.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	sessions, err := m.store.List(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("list sessions: %w", err)
	}

	now := m.now()
	stats := Stats{Total: len(sessions)}
	for _, session := range sessions {
		switch session.StateAt(now) {
		case StateActive:
			stats.Active++
		case StateExpired:
			stats.Expired++
		case StateRevoked:
			stats.Revoked++
		}
	}
	return stats, nil
}

// ActiveSessions returns all sessions currently in the active state.
func (m *Manager) ActiveSessions(ctx context.Context) ([]*Session, error) {
	sessions, err := m.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	now := m.now()
	active := sessions[:0]
	for _, session := range sessions {
		if session.StateAt(now) == StateActive {
			active = append(active, session)
		}
	}
	return active, nil
}

// CleanupExpired deletes session records whose expiry passed more than
// retention ago. Recently expired records are kept so players polling a
// lapsed session still get a precise expiry error instead of not-found.
func (m *Manager) CleanupExpired(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := m.now().Add(-retention)
	count, err := m.store.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if count > 0 {
		metrics.SessionsExpired.Add(float64(count))
		logging.Info().Int("count", count).Msg("expired sessions removed")
	}

	if err := m.syncActiveGauge(ctx); err != nil {
		logging.Warn().Err(err).Msg("active session gauge refresh failed")
	}

	return count, nil
}

// syncActiveGauge recomputes the active-session gauge from the store.
// Expiry happens by clock, not by event, so the gauge drifts between sweeps.
func (m *Manager) syncActiveGauge(ctx context.Context) error {
	stats, err := m.Stats(ctx)
	if err != nil {
		return err
	}
	metrics.ActiveSessions.Set(float64(stats.Active))
	return nil
}
