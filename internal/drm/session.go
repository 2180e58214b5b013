// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

// Package drm manages DRM playback sessions: their lifecycle, persistence,
// per-session URL encryption, and the bearer tokens that tie a player to a
// session.
//
// A session moves through exactly one of three states after creation:
//
//	Active  -> Expired  (wall clock passes ExpiresAt)
//	Active  -> Revoked  (explicit revocation)
//
// Expired and Revoked are absorbing: no operation reactivates a session, and
// expiry never un-revokes one. Expiry is evaluated against the wall clock at
// every check rather than by a background transition, so a session observed
// as expired stays expired even if the record has not been swept yet.
package drm

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

// Session lifecycle errors.
var (
	// ErrSessionNotFound is returned when a session is not in the store.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired is returned when the session's lifetime has passed.
	ErrSessionExpired = errors.New("session expired")

	// ErrSessionRevoked is returned when the session has been revoked.
	ErrSessionRevoked = errors.New("session revoked")

	// ErrAccessDenied is returned when a session is requested without a
	// granting access decision.
	ErrAccessDenied = errors.New("access denied")
)

// State is the lifecycle state of a session at a point in time.
type State string

const (
	StateActive  State = "active"
	StateExpired State = "expired"
	StateRevoked State = "revoked"
)

// Session represents one playback authorization for one (user, video) pair.
// The per-session encryption key is never stored; it is re-derived from the
// master key and the session ID whenever the codec needs it.
type Session struct {
	// ID is the opaque session identifier (64 hex characters).
	ID string `json:"id"`

	// UserID is the viewer this session was issued to.
	UserID string `json:"userId"`

	// VideoID is the protected video this session authorizes.
	VideoID string `json:"videoId"`

	// CourseID is the course the video belongs to.
	CourseID string `json:"courseId"`

	// CreatedAt is when the session was issued.
	CreatedAt time.Time `json:"createdAt"`

	// ExpiresAt is when the session stops authorizing playback.
	ExpiresAt time.Time `json:"expiresAt"`

	// LastSeenAt is the last successful validation or heartbeat.
	LastSeenAt time.Time `json:"lastSeenAt"`

	// WatermarkPayload is the forensic overlay text for this session.
	WatermarkPayload string `json:"watermarkPayload"`

	// AccessToken is the signed bearer token the player presents.
	AccessToken string `json:"accessToken"`

	// EncryptedURL is the playback URL sealed under this session's key.
	EncryptedURL string `json:"encryptedUrl"`

	// Revoked marks the session as explicitly terminated.
	Revoked bool `json:"revoked,omitempty"`

	// RevokedBy records who terminated the session ("admin", "sweeper").
	RevokedBy string `json:"revokedBy,omitempty"`

	// RevokedAt is when the session was terminated.
	RevokedAt time.Time `json:"revokedAt,omitempty"`
}

// StateAt returns the session's lifecycle state as of now.
// Revocation wins over expiry so an operator-terminated session reports
// the stronger reason even after its natural lifetime passes.
func (s *Session) StateAt(now time.Time) State {
	if s.Revoked {
		return StateRevoked
	}
	if now.After(s.ExpiresAt) {
		return StateExpired
	}
	return StateActive
}

// IsExpired reports whether the session's lifetime has passed.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// generateSessionID generates a cryptographically secure session ID.
func generateSessionID() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
