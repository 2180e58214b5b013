// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

package logging

import (
	"strings"

	"github.com/rs/zerolog"
)

// SecurityEvent represents a security-relevant DRM event for structured logging.
type SecurityEvent struct {
	// Event is the type of event (e.g., "access_denied", "session_revoked").
	Event string
	// UserID is the user's identifier (if known).
	UserID string
	// VideoID is the protected video involved (if known).
	VideoID string
	// SessionID is the DRM session identifier (sanitized before output).
	SessionID string
	// IPAddress is the client's IP address.
	IPAddress string
	// UserAgent is the client's user agent (truncated).
	UserAgent string
	// Success indicates if the operation was successful.
	Success bool
	// Error is the error message if the operation failed.
	Error string
	// Details contains additional sanitized details.
	Details map[string]string
}

// SecurityLogger provides structured logging for DRM security events.
// It sanitizes session identifiers and bounds free-form fields before output.
type SecurityLogger struct {
	logger zerolog.Logger
}

// NewSecurityLogger creates a new security logger.
func NewSecurityLogger() *SecurityLogger {
	return &SecurityLogger{
		logger: With().Str("component", "drm-security").Logger(),
	}
}

// NewSecurityLoggerWithLogger creates a security logger with a custom zerolog logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSecurityLoggerWithLogger(logger zerolog.Logger) *SecurityLogger {
	return &SecurityLogger{
		logger: logger.With().Str("component", "drm-security").Logger(),
	}
}

// LogEvent logs a security event with automatic sanitization.
func (l *SecurityLogger) LogEvent(event *SecurityEvent) {
	e := l.logger.Info().Str("event", event.Event)

	if event.Success {
		e = e.Str("status", "success")
	} else {
		e = e.Str("status", "failed")
	}
	if event.UserID != "" {
		e = e.Str("user_id", event.UserID)
	}
	if event.VideoID != "" {
		e = e.Str("video_id", event.VideoID)
	}
	if event.SessionID != "" {
		e = e.Str("session_id", SanitizeSessionID(event.SessionID))
	}
	if event.IPAddress != "" {
		e = e.Str("ip", event.IPAddress)
	}
	if event.UserAgent != "" {
		e = e.Str("user_agent", truncateString(event.UserAgent, 100))
	}
	if event.Error != "" && !event.Success {
		e = e.Str("error", truncateString(event.Error, 200))
	}
	for k, v := range event.Details {
		e = e.Str(k, truncateString(v, 200))
	}

	e.Msg("")
}

// LogAccessDenied logs a denied access decision.
func (l *SecurityLogger) LogAccessDenied(userID, videoID, reason, ip string) {
	l.LogEvent(&SecurityEvent{
		Event:     "access_denied",
		UserID:    userID,
		VideoID:   videoID,
		IPAddress: ip,
		Success:   false,
		Error:     reason,
	})
}

// LogSessionCreated logs a DRM session creation event.
func (l *SecurityLogger) LogSessionCreated(userID, videoID, sessionID, ip string) {
	l.LogEvent(&SecurityEvent{
		Event:     "session_created",
		UserID:    userID,
		VideoID:   videoID,
		SessionID: sessionID,
		IPAddress: ip,
		Success:   true,
	})
}

// LogSessionRevoked logs a DRM session revocation event.
func (l *SecurityLogger) LogSessionRevoked(userID, sessionID, revokedBy, ip string) {
	l.LogEvent(&SecurityEvent{
		Event:     "session_revoked",
		UserID:    userID,
		SessionID: sessionID,
		IPAddress: ip,
		Success:   true,
		Details: map[string]string{
			"revoked_by": revokedBy,
		},
	})
}

// LogDecryptFailure logs a failed URL decryption, a possible tampering signal.
func (l *SecurityLogger) LogDecryptFailure(userID, sessionID, ip, reason string) {
	l.LogEvent(&SecurityEvent{
		Event:     "decrypt_failed",
		UserID:    userID,
		SessionID: sessionID,
		IPAddress: ip,
		Success:   false,
		Error:     reason,
	})
}

// LogViolation logs an anti-piracy violation report.
func (l *SecurityLogger) LogViolation(userID, sessionID, heuristic, detail string) {
	l.LogEvent(&SecurityEvent{
		Event:     "piracy_violation",
		UserID:    userID,
		SessionID: sessionID,
		Success:   false,
		Details: map[string]string{
			"heuristic": heuristic,
			"detail":    detail,
		},
	})
}

// SanitizeSessionID truncates a session ID so the full credential never
// appears in logs. The 8-character prefix is enough for correlation.
func SanitizeSessionID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}

// truncateString bounds a string to the given length.
func truncateString(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
