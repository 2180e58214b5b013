// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

// Package audit records security-relevant DRM events for compliance and
// forensic analysis: who asked for what, what was decided, and what the
// detection heuristics saw.
package audit

import (
	"context"
	"time"

	"github.com/goccy/go-json"
)

// EventType categorizes audit events.
type EventType string

const (
	// Access decision events
	EventTypeAccessGranted EventType = "access.granted"
	EventTypeAccessDenied  EventType = "access.denied"

	// DRM session lifecycle events
	EventTypeSessionCreated   EventType = "drm.session_created"
	EventTypeSessionValidated EventType = "drm.session_validated"
	EventTypeSessionRevoked   EventType = "drm.session_revoked"
	EventTypeSessionExpired   EventType = "drm.session_expired"

	// URL codec events
	EventTypeDecryptFailed EventType = "drm.decrypt_failed"

	// Detection events
	EventTypeViolation EventType = "piracy.violation"

	// Middleware events
	EventTypeRateLimited EventType = "ratelimit.exceeded"
	EventTypeBadHeaders  EventType = "request.invalid_headers"

	// Administrative events
	EventTypeAdminAction EventType = "admin.action"
)

// Severity indicates the severity level of an audit event.
type Severity string

const (
	SeverityDebug    Severity = "debug"
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Outcome indicates whether an action succeeded or failed.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Event represents one security audit event.
type Event struct {
	// ID is a unique identifier for this event.
	ID string `json:"id"`

	// Timestamp when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type categorizes the event.
	Type EventType `json:"type"`

	// Severity of the event.
	Severity Severity `json:"severity"`

	// Outcome indicates success or failure.
	Outcome Outcome `json:"outcome"`

	// UserID is the platform user involved, if known.
	UserID string `json:"userId,omitempty"`

	// VideoID is the protected video involved, if any.
	VideoID string `json:"videoId,omitempty"`

	// SessionID is the DRM session involved, if any. Stored truncated.
	SessionID string `json:"sessionId,omitempty"`

	// Source of the request.
	Source Source `json:"source"`

	// Action describes what was done.
	Action string `json:"action"`

	// Description provides human-readable details.
	Description string `json:"description"`

	// Metadata contains event-specific details.
	Metadata json.RawMessage `json:"metadata,omitempty"`

	// RequestID from the originating HTTP request.
	RequestID string `json:"requestId,omitempty"`
}

// Source represents where a request originated.
type Source struct {
	// IPAddress of the client.
	IPAddress string `json:"ipAddress"`

	// UserAgent of the client.
	UserAgent string `json:"userAgent,omitempty"`
}

// Store defines the interface for audit event persistence.
type Store interface {
	// Save persists an audit event.
	Save(ctx context.Context, event *Event) error

	// Query retrieves events matching the filter, newest first.
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)

	// Count returns the number of events matching the filter.
	Count(ctx context.Context, filter QueryFilter) (int64, error)

	// Delete removes events older than the cutoff.
	// Returns the count of deleted events.
	Delete(ctx context.Context, olderThan time.Time) (int64, error)
}

// QueryFilter defines filtering options for audit queries.
type QueryFilter struct {
	// Types filters by event types.
	Types []EventType `json:"types,omitempty"`

	// Severities filters by severity levels.
	Severities []Severity `json:"severities,omitempty"`

	// UserID filters by user.
	UserID string `json:"userId,omitempty"`

	// VideoID filters by video.
	VideoID string `json:"videoId,omitempty"`

	// SessionID filters by session (truncated form).
	SessionID string `json:"sessionId,omitempty"`

	// StartTime is the beginning of the time range.
	StartTime *time.Time `json:"startTime,omitempty"`

	// EndTime is the end of the time range.
	EndTime *time.Time `json:"endTime,omitempty"`

	// Limit is the maximum number of results.
	Limit int `json:"limit,omitempty"`

	// Offset for pagination.
	Offset int `json:"offset,omitempty"`
}

// DefaultQueryFilter returns a sensible default filter.
func DefaultQueryFilter() QueryFilter {
	return QueryFilter{Limit: 100}
}

// matches reports whether an event passes the filter.
func (f *QueryFilter) matches(event *Event) bool {
	if len(f.Types) > 0 && !containsType(f.Types, event.Type) {
		return false
	}
	if len(f.Severities) > 0 && !containsSeverity(f.Severities, event.Severity) {
		return false
	}
	if f.UserID != "" && event.UserID != f.UserID {
		return false
	}
	if f.VideoID != "" && event.VideoID != f.VideoID {
		return false
	}
	if f.SessionID != "" && event.SessionID != f.SessionID {
		return false
	}
	if f.StartTime != nil && event.Timestamp.Before(*f.StartTime) {
		return false
	}
	if f.EndTime != nil && event.Timestamp.After(*f.EndTime) {
		return false
	}
	return true
}

func containsType(haystack []EventType, needle EventType) bool {
	for _, t := range haystack {
		if t == needle {
			return true
		}
	}
	return false
}

func containsSeverity(haystack []Severity, needle Severity) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
