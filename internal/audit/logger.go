// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

package audit

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/courseguard/courseguard/internal/logging"
	"github.com/courseguard/courseguard/internal/metrics"
)

// Config holds audit logger configuration.
type Config struct {
	// Enabled turns audit logging on or off.
	Enabled bool

	// BufferSize is the capacity of the async event buffer.
	BufferSize int

	// LogToStdout mirrors audit events to the application log.
	LogToStdout bool
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		BufferSize: 1000,
	}
}

// Logger writes audit events asynchronously. Events are buffered and
// persisted by a background goroutine; when the buffer is full, events
// are dropped and counted rather than blocking the request path.
type Logger struct {
	store     Store
	config    Config
	eventChan chan *Event
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewLogger creates an audit logger backed by the given store and starts
// its writer goroutine. Call Close to flush and stop it.
func NewLogger(store Store, config Config) *Logger {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}
	l := &Logger{
		store:     store,
		config:    config,
		eventChan: make(chan *Event, config.BufferSize),
		done:      make(chan struct{}),
	}
	if config.Enabled {
		l.wg.Add(1)
		go l.writeLoop()
	}
	return l
}

// Close stops the writer after draining buffered events.
func (l *Logger) Close() {
	l.closeOnce.Do(func() {
		close(l.done)
	})
	l.wg.Wait()
}

func (l *Logger) writeLoop() {
	defer l.wg.Done()
	for {
		select {
		case event := <-l.eventChan:
			l.persist(event)
		case <-l.done:
			// Drain whatever is still buffered.
			for {
				select {
				case event := <-l.eventChan:
					l.persist(event)
				default:
					return
				}
			}
		}
	}
}

func (l *Logger) persist(event *Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := l.store.Save(ctx, event); err != nil {
		logging.Error().Err(err).
			Str("event_type", string(event.Type)).
			Msg("audit event persistence failed")
		return
	}
	metrics.AuditEventsLogged.WithLabelValues(string(event.Type)).Inc()

	if l.config.LogToStdout {
		logging.Info().
			Str("audit_type", string(event.Type)).
			Str("severity", string(event.Severity)).
			Str("outcome", string(event.Outcome)).
			Str("action", event.Action).
			Msg(event.Description)
	}
}

// Log records an audit event. It fills in ID, timestamp, and request ID
// from the context, then hands the event to the async writer. Never
// blocks: a full buffer drops the event and increments a counter.
func (l *Logger) Log(ctx context.Context, event *Event) {
	if !l.config.Enabled {
		return
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.RequestID == "" {
		event.RequestID = logging.RequestIDFromContext(ctx)
	}
	event.SessionID = logging.SanitizeSessionID(event.SessionID)

	select {
	case l.eventChan <- event:
	default:
		metrics.AuditEventsDropped.Inc()
		logging.Warn().
			Str("event_type", string(event.Type)).
			Msg("audit buffer full, event dropped")
	}
}

// Query retrieves events from the underlying store.
func (l *Logger) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	return l.store.Query(ctx, filter)
}

// Count returns the number of stored events matching the filter.
func (l *Logger) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	return l.store.Count(ctx, filter)
}

// Cleanup deletes events older than the retention cutoff.
func (l *Logger) Cleanup(ctx context.Context, olderThan time.Time) (int64, error) {
	return l.store.Delete(ctx, olderThan)
}

// LogAccessGranted records a positive access decision.
func (l *Logger) LogAccessGranted(ctx context.Context, userID, videoID string, source Source) {
	l.Log(ctx, &Event{
		Type:        EventTypeAccessGranted,
		Severity:    SeverityInfo,
		Outcome:     OutcomeSuccess,
		UserID:      userID,
		VideoID:     videoID,
		Source:      source,
		Action:      "access.evaluate",
		Description: "video access granted",
	})
}

// LogAccessDenied records a denied access decision with its lock reason.
func (l *Logger) LogAccessDenied(ctx context.Context, userID, videoID, reason string, source Source) {
	l.Log(ctx, &Event{
		Type:        EventTypeAccessDenied,
		Severity:    SeverityWarning,
		Outcome:     OutcomeFailure,
		UserID:      userID,
		VideoID:     videoID,
		Source:      source,
		Action:      "access.evaluate",
		Description: "video access denied",
		Metadata:    mustJSON(map[string]string{"reason": reason}),
	})
}

// LogSessionCreated records a new DRM playback session.
func (l *Logger) LogSessionCreated(ctx context.Context, userID, videoID, sessionID string, source Source) {
	l.Log(ctx, &Event{
		Type:        EventTypeSessionCreated,
		Severity:    SeverityInfo,
		Outcome:     OutcomeSuccess,
		UserID:      userID,
		VideoID:     videoID,
		SessionID:   sessionID,
		Source:      source,
		Action:      "drm.create_session",
		Description: "DRM session created",
	})
}

// LogSessionRevoked records a session revocation and who issued it.
func (l *Logger) LogSessionRevoked(ctx context.Context, sessionID, revokedBy string, source Source) {
	l.Log(ctx, &Event{
		Type:        EventTypeSessionRevoked,
		Severity:    SeverityWarning,
		Outcome:     OutcomeSuccess,
		SessionID:   sessionID,
		Source:      source,
		Action:      "drm.revoke_session",
		Description: "DRM session revoked",
		Metadata:    mustJSON(map[string]string{"revokedBy": revokedBy}),
	})
}

// LogSessionExpired records that validation found a session past its expiry.
func (l *Logger) LogSessionExpired(ctx context.Context, sessionID string, source Source) {
	l.Log(ctx, &Event{
		Type:        EventTypeSessionExpired,
		Severity:    SeverityInfo,
		Outcome:     OutcomeFailure,
		SessionID:   sessionID,
		Source:      source,
		Action:      "drm.validate_session",
		Description: "DRM session expired",
	})
}

// LogDecryptFailed records a failed URL decryption attempt. These cluster
// when someone replays sealed URLs across sessions.
func (l *Logger) LogDecryptFailed(ctx context.Context, sessionID, reason string, source Source) {
	l.Log(ctx, &Event{
		Type:        EventTypeDecryptFailed,
		Severity:    SeverityError,
		Outcome:     OutcomeFailure,
		SessionID:   sessionID,
		Source:      source,
		Action:      "drm.decrypt_url",
		Description: "playback URL decryption failed",
		Metadata:    mustJSON(map[string]string{"reason": reason}),
	})
}

// LogViolation records an anti-piracy heuristic finding.
func (l *Logger) LogViolation(ctx context.Context, userID, sessionID, heuristic, severity, message string, source Source) {
	l.Log(ctx, &Event{
		Type:        EventTypeViolation,
		Severity:    violationSeverity(severity),
		Outcome:     OutcomeFailure,
		UserID:      userID,
		SessionID:   sessionID,
		Source:      source,
		Action:      "detection.evaluate",
		Description: message,
		Metadata:    mustJSON(map[string]string{"heuristic": heuristic}),
	})
}

// LogRateLimited records a request rejected by the rate limiter.
func (l *Logger) LogRateLimited(ctx context.Context, endpoint string, source Source) {
	l.Log(ctx, &Event{
		Type:        EventTypeRateLimited,
		Severity:    SeverityWarning,
		Outcome:     OutcomeFailure,
		Source:      source,
		Action:      "ratelimit.reject",
		Description: "request rate limit exceeded",
		Metadata:    mustJSON(map[string]string{"endpoint": endpoint}),
	})
}

// violationSeverity maps a detection severity string onto audit severity.
func violationSeverity(s string) Severity {
	switch strings.ToLower(s) {
	case "critical":
		return SeverityCritical
	case "warning":
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// SourceFromRequest extracts the client source from an HTTP request.
func SourceFromRequest(r *http.Request) Source {
	ip := r.RemoteAddr
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if idx := strings.Index(forwarded, ","); idx > 0 {
			ip = strings.TrimSpace(forwarded[:idx])
		} else {
			ip = strings.TrimSpace(forwarded)
		}
	}
	return Source{
		IPAddress: ip,
		UserAgent: r.UserAgent(),
	}
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return data
}
