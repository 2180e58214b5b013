// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

package audit

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLogger(t *testing.T) (*Logger, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore(100)
	logger := NewLogger(store, Config{Enabled: true, BufferSize: 64})
	t.Cleanup(logger.Close)
	return logger, store
}

// waitForEvents polls until the async writer has persisted n events.
func waitForEvents(t *testing.T, store *MemoryStore, n int64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		count, err := store.Count(context.Background(), QueryFilter{})
		if err != nil {
			t.Fatalf("Count: %v", err)
		}
		if count >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d audit events", n)
}

func TestLoggerPersistsAsync(t *testing.T) {
	logger, store := newTestLogger(t)
	ctx := context.Background()

	logger.LogAccessDenied(ctx, "user-1", "video-1", "purchase_required", Source{IPAddress: "203.0.113.9"})
	waitForEvents(t, store, 1)

	events, err := store.Query(ctx, QueryFilter{Types: []EventType{EventTypeAccessDenied}})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	e := events[0]
	if e.ID == "" || e.Timestamp.IsZero() {
		t.Error("logger must fill in ID and timestamp")
	}
	if e.UserID != "user-1" || e.VideoID != "video-1" {
		t.Errorf("unexpected subject fields: %+v", e)
	}
	if e.Outcome != OutcomeFailure || e.Severity != SeverityWarning {
		t.Errorf("outcome/severity = %v/%v", e.Outcome, e.Severity)
	}
}

func TestLoggerTruncatesSessionIDs(t *testing.T) {
	logger, store := newTestLogger(t)
	ctx := context.Background()

	full := "aaaabbbbccccddddeeeeffff0000111122223333"
	logger.LogSessionCreated(ctx, "user-1", "video-1", full, Source{})
	waitForEvents(t, store, 1)

	events, _ := store.Query(ctx, QueryFilter{})
	if got := events[0].SessionID; got != "aaaabbbb..." {
		t.Errorf("stored session id = %q, want truncated prefix", got)
	}
}

func TestLoggerDisabledDropsEverything(t *testing.T) {
	store := NewMemoryStore(100)
	logger := NewLogger(store, Config{Enabled: false})
	defer logger.Close()

	logger.LogSessionRevoked(context.Background(), "sess-1", "admin", Source{})
	time.Sleep(20 * time.Millisecond)

	count, _ := store.Count(context.Background(), QueryFilter{})
	if count != 0 {
		t.Errorf("disabled logger stored %d events", count)
	}
}

func TestLoggerCloseDrainsBuffer(t *testing.T) {
	store := NewMemoryStore(1000)
	logger := NewLogger(store, Config{Enabled: true, BufferSize: 500})

	ctx := context.Background()
	for i := 0; i < 50; i++ {
		logger.LogSessionExpired(ctx, "sess-1", Source{})
	}
	logger.Close()

	count, _ := store.Count(ctx, QueryFilter{})
	if count != 50 {
		t.Errorf("after Close, stored = %d, want 50", count)
	}
}

func TestViolationSeverityMapping(t *testing.T) {
	tests := []struct {
		in   string
		want Severity
	}{
		{"critical", SeverityCritical},
		{"Warning", SeverityWarning},
		{"info", SeverityInfo},
		{"", SeverityInfo},
	}
	for _, tt := range tests {
		if got := violationSeverity(tt.in); got != tt.want {
			t.Errorf("violationSeverity(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSourceFromRequest(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/v1/drm/decrypt-url", nil)
	r.RemoteAddr = "192.0.2.10:51234"
	r.Header.Set("User-Agent", "player/1.0")

	src := SourceFromRequest(r)
	if src.IPAddress != "192.0.2.10:51234" || src.UserAgent != "player/1.0" {
		t.Errorf("source = %+v", src)
	}

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := SourceFromRequest(r).IPAddress; got != "203.0.113.7" {
		t.Errorf("forwarded ip = %q", got)
	}
}
