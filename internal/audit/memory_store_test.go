// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

package audit

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func seedEvents(t *testing.T, store *MemoryStore, n int) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		eventType := EventTypeSessionCreated
		severity := SeverityInfo
		if i%3 == 0 {
			eventType = EventTypeAccessDenied
			severity = SeverityWarning
		}
		err := store.Save(ctx, &Event{
			ID:        fmt.Sprintf("evt-%03d", i),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Type:      eventType,
			Severity:  severity,
			Outcome:   OutcomeSuccess,
			UserID:    fmt.Sprintf("user-%d", i%2),
		})
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
}

func TestMemoryStoreQueryNewestFirst(t *testing.T) {
	store := NewMemoryStore(100)
	seedEvents(t, store, 10)

	events, err := store.Query(context.Background(), QueryFilter{Limit: 3})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}
	if events[0].ID != "evt-009" || events[2].ID != "evt-007" {
		t.Errorf("ordering wrong: %s .. %s", events[0].ID, events[2].ID)
	}
}

func TestMemoryStoreFilters(t *testing.T) {
	store := NewMemoryStore(100)
	seedEvents(t, store, 12)
	ctx := context.Background()

	denied, err := store.Query(ctx, QueryFilter{Types: []EventType{EventTypeAccessDenied}})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(denied) != 4 {
		t.Errorf("denied events = %d, want 4", len(denied))
	}

	count, err := store.Count(ctx, QueryFilter{UserID: "user-0"})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 6 {
		t.Errorf("user-0 events = %d, want 6", count)
	}

	start := time.Date(2026, 8, 1, 12, 10, 0, 0, time.UTC)
	ranged, _ := store.Query(ctx, QueryFilter{StartTime: &start})
	if len(ranged) != 2 {
		t.Errorf("ranged events = %d, want 2", len(ranged))
	}
}

func TestMemoryStoreOffsetPagination(t *testing.T) {
	store := NewMemoryStore(100)
	seedEvents(t, store, 10)

	page, err := store.Query(context.Background(), QueryFilter{Limit: 4, Offset: 4})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(page) != 4 || page[0].ID != "evt-005" {
		t.Errorf("second page starts at %s with %d items", page[0].ID, len(page))
	}
}

func TestMemoryStoreEvictsOldestPastCapacity(t *testing.T) {
	store := NewMemoryStore(5)
	seedEvents(t, store, 8)
	ctx := context.Background()

	count, _ := store.Count(ctx, QueryFilter{})
	if count != 5 {
		t.Fatalf("stored = %d, want 5", count)
	}

	events, _ := store.Query(ctx, QueryFilter{Limit: 10})
	for _, e := range events {
		if e.ID == "evt-000" || e.ID == "evt-002" {
			t.Errorf("oldest events should have been evicted, found %s", e.ID)
		}
	}
}

func TestMemoryStoreDeleteOlderThan(t *testing.T) {
	store := NewMemoryStore(100)
	seedEvents(t, store, 10)
	ctx := context.Background()

	cutoff := time.Date(2026, 8, 1, 12, 5, 0, 0, time.UTC)
	deleted, err := store.Delete(ctx, cutoff)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted != 5 {
		t.Errorf("deleted = %d, want 5", deleted)
	}

	count, _ := store.Count(ctx, QueryFilter{})
	if count != 5 {
		t.Errorf("remaining = %d, want 5", count)
	}
}
