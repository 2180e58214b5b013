// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

package audit

import (
	"context"
	"sync"
	"time"
)

// DefaultMaxEvents bounds the in-memory store when no limit is configured.
const DefaultMaxEvents = 10000

// MemoryStore is a bounded in-memory audit store. When the bound is
// reached the oldest events are evicted, ring-buffer style. Suitable for
// single-node deployments where the retention window is short; the Store
// interface leaves room for a durable backend.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
	max    int
}

// NewMemoryStore creates a store holding at most maxEvents entries.
func NewMemoryStore(maxEvents int) *MemoryStore {
	if maxEvents <= 0 {
		maxEvents = DefaultMaxEvents
	}
	return &MemoryStore{
		events: make([]Event, 0, 256),
		max:    maxEvents,
	}
}

// Save appends an event, evicting the oldest entries past capacity.
func (s *MemoryStore) Save(_ context.Context, event *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, *event)
	if overflow := len(s.events) - s.max; overflow > 0 {
		s.events = s.events[overflow:]
	}
	return nil
}

// Query returns matching events, newest first.
func (s *MemoryStore) Query(_ context.Context, filter QueryFilter) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultQueryFilter().Limit
	}

	matched := make([]Event, 0, limit)
	skipped := 0
	for i := len(s.events) - 1; i >= 0; i-- {
		event := s.events[i]
		if !filter.matches(&event) {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		matched = append(matched, event)
		if len(matched) >= limit {
			break
		}
	}
	return matched, nil
}

// Count returns the number of events matching the filter.
func (s *MemoryStore) Count(_ context.Context, filter QueryFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for i := range s.events {
		if filter.matches(&s.events[i]) {
			count++
		}
	}
	return count, nil
}

// Delete removes events older than the cutoff.
func (s *MemoryStore) Delete(_ context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Events are stored in arrival order, which tracks timestamp order
	// closely enough that a linear scan from the front suffices.
	kept := s.events[:0]
	var deleted int64
	for _, event := range s.events {
		if event.Timestamp.Before(olderThan) {
			deleted++
			continue
		}
		kept = append(kept, event)
	}
	s.events = kept
	return deleted, nil
}
