// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

package detection

import (
	"context"
	"sync"
)

// SampleStore keeps the latest environment sample per session so the
// background sweeper can re-evaluate sessions between heartbeats.
type SampleStore interface {
	// Put stores the latest sample for its session, replacing any earlier one.
	Put(ctx context.Context, sample *EnvironmentSample) error

	// Latest returns the most recent sample for a session, or nil if the
	// session has never reported one.
	Latest(ctx context.Context, sessionID string) (*EnvironmentSample, error)

	// Delete drops a session's sample.
	Delete(ctx context.Context, sessionID string) error
}

// MemorySampleStore is an in-memory SampleStore.
// Samples are transient by nature, so there is no durable backend: a restart
// simply waits for the next heartbeat.
type MemorySampleStore struct {
	mu      sync.RWMutex
	samples map[string]*EnvironmentSample
}

// NewMemorySampleStore creates an empty sample store.
func NewMemorySampleStore() *MemorySampleStore {
	return &MemorySampleStore{
		samples: make(map[string]*EnvironmentSample),
	}
}

// Put stores the latest sample for its session.
func (s *MemorySampleStore) Put(_ context.Context, sample *EnvironmentSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *sample
	s.samples[sample.SessionID] = &copied
	return nil
}

// Latest returns the most recent sample for a session.
func (s *MemorySampleStore) Latest(_ context.Context, sessionID string) (*EnvironmentSample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sample, ok := s.samples[sessionID]
	if !ok {
		return nil, nil
	}
	copied := *sample
	return &copied, nil
}

// Delete drops a session's sample.
func (s *MemorySampleStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.samples, sessionID)
	return nil
}
