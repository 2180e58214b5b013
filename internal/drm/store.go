// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

package drm

import (
	"context"
	"sync"
	"time"
)

// SessionStore defines the interface for session storage backends.
//
// Stores hold raw records and never interpret lifecycle state: Get returns
// expired and revoked sessions unchanged so callers can distinguish the two.
// The Manager owns state interpretation.
type SessionStore interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// Get retrieves a session by ID.
	// Returns ErrSessionNotFound if no record exists.
	Get(ctx context.Context, id string) (*Session, error)

	// Update replaces an existing session record.
	// Returns ErrSessionNotFound if no record exists.
	Update(ctx context.Context, session *Session) error

	// Touch updates only the session's last-seen time under the store's
	// own synchronization. A full Update from a stale snapshot could undo
	// a concurrent revocation; Touch cannot.
	// Returns ErrSessionNotFound if no record exists.
	Touch(ctx context.Context, id string, seenAt time.Time) error

	// Delete removes a session by ID. Deleting an absent session is not
	// an error.
	Delete(ctx context.Context, id string) error

	// GetByUserID returns all session records for a user.
	GetByUserID(ctx context.Context, userID string) ([]*Session, error)

	// List returns all session records. Used by the background sweeper.
	List(ctx context.Context) ([]*Session, error)

	// DeleteExpiredBefore removes sessions whose expiry passed before the
	// cutoff. Returns the count of deleted sessions.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int, error)

	// Count returns the total number of session records.
	Count(ctx context.Context) (int, error)
}

// MemorySessionStore is an in-memory implementation of SessionStore.
// Suitable for development and testing. For production, use
// BadgerSessionStore.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*Session),
	}
}

// Create stores a new session.
func (s *MemorySessionStore) Create(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Copy so callers cannot mutate the stored record.
	stored := *session
	s.sessions[session.ID] = &stored
	return nil
}

// Get retrieves a session by ID.
func (s *MemorySessionStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := *session
	return &copied, nil
}

// Update replaces an existing session record.
func (s *MemorySessionStore) Update(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.ID]; !ok {
		return ErrSessionNotFound
	}

	stored := *session
	s.sessions[session.ID] = &stored
	return nil
}

// Touch updates the last-seen time in place.
func (s *MemorySessionStore) Touch(_ context.Context, id string, seenAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	session.LastSeenAt = seenAt
	return nil
}

// Delete removes a session by ID.
func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// GetByUserID returns all session records for a user.
func (s *MemorySessionStore) GetByUserID(_ context.Context, userID string) ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sessions []*Session
	for _, session := range s.sessions {
		if session.UserID == userID {
			copied := *session
			sessions = append(sessions, &copied)
		}
	}
	return sessions, nil
}

// List returns all session records.
func (s *MemorySessionStore) List(_ context.Context) ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		copied := *session
		sessions = append(sessions, &copied)
	}
	return sessions, nil
}

// DeleteExpiredBefore removes sessions whose expiry passed before the cutoff.
func (s *MemorySessionStore) DeleteExpiredBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, session := range s.sessions {
		if session.ExpiresAt.Before(cutoff) {
			delete(s.sessions, id)
			count++
		}
	}
	return count, nil
}

// Count returns the total number of session records.
func (s *MemorySessionStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions), nil
}
