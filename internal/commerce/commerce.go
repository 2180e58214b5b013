// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

// Package commerce defines the read-only boundary to the commerce subsystem.
// CourseGuard asks one question of it: does this user own this course.
package commerce

import (
	"context"
	"sync"
)

// PurchaseStore answers course ownership queries.
type PurchaseStore interface {
	// HasPurchased reports whether userID owns courseID.
	HasPurchased(ctx context.Context, userID, courseID string) (bool, error)
}

// MemoryPurchaseStore is an in-memory PurchaseStore for development and tests.
type MemoryPurchaseStore struct {
	mu        sync.RWMutex
	purchases map[string]map[string]bool // userID -> courseID -> owned
}

// NewMemoryPurchaseStore creates an empty purchase store.
func NewMemoryPurchaseStore() *MemoryPurchaseStore {
	return &MemoryPurchaseStore{
		purchases: make(map[string]map[string]bool),
	}
}

// Grant records a purchase.
func (s *MemoryPurchaseStore) Grant(userID, courseID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.purchases[userID] == nil {
		s.purchases[userID] = make(map[string]bool)
	}
	s.purchases[userID][courseID] = true
}

// HasPurchased reports whether userID owns courseID.
func (s *MemoryPurchaseStore) HasPurchased(_ context.Context, userID, courseID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.purchases[userID][courseID], nil
}
