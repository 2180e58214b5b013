// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

package commerce

import (
	"context"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/courseguard/courseguard/internal/logging"
)

// BreakerConfig configures the circuit breaker around the commerce subsystem.
type BreakerConfig struct {
	// MaxFailures before the breaker opens.
	MaxFailures uint32

	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration
}

// DefaultBreakerConfig returns production defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxFailures: 5,
		Timeout:     30 * time.Second,
	}
}

// BreakerStore wraps a PurchaseStore with a circuit breaker so a commerce
// outage fails purchase lookups fast instead of stacking up timeouts.
// Callers treat any error as "access denied" (fail closed), so an open
// breaker denies rather than blocks.
type BreakerStore struct {
	inner PurchaseStore
	cb    *gobreaker.CircuitBreaker[bool]
}

// NewBreakerStore wraps the given store with a circuit breaker.
func NewBreakerStore(inner PurchaseStore, cfg BreakerConfig) *BreakerStore {
	settings := gobreaker.Settings{
		Name:    "commerce-purchases",
		Timeout: cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("commerce circuit breaker state change")
		},
	}

	return &BreakerStore{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker[bool](settings),
	}
}

// HasPurchased delegates to the wrapped store through the breaker.
func (s *BreakerStore) HasPurchased(ctx context.Context, userID, courseID string) (bool, error) {
	owned, err := s.cb.Execute(func() (bool, error) {
		return s.inner.HasPurchased(ctx, userID, courseID)
	})
	if err != nil {
		return false, fmt.Errorf("purchase lookup: %w", err)
	}
	return owned, nil
}

// State returns the current breaker state for monitoring.
func (s *BreakerStore) State() gobreaker.State {
	return s.cb.State()
}
