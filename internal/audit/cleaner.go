// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

package audit

import (
	"context"
	"time"

	"github.com/courseguard/courseguard/internal/logging"
)

// DefaultRetention keeps audit events for 30 days.
const DefaultRetention = 30 * 24 * time.Hour

// Cleaner periodically deletes audit events past retention.
// Implements suture.Service.
type Cleaner struct {
	logger    *Logger
	interval  time.Duration
	retention time.Duration
}

// NewCleaner creates a cleaner. Non-positive values get defaults
// (hourly sweep, 30-day retention).
func NewCleaner(logger *Logger, interval, retention time.Duration) *Cleaner {
	if interval <= 0 {
		interval = time.Hour
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Cleaner{
		logger:    logger,
		interval:  interval,
		retention: retention,
	}
}

// Serve runs the cleanup loop until the context is canceled.
func (c *Cleaner) Serve(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			cutoff := time.Now().Add(-c.retention)
			deleted, err := c.logger.Cleanup(ctx, cutoff)
			if err != nil {
				logging.Error().Err(err).Msg("audit cleanup failed")
				continue
			}
			if deleted > 0 {
				logging.Debug().Int64("deleted", deleted).Msg("audit events pruned")
			}
		}
	}
}

// String names the service in supervisor logs.
func (c *Cleaner) String() string {
	return "audit-cleaner"
}
