// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

package drm

import (
	"context"
	"time"

	"github.com/courseguard/courseguard/internal/logging"
)

// DefaultRetention is how long expired session records are kept before the
// janitor deletes them. Keeping them lets a lapsed player distinguish
// "expired" from "never existed" while it polls.
const DefaultRetention = 24 * time.Hour

// Janitor periodically removes long-expired session records.
// It implements suture.Service and is run under the supervision tree.
type Janitor struct {
	manager   *Manager
	interval  time.Duration
	retention time.Duration
}

// NewJanitor creates a cleanup service.
func NewJanitor(manager *Manager, interval, retention time.Duration) *Janitor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Janitor{
		manager:   manager,
		interval:  interval,
		retention: retention,
	}
}

// Serve runs the cleanup loop until the context is canceled.
func (j *Janitor) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := j.manager.CleanupExpired(ctx, j.retention); err != nil {
				logging.Error().Err(err).Msg("session cleanup failed")
			}
		}
	}
}

// String names the service in supervisor logs.
func (j *Janitor) String() string {
	return "drm-janitor"
}
