// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

package detection

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/courseguard/courseguard/internal/drm"
	"github.com/courseguard/courseguard/internal/logging"
	"github.com/courseguard/courseguard/internal/metrics"
)

// SweeperConfig configures the background sweeper.
type SweeperConfig struct {
	// Interval between sweeps.
	Interval time.Duration

	// RatePerSecond paces per-session evaluation so a large active set
	// does not produce a thundering herd of checks.
	RatePerSecond float64
}

// DefaultSweeperConfig returns sensible defaults.
func DefaultSweeperConfig() SweeperConfig {
	return SweeperConfig{
		Interval:      30 * time.Second,
		RatePerSecond: 100,
	}
}

// Sweeper periodically re-evaluates every active session against its latest
// reported sample. It surfaces violations for operators; it never revokes
// sessions itself — revocation stays a human (or policy-layer) decision.
//
// Implements suture.Service.
type Sweeper struct {
	engine   *Engine
	sessions *drm.Manager
	samples  SampleStore
	config   SweeperConfig
	limiter  *rate.Limiter
}

// NewSweeper creates a sweeper over the given engine and session manager.
func NewSweeper(engine *Engine, sessions *drm.Manager, samples SampleStore, config SweeperConfig) *Sweeper {
	defaults := DefaultSweeperConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.RatePerSecond <= 0 {
		config.RatePerSecond = defaults.RatePerSecond
	}
	return &Sweeper{
		engine:   engine,
		sessions: sessions,
		samples:  samples,
		config:   config,
		limiter:  rate.NewLimiter(rate.Limit(config.RatePerSecond), 1),
	}
}

// Serve runs the sweep loop until the context is canceled.
func (s *Sweeper) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep runs one pass over all active sessions.
func (s *Sweeper) sweep(ctx context.Context) {
	start := time.Now()

	active, err := s.sessions.ActiveSessions(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("sweep aborted: session listing failed")
		return
	}

	scanned := 0
	flagged := 0
	for _, session := range active {
		if err := s.limiter.Wait(ctx); err != nil {
			return
		}

		sample, err := s.samples.Latest(ctx, session.ID)
		if err != nil {
			logging.Warn().Err(err).
				Str("session_id", logging.SanitizeSessionID(session.ID)).
				Msg("sample lookup failed during sweep")
			continue
		}
		if sample == nil {
			// Session has not reported yet; nothing to evaluate.
			continue
		}

		scanned++
		report := s.engine.Evaluate(ctx, session.UserID, sample)
		if !report.IsSecure {
			flagged++
		}
	}

	metrics.RecordSweep(time.Since(start), scanned)
	logging.Debug().
		Int("active", len(active)).
		Int("scanned", scanned).
		Int("flagged", flagged).
		Dur("took", time.Since(start)).
		Msg("sweep completed")
}

// String names the service in supervisor logs.
func (s *Sweeper) String() string {
	return "detection-sweeper"
}
