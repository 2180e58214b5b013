// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

package detection

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/courseguard/courseguard/internal/logging"
	"github.com/courseguard/courseguard/internal/metrics"
)

// Engine coordinates heuristic evaluation over environment samples.
//
// Detection never blocks playback: a heuristic returning an error counts as
// "no violation", and the engine itself can be disabled at runtime without
// touching the playback path.
type Engine struct {
	mu         sync.RWMutex
	heuristics map[HeuristicType]Heuristic
	enabled    bool

	security *logging.SecurityLogger
}

// NewEngine creates an empty detection engine.
func NewEngine() *Engine {
	return &Engine{
		heuristics: make(map[HeuristicType]Heuristic),
		enabled:    true,
		security:   logging.NewSecurityLogger(),
	}
}

// DefaultHeuristics returns one instance of every built-in heuristic.
func DefaultHeuristics() []Heuristic {
	return []Heuristic{
		NewRecordingMarkupHeuristic(),
		NewScreenCaptureHeuristic(),
		NewRecorderTitleHeuristic(),
		NewFrameRateHeuristic(),
		NewDownloaderExtensionHeuristic(),
		NewDevToolsHeuristic(),
		NewVirtualMachineHeuristic(),
	}
}

// Register adds a heuristic to the engine.
func (e *Engine) Register(h Heuristic) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.heuristics[h.Name()] = h
	logging.Info().Str("heuristic", string(h.Name())).Msg("registered heuristic")
}

// Evaluate runs all enabled heuristics against one sample.
//
// The report is secure unless a non-advisory violation was found. Heuristic
// errors are counted and logged but contribute nothing to the report: a
// broken check must not strand a paying viewer.
func (e *Engine) Evaluate(ctx context.Context, userID string, sample *EnvironmentSample) *Report {
	report := &Report{
		SessionID: sample.SessionID,
		IsSecure:  true,
		CheckedAt: time.Now(),
	}

	for _, h := range e.enabledHeuristics() {
		violation, err := h.Check(ctx, sample)
		if err != nil {
			metrics.HeuristicErrors.WithLabelValues(string(h.Name())).Inc()
			logging.Ctx(ctx).Warn().Err(err).
				Str("heuristic", string(h.Name())).
				Str("session_id", logging.SanitizeSessionID(sample.SessionID)).
				Msg("heuristic check failed, treating as no violation")
			continue
		}
		if violation == nil {
			continue
		}

		report.Violations = append(report.Violations, *violation)
		if !violation.Advisory() {
			report.IsSecure = false
		}

		metrics.RecordViolation(string(violation.Heuristic), string(violation.Severity))
		e.security.LogViolation(userID, sample.SessionID, string(violation.Heuristic), violation.Message)
	}

	return report
}

// enabledHeuristics snapshots the currently enabled heuristics.
func (e *Engine) enabledHeuristics() []Heuristic {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.enabled {
		return nil
	}

	heuristics := make([]Heuristic, 0, len(e.heuristics))
	for _, h := range e.heuristics {
		if h.Enabled() {
			heuristics = append(heuristics, h)
		}
	}
	return heuristics
}

// Get returns a heuristic by type.
func (e *Engine) Get(name HeuristicType) (Heuristic, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	h, ok := e.heuristics[name]
	return h, ok
}

// List returns all registered heuristics.
func (e *Engine) List() []Heuristic {
	e.mu.RLock()
	defer e.mu.RUnlock()

	heuristics := make([]Heuristic, 0, len(e.heuristics))
	for _, h := range e.heuristics {
		heuristics = append(heuristics, h)
	}
	return heuristics
}

// Configure updates one heuristic's configuration.
func (e *Engine) Configure(name HeuristicType, config json.RawMessage) error {
	h, ok := e.Get(name)
	if !ok {
		return fmt.Errorf("heuristic not found: %s", name)
	}
	return h.Configure(config)
}

// SetHeuristicEnabled enables or disables one heuristic.
func (e *Engine) SetHeuristicEnabled(name HeuristicType, enabled bool) error {
	h, ok := e.Get(name)
	if !ok {
		return fmt.Errorf("heuristic not found: %s", name)
	}
	h.SetEnabled(enabled)
	return nil
}

// SetEnabled enables or disables the whole engine.
func (e *Engine) SetEnabled(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = enabled
}

// Enabled returns whether the engine is enabled.
func (e *Engine) Enabled() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.enabled
}
