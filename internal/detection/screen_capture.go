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
)

// ScreenCaptureConfig configures the screen-capture heuristic.
type ScreenCaptureConfig struct {
	// FlagMediaRecorder also treats an active media-recorder pipeline as a
	// capture signal, not just display capture.
	FlagMediaRecorder bool `json:"flag_media_recorder"`

	// Severity for generated violations.
	Severity Severity `json:"severity"`
}

// DefaultScreenCaptureConfig returns sensible defaults.
func DefaultScreenCaptureConfig() ScreenCaptureConfig {
	return ScreenCaptureConfig{
		FlagMediaRecorder: true,
		Severity:          SeverityCritical,
	}
}

// ScreenCaptureHeuristic flags samples reporting active capture APIs.
// Unlike fingerprint scans this is a direct signal: the player observed a
// live capture stream of its own surface.
type ScreenCaptureHeuristic struct {
	mu      sync.RWMutex
	config  ScreenCaptureConfig
	enabled bool
}

// NewScreenCaptureHeuristic creates the heuristic with defaults.
func NewScreenCaptureHeuristic() *ScreenCaptureHeuristic {
	return &ScreenCaptureHeuristic{
		config:  DefaultScreenCaptureConfig(),
		enabled: true,
	}
}

// Name returns the heuristic type.
func (h *ScreenCaptureHeuristic) Name() HeuristicType {
	return HeuristicScreenCapture
}

// Check flags active capture streams.
func (h *ScreenCaptureHeuristic) Check(_ context.Context, sample *EnvironmentSample) (*Violation, error) {
	h.mu.RLock()
	config := h.config
	h.mu.RUnlock()

	switch {
	case sample.ScreenCaptureActive:
		return &Violation{
			Heuristic:  HeuristicScreenCapture,
			Severity:   config.Severity,
			Message:    "display capture API active during playback",
			DetectedAt: time.Now(),
		}, nil
	case config.FlagMediaRecorder && sample.MediaRecorderActive:
		return &Violation{
			Heuristic:  HeuristicScreenCapture,
			Severity:   config.Severity,
			Message:    "media recorder pipeline active during playback",
			DetectedAt: time.Now(),
		}, nil
	}
	return nil, nil
}

// Configure updates the heuristic configuration.
func (h *ScreenCaptureHeuristic) Configure(config json.RawMessage) error {
	var c ScreenCaptureConfig
	if err := json.Unmarshal(config, &c); err != nil {
		return fmt.Errorf("parse screen capture config: %w", err)
	}
	if c.Severity == "" {
		c.Severity = SeverityCritical
	}

	h.mu.Lock()
	h.config = c
	h.mu.Unlock()
	return nil
}

// Enabled returns whether the heuristic is enabled.
func (h *ScreenCaptureHeuristic) Enabled() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.enabled
}

// SetEnabled enables or disables the heuristic.
func (h *ScreenCaptureHeuristic) SetEnabled(enabled bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.enabled = enabled
}
