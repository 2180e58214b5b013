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

// DevToolsConfig configures the devtools-gap heuristic.
type DevToolsConfig struct {
	// GapThresholdPx is the outer/inner window size difference above which
	// developer tools are assumed docked. Browser chrome alone stays well
	// under this.
	GapThresholdPx int `json:"gap_threshold_px"`

	// Severity for generated violations.
	Severity Severity `json:"severity"`
}

// DefaultDevToolsConfig returns sensible defaults.
func DefaultDevToolsConfig() DevToolsConfig {
	return DevToolsConfig{
		GapThresholdPx: 160,
		Severity:       SeverityWarning,
	}
}

// DevToolsHeuristic flags a window-geometry gap typical of docked developer
// tools, which expose the raw media pipeline.
type DevToolsHeuristic struct {
	mu      sync.RWMutex
	config  DevToolsConfig
	enabled bool
}

// NewDevToolsHeuristic creates the heuristic with defaults.
func NewDevToolsHeuristic() *DevToolsHeuristic {
	return &DevToolsHeuristic{
		config:  DefaultDevToolsConfig(),
		enabled: true,
	}
}

// Name returns the heuristic type.
func (h *DevToolsHeuristic) Name() HeuristicType {
	return HeuristicDevTools
}

// Check compares outer and inner window geometry. Samples with unknown
// geometry are skipped: absence of data is not evidence.
func (h *DevToolsHeuristic) Check(_ context.Context, sample *EnvironmentSample) (*Violation, error) {
	h.mu.RLock()
	config := h.config
	h.mu.RUnlock()

	if sample.OuterWidth <= 0 || sample.InnerWidth <= 0 ||
		sample.OuterHeight <= 0 || sample.InnerHeight <= 0 {
		return nil, nil
	}

	widthGap := sample.OuterWidth - sample.InnerWidth
	heightGap := sample.OuterHeight - sample.InnerHeight
	if widthGap <= config.GapThresholdPx && heightGap <= config.GapThresholdPx {
		return nil, nil
	}

	return &Violation{
		Heuristic:  HeuristicDevTools,
		Severity:   config.Severity,
		Message:    "developer tools appear to be open",
		Detail:     fmt.Sprintf("geometry gap %dx%d px", widthGap, heightGap),
		DetectedAt: time.Now(),
	}, nil
}

// Configure updates the heuristic configuration.
func (h *DevToolsHeuristic) Configure(config json.RawMessage) error {
	var c DevToolsConfig
	if err := json.Unmarshal(config, &c); err != nil {
		return fmt.Errorf("parse devtools config: %w", err)
	}
	if c.GapThresholdPx <= 0 {
		c.GapThresholdPx = DefaultDevToolsConfig().GapThresholdPx
	}
	if c.Severity == "" {
		c.Severity = SeverityWarning
	}

	h.mu.Lock()
	h.config = c
	h.mu.Unlock()
	return nil
}

// Enabled returns whether the heuristic is enabled.
func (h *DevToolsHeuristic) Enabled() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.enabled
}

// SetEnabled enables or disables the heuristic.
func (h *DevToolsHeuristic) SetEnabled(enabled bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.enabled = enabled
}
