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

// FrameRateConfig configures the frame-rate collapse heuristic.
type FrameRateConfig struct {
	// ThresholdFPS is the frame rate below which a sample window counts
	// as collapsed.
	ThresholdFPS float64 `json:"threshold_fps"`

	// ConsecutiveWindows is how many collapsed windows in a row are
	// required before a violation fires. A single dip never fires:
	// transient drops happen on every laptop when a tab wakes up.
	ConsecutiveWindows int `json:"consecutive_windows"`

	// Severity for generated violations.
	Severity Severity `json:"severity"`
}

// DefaultFrameRateConfig returns sensible defaults.
func DefaultFrameRateConfig() FrameRateConfig {
	return FrameRateConfig{
		ThresholdFPS:       10,
		ConsecutiveWindows: 3,
		Severity:           SeverityWarning,
	}
}

// FrameRateHeuristic flags sustained frame-rate collapse. Capture pipelines
// contend for the GPU and drag playback down for their whole duration, which
// separates them from one-off stutter.
//
// The heuristic is stateful per session: it counts consecutive collapsed
// windows and resets on any healthy one. Samples without a measured frame
// rate neither extend nor reset the streak.
type FrameRateHeuristic struct {
	mu      sync.RWMutex
	config  FrameRateConfig
	enabled bool

	// streaks tracks consecutive collapsed windows per session.
	streaks map[string]int
}

// NewFrameRateHeuristic creates the heuristic with defaults.
func NewFrameRateHeuristic() *FrameRateHeuristic {
	return &FrameRateHeuristic{
		config:  DefaultFrameRateConfig(),
		enabled: true,
		streaks: make(map[string]int),
	}
}

// Name returns the heuristic type.
func (h *FrameRateHeuristic) Name() HeuristicType {
	return HeuristicFrameRate
}

// Check updates the session's streak and fires once it reaches the
// configured length.
func (h *FrameRateHeuristic) Check(_ context.Context, sample *EnvironmentSample) (*Violation, error) {
	if sample.FrameRate <= 0 {
		// Unmeasured window: no evidence either way.
		return nil, nil
	}

	h.mu.Lock()
	config := h.config
	if sample.FrameRate >= config.ThresholdFPS {
		delete(h.streaks, sample.SessionID)
		h.mu.Unlock()
		return nil, nil
	}

	h.streaks[sample.SessionID]++
	streak := h.streaks[sample.SessionID]
	h.mu.Unlock()

	if streak < config.ConsecutiveWindows {
		return nil, nil
	}

	return &Violation{
		Heuristic:  HeuristicFrameRate,
		Severity:   config.Severity,
		Message:    "sustained frame rate collapse",
		Detail:     fmt.Sprintf("%.1f fps over %d consecutive windows", sample.FrameRate, streak),
		DetectedAt: time.Now(),
	}, nil
}

// Forget clears the streak for a session. Called when a session ends so the
// map does not accumulate terminated sessions.
func (h *FrameRateHeuristic) Forget(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.streaks, sessionID)
}

// Configure updates the heuristic configuration. Existing streaks persist
// across reconfiguration.
func (h *FrameRateHeuristic) Configure(config json.RawMessage) error {
	var c FrameRateConfig
	if err := json.Unmarshal(config, &c); err != nil {
		return fmt.Errorf("parse frame rate config: %w", err)
	}
	defaults := DefaultFrameRateConfig()
	if c.ThresholdFPS <= 0 {
		c.ThresholdFPS = defaults.ThresholdFPS
	}
	if c.ConsecutiveWindows <= 0 {
		c.ConsecutiveWindows = defaults.ConsecutiveWindows
	}
	if c.Severity == "" {
		c.Severity = defaults.Severity
	}

	h.mu.Lock()
	h.config = c
	h.mu.Unlock()
	return nil
}

// Enabled returns whether the heuristic is enabled.
func (h *FrameRateHeuristic) Enabled() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.enabled
}

// SetEnabled enables or disables the heuristic.
func (h *FrameRateHeuristic) SetEnabled(enabled bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.enabled = enabled
}
