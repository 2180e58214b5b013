// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

package detection

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// RecorderTitleConfig configures the recorder-title heuristic.
type RecorderTitleConfig struct {
	// Names are recorder product names matched as substrings of window
	// titles, case-insensitively.
	Names []string `json:"names"`

	// Severity for generated violations.
	Severity Severity `json:"severity"`
}

// DefaultRecorderTitleConfig returns the stock recorder name list.
func DefaultRecorderTitleConfig() RecorderTitleConfig {
	return RecorderTitleConfig{
		Names: []string{
			"obs studio",
			"obs ",
			"camtasia",
			"bandicam",
			"screen recorder",
			"screencast-o-matic",
			"sharex",
			"fraps",
			"action!",
		},
		Severity: SeverityWarning,
	}
}

// RecorderTitleHeuristic matches known recorder names in window titles.
// Weaker than a capture-API signal: a recorder being open is not the same
// as it recording this surface, hence the lower severity.
type RecorderTitleHeuristic struct {
	mu      sync.RWMutex
	config  RecorderTitleConfig
	enabled bool
}

// NewRecorderTitleHeuristic creates the heuristic with defaults.
func NewRecorderTitleHeuristic() *RecorderTitleHeuristic {
	return &RecorderTitleHeuristic{
		config:  DefaultRecorderTitleConfig(),
		enabled: true,
	}
}

// Name returns the heuristic type.
func (h *RecorderTitleHeuristic) Name() HeuristicType {
	return HeuristicRecorderTitle
}

// Check scans window titles for recorder names.
func (h *RecorderTitleHeuristic) Check(_ context.Context, sample *EnvironmentSample) (*Violation, error) {
	h.mu.RLock()
	config := h.config
	h.mu.RUnlock()

	for _, title := range sample.WindowTitles {
		lowered := strings.ToLower(title)
		for _, name := range config.Names {
			if strings.Contains(lowered, name) {
				return &Violation{
					Heuristic:  HeuristicRecorderTitle,
					Severity:   config.Severity,
					Message:    "recording software window detected",
					Detail:     fmt.Sprintf("title matched %q", name),
					DetectedAt: time.Now(),
				}, nil
			}
		}
	}
	return nil, nil
}

// Configure updates the heuristic configuration.
func (h *RecorderTitleHeuristic) Configure(config json.RawMessage) error {
	var c RecorderTitleConfig
	if err := json.Unmarshal(config, &c); err != nil {
		return fmt.Errorf("parse recorder title config: %w", err)
	}
	if len(c.Names) == 0 {
		c.Names = DefaultRecorderTitleConfig().Names
	}
	for i, name := range c.Names {
		c.Names[i] = strings.ToLower(name)
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
func (h *RecorderTitleHeuristic) Enabled() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.enabled
}

// SetEnabled enables or disables the heuristic.
func (h *RecorderTitleHeuristic) SetEnabled(enabled bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.enabled = enabled
}
