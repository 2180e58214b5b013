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

// RecordingMarkupConfig configures the recording-markup heuristic.
type RecordingMarkupConfig struct {
	// Fingerprints are substrings that capture tools inject into the
	// playback surface (element IDs, class names, overlay markers).
	Fingerprints []string `json:"fingerprints"`

	// Severity for generated violations.
	Severity Severity `json:"severity"`
}

// DefaultRecordingMarkupConfig returns the stock fingerprint list.
func DefaultRecordingMarkupConfig() RecordingMarkupConfig {
	return RecordingMarkupConfig{
		Fingerprints: []string{
			"screen-recorder",
			"screencastify",
			"record-overlay",
			"capture-indicator",
			"rec-controls",
			"loom-recorder",
			"vidyard-capture",
		},
		Severity: SeverityCritical,
	}
}

// RecordingMarkupHeuristic scans reported markup snippets for fingerprints
// of recording overlays.
type RecordingMarkupHeuristic struct {
	mu      sync.RWMutex
	config  RecordingMarkupConfig
	enabled bool
}

// NewRecordingMarkupHeuristic creates the heuristic with defaults.
func NewRecordingMarkupHeuristic() *RecordingMarkupHeuristic {
	return &RecordingMarkupHeuristic{
		config:  DefaultRecordingMarkupConfig(),
		enabled: true,
	}
}

// Name returns the heuristic type.
func (h *RecordingMarkupHeuristic) Name() HeuristicType {
	return HeuristicRecordingMarkup
}

// Check scans each markup snippet for known fingerprints.
func (h *RecordingMarkupHeuristic) Check(_ context.Context, sample *EnvironmentSample) (*Violation, error) {
	h.mu.RLock()
	config := h.config
	h.mu.RUnlock()

	for _, snippet := range sample.MarkupSnippets {
		lowered := strings.ToLower(snippet)
		for _, fingerprint := range config.Fingerprints {
			if strings.Contains(lowered, strings.ToLower(fingerprint)) {
				return &Violation{
					Heuristic:  HeuristicRecordingMarkup,
					Severity:   config.Severity,
					Message:    "recording overlay markup detected",
					Detail:     fmt.Sprintf("fingerprint %q", fingerprint),
					DetectedAt: time.Now(),
				}, nil
			}
		}
	}
	return nil, nil
}

// Configure updates the heuristic configuration.
func (h *RecordingMarkupHeuristic) Configure(config json.RawMessage) error {
	var c RecordingMarkupConfig
	if err := json.Unmarshal(config, &c); err != nil {
		return fmt.Errorf("parse recording markup config: %w", err)
	}
	if len(c.Fingerprints) == 0 {
		c.Fingerprints = DefaultRecordingMarkupConfig().Fingerprints
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
func (h *RecordingMarkupHeuristic) Enabled() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.enabled
}

// SetEnabled enables or disables the heuristic.
func (h *RecordingMarkupHeuristic) SetEnabled(enabled bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.enabled = enabled
}
