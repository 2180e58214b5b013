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

// DownloaderExtensionConfig configures the downloader-extension heuristic.
type DownloaderExtensionConfig struct {
	// Fingerprints are substrings matched against reported extension
	// identifiers and names.
	Fingerprints []string `json:"fingerprints"`

	// Severity for generated violations.
	Severity Severity `json:"severity"`
}

// DefaultDownloaderExtensionConfig returns the stock fingerprint list.
func DefaultDownloaderExtensionConfig() DownloaderExtensionConfig {
	return DownloaderExtensionConfig{
		Fingerprints: []string{
			"video-downloader",
			"video downloader",
			"videodownload",
			"savefrom",
			"flash-video-downloader",
			"stream-recorder",
			"hls-downloader",
			"m3u8-downloader",
		},
		Severity: SeverityWarning,
	}
}

// DownloaderExtensionHeuristic matches known downloader extensions in the
// sample's extension list.
type DownloaderExtensionHeuristic struct {
	mu      sync.RWMutex
	config  DownloaderExtensionConfig
	enabled bool
}

// NewDownloaderExtensionHeuristic creates the heuristic with defaults.
func NewDownloaderExtensionHeuristic() *DownloaderExtensionHeuristic {
	return &DownloaderExtensionHeuristic{
		config:  DefaultDownloaderExtensionConfig(),
		enabled: true,
	}
}

// Name returns the heuristic type.
func (h *DownloaderExtensionHeuristic) Name() HeuristicType {
	return HeuristicDownloaderExtension
}

// Check scans reported extensions for downloader fingerprints.
func (h *DownloaderExtensionHeuristic) Check(_ context.Context, sample *EnvironmentSample) (*Violation, error) {
	h.mu.RLock()
	config := h.config
	h.mu.RUnlock()

	for _, ext := range sample.Extensions {
		lowered := strings.ToLower(ext)
		for _, fingerprint := range config.Fingerprints {
			if strings.Contains(lowered, fingerprint) {
				return &Violation{
					Heuristic:  HeuristicDownloaderExtension,
					Severity:   config.Severity,
					Message:    "video downloader extension installed",
					Detail:     fmt.Sprintf("extension matched %q", fingerprint),
					DetectedAt: time.Now(),
				}, nil
			}
		}
	}
	return nil, nil
}

// Configure updates the heuristic configuration.
func (h *DownloaderExtensionHeuristic) Configure(config json.RawMessage) error {
	var c DownloaderExtensionConfig
	if err := json.Unmarshal(config, &c); err != nil {
		return fmt.Errorf("parse downloader extension config: %w", err)
	}
	if len(c.Fingerprints) == 0 {
		c.Fingerprints = DefaultDownloaderExtensionConfig().Fingerprints
	}
	for i, f := range c.Fingerprints {
		c.Fingerprints[i] = strings.ToLower(f)
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
func (h *DownloaderExtensionHeuristic) Enabled() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.enabled
}

// SetEnabled enables or disables the heuristic.
func (h *DownloaderExtensionHeuristic) SetEnabled(enabled bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.enabled = enabled
}
