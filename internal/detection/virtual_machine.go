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

// VirtualMachineConfig configures the virtual-machine heuristic.
type VirtualMachineConfig struct {
	// Markers are substrings matched against the user agent and platform.
	Markers []string `json:"markers"`
}

// DefaultVirtualMachineConfig returns the stock marker list.
func DefaultVirtualMachineConfig() VirtualMachineConfig {
	return VirtualMachineConfig{
		Markers: []string{
			"virtualbox",
			"vmware",
			"qemu",
			"kvm",
			"hyper-v",
			"parallels",
			"headlesschrome",
			"phantomjs",
		},
	}
}

// VirtualMachineHeuristic flags virtualized or headless environments, which
// are a common staging ground for bulk capture.
//
// Always advisory: plenty of legitimate viewers sit inside corporate VDI, so
// this finding is listed for operators but never marks a report insecure.
type VirtualMachineHeuristic struct {
	mu      sync.RWMutex
	config  VirtualMachineConfig
	enabled bool
}

// NewVirtualMachineHeuristic creates the heuristic with defaults.
func NewVirtualMachineHeuristic() *VirtualMachineHeuristic {
	return &VirtualMachineHeuristic{
		config:  DefaultVirtualMachineConfig(),
		enabled: true,
	}
}

// Name returns the heuristic type.
func (h *VirtualMachineHeuristic) Name() HeuristicType {
	return HeuristicVirtualMachine
}

// Check scans the user agent and platform for VM markers.
func (h *VirtualMachineHeuristic) Check(_ context.Context, sample *EnvironmentSample) (*Violation, error) {
	h.mu.RLock()
	config := h.config
	h.mu.RUnlock()

	haystack := strings.ToLower(sample.UserAgent + " " + sample.Platform)
	for _, marker := range config.Markers {
		if strings.Contains(haystack, marker) {
			return &Violation{
				Heuristic:  HeuristicVirtualMachine,
				Severity:   SeverityInfo,
				Message:    "virtualized playback environment",
				Detail:     fmt.Sprintf("marker %q", marker),
				DetectedAt: time.Now(),
			}, nil
		}
	}
	return nil, nil
}

// Configure updates the heuristic configuration. The severity is pinned to
// info regardless of configuration.
func (h *VirtualMachineHeuristic) Configure(config json.RawMessage) error {
	var c VirtualMachineConfig
	if err := json.Unmarshal(config, &c); err != nil {
		return fmt.Errorf("parse virtual machine config: %w", err)
	}
	if len(c.Markers) == 0 {
		c.Markers = DefaultVirtualMachineConfig().Markers
	}
	for i, m := range c.Markers {
		c.Markers[i] = strings.ToLower(m)
	}

	h.mu.Lock()
	h.config = c
	h.mu.Unlock()
	return nil
}

// Enabled returns whether the heuristic is enabled.
func (h *VirtualMachineHeuristic) Enabled() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.enabled
}

// SetEnabled enables or disables the heuristic.
func (h *VirtualMachineHeuristic) SetEnabled(enabled bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.enabled = enabled
}
