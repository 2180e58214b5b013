// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

// Package detection implements the anti-piracy detection engine: pluggable
// heuristics evaluated against environment samples that players report
// during playback, plus a background sweeper that re-scans active sessions.
//
// Heuristics are advisory by design. A violation marks the report insecure
// and is logged for operators; nothing in this package revokes sessions.
// A failing heuristic is treated as "no violation" so detection problems
// never interrupt legitimate playback.
package detection

import (
	"context"
	"time"

	"github.com/goccy/go-json"
)

// HeuristicType identifies a detection heuristic.
type HeuristicType string

const (
	// HeuristicRecordingMarkup scans reported markup for recording-overlay
	// fingerprints injected by capture tools.
	HeuristicRecordingMarkup HeuristicType = "recording_markup"

	// HeuristicScreenCapture flags active use of screen-capture APIs.
	HeuristicScreenCapture HeuristicType = "screen_capture"

	// HeuristicRecorderTitle matches known recorder names in window titles.
	HeuristicRecorderTitle HeuristicType = "recorder_title"

	// HeuristicFrameRate flags sustained frame-rate collapse, a side effect
	// of capture pipelines competing for the GPU.
	HeuristicFrameRate HeuristicType = "frame_rate"

	// HeuristicDownloaderExtension matches known downloader browser
	// extensions in the reported extension list.
	HeuristicDownloaderExtension HeuristicType = "downloader_extension"

	// HeuristicDevTools flags a window-geometry gap typical of open
	// developer tools.
	HeuristicDevTools HeuristicType = "devtools_gap"

	// HeuristicVirtualMachine flags virtualized or headless environments.
	// Advisory only: VMs are common in corporate setups.
	HeuristicVirtualMachine HeuristicType = "virtual_machine"
)

// Severity indicates how strongly a violation signals piracy.
type Severity string

const (
	// SeverityInfo marks advisory findings that never flip a report to
	// insecure on their own.
	SeverityInfo Severity = "info"

	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// EnvironmentSample is one playback-environment snapshot reported by a
// player. All fields are client-supplied and therefore untrusted input;
// heuristics treat them as signals, never as proof.
type EnvironmentSample struct {
	// SessionID is the DRM session this sample belongs to.
	SessionID string `json:"sessionId" validate:"required,drmid"`

	// Timestamp is when the player captured the sample.
	Timestamp time.Time `json:"timestamp"`

	// UserAgent is the player's user agent string.
	UserAgent string `json:"userAgent,omitempty"`

	// Platform is the reported OS/platform string.
	Platform string `json:"platform,omitempty"`

	// WindowTitles are titles of windows visible to the player process.
	WindowTitles []string `json:"windowTitles,omitempty"`

	// MarkupSnippets are sampled fragments of the playback surface markup.
	MarkupSnippets []string `json:"markupSnippets,omitempty"`

	// Extensions are identifiers of installed browser extensions.
	Extensions []string `json:"extensions,omitempty"`

	// ScreenCaptureActive reports an active display-capture API stream.
	ScreenCaptureActive bool `json:"screenCaptureActive,omitempty"`

	// MediaRecorderActive reports an active media-recorder pipeline.
	MediaRecorderActive bool `json:"mediaRecorderActive,omitempty"`

	// FrameRate is the average playback frame rate over the sample window.
	// Zero means the player could not measure it.
	FrameRate float64 `json:"frameRate,omitempty"`

	// Window geometry, used for the devtools gap check. Zero means unknown.
	OuterWidth  int `json:"outerWidth,omitempty"`
	InnerWidth  int `json:"innerWidth,omitempty"`
	OuterHeight int `json:"outerHeight,omitempty"`
	InnerHeight int `json:"innerHeight,omitempty"`
}

// Violation is one heuristic finding against a sample.
type Violation struct {
	Heuristic  HeuristicType `json:"heuristic"`
	Severity   Severity      `json:"severity"`
	Message    string        `json:"message"`
	Detail     string        `json:"detail,omitempty"`
	DetectedAt time.Time     `json:"detectedAt"`
}

// Advisory reports whether the violation is informational only.
func (v *Violation) Advisory() bool {
	return v.Severity == SeverityInfo
}

// Report is the outcome of evaluating one sample against all heuristics.
type Report struct {
	SessionID string `json:"sessionId"`

	// IsSecure is false when any non-advisory violation was found.
	// Advisory findings are listed but do not flip this flag.
	IsSecure bool `json:"isSecure"`

	Violations []Violation `json:"violations,omitempty"`
	CheckedAt  time.Time   `json:"checkedAt"`
}

// Heuristic is the interface all detection heuristics implement.
type Heuristic interface {
	// Name returns the heuristic's type.
	Name() HeuristicType

	// Check evaluates a sample. Returns a violation if the sample trips
	// the heuristic, nil otherwise. Errors are treated by the engine as
	// "no violation".
	Check(ctx context.Context, sample *EnvironmentSample) (*Violation, error)

	// Configure updates the heuristic configuration.
	Configure(config json.RawMessage) error

	// Enabled returns whether this heuristic is currently enabled.
	Enabled() bool

	// SetEnabled enables or disables the heuristic.
	SetEnabled(enabled bool)
}
