// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

package detection

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

// cleanSample is a typical honest viewer: healthy frame rate, normal
// browser, no capture signals.
func cleanSample(sessionID string) *EnvironmentSample {
	return &EnvironmentSample{
		SessionID:    sessionID,
		Timestamp:    time.Now(),
		UserAgent:    "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 Chrome/126.0 Safari/537.36",
		Platform:     "MacIntel",
		WindowTitles: []string{"Goroutines in Depth - CourseGuard", "Slack"},
		MarkupSnippets: []string{
			`<div class="video-player"><video src="blob:..."></video></div>`,
		},
		Extensions:  []string{"ublock-origin", "bitwarden"},
		FrameRate:   60,
		OuterWidth:  1440,
		InnerWidth:  1440,
		OuterHeight: 900,
		InnerHeight: 815,
	}
}

// A clean sample must not trip any heuristic. This is the false-positive
// guard for the whole default set.
func TestCleanSampleTripsNothing(t *testing.T) {
	ctx := context.Background()
	for _, h := range DefaultHeuristics() {
		violation, err := h.Check(ctx, cleanSample("sess-1"))
		if err != nil {
			t.Errorf("%s: unexpected error: %v", h.Name(), err)
		}
		if violation != nil {
			t.Errorf("%s: false positive on clean sample: %+v", h.Name(), violation)
		}
	}
}

func TestRecordingMarkupHeuristic(t *testing.T) {
	h := NewRecordingMarkupHeuristic()
	sample := cleanSample("sess-1")
	sample.MarkupSnippets = append(sample.MarkupSnippets,
		`<div id="screen-recorder-overlay" style="position:fixed"></div>`)

	violation, err := h.Check(context.Background(), sample)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if violation == nil {
		t.Fatal("expected violation for recording overlay markup")
	}
	if violation.Severity != SeverityCritical {
		t.Errorf("severity = %v, want critical", violation.Severity)
	}
}

func TestScreenCaptureHeuristic(t *testing.T) {
	h := NewScreenCaptureHeuristic()
	ctx := context.Background()

	capture := cleanSample("sess-1")
	capture.ScreenCaptureActive = true
	if v, _ := h.Check(ctx, capture); v == nil {
		t.Error("expected violation for active display capture")
	}

	recorder := cleanSample("sess-1")
	recorder.MediaRecorderActive = true
	if v, _ := h.Check(ctx, recorder); v == nil {
		t.Error("expected violation for active media recorder")
	}

	// Media-recorder flagging can be configured off.
	if err := h.Configure(json.RawMessage(`{"flag_media_recorder": false}`)); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if v, _ := h.Check(ctx, recorder); v != nil {
		t.Error("media recorder should be ignored after reconfiguration")
	}
}

func TestRecorderTitleHeuristic(t *testing.T) {
	h := NewRecorderTitleHeuristic()

	sample := cleanSample("sess-1")
	sample.WindowTitles = append(sample.WindowTitles, "OBS Studio 30.1 - Recording")

	violation, err := h.Check(context.Background(), sample)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if violation == nil {
		t.Fatal("expected violation for recorder window title")
	}
	if violation.Severity != SeverityWarning {
		t.Errorf("severity = %v, want warning", violation.Severity)
	}
}

func TestFrameRateHeuristicNeedsConsecutiveWindows(t *testing.T) {
	h := NewFrameRateHeuristic()
	ctx := context.Background()

	low := cleanSample("sess-1")
	low.FrameRate = 6

	// First two collapsed windows: no violation yet.
	for i := 0; i < 2; i++ {
		if v, _ := h.Check(ctx, low); v != nil {
			t.Fatalf("window %d should not fire", i+1)
		}
	}

	// Third consecutive window fires.
	v, err := h.Check(ctx, low)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if v == nil {
		t.Fatal("third consecutive collapsed window should fire")
	}
}

func TestFrameRateHeuristicResetOnHealthyWindow(t *testing.T) {
	h := NewFrameRateHeuristic()
	ctx := context.Background()

	low := cleanSample("sess-1")
	low.FrameRate = 6
	healthy := cleanSample("sess-1")
	healthy.FrameRate = 58

	h.Check(ctx, low)
	h.Check(ctx, low)
	h.Check(ctx, healthy) // streak resets
	h.Check(ctx, low)
	h.Check(ctx, low)

	if v, _ := h.Check(ctx, healthy); v != nil {
		t.Error("healthy window should not fire")
	}
	// Two more collapsed windows after the reset: still under three.
	h.Check(ctx, low)
	if v, _ := h.Check(ctx, low); v != nil {
		t.Error("streak must restart after a healthy window")
	}
}

func TestFrameRateHeuristicIgnoresUnmeasuredWindows(t *testing.T) {
	h := NewFrameRateHeuristic()
	ctx := context.Background()

	low := cleanSample("sess-1")
	low.FrameRate = 6
	unknown := cleanSample("sess-1")
	unknown.FrameRate = 0

	h.Check(ctx, low)
	h.Check(ctx, unknown) // neither extends nor resets
	h.Check(ctx, low)

	v, _ := h.Check(ctx, low)
	if v == nil {
		t.Error("unmeasured windows must not reset the streak")
	}
}

func TestFrameRateHeuristicTracksSessionsIndependently(t *testing.T) {
	h := NewFrameRateHeuristic()
	ctx := context.Background()

	a := cleanSample("sess-a")
	a.FrameRate = 5
	b := cleanSample("sess-b")
	b.FrameRate = 5

	h.Check(ctx, a)
	h.Check(ctx, a)
	h.Check(ctx, b)

	if v, _ := h.Check(ctx, b); v != nil {
		t.Error("session B has only two collapsed windows, must not fire")
	}
	if v, _ := h.Check(ctx, a); v == nil {
		t.Error("session A reached three collapsed windows, should fire")
	}
}

func TestDownloaderExtensionHeuristic(t *testing.T) {
	h := NewDownloaderExtensionHeuristic()

	sample := cleanSample("sess-1")
	sample.Extensions = append(sample.Extensions, "Video-Downloader-Plus")

	v, err := h.Check(context.Background(), sample)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if v == nil {
		t.Fatal("expected violation for downloader extension")
	}
}

func TestDevToolsHeuristic(t *testing.T) {
	h := NewDevToolsHeuristic()
	ctx := context.Background()

	tests := []struct {
		name       string
		outerW, innerW, outerH, innerH int
		wantFire   bool
	}{
		{"no gap", 1440, 1440, 900, 815, false},
		{"docked right", 1440, 1000, 900, 815, true},
		{"docked bottom", 1440, 1440, 900, 600, true},
		{"gap at threshold", 1440, 1280, 900, 815, false},
		{"unknown geometry", 0, 0, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sample := cleanSample("sess-1")
			sample.OuterWidth = tt.outerW
			sample.InnerWidth = tt.innerW
			sample.OuterHeight = tt.outerH
			sample.InnerHeight = tt.innerH

			v, err := h.Check(ctx, sample)
			if err != nil {
				t.Fatalf("Check: %v", err)
			}
			if (v != nil) != tt.wantFire {
				t.Errorf("fired = %v, want %v", v != nil, tt.wantFire)
			}
		})
	}
}

func TestVirtualMachineHeuristicIsAdvisory(t *testing.T) {
	h := NewVirtualMachineHeuristic()

	sample := cleanSample("sess-1")
	sample.UserAgent = "Mozilla/5.0 (X11; Linux x86_64) HeadlessChrome/126.0"

	v, err := h.Check(context.Background(), sample)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if v == nil {
		t.Fatal("expected advisory violation for headless environment")
	}
	if !v.Advisory() {
		t.Errorf("VM finding must be advisory, got severity %v", v.Severity)
	}
}

func TestHeuristicConfigure(t *testing.T) {
	h := NewFrameRateHeuristic()
	if err := h.Configure(json.RawMessage(`{"threshold_fps": 20, "consecutive_windows": 2}`)); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	ctx := context.Background()
	sample := cleanSample("sess-1")
	sample.FrameRate = 15 // below the new threshold

	h.Check(ctx, sample)
	if v, _ := h.Check(ctx, sample); v == nil {
		t.Error("reconfigured heuristic should fire after two windows under 20 fps")
	}

	if err := h.Configure(json.RawMessage(`{bad json`)); err == nil {
		t.Error("expected error for malformed config")
	}
}
