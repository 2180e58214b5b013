// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAccessDecision(t *testing.T) {
	before := testutil.ToFloat64(AccessDecisions.WithLabelValues("denied", "purchase_required"))
	RecordAccessDecision(false, "purchase_required")
	after := testutil.ToFloat64(AccessDecisions.WithLabelValues("denied", "purchase_required"))
	if after != before+1 {
		t.Errorf("denied counter = %v, want %v", after, before+1)
	}

	// Granted decisions collapse the reason label.
	before = testutil.ToFloat64(AccessDecisions.WithLabelValues("granted", ""))
	RecordAccessDecision(true, "ignored")
	after = testutil.ToFloat64(AccessDecisions.WithLabelValues("granted", ""))
	if after != before+1 {
		t.Errorf("granted counter = %v, want %v", after, before+1)
	}
}

func TestRecordViolation(t *testing.T) {
	before := testutil.ToFloat64(ViolationsDetected.WithLabelValues("frame_rate", "medium"))
	RecordViolation("frame_rate", "medium")
	after := testutil.ToFloat64(ViolationsDetected.WithLabelValues("frame_rate", "medium"))
	if after != before+1 {
		t.Errorf("violation counter = %v, want %v", after, before+1)
	}
}

func TestRecordSweep(t *testing.T) {
	before := testutil.ToFloat64(SweepSessionsScanned)
	RecordSweep(50*time.Millisecond, 7)
	after := testutil.ToFloat64(SweepSessionsScanned)
	if after != before+7 {
		t.Errorf("scanned counter = %v, want %v", after, before+7)
	}
}

func TestActiveSessionsGauge(t *testing.T) {
	ActiveSessions.Set(0)
	ActiveSessions.Inc()
	ActiveSessions.Inc()
	ActiveSessions.Dec()
	if got := testutil.ToFloat64(ActiveSessions); got != 1 {
		t.Errorf("active sessions = %v, want 1", got)
	}
}
