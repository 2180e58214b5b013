// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

package access

import (
	"context"
	"errors"
	"testing"

	"github.com/courseguard/courseguard/internal/catalog"
	"github.com/courseguard/courseguard/internal/commerce"
)

type erroringCatalog struct{}

func (erroringCatalog) GetVideo(context.Context, string) (*catalog.Video, error) {
	return nil, errors.New("catalog timeout")
}

func (erroringCatalog) ListCourseVideos(context.Context, string) ([]catalog.Video, error) {
	return nil, errors.New("catalog timeout")
}

type erroringPurchases struct{}

func (erroringPurchases) HasPurchased(context.Context, string, string) (bool, error) {
	return false, errors.New("commerce timeout")
}

func newTestEngine() (*Engine, *catalog.MemoryCatalog, *commerce.MemoryPurchaseStore) {
	videos := catalog.NewMemoryCatalog()
	videos.Put(catalog.Video{ID: "v-paid", CourseID: "course-go", Title: "Goroutines", StorageKey: "k1"})
	videos.Put(catalog.Video{ID: "v-free", CourseID: "course-go", Title: "Intro", IsFreePreview: true, StorageKey: "k2"})
	videos.Put(catalog.Video{ID: "v-other", CourseID: "course-rust", Title: "Ownership", StorageKey: "k3"})

	purchases := commerce.NewMemoryPurchaseStore()
	purchases.Grant("owner", "course-go")

	return NewEngine(videos, purchases), videos, purchases
}

func TestEvaluate(t *testing.T) {
	engine, _, _ := newTestEngine()
	ctx := context.Background()

	tests := []struct {
		name       string
		userID     string
		videoID    string
		role       Role
		wantAccess bool
		wantReason LockReason
	}{
		{"owner views paid video", "owner", "v-paid", RoleStudent, true, LockReasonNone},
		{"non-owner views paid video", "stranger", "v-paid", RoleStudent, false, LockReasonPurchaseRequired},
		{"non-owner views free preview", "stranger", "v-free", RoleStudent, true, LockReasonNone},
		{"owner views other course", "owner", "v-other", RoleStudent, false, LockReasonPurchaseRequired},
		{"admin views paid video", "admin-user", "v-paid", RoleAdmin, true, LockReasonNone},
		{"admin views other course", "admin-user", "v-other", RoleAdmin, true, LockReasonNone},
		{"missing video", "owner", "v-missing", RoleStudent, false, LockReasonVideoNotFound},
		{"missing video as admin", "admin-user", "v-missing", RoleAdmin, false, LockReasonVideoNotFound},
		{"instructor without purchase", "teacher", "v-paid", RoleInstructor, false, LockReasonPurchaseRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := engine.Evaluate(ctx, tt.userID, tt.videoID, tt.role)
			if d.HasAccess != tt.wantAccess {
				t.Errorf("HasAccess = %v, want %v", d.HasAccess, tt.wantAccess)
			}
			if d.LockReason != tt.wantReason {
				t.Errorf("LockReason = %q, want %q", d.LockReason, tt.wantReason)
			}
			if d.HasAccess == d.IsLocked {
				t.Errorf("decision must be either granted or locked, got %+v", d)
			}
		})
	}
}

func TestEvaluateFailsClosedOnCatalogError(t *testing.T) {
	engine := NewEngine(erroringCatalog{}, commerce.NewMemoryPurchaseStore())

	d := engine.Evaluate(context.Background(), "owner", "v-paid", RoleStudent)
	if d.HasAccess {
		t.Error("catalog failure must deny access")
	}
	if d.LockReason != LockReasonError {
		t.Errorf("LockReason = %q, want %q", d.LockReason, LockReasonError)
	}
}

func TestEvaluateFailsClosedOnPurchaseError(t *testing.T) {
	videos := catalog.NewMemoryCatalog()
	videos.Put(catalog.Video{ID: "v-paid", CourseID: "course-go", StorageKey: "k1"})
	engine := NewEngine(videos, erroringPurchases{})

	d := engine.Evaluate(context.Background(), "owner", "v-paid", RoleStudent)
	if d.HasAccess {
		t.Error("purchase lookup failure must deny access")
	}
	if d.LockReason != LockReasonError {
		t.Errorf("LockReason = %q, want %q", d.LockReason, LockReasonError)
	}
}

func TestEvaluateCoursePersonalizesLockState(t *testing.T) {
	engine, _, _ := newTestEngine()
	ctx := context.Background()

	// Stranger: free preview unlocked, paid video locked.
	decisions, err := engine.EvaluateCourse(ctx, "stranger", "course-go", RoleStudent)
	if err != nil {
		t.Fatalf("EvaluateCourse: %v", err)
	}
	if len(decisions) != 2 {
		t.Fatalf("expected 2 decisions, got %d", len(decisions))
	}

	byVideo := map[string]Decision{}
	for _, d := range decisions {
		byVideo[d.Video.ID] = d
	}
	if byVideo["v-paid"].HasAccess {
		t.Error("stranger should not access paid video")
	}
	if !byVideo["v-free"].HasAccess {
		t.Error("stranger should access free preview")
	}

	// Owner: everything unlocked.
	decisions, err = engine.EvaluateCourse(ctx, "owner", "course-go", RoleStudent)
	if err != nil {
		t.Fatalf("EvaluateCourse: %v", err)
	}
	for _, d := range decisions {
		if !d.HasAccess {
			t.Errorf("owner should access %s", d.Video.ID)
		}
	}
}

func TestEvaluateCourseError(t *testing.T) {
	engine := NewEngine(erroringCatalog{}, commerce.NewMemoryPurchaseStore())
	if _, err := engine.EvaluateCourse(context.Background(), "u", "c", RoleStudent); err == nil {
		t.Error("expected error from failing catalog")
	}
}
