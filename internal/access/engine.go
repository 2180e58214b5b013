// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

// Package access implements the access decision engine: a pure evaluation
// of purchase ownership, free-preview status, and caller role into a
// grant/deny decision with a structured lock reason.
//
// Decisions are computed fresh per request and never persisted. Any lookup
// failure denies access (fail closed); the engine never fails open.
package access

import (
	"context"
	"errors"

	"github.com/courseguard/courseguard/internal/catalog"
	"github.com/courseguard/courseguard/internal/commerce"
	"github.com/courseguard/courseguard/internal/logging"
)

// Role is the caller's platform role carried in the bearer token.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

// LockReason explains why access was denied.
type LockReason string

const (
	// LockReasonNone means access is granted.
	LockReasonNone LockReason = ""

	// LockReasonPurchaseRequired means the user does not own the course.
	LockReasonPurchaseRequired LockReason = "purchase_required"

	// LockReasonVideoNotFound means the video record is missing.
	LockReasonVideoNotFound LockReason = "video_not_found"

	// LockReasonError means a lookup failed; access is denied rather than
	// guessed (fail closed).
	LockReasonError LockReason = "error"
)

// Decision is the result of evaluating one (user, video) pair.
type Decision struct {
	HasAccess  bool       `json:"hasAccess"`
	IsLocked   bool       `json:"locked"`
	LockReason LockReason `json:"lockReason,omitempty"`

	// Video is the metadata record, present when the video exists.
	Video *catalog.Video `json:"-"`
}

// granted builds a positive decision.
func granted(video *catalog.Video) Decision {
	return Decision{HasAccess: true, Video: video}
}

// denied builds a negative decision with the given reason.
func denied(reason LockReason, video *catalog.Video) Decision {
	return Decision{IsLocked: true, LockReason: reason, Video: video}
}

// Engine evaluates access decisions against catalog and commerce state.
type Engine struct {
	videos    catalog.VideoCatalog
	purchases commerce.PurchaseStore
}

// NewEngine creates an access decision engine.
func NewEngine(videos catalog.VideoCatalog, purchases commerce.PurchaseStore) *Engine {
	return &Engine{
		videos:    videos,
		purchases: purchases,
	}
}

// Evaluate decides whether userID may view videoID.
//
// Admin role bypasses purchase checks entirely. Free-preview videos are
// granted to everyone. Otherwise access requires ownership of the video's
// course. Missing video records and lookup failures deny with distinct
// reasons.
func (e *Engine) Evaluate(ctx context.Context, userID, videoID string, role Role) Decision {
	video, err := e.videos.GetVideo(ctx, videoID)
	if err != nil {
		if errors.Is(err, catalog.ErrVideoNotFound) {
			return denied(LockReasonVideoNotFound, nil)
		}
		logging.Ctx(ctx).Error().Err(err).Str("video_id", videoID).Msg("catalog lookup failed")
		return denied(LockReasonError, nil)
	}

	return e.evaluateVideo(ctx, userID, role, video)
}

// EvaluateCourse evaluates every video of a course for one caller, giving
// each user a personalized lock state without mutating catalog data.
func (e *Engine) EvaluateCourse(ctx context.Context, userID, courseID string, role Role) ([]Decision, error) {
	videos, err := e.videos.ListCourseVideos(ctx, courseID)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("course_id", courseID).Msg("course listing failed")
		return nil, err
	}

	decisions := make([]Decision, len(videos))
	for i := range videos {
		decisions[i] = e.evaluateVideo(ctx, userID, role, &videos[i])
	}
	return decisions, nil
}

// evaluateVideo applies the decision rules to a loaded video record.
func (e *Engine) evaluateVideo(ctx context.Context, userID string, role Role, video *catalog.Video) Decision {
	if role == RoleAdmin {
		return granted(video)
	}

	if video.IsFreePreview {
		return granted(video)
	}

	owned, err := e.purchases.HasPurchased(ctx, userID, video.CourseID)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).
			Str("user_id", userID).
			Str("course_id", video.CourseID).
			Msg("purchase lookup failed")
		return denied(LockReasonError, video)
	}

	if !owned {
		return denied(LockReasonPurchaseRequired, video)
	}
	return granted(video)
}
