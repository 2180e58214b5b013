// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/courseguard/courseguard/internal/access"
	"github.com/courseguard/courseguard/internal/audit"
	"github.com/courseguard/courseguard/internal/auth"
	"github.com/courseguard/courseguard/internal/catalog"
	"github.com/courseguard/courseguard/internal/detection"
	"github.com/courseguard/courseguard/internal/drm"
	"github.com/courseguard/courseguard/internal/metrics"
	"github.com/courseguard/courseguard/internal/watermark"
)

// Handler holds the dependencies of all API endpoints.
type Handler struct {
	access     *access.Engine
	sessions   *drm.Manager
	watermarks *watermark.Generator
	detector   *detection.Engine
	samples    detection.SampleStore
	audits     *audit.Logger
}

// NewHandler creates the API handler.
func NewHandler(
	accessEngine *access.Engine,
	sessions *drm.Manager,
	watermarks *watermark.Generator,
	detector *detection.Engine,
	samples detection.SampleStore,
	audits *audit.Logger,
) *Handler {
	return &Handler{
		access:     accessEngine,
		sessions:   sessions,
		watermarks: watermarks,
		detector:   detector,
		samples:    samples,
		audits:     audits,
	}
}

// VideoInfo is the public metadata of a video. The storage key never
// leaves the server; playback goes through the sealed URL.
type VideoInfo struct {
	ID              string `json:"id"`
	CourseID        string `json:"courseId"`
	Title           string `json:"title"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
	IsFreePreview   bool   `json:"isFreePreview"`
}

// DRMBlock is the playback bundle returned to a granted caller.
type DRMBlock struct {
	SessionID    string            `json:"sessionId"`
	EncryptedURL string            `json:"encryptedUrl"`
	AccessToken  string            `json:"accessToken"`
	ExpiresAt    int64             `json:"expiresAt"`
	Watermark    watermark.Overlay `json:"watermark"`
}

// VideoResponse is the per-video payload: metadata, the caller's
// personalized lock state, and a DRM block when access is granted.
type VideoResponse struct {
	Video  VideoInfo       `json:"video"`
	Access access.Decision `json:"access"`
	DRM    *DRMBlock       `json:"drm,omitempty"`
}

func videoInfo(v *catalog.Video) VideoInfo {
	return VideoInfo{
		ID:              v.ID,
		CourseID:        v.CourseID,
		Title:           v.Title,
		DurationSeconds: v.DurationSeconds,
		IsFreePreview:   v.IsFreePreview,
	}
}

// GetVideo returns one video with the caller's lock state. A granted
// caller gets a fresh DRM session: sealed playback URL, access token,
// and the watermark overlay spec for the requested surface size.
func (h *Handler) GetVideo(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		rw.Unauthorized("authentication required")
		return
	}

	videoID := chi.URLParam(r, "id")
	decision := h.access.Evaluate(r.Context(), user.ID, videoID, user.Role)
	metrics.RecordAccessDecision(decision.HasAccess, string(decision.LockReason))

	source := audit.SourceFromRequest(r)
	if !decision.HasAccess {
		h.audits.LogAccessDenied(r.Context(), user.ID, videoID, string(decision.LockReason), source)
		if decision.LockReason == access.LockReasonVideoNotFound {
			rw.NotFound("video not found")
			return
		}
		rw.Success(VideoResponse{
			Video:  lockedVideoInfo(decision.Video, videoID),
			Access: decision,
		})
		return
	}

	h.audits.LogAccessGranted(r.Context(), user.ID, videoID, source)

	session, err := h.sessions.Create(r.Context(), drm.CreateRequest{
		UserID:   user.ID,
		ClientIP: r.RemoteAddr,
		Decision: decision,
	})
	if err != nil {
		rw.InternalError("failed to create playback session")
		return
	}
	h.audits.LogSessionCreated(r.Context(), user.ID, videoID, session.ID, source)

	width, height := surfaceSize(r)
	rw.Success(VideoResponse{
		Video:  videoInfo(decision.Video),
		Access: decision,
		DRM: &DRMBlock{
			SessionID:    session.ID,
			EncryptedURL: session.EncryptedURL,
			AccessToken:  session.AccessToken,
			ExpiresAt:    session.ExpiresAt.Unix(),
			Watermark:    h.watermarks.BuildOverlay(session.WatermarkPayload, width, height),
		},
	})
}

// ListCourseVideos returns every video of a course with the caller's
// personalized lock states. Playback sessions are not created here; the
// player fetches the single-video endpoint to start playback.
func (h *Handler) ListCourseVideos(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		rw.Unauthorized("authentication required")
		return
	}

	courseID := chi.URLParam(r, "id")
	decisions, err := h.access.EvaluateCourse(r.Context(), user.ID, courseID, user.Role)
	if err != nil {
		rw.InternalError("course listing failed")
		return
	}

	items := make([]VideoResponse, len(decisions))
	for i, decision := range decisions {
		metrics.RecordAccessDecision(decision.HasAccess, string(decision.LockReason))
		items[i] = VideoResponse{
			Video:  videoInfo(decision.Video),
			Access: decision,
		}
	}
	rw.Success(map[string]interface{}{
		"courseId": courseID,
		"videos":   items,
	})
}

// lockedVideoInfo builds the metadata block for a denied response.
// The video record can be nil when the lookup itself failed.
func lockedVideoInfo(v *catalog.Video, videoID string) VideoInfo {
	if v == nil {
		return VideoInfo{ID: videoID}
	}
	return videoInfo(v)
}

// surfaceSize reads the player surface dimensions from query parameters,
// falling back to a 720p surface.
func surfaceSize(r *http.Request) (int, int) {
	width, height := 1280, 720
	if v, err := strconv.Atoi(r.URL.Query().Get("width")); err == nil && v > 0 {
		width = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("height")); err == nil && v > 0 {
		height = v
	}
	return width, height
}
