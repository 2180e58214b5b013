// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

// Package catalog defines the read-only boundary to the course catalog
// subsystem. CourseGuard consumes video metadata; it never mutates it.
package catalog

import (
	"context"
	"errors"
	"sync"
)

// ErrVideoNotFound is returned when a video record does not exist.
var ErrVideoNotFound = errors.New("video not found")

// Video is the metadata CourseGuard needs about a protected video.
// StorageKey resolves to a raw signed URL in the storage subsystem;
// the raw URL is only ever exposed encrypted under a session key.
type Video struct {
	ID              string `json:"id"`
	CourseID        string `json:"courseId"`
	Title           string `json:"title"`
	IsFreePreview   bool   `json:"isFreePreview"`
	StorageKey      string `json:"-"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
}

// VideoCatalog provides read access to video metadata.
type VideoCatalog interface {
	// GetVideo retrieves a video by ID.
	// Returns ErrVideoNotFound if no record exists.
	GetVideo(ctx context.Context, videoID string) (*Video, error)

	// ListCourseVideos returns all videos of a course in display order.
	ListCourseVideos(ctx context.Context, courseID string) ([]Video, error)
}

// StorageResolver resolves a video's storage key to a raw signed URL.
// The storage subsystem owns signing; CourseGuard only wraps the result.
type StorageResolver interface {
	SignedURL(ctx context.Context, storageKey string) (string, error)
}

// MemoryCatalog is an in-memory VideoCatalog for development and tests.
type MemoryCatalog struct {
	mu     sync.RWMutex
	videos map[string]Video
	// byCourse preserves insertion order per course.
	byCourse map[string][]string
}

// NewMemoryCatalog creates an empty in-memory catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		videos:   make(map[string]Video),
		byCourse: make(map[string][]string),
	}
}

// Put adds or replaces a video record.
func (c *MemoryCatalog) Put(video Video) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.videos[video.ID]; !exists {
		c.byCourse[video.CourseID] = append(c.byCourse[video.CourseID], video.ID)
	}
	c.videos[video.ID] = video
}

// GetVideo retrieves a video by ID.
func (c *MemoryCatalog) GetVideo(_ context.Context, videoID string) (*Video, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	video, ok := c.videos[videoID]
	if !ok {
		return nil, ErrVideoNotFound
	}
	return &video, nil
}

// ListCourseVideos returns all videos of a course in insertion order.
func (c *MemoryCatalog) ListCourseVideos(_ context.Context, courseID string) ([]Video, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := c.byCourse[courseID]
	videos := make([]Video, 0, len(ids))
	for _, id := range ids {
		videos = append(videos, c.videos[id])
	}
	return videos, nil
}

// MemoryStorageResolver maps storage keys to signed URLs directly.
// Stands in for the storage subsystem in development and tests.
type MemoryStorageResolver struct {
	mu   sync.RWMutex
	urls map[string]string
}

// NewMemoryStorageResolver creates an empty resolver.
func NewMemoryStorageResolver() *MemoryStorageResolver {
	return &MemoryStorageResolver{urls: make(map[string]string)}
}

// Put registers a signed URL for a storage key.
func (r *MemoryStorageResolver) Put(storageKey, url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls[storageKey] = url
}

// SignedURL resolves a storage key.
func (r *MemoryStorageResolver) SignedURL(_ context.Context, storageKey string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	url, ok := r.urls[storageKey]
	if !ok {
		return "", errors.New("unknown storage key")
	}
	return url, nil
}
