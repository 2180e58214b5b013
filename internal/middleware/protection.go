// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

package middleware

import (
	"net/http"

	"github.com/courseguard/courseguard/internal/logging"
	"github.com/courseguard/courseguard/internal/metrics"
	"github.com/courseguard/courseguard/internal/validation"
)

// cdnHeaders are the coordination headers the CDN edge attaches when it
// forwards playback traffic. Values are opaque identifiers.
var cdnHeaders = []string{
	"X-DRM-Session",
	"X-User-ID",
	"X-Video-ID",
}

// ContentProtectionHeaders sets the anti-caching and anti-embedding
// header set on every protected response. Playback URLs and session
// material must never land in shared caches, search indexes, or
// third-party frames.
func ContentProtectionHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Cache-Control", "no-cache, no-store, must-revalidate, private")
		h.Set("Pragma", "no-cache")
		h.Set("Expires", "0")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Robots-Tag", "noindex, nofollow")
		h.Set("X-DRM-Protected", "true")
		h.Set("X-Watermark", "enabled")

		next.ServeHTTP(w, r)
	})
}

// ValidateCDNHeaders format-checks the CDN coordination headers. Each
// header present must carry a well-formed identifier; a malformed value
// means a confused edge or a probing client, and the request is rejected
// before it can reach an access decision or the session registry.
func ValidateCDNHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, header := range cdnHeaders {
			value := r.Header.Get(header)
			if value == "" {
				continue
			}
			if !validation.ValidIdentifier(value) {
				metrics.APIRequestsTotal.WithLabelValues(r.Method, r.URL.Path, "400").Inc()
				logging.Warn().
					Str("header", header).
					Str("remote_addr", r.RemoteAddr).
					Str("path", r.URL.Path).
					Msg("malformed coordination header")
				http.Error(w, "malformed coordination header", http.StatusBadRequest)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
