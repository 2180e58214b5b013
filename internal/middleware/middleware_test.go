// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/courseguard/courseguard/internal/logging"
)

func TestRequestIDGeneratesAndPropagates(t *testing.T) {
	var ctxRequestID string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxRequestID = logging.RequestIDFromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	headerID := w.Header().Get("X-Request-ID")
	if headerID == "" {
		t.Fatal("X-Request-ID header not set")
	}
	if ctxRequestID != headerID {
		t.Errorf("context id %q != header id %q", ctxRequestID, headerID)
	}
}

func TestRequestIDHonorsUpstream(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Request-ID", "upstream-id-42")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if got := w.Header().Get("X-Request-ID"); got != "upstream-id-42" {
		t.Errorf("X-Request-ID = %q, want upstream value", got)
	}
}

func TestContentProtectionHeaders(t *testing.T) {
	handler := ContentProtectionHeaders(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/videos/v-1", nil))

	want := map[string]string{
		"Cache-Control":          "no-cache, no-store, must-revalidate, private",
		"Pragma":                 "no-cache",
		"Expires":                "0",
		"X-Frame-Options":        "DENY",
		"X-Content-Type-Options": "nosniff",
		"X-Robots-Tag":           "noindex, nofollow",
		"X-DRM-Protected":        "true",
		"X-Watermark":            "enabled",
	}
	for header, value := range want {
		if got := w.Header().Get(header); got != value {
			t.Errorf("%s = %q, want %q", header, got, value)
		}
	}
}

func TestValidateCDNHeadersFormatChecks(t *testing.T) {
	handler := ValidateCDNHeaders(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Well-formed identifiers pass through.
	for _, header := range []string{"X-DRM-Session", "X-User-ID", "X-Video-ID"} {
		t.Run(header+" valid", func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/v1/videos/v-1", nil)
			r.Header.Set(header, "sess_abc-123")
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			if w.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", w.Code)
			}
		})
	}

	// Malformed values are rejected before business logic.
	for _, value := range []string{"has space", "semi;colon", "../traversal", strings.Repeat("a", 129)} {
		t.Run("malformed "+value[:4], func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/v1/videos/v-1", nil)
			r.Header.Set("X-DRM-Session", value)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}

	// Requests without the headers pass through untouched.
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	if w.Code != http.StatusOK {
		t.Errorf("clean request status = %d, want 200", w.Code)
	}
}

func TestCompression(t *testing.T) {
	payload := strings.Repeat("watermarked ", 200)
	handler := Compression(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(payload))
	}))

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if got := w.Header().Get("Content-Encoding"); got != "gzip" {
		t.Fatalf("Content-Encoding = %q", got)
	}
	gz, err := gzip.NewReader(w.Body)
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	defer gz.Close()
	body, err := io.ReadAll(gz)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(body) != payload {
		t.Error("decompressed body does not match")
	}

	// No Accept-Encoding: passthrough.
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	if w.Header().Get("Content-Encoding") == "gzip" {
		t.Error("response compressed without Accept-Encoding")
	}
}
