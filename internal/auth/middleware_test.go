// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/courseguard/courseguard/internal/access"
)

func TestAuthenticateMiddleware(t *testing.T) {
	m := newTestManager(t, time.Hour)
	mw := NewMiddleware(m, nil)

	var captured *User
	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	token, err := m.GenerateToken("user-1", "alice", access.RoleStudent)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captured = nil
			r := httptest.NewRequest("GET", "/api/v1/videos/v-1", nil)
			if tt.authHeader != "" {
				r.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if captured == nil || captured.ID != "user-1" {
					t.Errorf("context user = %+v", captured)
				}
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	m := newTestManager(t, time.Hour)
	mw := NewMiddleware(m, nil)

	handler := mw.Authenticate(mw.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	adminToken, _ := m.GenerateToken("admin-1", "root", access.RoleAdmin)
	studentToken, _ := m.GenerateToken("user-1", "alice", access.RoleStudent)

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{"admin", adminToken, http.StatusOK},
		{"student", studentToken, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("DELETE", "/api/v1/drm/sessions/abc", nil)
			r.Header.Set("Authorization", "Bearer "+tt.token)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestAuthenticateExpiredTokenReason(t *testing.T) {
	m := newTestManager(t, time.Hour)
	m.timeout = -time.Minute
	token, err := m.GenerateToken("user-1", "alice", access.RoleStudent)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	m.timeout = time.Hour

	var gotReason string
	mw := NewMiddleware(m, func(w http.ResponseWriter, _ *http.Request, reason string) {
		gotReason = reason
		w.WriteHeader(http.StatusUnauthorized)
	})
	handler := mw.Authenticate(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if gotReason != "bearer token expired" {
		t.Errorf("reason = %q, want bearer token expired", gotReason)
	}
}

func TestCustomRejectFunc(t *testing.T) {
	m := newTestManager(t, time.Hour)
	var gotReason string
	mw := NewMiddleware(m, func(w http.ResponseWriter, _ *http.Request, reason string) {
		gotReason = reason
		w.WriteHeader(http.StatusUnauthorized)
	})

	handler := mw.Authenticate(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	r := httptest.NewRequest("GET", "/", nil)
	handler.ServeHTTP(httptest.NewRecorder(), r)
	if gotReason != "missing bearer token" {
		t.Errorf("reason = %q", gotReason)
	}
}
