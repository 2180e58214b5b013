// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/courseguard/courseguard/internal/logging"
)

type contextKey string

const userContextKey contextKey = "auth_user"

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userContextKey).(*User)
	return user, ok
}

// ContextWithUser places an authenticated user in the context.
// Exported for handler tests.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// Middleware validates the Authorization bearer token and stores the
// resolved user in the request context. Requests without a valid token
// get 401 with no body detail beyond the standard envelope; the
// surrounding API layer owns the response shape, so this middleware
// delegates rejection to the provided reject func.
type Middleware struct {
	tokens *JWTManager
	reject func(w http.ResponseWriter, r *http.Request, reason string)
}

// NewMiddleware creates the authentication middleware. reject is called
// for unauthenticated requests; if nil, a plain 401 is written.
func NewMiddleware(tokens *JWTManager, reject func(http.ResponseWriter, *http.Request, string)) *Middleware {
	if reject == nil {
		reject = func(w http.ResponseWriter, _ *http.Request, _ string) {
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		}
	}
	return &Middleware{tokens: tokens, reject: reject}
}

// Authenticate wraps a handler, requiring a valid bearer token.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			m.reject(w, r, "missing bearer token")
			return
		}

		user, err := m.tokens.ValidateToken(token)
		if err != nil {
			logging.Debug().Err(err).Msg("bearer token rejected")
			reason := "invalid bearer token"
			if errors.Is(err, ErrTokenExpired) {
				reason = "bearer token expired"
			}
			m.reject(w, r, reason)
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
	})
}

// RequireAdmin wraps a handler, requiring an authenticated admin.
// Must run inside Authenticate.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok || !user.IsAdmin() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
