// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

// Package auth authenticates platform users. CourseGuard trusts the
// e-learning platform's identity layer: requests carry an HS256 bearer
// token minted by the platform with the shared secret, and this package
// validates it and places the caller's identity in the request context.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/courseguard/courseguard/internal/access"
)

var (
	// ErrTokenInvalid indicates a malformed, tampered, or mis-signed token.
	ErrTokenInvalid = errors.New("invalid bearer token")

	// ErrTokenExpired indicates a structurally valid but expired token.
	ErrTokenExpired = errors.New("bearer token expired")
)

// Claims are the platform identity claims carried in a bearer token.
type Claims struct {
	UserID   string `json:"uid"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// User is the authenticated caller, as resolved from a bearer token.
type User struct {
	ID       string
	Username string
	Role     access.Role
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == access.RoleAdmin
}

// JWTManager creates and validates platform bearer tokens.
type JWTManager struct {
	secret  []byte
	timeout time.Duration
}

// NewJWTManager creates a token manager. The secret must be at least
// 32 characters; it is stored as []byte and never logged.
func NewJWTManager(secret string, timeout time.Duration) (*JWTManager, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 characters, got %d", len(secret))
	}
	if timeout <= 0 {
		timeout = 24 * time.Hour
	}
	return &JWTManager{
		secret:  []byte(secret),
		timeout: timeout,
	}, nil
}

// GenerateToken creates a signed bearer token for a platform user.
func (m *JWTManager) GenerateToken(userID, username string, role access.Role) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   userID,
		Username: username,
		Role:     string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.timeout)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken validates a bearer token and resolves the caller.
// The signing method is pinned to HMAC to reject algorithm confusion.
func (m *JWTManager) ValidateToken(tokenString string) (*User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing user id", ErrTokenInvalid)
	}

	role := access.Role(claims.Role)
	switch role {
	case access.RoleStudent, access.RoleInstructor, access.RoleAdmin:
	case "":
		role = access.RoleStudent
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrTokenInvalid, claims.Role)
	}

	return &User{
		ID:       claims.UserID,
		Username: claims.Username,
		Role:     role,
	}, nil
}
