// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

package drm

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a playback token fails validation.
var ErrInvalidToken = errors.New("invalid playback token")

// PlaybackClaims are the JWT claims bound into a session's access token.
// The token ties a player to exactly one (user, video, session) triple;
// presenting it against any other session fails validation server-side.
type PlaybackClaims struct {
	UserID    string `json:"uid"`
	VideoID   string `json:"vid"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// TokenIssuer creates and validates playback access tokens.
// Uses HMAC-SHA256 signing; tokens expire together with their session.
type TokenIssuer struct {
	secret []byte
}

// NewTokenIssuer creates a token issuer with the given signing secret.
func NewTokenIssuer(secret string) (*TokenIssuer, error) {
	if len(secret) < 32 {
		return nil, errors.New("token secret must be at least 32 characters")
	}
	return &TokenIssuer{secret: []byte(secret)}, nil
}

// Issue signs a playback token for the session.
func (t *TokenIssuer) Issue(session *Session) (string, error) {
	claims := &PlaybackClaims{
		UserID:    session.UserID,
		VideoID:   session.VideoID,
		SessionID: session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "courseguard",
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			NotBefore: jwt.NewNumericDate(session.CreatedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign playback token: %w", err)
	}
	return signed, nil
}

// Validate checks a playback token's signature and lifetime.
func (t *TokenIssuer) Validate(tokenString string) (*PlaybackClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &PlaybackClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidToken, jwt.ErrTokenExpired)
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err.Error())
	}

	claims, ok := token.Claims.(*PlaybackClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ValidTo reports whether the token authorizes the given session. The claim
// set must name the session exactly; a valid token for a different session
// is still a mismatch.
func (c *PlaybackClaims) ValidTo(session *Session) bool {
	return c.SessionID == session.ID &&
		c.UserID == session.UserID &&
		c.VideoID == session.VideoID
}
