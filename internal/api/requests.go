// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"
)

// maxRequestBody bounds request bodies; environment samples with markup
// snippets are the largest expected payload.
const maxRequestBody = 256 * 1024

// DecryptURLRequest asks for a sealed playback URL to be opened.
type DecryptURLRequest struct {
	SessionID    string `json:"sessionId" validate:"required,drmid"`
	EncryptedURL string `json:"encryptedUrl" validate:"required"`
}

// RevokeRequest optionally annotates a session revocation.
type RevokeRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=256"`
}

// decodeJSON reads and decodes a bounded JSON request body.
func decodeJSON(r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(nil, r.Body, maxRequestBody)
	defer func() {
		_, _ = io.Copy(io.Discard, body)
	}()

	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
