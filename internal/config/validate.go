// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

package config

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/courseguard/courseguard/internal/validation"
)

// Validation errors for settings the struct tags cannot express.
var (
	// ErrJWTSecretTooShort means the bearer token secret is below 32 characters.
	ErrJWTSecretTooShort = errors.New("security.jwt_secret must be at least 32 characters")

	// ErrMasterKeyInvalid means the DRM master key is missing or undersized.
	ErrMasterKeyInvalid = errors.New("drm.master_key must be base64 of at least 32 bytes")

	// ErrBadgerPathRequired means the badger backend was selected without a path.
	ErrBadgerPathRequired = errors.New("storage.path is required when storage.backend is badger")
)

// Validate checks the configuration for invalid combinations.
// Production environments enforce secrets that development mode may omit.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return fmt.Errorf("config validation: %w", verr)
	}

	if c.Server.Environment == "production" {
		if len(c.Security.JWTSecret) < 32 {
			return ErrJWTSecretTooShort
		}
		if err := validateMasterKey(c.DRM.MasterKey); err != nil {
			return err
		}
	} else {
		// Development mode tolerates missing secrets but not malformed ones.
		if c.Security.JWTSecret != "" && len(c.Security.JWTSecret) < 32 {
			return ErrJWTSecretTooShort
		}
		if c.DRM.MasterKey != "" {
			if err := validateMasterKey(c.DRM.MasterKey); err != nil {
				return err
			}
		}
	}

	if c.Storage.Backend == "badger" && c.Storage.Path == "" {
		return ErrBadgerPathRequired
	}

	if c.DRM.SessionTimeout <= 0 {
		return errors.New("drm.session_timeout must be positive")
	}
	if c.Security.RateLimitWindow <= 0 {
		return errors.New("security.rate_limit_window must be positive")
	}
	if c.Detection.SweepInterval <= 0 {
		return errors.New("detection.sweep_interval must be positive")
	}

	return nil
}

// validateMasterKey checks the DRM master key decodes to at least 32 bytes.
func validateMasterKey(key string) error {
	raw, err := base64.StdEncoding.DecodeString(key)
	if err != nil || len(raw) < 32 {
		return ErrMasterKeyInvalid
	}
	return nil
}
