// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

// Package config provides layered configuration for CourseGuard.
//
// Configuration is resolved in three layers, later layers overriding earlier:
//
//  1. Compiled-in defaults (defaultConfig)
//  2. YAML config file (config.yaml, or COURSEGUARD_CONFIG_PATH)
//  3. Environment variables (COURSEGUARD_* with _ as section separator)
//
// All numeric protection thresholds (session timeout, rate limits, frame-rate
// collapse detection, watermark geometry) live here rather than as constants
// so deployments can tune them without a rebuild.
package config

import (
	"time"
)

// Config is the root configuration for the CourseGuard server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	DRM       DRMConfig       `koanf:"drm"`
	Detection DetectionConfig `koanf:"detection"`
	Watermark WatermarkConfig `koanf:"watermark"`
	Storage   StorageConfig   `koanf:"storage"`
	Audit     AuditConfig     `koanf:"audit"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment" validate:"oneof=development production"`

	// CORSAllowedOrigins is empty by default; deployments must opt in.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
}

// SecurityConfig holds authentication and rate limiting settings.
type SecurityConfig struct {
	// JWTSecret signs platform bearer tokens. Minimum 32 characters.
	JWTSecret string `koanf:"jwt_secret"`

	// TokenTimeout is the validity window of platform bearer tokens.
	TokenTimeout time.Duration `koanf:"token_timeout"`

	// RateLimitRequests per RateLimitWindow per client IP on protected routes.
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"min=1"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`

	// RateLimitRelaxed switches all protected routes to the relaxed limiter.
	// Admin callers always get the relaxed limiter regardless of this flag.
	RateLimitRelaxed bool `koanf:"rate_limit_relaxed"`

	// RelaxedLimitRequests is the ceiling used in relaxed/admin mode.
	RelaxedLimitRequests int `koanf:"relaxed_limit_requests" validate:"min=1"`

	// RateLimitDisabled turns rate limiting off entirely (tests only).
	RateLimitDisabled bool `koanf:"rate_limit_disabled"`
}

// DRMConfig holds DRM session and URL codec settings.
type DRMConfig struct {
	// SessionTimeout is the lifetime of a DRM viewing session.
	SessionTimeout time.Duration `koanf:"session_timeout"`

	// MasterKey is the base64-encoded master key for per-session URL
	// encryption key derivation. At least 32 bytes of entropy.
	MasterKey string `koanf:"master_key"`

	// CleanupInterval is how often expired sessions are pruned from storage.
	// Pruning is storage hygiene only; expiry is always re-checked by
	// wall clock at validation time.
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// DetectionConfig holds anti-piracy heuristic thresholds.
type DetectionConfig struct {
	// Enabled controls the whole detection engine.
	Enabled bool `koanf:"enabled"`

	// SweepInterval is how often active sessions are re-scanned.
	SweepInterval time.Duration `koanf:"sweep_interval"`

	// FrameRateThreshold is the fps floor below which a 1-second window
	// counts as collapsed.
	FrameRateThreshold float64 `koanf:"frame_rate_threshold" validate:"min=1"`

	// FrameRateWindows is the number of consecutive collapsed windows
	// required before a violation is raised.
	FrameRateWindows int `koanf:"frame_rate_windows" validate:"min=1"`

	// DevToolsGapPx is the outer/inner window size gap that suggests
	// an open developer tools pane.
	DevToolsGapPx int `koanf:"devtools_gap_px" validate:"min=1"`

	// SweepRatePerSecond bounds how many sessions the background sweeper
	// scans per second. Zero means unlimited.
	SweepRatePerSecond float64 `koanf:"sweep_rate_per_second"`
}

// WatermarkConfig holds forensic watermark overlay geometry.
type WatermarkConfig struct {
	TileSpacing int     `koanf:"tile_spacing" validate:"min=10"`
	Rotation    float64 `koanf:"rotation"`
	Opacity     float64 `koanf:"opacity" validate:"gt=0,lte=1"`
	FontSize    int     `koanf:"font_size" validate:"min=6"`
}

// StorageConfig holds session registry persistence settings.
type StorageConfig struct {
	// Backend selects the session registry: "memory" or "badger".
	Backend string `koanf:"backend" validate:"oneof=memory badger"`

	// Path is the BadgerDB directory when Backend is "badger".
	Path string `koanf:"path"`
}

// AuditConfig holds audit trail settings.
type AuditConfig struct {
	Enabled     bool `koanf:"enabled"`
	BufferSize  int  `koanf:"buffer_size" validate:"min=1"`
	MaxEvents   int  `koanf:"max_events" validate:"min=1"`
	LogToStdout bool `koanf:"log_to_stdout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// defaultConfig returns a Config with all default values applied.
// These match the documented protection defaults: 3600s sessions,
// 100 requests per 15 minutes per IP, 10fps collapse floor over
// 3 consecutive windows, 160px devtools gap, 200px watermark tiles.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8972,
			Timeout:            30 * time.Second,
			Environment:        "development",
			CORSAllowedOrigins: []string{},
		},
		Security: SecurityConfig{
			JWTSecret:            "",
			TokenTimeout:         24 * time.Hour,
			RateLimitRequests:    100,
			RateLimitWindow:      15 * time.Minute,
			RateLimitRelaxed:     false,
			RelaxedLimitRequests: 1000,
			RateLimitDisabled:    false,
		},
		DRM: DRMConfig{
			SessionTimeout:  time.Hour,
			MasterKey:       "",
			CleanupInterval: 5 * time.Minute,
		},
		Detection: DetectionConfig{
			Enabled:            true,
			SweepInterval:      30 * time.Second,
			FrameRateThreshold: 10.0,
			FrameRateWindows:   3,
			DevToolsGapPx:      160,
			SweepRatePerSecond: 100,
		},
		Watermark: WatermarkConfig{
			TileSpacing: 200,
			Rotation:    -30,
			Opacity:     0.1,
			FontSize:    24,
		},
		Storage: StorageConfig{
			Backend: "memory",
			Path:    "/data/courseguard",
		},
		Audit: AuditConfig{
			Enabled:     true,
			BufferSize:  1000,
			MaxEvents:   10000,
			LogToStdout: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
