// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

// Command server runs the CourseGuard content-protection service.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"

	"github.com/courseguard/courseguard/internal/access"
	"github.com/courseguard/courseguard/internal/api"
	"github.com/courseguard/courseguard/internal/audit"
	"github.com/courseguard/courseguard/internal/auth"
	"github.com/courseguard/courseguard/internal/catalog"
	"github.com/courseguard/courseguard/internal/commerce"
	"github.com/courseguard/courseguard/internal/config"
	"github.com/courseguard/courseguard/internal/detection"
	"github.com/courseguard/courseguard/internal/drm"
	"github.com/courseguard/courseguard/internal/logging"
	"github.com/courseguard/courseguard/internal/supervisor"
	"github.com/courseguard/courseguard/internal/watermark"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Timestamp: true,
	})
	logging.Info().
		Str("version", api.Version).
		Str("environment", cfg.Server.Environment).
		Msg("courseguard starting")

	// Session registry: badger survives restarts, memory is for
	// development and tests.
	var store drm.SessionStore
	switch cfg.Storage.Backend {
	case "badger":
		db, err := drm.OpenBadger(cfg.Storage.Path)
		if err != nil {
			return fmt.Errorf("open session registry: %w", err)
		}
		defer db.Close()
		store = drm.NewBadgerSessionStore(db)
	default:
		store = drm.NewMemorySessionStore()
	}

	codec, err := drm.NewURLCodec(cfg.DRM.MasterKey)
	if err != nil {
		return fmt.Errorf("url codec: %w", err)
	}
	issuer, err := drm.NewTokenIssuer(cfg.Security.JWTSecret)
	if err != nil {
		return fmt.Errorf("token issuer: %w", err)
	}
	tokens, err := auth.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.TokenTimeout)
	if err != nil {
		return fmt.Errorf("jwt manager: %w", err)
	}

	// Catalog and commerce are platform collaborators; the in-memory
	// implementations are the integration seam until the platform
	// adapters are wired in. Commerce goes through the circuit breaker
	// so collaborator outages fail closed fast.
	videos := catalog.NewMemoryCatalog()
	resolver := catalog.NewMemoryStorageResolver()
	purchases := commerce.NewBreakerStore(commerce.NewMemoryPurchaseStore(), commerce.BreakerConfig{})

	sessions := drm.NewManager(store, codec, issuer, resolver, cfg.DRM.SessionTimeout)
	accessEngine := access.NewEngine(videos, purchases)

	detector := buildDetectionEngine(cfg.Detection)
	samples := detection.NewMemorySampleStore()

	auditStore := audit.NewMemoryStore(cfg.Audit.MaxEvents)
	audits := audit.NewLogger(auditStore, audit.Config{
		Enabled:     cfg.Audit.Enabled,
		BufferSize:  cfg.Audit.BufferSize,
		LogToStdout: cfg.Audit.LogToStdout,
	})
	defer audits.Close()

	handler := api.NewHandler(
		accessEngine,
		sessions,
		watermarkGenerator(cfg.Watermark),
		detector,
		samples,
		audits,
	)
	router := api.NewRouter(handler, tokens, api.NewChiMiddleware(&api.ChiMiddlewareConfig{
		CORSAllowedOrigins:   cfg.Server.CORSAllowedOrigins,
		RateLimitRequests:    cfg.Security.RateLimitRequests,
		RateLimitWindow:      cfg.Security.RateLimitWindow,
		RelaxedLimitRequests: cfg.Security.RelaxedLimitRequests,
		RateLimitRelaxed:     cfg.Security.RateLimitRelaxed,
		RateLimitDisabled:    cfg.Security.RateLimitDisabled,
	}, audits))

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddBackgroundService(drm.NewJanitor(sessions, cfg.DRM.CleanupInterval, drm.DefaultRetention))
	tree.AddBackgroundService(detection.NewSweeper(detector, sessions, samples, detection.SweeperConfig{
		Interval:      cfg.Detection.SweepInterval,
		RatePerSecond: cfg.Detection.SweepRatePerSecond,
	}))
	tree.AddBackgroundService(audit.NewCleaner(audits, 0, 0))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	tree.AddAPIService(supervisor.NewHTTPService(addr, router.Setup(), cfg.Server.Timeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.Info().Msg("courseguard stopped")
	return nil
}

// watermarkGenerator maps overlay geometry from configuration.
func watermarkGenerator(cfg config.WatermarkConfig) *watermark.Generator {
	return watermark.NewGenerator(watermark.Config{
		TileSpacing: cfg.TileSpacing,
		Rotation:    cfg.Rotation,
		Opacity:     cfg.Opacity,
		FontSize:    cfg.FontSize,
	})
}

// buildDetectionEngine registers the default heuristics and applies the
// configured thresholds through each heuristic's Configure hook.
func buildDetectionEngine(cfg config.DetectionConfig) *detection.Engine {
	engine := detection.NewEngine()
	for _, h := range detection.DefaultHeuristics() {
		engine.Register(h)
	}
	engine.SetEnabled(cfg.Enabled)

	frameRate, _ := json.Marshal(map[string]interface{}{
		"threshold_fps":       cfg.FrameRateThreshold,
		"consecutive_windows": cfg.FrameRateWindows,
	})
	if err := engine.Configure(detection.HeuristicFrameRate, frameRate); err != nil {
		logging.Warn().Err(err).Msg("frame-rate heuristic configuration rejected")
	}

	devtools, _ := json.Marshal(map[string]interface{}{
		"gap_threshold_px": cfg.DevToolsGapPx,
	})
	if err := engine.Configure(detection.HeuristicDevTools, devtools); err != nil {
		logging.Warn().Err(err).Msg("devtools heuristic configuration rejected")
	}

	return engine
}
