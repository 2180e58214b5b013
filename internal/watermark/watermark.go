// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

// Package watermark derives forensic watermark payloads and tiled overlay
// specs for protected playback surfaces.
//
// The payload is a deterministic digest of (user, video, session creation
// time): visible on screen as a deterrent, and reversible to a leak source
// after the fact by recomputing candidate digests. Overlays are regenerated
// per session and never cached across sessions.
package watermark

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// PayloadLength is the number of hex characters kept from the digest.
// Long enough to be unique per session, short enough to render unobtrusively.
const PayloadLength = 16

// Config holds overlay geometry. Defaults cover any surface with tiles a
// screenshot crop cannot fully avoid.
type Config struct {
	// TileSpacing is the distance in pixels between tile origins.
	TileSpacing int

	// Rotation is the tile rotation in degrees.
	Rotation float64

	// Opacity of each tile, 0..1.
	Opacity float64

	// FontSize in pixels.
	FontSize int
}

// DefaultConfig returns the standard overlay geometry.
func DefaultConfig() Config {
	return Config{
		TileSpacing: 200,
		Rotation:    -30,
		Opacity:     0.1,
		FontSize:    24,
	}
}

// Tile is one placement of the payload text on the surface.
type Tile struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Overlay is a render spec for the full watermark layer.
type Overlay struct {
	Text     string  `json:"text"`
	Rotation float64 `json:"rotation"`
	Opacity  float64 `json:"opacity"`
	FontSize int     `json:"fontSize"`
	Spacing  int     `json:"spacing"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Tiles    []Tile  `json:"tiles"`
}

// Generator derives payloads and builds overlay specs.
type Generator struct {
	config Config
}

// NewGenerator creates a watermark generator.
// Zero-value config fields fall back to defaults.
func NewGenerator(config Config) *Generator {
	defaults := DefaultConfig()
	if config.TileSpacing <= 0 {
		config.TileSpacing = defaults.TileSpacing
	}
	if config.Rotation == 0 {
		config.Rotation = defaults.Rotation
	}
	if config.Opacity <= 0 || config.Opacity > 1 {
		config.Opacity = defaults.Opacity
	}
	if config.FontSize <= 0 {
		config.FontSize = defaults.FontSize
	}
	return &Generator{config: config}
}

// DerivePayload computes the forensic payload for a session.
// Deterministic: the same (userID, videoID, timestamp) always yields the
// same payload, and any changed input yields a different one.
func DerivePayload(userID, videoID string, timestamp time.Time) string {
	// Unix seconds, not wall format, so payloads are stable across
	// serialization round trips of the creation time.
	input := fmt.Sprintf("%s|%s|%d", userID, videoID, timestamp.Unix())
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])[:PayloadLength]
}

// BuildOverlay produces the tiled overlay spec for a surface of the given
// size. Tiles start half a spacing outside the surface and extend one
// spacing past it, so rotation and cropping still leave marks near every
// edge regardless of aspect ratio.
func (g *Generator) BuildOverlay(payload string, width, height int) Overlay {
	overlay := Overlay{
		Text:     payload,
		Rotation: g.config.Rotation,
		Opacity:  g.config.Opacity,
		FontSize: g.config.FontSize,
		Spacing:  g.config.TileSpacing,
		Width:    width,
		Height:   height,
	}

	if width <= 0 || height <= 0 || payload == "" {
		return overlay
	}

	spacing := g.config.TileSpacing
	for y := -spacing / 2; y < height+spacing; y += spacing {
		for x := -spacing / 2; x < width+spacing; x += spacing {
			overlay.Tiles = append(overlay.Tiles, Tile{X: x, Y: y})
		}
	}
	return overlay
}
