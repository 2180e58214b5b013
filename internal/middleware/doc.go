// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

// Package middleware provides HTTP middleware for the CourseGuard API:
// request identification, Prometheus instrumentation, response
// compression, and the content-protection pipeline (anti-caching and
// anti-embedding headers, CDN coordination header validation).
package middleware
