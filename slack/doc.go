// Copyright 2026 The Chanops Authors
// SPDX-License-Identifier: Apache-2.0

// Package slack is a minimal Slack Web API client covering the surface
// chanops consumes: conversation listing and history, archive, rename,
// purpose updates, message posting, and auth/scope introspection.
//
// All errors from the platform surface as *APIError with the Slack
// error code, so callers can branch on stable codes (ratelimited,
// missing_scope, name_taken, ...) instead of matching error text. Rate
// limiting (HTTP 429) carries the platform's Retry-After interval.
//
// The client holds no mutable state beyond its configuration and is
// safe for concurrent use, though chanops drives it strictly
// sequentially to respect per-method rate limits.
package slack
