// Copyright 2026 The Chanops Authors
// SPDX-License-Identifier: Apache-2.0

package slack

import (
	"errors"
	"fmt"
	"time"
)

// APIError represents a failed Slack Web API call. The platform
// signals failure either with an HTTP error status (429 for rate
// limiting) or with a 200 response whose body carries ok=false and a
// short error code. Callers use errors.As to extract the structured
// information:
//
//	var apiErr *slack.APIError
//	if errors.As(err, &apiErr) {
//	    if apiErr.Code == slack.ErrCodeNameTaken { ... }
//	}
type APIError struct {
	// Code is the Slack error code (e.g., "channel_not_found").
	Code string
	// StatusCode is the HTTP status of the response.
	StatusCode int
	// Needed and Provided are populated on missing_scope errors: the
	// scope the call required and the scopes the token carries.
	Needed   string
	Provided string
	// RetryAfter is the wait the platform requested on a ratelimited
	// error. Zero for all other codes.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Code == ErrCodeRateLimited {
		return fmt.Sprintf("slack: %s (%d): retry after %s", e.Code, e.StatusCode, e.RetryAfter)
	}
	if e.Needed != "" {
		return fmt.Sprintf("slack: %s (%d): needed scope %q, token has %q", e.Code, e.StatusCode, e.Needed, e.Provided)
	}
	return fmt.Sprintf("slack: %s (%d)", e.Code, e.StatusCode)
}

// Error codes the engine and validator distinguish. The Web API has
// many more; anything else is treated as a generic non-retryable
// failure.
const (
	ErrCodeRateLimited        = "ratelimited"
	ErrCodeMissingScope       = "missing_scope"
	ErrCodeInvalidAuth        = "invalid_auth"
	ErrCodeChannelNotFound    = "channel_not_found"
	ErrCodeNameTaken          = "name_taken"
	ErrCodeAlreadyArchived    = "already_archived"
	ErrCodeIsArchived         = "is_archived"
	ErrCodeNotInChannel       = "not_in_channel"
	ErrCodeInvalidName        = "invalid_name"
	ErrCodeRestrictedAction   = "restricted_action"
	ErrCodeCantArchiveGeneral = "cant_archive_general"
)

// IsAPIError checks whether err is an *APIError with the given code.
func IsAPIError(err error, code string) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}

// RetryDelay reports whether err is a rate-limit error and, if so, how
// long the platform asked us to wait before retrying.
func RetryDelay(err error) (time.Duration, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code == ErrCodeRateLimited {
		return apiErr.RetryAfter, true
	}
	return 0, false
}

// ErrorCode returns the Slack error code carried by err, or "" if err
// is not an *APIError. Used to attach a stable reason to execution
// results without string-matching error text.
func ErrorCode(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}
