// Copyright 2026 The Chanops Authors
// SPDX-License-Identifier: Apache-2.0

package slack

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Scope sets chanops needs. Read scopes cover snapshot and activity
// fetches; write scopes are additionally required before an apply run
// so the run fails fast instead of half-way through a batch.
var (
	ReadScopes  = []string{"channels:read", "groups:read", "channels:history"}
	WriteScopes = []string{"channels:manage", "groups:write", "chat:write"}
)

// AuthTest validates the token and returns the caller's identity. The
// granted OAuth scopes are read from the X-OAuth-Scopes response
// header, which Slack attaches to every authenticated call.
func (c *Client) AuthTest(ctx context.Context) (*Identity, error) {
	var headers http.Header
	var response struct {
		apiResponse
		UserID string `json:"user_id"`
		User   string `json:"user"`
		TeamID string `json:"team_id"`
		Team   string `json:"team"`
	}
	if err := c.doCall(ctx, "auth.test", nil, struct{}{}, &response, &headers); err != nil {
		return nil, fmt.Errorf("slack: auth.test: %w", err)
	}

	identity := &Identity{
		UserID: response.UserID,
		User:   response.User,
		TeamID: response.TeamID,
		Team:   response.Team,
	}
	for _, scope := range strings.Split(headers.Get("X-OAuth-Scopes"), ",") {
		scope = strings.TrimSpace(scope)
		if scope != "" {
			identity.Scopes = append(identity.Scopes, scope)
		}
	}

	c.logger.Info("authenticated",
		"user", identity.User,
		"team", identity.Team,
		"scopes", len(identity.Scopes),
	)
	return identity, nil
}

// CheckScopes verifies the token carries every required scope,
// returning an error that lists all missing scopes at once so the
// operator can fix the app configuration in one pass.
func CheckScopes(identity *Identity, required []string) error {
	var missing []string
	for _, scope := range required {
		if !identity.HasScope(scope) {
			missing = append(missing, scope)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("slack: token is missing required scopes: %s (has: %s)",
			strings.Join(missing, ", "), strings.Join(identity.Scopes, ", "))
	}
	return nil
}
