// Copyright 2026 The Chanops Authors
// SPDX-License-Identifier: Apache-2.0

// Package policy loads the protected-channel policy. Protected
// channels are never archived, renamed, or merged away regardless of
// what the store asks for; validation rejects such actions before
// execution.
package policy

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/tidwall/jsonc"
)

// Policy lists channels exempt from destructive actions. The policy
// file is JSON with comments allowed, so operators can annotate why
// each channel is on the list.
type Policy struct {
	// Channels names channels that must not be modified.
	Channels []string `json:"protected"`
	// ProtectGeneral guards the workspace default channel even when
	// it is not named in Protected. The API refuses to archive it
	// anyway; rejecting locally gives a clearer message.
	ProtectGeneral bool `json:"protect_general"`
}

// Default returns the policy used when no file is configured: no
// named channels, default channel protected.
func Default() *Policy {
	return &Policy{ProtectGeneral: true}
}

// Load reads the policy file at path. A missing file yields
// Default(). Comments and trailing commas are allowed.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("policy: read %s: %w", path, err)
	}

	p := &Policy{ProtectGeneral: true}
	if err := json.Unmarshal(jsonc.ToJSON(data), p); err != nil {
		return nil, fmt.Errorf("policy: parse %s: %w", path, err)
	}
	return p, nil
}

// Protected reports whether a channel is off limits.
func (p *Policy) Protected(name string, isGeneral bool) bool {
	if isGeneral && p.ProtectGeneral {
		return true
	}
	return slices.Contains(p.Channels, name)
}
