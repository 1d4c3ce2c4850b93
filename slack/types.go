// Copyright 2026 The Chanops Authors
// SPDX-License-Identifier: Apache-2.0

package slack

import (
	"strconv"
	"strings"
	"time"
)

// Channel is one conversation as reported by conversations.list.
// Fields mirror the Web API wire names.
type Channel struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	IsPrivate   bool        `json:"is_private"`
	IsShared    bool        `json:"is_shared"`
	IsExtShared bool        `json:"is_ext_shared"`
	IsGeneral   bool        `json:"is_general"`
	IsArchived  bool        `json:"is_archived"`
	IsMember    bool        `json:"is_member"`
	NumMembers  int         `json:"num_members"`
	Created     int64       `json:"created"`
	Creator     string      `json:"creator"`
	Purpose     Description `json:"purpose"`
	Topic       Description `json:"topic"`
}

// Description is the purpose/topic sub-object on a channel.
type Description struct {
	Value   string `json:"value"`
	Creator string `json:"creator"`
	LastSet int64  `json:"last_set"`
}

// CreatedTime returns the channel creation time.
func (c Channel) CreatedTime() time.Time {
	return time.Unix(c.Created, 0).UTC()
}

// ChannelPage is one page of a conversations.list result. NextCursor
// is empty on the final page.
type ChannelPage struct {
	Channels   []Channel
	NextCursor string
}

// Visibility selects a conversations.list listing class. Public and
// private channels are listed in separate passes so a missing
// groups:read scope fails loudly instead of silently shrinking the
// snapshot.
type Visibility string

const (
	Public  Visibility = "public_channel"
	Private Visibility = "private_channel"
)

// Identity is the authenticated caller as reported by auth.test, plus
// the OAuth scopes granted to the token (from the X-OAuth-Scopes
// response header).
type Identity struct {
	UserID string
	User   string
	TeamID string
	Team   string
	Scopes []string
}

// HasScope reports whether the token carries the given OAuth scope.
func (i Identity) HasScope(scope string) bool {
	for _, s := range i.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// apiResponse is the envelope every Web API response shares. Method
// response types embed it so doCall can check ok and surface the
// error code.
type apiResponse struct {
	OK       bool   `json:"ok"`
	ErrCode  string `json:"error"`
	Needed   string `json:"needed"`
	Provided string `json:"provided"`
}

func (r *apiResponse) envelope() *apiResponse { return r }

// responseMetadata carries the pagination cursor.
type responseMetadata struct {
	NextCursor string `json:"next_cursor"`
}

// ParseTimestamp converts a Slack message timestamp ("1712345678.000200")
// to a time.Time. Returns the zero time for empty or malformed input.
func ParseTimestamp(ts string) time.Time {
	if ts == "" {
		return time.Time{}
	}
	whole := ts
	if i := strings.IndexByte(ts, '.'); i >= 0 {
		whole = ts[:i]
	}
	seconds, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || seconds <= 0 {
		return time.Time{}
	}
	return time.Unix(seconds, 0).UTC()
}
