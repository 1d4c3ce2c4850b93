// Copyright 2026 The Chanops Authors
// SPDX-License-Identifier: Apache-2.0

package slack

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// listPageLimit is the maximum page size conversations.list accepts.
const listPageLimit = 200

// ListChannelsOptions selects one page of a conversations.list call.
type ListChannelsOptions struct {
	// Visibility is the listing class for this page. Required.
	Visibility Visibility
	// Cursor continues a previous page. Empty starts from the top.
	Cursor string
	// IncludeArchived includes archived conversations in the listing.
	IncludeArchived bool
}

// ListChannels fetches one page of conversations. The caller paginates
// by passing back NextCursor until it comes back empty.
func (c *Client) ListChannels(ctx context.Context, options ListChannelsOptions) (*ChannelPage, error) {
	if options.Visibility == "" {
		return nil, fmt.Errorf("slack: Visibility is required")
	}

	args := url.Values{}
	args.Set("types", string(options.Visibility))
	args.Set("limit", strconv.Itoa(listPageLimit))
	args.Set("exclude_archived", strconv.FormatBool(!options.IncludeArchived))
	if options.Cursor != "" {
		args.Set("cursor", options.Cursor)
	}

	var response struct {
		apiResponse
		Channels []Channel        `json:"channels"`
		Metadata responseMetadata `json:"response_metadata"`
	}
	if err := c.doCall(ctx, "conversations.list", args, nil, &response, nil); err != nil {
		return nil, fmt.Errorf("slack: list %s: %w", options.Visibility, err)
	}

	return &ChannelPage{
		Channels:   response.Channels,
		NextCursor: response.Metadata.NextCursor,
	}, nil
}

// LatestActivity returns the timestamp of the newest message in a
// channel, or the zero time if the channel has no messages. Requires
// the channels:history scope (groups:history for private channels).
func (c *Client) LatestActivity(ctx context.Context, channelID string) (time.Time, error) {
	args := url.Values{}
	args.Set("channel", channelID)
	args.Set("limit", "1")

	var response struct {
		apiResponse
		Messages []struct {
			TS string `json:"ts"`
		} `json:"messages"`
	}
	if err := c.doCall(ctx, "conversations.history", args, nil, &response, nil); err != nil {
		return time.Time{}, fmt.Errorf("slack: history for %s: %w", channelID, err)
	}

	if len(response.Messages) == 0 {
		return time.Time{}, nil
	}
	return ParseTimestamp(response.Messages[0].TS), nil
}

// ArchiveChannel archives a channel. The workspace default channel
// cannot be archived (the platform refuses with cant_archive_general).
func (c *Client) ArchiveChannel(ctx context.Context, channelID string) error {
	var response struct{ apiResponse }
	err := c.doCall(ctx, "conversations.archive", nil, map[string]string{
		"channel": channelID,
	}, &response, nil)
	if err != nil {
		return fmt.Errorf("slack: archive %s: %w", channelID, err)
	}
	c.logger.Info("channel archived", "channel", channelID)
	return nil
}

// RenameChannel renames a channel and returns the updated channel as
// reported by the platform. The platform normalizes names; the caller
// should validate the format first to avoid surprises.
func (c *Client) RenameChannel(ctx context.Context, channelID, name string) (*Channel, error) {
	var response struct {
		apiResponse
		Channel Channel `json:"channel"`
	}
	err := c.doCall(ctx, "conversations.rename", nil, map[string]string{
		"channel": channelID,
		"name":    name,
	}, &response, nil)
	if err != nil {
		return nil, fmt.Errorf("slack: rename %s: %w", channelID, err)
	}
	c.logger.Info("channel renamed", "channel", channelID, "name", response.Channel.Name)
	return &response.Channel, nil
}

// SetChannelPurpose updates a channel's purpose (the description shown
// in channel details).
func (c *Client) SetChannelPurpose(ctx context.Context, channelID, purpose string) error {
	var response struct{ apiResponse }
	err := c.doCall(ctx, "conversations.setPurpose", nil, map[string]string{
		"channel": channelID,
		"purpose": purpose,
	}, &response, nil)
	if err != nil {
		return fmt.Errorf("slack: set purpose for %s: %w", channelID, err)
	}
	return nil
}

// PostMessage posts a message to a channel and returns the message
// timestamp. Used for redirect notices after a merge archive.
func (c *Client) PostMessage(ctx context.Context, channelID, text string) (string, error) {
	var response struct {
		apiResponse
		TS string `json:"ts"`
	}
	err := c.doCall(ctx, "chat.postMessage", nil, map[string]string{
		"channel": channelID,
		"text":    text,
	}, &response, nil)
	if err != nil {
		return "", fmt.Errorf("slack: post message to %s: %w", channelID, err)
	}
	return response.TS, nil
}
