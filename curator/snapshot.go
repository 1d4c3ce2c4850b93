// Copyright 2026 The Chanops Authors
// SPDX-License-Identifier: Apache-2.0

package curator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chanops/chanops/slack"
)

// ListingError means one whole listing class could not be read, most
// often because the token lacks the read scope for that class. It is
// fatal: proceeding with half a snapshot would make every channel in
// the unreadable class look deleted.
type ListingError struct {
	Visibility slack.Visibility
	Err        error
}

func (e *ListingError) Error() string {
	return fmt.Sprintf("cannot list %s channels: %v", e.Visibility, e.Err)
}

func (e *ListingError) Unwrap() error {
	return e.Err
}

// FetchSnapshot reads the complete channel set, public then private,
// following pagination cursors. Archived channels are included so
// reconciliation can mark rows whose channel was archived outside
// this tool. Read-only.
func FetchSnapshot(ctx context.Context, api ChannelAPI, logger *slog.Logger) (*Snapshot, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var records []ChannelRecord
	for _, visibility := range []slack.Visibility{slack.Public, slack.Private} {
		count := 0
		cursor := ""
		for {
			page, err := api.ListChannels(ctx, slack.ListChannelsOptions{
				Visibility:      visibility,
				Cursor:          cursor,
				IncludeArchived: true,
			})
			if err != nil {
				return nil, &ListingError{Visibility: visibility, Err: err}
			}
			for _, channel := range page.Channels {
				records = append(records, recordFromChannel(channel))
			}
			count += len(page.Channels)
			cursor = page.NextCursor
			if cursor == "" {
				break
			}
		}
		logger.Debug("listed channels", "visibility", string(visibility), "count", count)
	}

	snapshot := NewSnapshot(records)
	logger.Info("snapshot complete", "channels", snapshot.Len())
	return snapshot, nil
}

func recordFromChannel(channel slack.Channel) ChannelRecord {
	return ChannelRecord{
		ID:          channel.ID,
		Name:        channel.Name,
		IsPrivate:   channel.IsPrivate,
		IsShared:    channel.IsShared || channel.IsExtShared,
		IsGeneral:   channel.IsGeneral,
		IsArchived:  channel.IsArchived,
		IsMember:    channel.IsMember,
		MemberCount: channel.NumMembers,
		Created:     channel.CreatedTime(),
		Creator:     channel.Creator,
		Description: channel.Purpose.Value,
	}
}
