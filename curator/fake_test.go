// Copyright 2026 The Chanops Authors
// SPDX-License-Identifier: Apache-2.0

package curator

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chanops/chanops/slack"
)

// fakeAPI is an in-memory ChannelAPI that records every call, so
// tests can assert which mutations happened and in what order.
type fakeAPI struct {
	channels map[slack.Visibility][]slack.Channel
	pageSize int

	listErr     map[slack.Visibility]error
	activity    map[string]time.Time
	activityErr map[string]error

	// failWith makes a mutating call on a channel return an error.
	// Keyed by "<op> <channel>", e.g. "archive C2".
	failWith map[string]error
	// rateLimits makes the first N calls of "<op> <channel>" return
	// a ratelimited error before succeeding.
	rateLimits map[string]int

	calls []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		channels:    make(map[slack.Visibility][]slack.Channel),
		pageSize:    100,
		listErr:     make(map[slack.Visibility]error),
		activity:    make(map[string]time.Time),
		activityErr: make(map[string]error),
		failWith:    make(map[string]error),
		rateLimits:  make(map[string]int),
	}
}

func (f *fakeAPI) record(op, channelID string) error {
	key := op + " " + channelID
	f.calls = append(f.calls, key)
	if f.rateLimits[key] > 0 {
		f.rateLimits[key]--
		return &slack.APIError{Code: slack.ErrCodeRateLimited, StatusCode: 429}
	}
	return f.failWith[key]
}

// mutatingCalls returns every call that would change workspace state.
func (f *fakeAPI) mutatingCalls() []string {
	var out []string
	for _, call := range f.calls {
		switch {
		case strings.HasPrefix(call, "archive "),
			strings.HasPrefix(call, "rename "),
			strings.HasPrefix(call, "purpose "),
			strings.HasPrefix(call, "post "):
			out = append(out, call)
		}
	}
	return out
}

func (f *fakeAPI) ListChannels(ctx context.Context, options slack.ListChannelsOptions) (*slack.ChannelPage, error) {
	f.calls = append(f.calls, "list "+string(options.Visibility))
	if err := f.listErr[options.Visibility]; err != nil {
		return nil, err
	}

	all := f.channels[options.Visibility]
	start := 0
	if options.Cursor != "" {
		n, err := strconv.Atoi(options.Cursor)
		if err != nil {
			return nil, fmt.Errorf("bad cursor %q", options.Cursor)
		}
		start = n
	}
	end := min(start+f.pageSize, len(all))
	page := &slack.ChannelPage{Channels: all[start:end]}
	if end < len(all) {
		page.NextCursor = strconv.Itoa(end)
	}
	return page, nil
}

func (f *fakeAPI) LatestActivity(ctx context.Context, channelID string) (time.Time, error) {
	f.calls = append(f.calls, "activity "+channelID)
	if err := f.activityErr[channelID]; err != nil {
		return time.Time{}, err
	}
	return f.activity[channelID], nil
}

func (f *fakeAPI) ArchiveChannel(ctx context.Context, channelID string) error {
	return f.record("archive", channelID)
}

func (f *fakeAPI) RenameChannel(ctx context.Context, channelID, name string) (*slack.Channel, error) {
	if err := f.record("rename", channelID); err != nil {
		return nil, err
	}
	return &slack.Channel{ID: channelID, Name: name}, nil
}

func (f *fakeAPI) SetChannelPurpose(ctx context.Context, channelID, purpose string) error {
	return f.record("purpose", channelID)
}

func (f *fakeAPI) PostMessage(ctx context.Context, channelID, text string) (string, error) {
	if err := f.record("post", channelID); err != nil {
		return "", err
	}
	return "1712345678.000100", nil
}
