// Copyright 2026 The Chanops Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"errors"
	"fmt"
)

// Action is the operator's declared intent for one channel.
type Action string

const (
	// ActionNew marks a channel the reconciler discovered but the
	// operator has not reviewed yet. Never executable.
	ActionNew Action = "new"
	// ActionKeep means no change. The default for reviewed channels,
	// and what successful executions reset to.
	ActionKeep Action = "keep"
	// ActionArchive archives the channel. TargetValue may name a
	// channel for a redirect notice.
	ActionArchive Action = "archive"
	// ActionRename renames the channel to TargetValue.
	ActionRename Action = "rename"
	// ActionMerge archives the channel and posts a redirect notice
	// into the TargetValue channel.
	ActionMerge Action = "merge"
	// ActionUpdateDescription replaces the channel description with
	// TargetValue.
	ActionUpdateDescription Action = "update_description"
)

// Actions lists every recognized action, in display order.
var Actions = []Action{
	ActionNew, ActionKeep, ActionArchive, ActionRename, ActionMerge, ActionUpdateDescription,
}

// ParseAction validates an action string from the store. An empty
// string parses as keep since operators routinely leave the cell blank.
func ParseAction(s string) (Action, error) {
	if s == "" {
		return ActionKeep, nil
	}
	for _, action := range Actions {
		if s == string(action) {
			return action, nil
		}
	}
	return "", fmt.Errorf("unrecognized action %q (must be one of: new, keep, archive, rename, merge, update_description)", s)
}

// Executable reports whether the action results in a platform
// mutation. new and keep never execute.
func (a Action) Executable() bool {
	switch a {
	case ActionArchive, ActionRename, ActionMerge, ActionUpdateDescription:
		return true
	}
	return false
}

// Row is one channel's declared and observed state. ChannelID is the
// stable identity; it is empty only for rows the platform has not yet
// assigned (hand-added entries). Everything except Action, TargetValue
// and the operator's notes text is a read-only mirror of live state,
// refreshed by the reconciler.
type Row struct {
	ChannelID    string
	Name         string
	Description  string
	Action       Action
	TargetValue  string
	IsPrivate    bool
	IsShared     bool
	MemberCount  int
	CreatedDate  string // YYYY-MM-DD, informational
	LastActivity string // YYYY-MM-DD, cache-sourced; empty when unknown
	Notes        string
}

// Store is the load/save capability over the declarative spreadsheet.
// Two interchangeable backends implement it: a CSV file and a SQLite
// database. Callers depend only on this interface.
type Store interface {
	// Load reads all rows. A store that does not exist yet loads as
	// empty. Load fails fast on schema problems: missing required
	// columns, unrecognized actions, or duplicate channel IDs, naming
	// the first offending row.
	Load(ctx context.Context) ([]Row, error)

	// Save replaces the store contents with rows. Save fails with
	// ErrConcurrentEdit if the backing medium changed since Load;
	// the store is single-writer and a concurrent external edit is an
	// operator error, not something to merge silently.
	Save(ctx context.Context, rows []Row) error

	// Backup persists an immutable copy of the current contents and
	// returns its location, so a failed or partial run can be
	// manually reverted. A store with nothing in it returns "".
	Backup(ctx context.Context) (string, error)
}

// ErrConcurrentEdit is returned by Save when the backing medium was
// modified between Load and Save.
var ErrConcurrentEdit = errors.New("store: modified since load (re-run to pick up external edits)")

// validateRows enforces the load-time invariants shared by both
// backends: every non-empty channel ID appears at most once.
func validateRows(rows []Row) error {
	seen := make(map[string]int, len(rows))
	for i, row := range rows {
		if row.ChannelID == "" {
			continue
		}
		if first, dup := seen[row.ChannelID]; dup {
			return fmt.Errorf("store: duplicate channel_id %q (rows %d and %d, name %q)",
				row.ChannelID, first+1, i+1, row.Name)
		}
		seen[row.ChannelID] = i
	}
	return nil
}
