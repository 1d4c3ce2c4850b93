// Copyright 2026 The Chanops Authors
// SPDX-License-Identifier: Apache-2.0

package curator

import (
	"context"
	"log/slog"
	"time"

	"github.com/chanops/chanops/activity"
	"github.com/chanops/chanops/store"
)

// dateLayout is how mirrored dates appear in the store, readable in a
// spreadsheet and sortable as text.
const dateLayout = "2006-01-02"

// ReconcileInput carries everything one reconciliation pass needs.
type ReconcileInput struct {
	Snapshot *Snapshot
	Rows     []store.Row
	Cache    *activity.Cache
	// API serves activity lookups for stale cache entries. May be
	// nil, in which case stale entries keep their cached value.
	API    ChannelAPI
	Logger *slog.Logger
}

// ReconcileStats summarizes what a pass changed.
type ReconcileStats struct {
	// New counts channels discovered in the workspace with no row.
	New int
	// Updated counts existing rows whose mirrored fields refreshed.
	Updated int
	// Missing counts rows whose channel no longer exists live.
	Missing int
}

// Reconcile merges the live snapshot and activity cache into the
// store rows. Operator intent (action, target_value, notes text) is
// never modified; only mirrored observation fields change. Rows whose
// channel vanished from the workspace are kept and marked, never
// deleted. Newly discovered channels append in discovery order with
// action "new" for operator review.
func Reconcile(ctx context.Context, input ReconcileInput) ([]store.Row, ReconcileStats, error) {
	logger := input.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var stats ReconcileStats
	known := make(map[string]bool, len(input.Rows))

	merged := make([]store.Row, 0, len(input.Rows))
	for _, row := range input.Rows {
		if row.ChannelID == "" {
			// Not yet tied to a live channel. Left for the operator.
			merged = append(merged, row)
			continue
		}
		known[row.ChannelID] = true

		record := input.Snapshot.ByID(row.ChannelID)
		if record == nil {
			row.Notes = store.SetMarker(row.Notes, store.NoteMissing)
			stats.Missing++
			merged = append(merged, row)
			continue
		}

		mirrorRecord(&row, *record, lastActivity(ctx, input, *record))
		stats.Updated++
		merged = append(merged, row)
	}

	for _, record := range input.Snapshot.Records {
		if known[record.ID] {
			continue
		}
		row := store.Row{
			ChannelID: record.ID,
			Action:    store.ActionNew,
		}
		mirrorRecord(&row, record, lastActivity(ctx, input, record))
		stats.New++
		merged = append(merged, row)
	}

	logger.Info("reconciled",
		"rows", len(merged), "new", stats.New,
		"updated", stats.Updated, "missing", stats.Missing)
	return merged, stats, nil
}

// mirrorRecord refreshes the observation fields of a row from the
// live record. Action, target_value, and operator notes text are left
// alone.
func mirrorRecord(row *store.Row, record ChannelRecord, lastActive time.Time) {
	row.Name = record.Name
	row.Description = record.Description
	row.IsPrivate = record.IsPrivate
	row.IsShared = record.IsShared
	row.MemberCount = record.MemberCount
	if !record.Created.IsZero() {
		row.CreatedDate = record.Created.UTC().Format(dateLayout)
	}
	if lastActive.IsZero() {
		row.LastActivity = ""
	} else {
		row.LastActivity = lastActive.UTC().Format(dateLayout)
	}

	row.Notes = store.ClearMarker(row.Notes, store.NoteMissing)
	if record.IsArchived {
		row.Notes = store.SetMarker(row.Notes, store.NoteArchived)
	} else {
		row.Notes = store.ClearMarker(row.Notes, store.NoteArchived)
	}
}

// lastActivity returns the freshest known activity time for a
// channel, fetching through the API when the cache entry is stale.
// Fetch failures log a warning and leave activity unknown rather than
// aborting the pass.
func lastActivity(ctx context.Context, input ReconcileInput, record ChannelRecord) time.Time {
	if input.Cache == nil {
		return time.Time{}
	}
	if !input.Cache.IsStale(record.ID) || input.API == nil || record.IsArchived {
		cached, _ := input.Cache.Get(record.ID)
		return cached
	}

	fetched, err := input.API.LatestActivity(ctx, record.ID)
	if err != nil {
		logger := input.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("activity fetch failed", "channel", record.Name, "id", record.ID, "error", err)
		return time.Time{}
	}
	input.Cache.Put(record.ID, fetched)
	return fetched
}
