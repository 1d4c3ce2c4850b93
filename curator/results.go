// Copyright 2026 The Chanops Authors
// SPDX-License-Identifier: Apache-2.0

package curator

import (
	"github.com/chanops/chanops/store"
)

// ApplyResults folds execution results back into the store rows.
// Succeeded actions reset the row to "keep" and record the applied
// change, so the next run treats the row as settled. Failed and
// skipped actions leave their row untouched for retry. Idempotent:
// applying the same results twice yields the same rows.
func ApplyResults(rows []store.Row, results []ExecutionResult) []store.Row {
	succeeded := make(map[string]ExecutionResult, len(results))
	for _, result := range results {
		if result.Outcome == OutcomeSucceeded && result.ChannelID != "" {
			succeeded[result.ChannelID] = result
		}
	}

	updated := make([]store.Row, len(rows))
	for i, row := range rows {
		result, ok := succeeded[row.ChannelID]
		if !ok || row.Action != result.Kind {
			updated[i] = row
			continue
		}

		switch result.Kind {
		case store.ActionArchive, store.ActionMerge:
			row.Notes = store.SetMarker(row.Notes, store.NoteArchived)
		case store.ActionRename:
			row.Name = result.Value
		case store.ActionUpdateDescription:
			row.Description = result.Value
		}
		row.Action = store.ActionKeep
		row.TargetValue = ""
		updated[i] = row
	}
	return updated
}
