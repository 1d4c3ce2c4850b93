// Copyright 2026 The Chanops Authors
// SPDX-License-Identifier: Apache-2.0

package store

import "strings"

// Machine-set note markers. The reconciler and result writer flag row
// state by prepending these to the notes cell, leaving the operator's
// own text after them. Set and clear are idempotent so repeated runs
// converge on identical notes.
const (
	// NoteMissing marks a row whose channel no longer appears in the
	// workspace snapshot. The row is kept; a cleanup tool must never
	// silently lose recorded intent.
	NoteMissing = "[not found in workspace]"

	// NoteArchived marks a row whose channel was archived by a
	// completed archive or merge action.
	NoteArchived = "[archived]"
)

// HasMarker reports whether notes carries the marker.
func HasMarker(notes, marker string) bool {
	for _, part := range splitNotes(notes) {
		if part == marker {
			return true
		}
	}
	return false
}

// SetMarker returns notes with the marker present, prepended before
// any operator text. No-op if already present.
func SetMarker(notes, marker string) string {
	if HasMarker(notes, marker) {
		return notes
	}
	if notes == "" {
		return marker
	}
	return marker + " " + notes
}

// ClearMarker returns notes with the marker removed. No-op if absent.
func ClearMarker(notes, marker string) string {
	if !HasMarker(notes, marker) {
		return notes
	}
	var kept []string
	for _, part := range splitNotes(notes) {
		if part != marker {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, " ")
}

// splitNotes tokenizes notes into markers and words. Markers are
// whole bracketed tokens, so operator text containing brackets
// mid-word is not mistaken for one.
func splitNotes(notes string) []string {
	fields := strings.Fields(notes)

	// Re-join multi-word markers: a token opening with '[' absorbs
	// following tokens until one closes with ']'.
	var parts []string
	for i := 0; i < len(fields); i++ {
		token := fields[i]
		if strings.HasPrefix(token, "[") && !strings.HasSuffix(token, "]") {
			j := i + 1
			for ; j < len(fields); j++ {
				token += " " + fields[j]
				if strings.HasSuffix(fields[j], "]") {
					break
				}
			}
			if j < len(fields) {
				i = j
			}
		}
		parts = append(parts, token)
	}
	return parts
}
