// Copyright 2026 The Chanops Authors
// SPDX-License-Identifier: Apache-2.0

// Package store holds the declarative channel spreadsheet: one row per
// channel carrying the operator's declared action plus read-only
// mirrors of live state.
//
// Two interchangeable backends implement the Store capability: a CSV
// file and a SQLite database. Both validate on load (schema, action
// values, duplicate identities), both detect concurrent external
// edits at save time, and both can snapshot an immutable backup
// before an execute run mutates anything.
package store
