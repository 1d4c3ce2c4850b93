// Copyright 2026 The Chanops Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides the SQLite connection pool for the
// declarative store's database backend.
//
// It wraps zombiezen.com/go/sqlite with the defaults that backend
// needs: WAL journal mode, NORMAL synchronous (transactions survive
// process crashes; the spreadsheet itself remains the operator-facing
// source of truth), and a busy timeout instead of immediate
// SQLITE_BUSY errors.
//
// The package is intentionally thin: it applies pragmas and exposes
// the underlying zombiezen types directly. The store backend writes
// SQL, uses sqlitex.Execute for cached statements, and manages
// transactions with sqlitex.ImmediateTransaction, no query builder.
package sqlitepool
