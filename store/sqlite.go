// Copyright 2026 The Chanops Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/chanops/chanops/lib/clock"
	"github.com/chanops/chanops/lib/sqlitepool"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS rows (
    position      INTEGER PRIMARY KEY,
    channel_id    TEXT NOT NULL DEFAULT '',
    name          TEXT NOT NULL,
    description   TEXT NOT NULL DEFAULT '',
    action        TEXT NOT NULL DEFAULT 'keep',
    target_value  TEXT NOT NULL DEFAULT '',
    is_private    INTEGER NOT NULL DEFAULT 0,
    is_shared     INTEGER NOT NULL DEFAULT 0,
    member_count  INTEGER NOT NULL DEFAULT 0,
    created_date  TEXT NOT NULL DEFAULT '',
    last_activity TEXT NOT NULL DEFAULT '',
    notes         TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// SQLiteOptions configures a SQLiteStore.
type SQLiteOptions struct {
	// Clock stamps backup filenames. If nil, the real clock is used.
	Clock clock.Clock
	// Logger is used for structured logging. If nil, slog.Default().
	Logger *slog.Logger
}

// SQLiteStore is the database backend of the declarative store. A
// revision counter in the meta table implements the same
// concurrent-edit detection the CSV backend gets from content
// hashing: Save refuses to commit if the revision moved since Load.
type SQLiteStore struct {
	pool   *sqlitepool.Pool
	path   string
	clock  clock.Clock
	logger *slog.Logger

	loaded   bool
	revision int64
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLiteStore opens (creating if necessary) the database at path.
// The caller must Close the store when done.
func OpenSQLiteStore(path string, options SQLiteOptions) (*SQLiteStore, error) {
	cl := options.Clock
	if cl == nil {
		cl = clock.Real()
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:   path,
		Logger: logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, sqliteSchema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite %s: %w", path, err)
	}

	return &SQLiteStore{pool: pool, path: path, clock: cl, logger: logger}, nil
}

// Close releases the underlying connection pool.
func (s *SQLiteStore) Close() error {
	return s.pool.Close()
}

// Load reads all rows in position order and records the revision.
func (s *SQLiteStore) Load(ctx context.Context) ([]Row, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	defer s.pool.Put(conn)

	revision, err := readRevision(conn)
	if err != nil {
		return nil, err
	}

	var rows []Row
	var parseErr error
	err = sqlitex.Execute(conn, `SELECT channel_id, name, description, action,
		target_value, is_private, is_shared, member_count, created_date,
		last_activity, notes FROM rows ORDER BY position`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			action, err := ParseAction(stmt.ColumnText(3))
			if err != nil {
				parseErr = fmt.Errorf("store: row %d (name %q): %w", len(rows)+1, stmt.ColumnText(1), err)
				return parseErr
			}
			rows = append(rows, Row{
				ChannelID:    stmt.ColumnText(0),
				Name:         stmt.ColumnText(1),
				Description:  stmt.ColumnText(2),
				Action:       action,
				TargetValue:  stmt.ColumnText(4),
				IsPrivate:    stmt.ColumnInt(5) != 0,
				IsShared:     stmt.ColumnInt(6) != 0,
				MemberCount:  stmt.ColumnInt(7),
				CreatedDate:  stmt.ColumnText(8),
				LastActivity: stmt.ColumnText(9),
				Notes:        stmt.ColumnText(10),
			})
			return nil
		},
	})
	if err != nil {
		if parseErr != nil {
			return nil, parseErr
		}
		return nil, fmt.Errorf("store: query rows: %w", err)
	}
	if err := validateRows(rows); err != nil {
		return nil, fmt.Errorf("%w (in %s)", err, s.path)
	}

	s.revision = revision
	s.loaded = true
	s.logger.Debug("store loaded", "path", s.path, "rows", len(rows), "revision", revision)
	return rows, nil
}

// Save replaces all rows in one transaction, guarded by the revision
// counter recorded at Load.
func (s *SQLiteStore) Save(ctx context.Context, rows []Row) (err error) {
	if !s.loaded {
		return fmt.Errorf("store: Save before Load on %s", s.path)
	}

	conn, takeErr := s.pool.Take(ctx)
	if takeErr != nil {
		return fmt.Errorf("store: %w", takeErr)
	}
	defer s.pool.Put(conn)

	endTransaction, txErr := sqlitex.ImmediateTransaction(conn)
	if txErr != nil {
		return fmt.Errorf("store: begin transaction: %w", txErr)
	}
	defer endTransaction(&err)

	revision, err := readRevision(conn)
	if err != nil {
		return err
	}
	if revision != s.revision {
		return fmt.Errorf("%w: %s (revision %d, loaded %d)", ErrConcurrentEdit, s.path, revision, s.revision)
	}

	if err = sqlitex.Execute(conn, "DELETE FROM rows", nil); err != nil {
		return fmt.Errorf("store: clear rows: %w", err)
	}
	for position, row := range rows {
		err = sqlitex.Execute(conn, `INSERT INTO rows (position, channel_id, name,
			description, action, target_value, is_private, is_shared,
			member_count, created_date, last_activity, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, &sqlitex.ExecOptions{
			Args: []any{
				position, row.ChannelID, row.Name, row.Description,
				string(row.Action), row.TargetValue,
				boolToInt(row.IsPrivate), boolToInt(row.IsShared),
				row.MemberCount, row.CreatedDate, row.LastActivity, row.Notes,
			},
		})
		if err != nil {
			return fmt.Errorf("store: insert row %d: %w", position+1, err)
		}
	}

	newRevision := revision + 1
	err = sqlitex.Execute(conn, `INSERT INTO meta (key, value) VALUES ('revision', ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`, &sqlitex.ExecOptions{
		Args: []any{fmt.Sprintf("%d", newRevision)},
	})
	if err != nil {
		return fmt.Errorf("store: bump revision: %w", err)
	}

	s.revision = newRevision
	s.logger.Info("store saved", "path", s.path, "rows", len(rows), "revision", newRevision)
	return nil
}

// Backup writes a standalone copy of the database via VACUUM INTO and
// returns its path.
func (s *SQLiteStore) Backup(ctx context.Context) (string, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return "", fmt.Errorf("store: %w", err)
	}
	defer s.pool.Put(conn)

	stamp := s.clock.Now().UTC().Format("20060102-150405")
	backupPath := fmt.Sprintf("%s.%s.bak.db", s.path, stamp)

	// VACUUM INTO takes a filename literal, not a bind parameter.
	escaped := strings.ReplaceAll(backupPath, "'", "''")
	if err := sqlitex.ExecuteTransient(conn, fmt.Sprintf("VACUUM INTO '%s'", escaped), nil); err != nil {
		return "", fmt.Errorf("store: backup to %s: %w", backupPath, err)
	}

	s.logger.Info("store backed up", "path", backupPath)
	return backupPath, nil
}

func readRevision(conn *sqlite.Conn) (int64, error) {
	var revision int64
	err := sqlitex.Execute(conn, "SELECT value FROM meta WHERE key = 'revision'", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			revision = stmt.ColumnInt64(0)
			return nil
		},
	})
	if err != nil {
		return 0, fmt.Errorf("store: read revision: %w", err)
	}
	return revision, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
