// Copyright 2026 The Chanops Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chanops/chanops/lib/clock"
)

func openTestSQLiteStore(t *testing.T, path string) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLiteStore(path, SQLiteOptions{
		Clock: clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
	})
	if err != nil {
		t.Fatalf("OpenSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLiteStore(t, filepath.Join(t.TempDir(), "channels.db"))

	rows, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load of fresh database: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("fresh database has %d rows", len(rows))
	}

	want := []Row{
		{ChannelID: "C001", Name: "general", Description: "Company wide",
			Action: ActionKeep, MemberCount: 120,
			CreatedDate: "2020-01-15", LastActivity: "2026-02-28"},
		{ChannelID: "C002", Name: "old-project", Action: ActionMerge,
			TargetValue: "team-platform", MemberCount: 8, Notes: "wind down"},
		{ChannelID: "C003", Name: "secret-ops", Action: ActionRename,
			TargetValue: "security-ops", IsPrivate: true},
	}
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("reloaded %d rows, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d changed across save/load:\n  got  %+v\n  want %+v", i+1, got[i], want[i])
		}
	}
}

func TestSQLiteConcurrentEdit(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "channels.db")

	first := openTestSQLiteStore(t, path)
	second := openTestSQLiteStore(t, path)

	if _, err := first.Load(ctx); err != nil {
		t.Fatalf("first Load: %v", err)
	}
	if _, err := second.Load(ctx); err != nil {
		t.Fatalf("second Load: %v", err)
	}

	if err := first.Save(ctx, []Row{{ChannelID: "C1", Name: "one", Action: ActionKeep}}); err != nil {
		t.Fatalf("first Save: %v", err)
	}

	err := second.Save(ctx, []Row{{ChannelID: "C2", Name: "two", Action: ActionKeep}})
	if !errors.Is(err, ErrConcurrentEdit) {
		t.Fatalf("expected ErrConcurrentEdit for stale revision, got %v", err)
	}

	// A fresh Load picks up the new revision and may save again.
	if _, err := second.Load(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if err := second.Save(ctx, []Row{{ChannelID: "C2", Name: "two", Action: ActionKeep}}); err != nil {
		t.Fatalf("Save after reload: %v", err)
	}
}

func TestSQLiteSaveBeforeLoad(t *testing.T) {
	s := openTestSQLiteStore(t, filepath.Join(t.TempDir(), "channels.db"))
	if err := s.Save(context.Background(), nil); err == nil {
		t.Fatal("expected error for save before load")
	}
}

func TestSQLiteBackup(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "channels.db")
	s := openTestSQLiteStore(t, path)

	if _, err := s.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	rows := []Row{{ChannelID: "C1", Name: "one", Action: ActionArchive}}
	if err := s.Save(ctx, rows); err != nil {
		t.Fatalf("Save: %v", err)
	}

	backupPath, err := s.Backup(ctx)
	if err != nil {
		t.Fatalf("Backup failed: %v", err)
	}
	if !strings.HasSuffix(backupPath, ".bak.db") {
		t.Errorf("backup path = %q", backupPath)
	}
	if _, err := os.Stat(backupPath); err != nil {
		t.Fatalf("backup file missing: %v", err)
	}

	// The backup is a complete standalone database.
	restored := openTestSQLiteStore(t, backupPath)
	got, err := restored.Load(ctx)
	if err != nil {
		t.Fatalf("load backup: %v", err)
	}
	if len(got) != 1 || got[0] != rows[0] {
		t.Errorf("backup rows = %+v, want %+v", got, rows)
	}
}
