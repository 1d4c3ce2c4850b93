// Copyright 2026 The Chanops Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/chanops/chanops/lib/clock"
)

func testCSVStore(t *testing.T, contents string) *CSVStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "channels.csv")
	if contents != "" {
		if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}
	return NewCSVStore(path, CSVOptions{
		Clock: clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
	})
}

const csvFixture = `channel_id,name,description,action,target_value,is_private,is_shared,member_count,created_date,last_activity,notes
C001,general,Company wide,keep,,false,false,120,2020-01-15,2026-02-28,
C002,old-project,Legacy work,archive,team-platform,false,false,8,2021-06-01,2025-11-02,wind down
C003,secret-ops,,rename,security-ops,true,false,5,2022-03-10,,
`

func TestCSVLoad(t *testing.T) {
	t.Run("round-trip", func(t *testing.T) {
		s := testCSVStore(t, csvFixture)
		rows, err := s.Load(context.Background())
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(rows) != 3 {
			t.Fatalf("loaded %d rows, want 3", len(rows))
		}
		if rows[1].Action != ActionArchive || rows[1].TargetValue != "team-platform" {
			t.Errorf("row 2 = %+v", rows[1])
		}
		if !rows[2].IsPrivate {
			t.Error("row 3 should be private")
		}
		if rows[0].MemberCount != 120 {
			t.Errorf("member_count = %d", rows[0].MemberCount)
		}

		if err := s.Save(context.Background(), rows); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		reloaded, err := NewCSVStore(s.path, CSVOptions{}).Load(context.Background())
		if err != nil {
			t.Fatalf("reload failed: %v", err)
		}
		for i := range rows {
			if reloaded[i] != rows[i] {
				t.Errorf("row %d changed across save/load:\n  got  %+v\n  want %+v", i+1, reloaded[i], rows[i])
			}
		}
	})

	t.Run("missing file is empty store", func(t *testing.T) {
		s := testCSVStore(t, "")
		rows, err := s.Load(context.Background())
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(rows) != 0 {
			t.Errorf("loaded %d rows from missing file", len(rows))
		}
	})

	t.Run("column order does not matter", func(t *testing.T) {
		s := testCSVStore(t, "action,name,channel_id\narchive,dusty,C009\n")
		rows, err := s.Load(context.Background())
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if rows[0].ChannelID != "C009" || rows[0].Action != ActionArchive {
			t.Errorf("row = %+v", rows[0])
		}
	})

	t.Run("missing required column fails fast", func(t *testing.T) {
		s := testCSVStore(t, "name,action\ngeneral,keep\n")
		_, err := s.Load(context.Background())
		if err == nil || !strings.Contains(err.Error(), "channel_id") {
			t.Fatalf("expected missing-column error naming channel_id, got %v", err)
		}
	})

	t.Run("unknown action names the row", func(t *testing.T) {
		s := testCSVStore(t, "channel_id,name,action\nC1,good,keep\nC2,bad,obliterate\n")
		_, err := s.Load(context.Background())
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "row 2") || !strings.Contains(err.Error(), "bad") {
			t.Errorf("error should name the offending row: %v", err)
		}
	})

	t.Run("duplicate channel_id rejected", func(t *testing.T) {
		s := testCSVStore(t, "channel_id,name,action\nC1,one,keep\nC1,clone,keep\n")
		if _, err := s.Load(context.Background()); err == nil {
			t.Fatal("expected duplicate error")
		}
	})
}

func TestCSVConcurrentEdit(t *testing.T) {
	t.Run("external edit detected at save", func(t *testing.T) {
		s := testCSVStore(t, csvFixture)
		rows, err := s.Load(context.Background())
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}

		// Someone edits the sheet behind our back.
		if err := os.WriteFile(s.path, []byte(csvFixture+"C004,sneaky,,keep,,,,,,,\n"), 0o644); err != nil {
			t.Fatalf("external edit: %v", err)
		}

		err = s.Save(context.Background(), rows)
		if !errors.Is(err, ErrConcurrentEdit) {
			t.Fatalf("expected ErrConcurrentEdit, got %v", err)
		}
	})

	t.Run("own save does not trip the check", func(t *testing.T) {
		s := testCSVStore(t, csvFixture)
		rows, err := s.Load(context.Background())
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if err := s.Save(context.Background(), rows); err != nil {
			t.Fatalf("first save: %v", err)
		}
		if err := s.Save(context.Background(), rows); err != nil {
			t.Fatalf("second save: %v", err)
		}
	})

	t.Run("save before load refused", func(t *testing.T) {
		s := testCSVStore(t, csvFixture)
		if err := s.Save(context.Background(), nil); err == nil {
			t.Fatal("expected error for save before load")
		}
	})
}

func TestCSVBackup(t *testing.T) {
	s := testCSVStore(t, csvFixture)
	if _, err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	backupPath, err := s.Backup(context.Background())
	if err != nil {
		t.Fatalf("Backup failed: %v", err)
	}
	if !strings.HasSuffix(backupPath, ".bak.zst") {
		t.Errorf("backup path = %q", backupPath)
	}

	file, err := os.Open(backupPath)
	if err != nil {
		t.Fatalf("open backup: %v", err)
	}
	defer file.Close()
	decoder, err := zstd.NewReader(file)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer decoder.Close()
	restored, err := io.ReadAll(decoder)
	if err != nil {
		t.Fatalf("decompress backup: %v", err)
	}
	if !bytes.Equal(restored, []byte(csvFixture)) {
		t.Error("backup does not restore to original contents")
	}
}

func TestCSVBackupNothingToBackUp(t *testing.T) {
	s := testCSVStore(t, "")
	path, err := s.Backup(context.Background())
	if err != nil {
		t.Fatalf("Backup failed: %v", err)
	}
	if path != "" {
		t.Errorf("expected empty path for missing store, got %q", path)
	}
}
