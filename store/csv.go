// Copyright 2026 The Chanops Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"github.com/chanops/chanops/lib/clock"
)

// Column names of the CSV schema. Load accepts any column order;
// Save always writes this canonical order.
var csvColumns = []string{
	"channel_id", "name", "description", "action", "target_value",
	"is_private", "is_shared", "member_count", "created_date",
	"last_activity", "notes",
}

// requiredColumns must be present in the header for Load to proceed.
// Everything else is optional and defaults to empty.
var requiredColumns = []string{"channel_id", "name", "action"}

// CSVOptions configures a CSVStore.
type CSVOptions struct {
	// Clock stamps backup filenames. If nil, the real clock is used.
	Clock clock.Clock
	// Logger is used for structured logging. If nil, slog.Default().
	Logger *slog.Logger
}

// CSVStore is the flat-file backend of the declarative store. It
// records a content hash at Load and refuses to Save over a file that
// changed underneath it.
type CSVStore struct {
	path   string
	clock  clock.Clock
	logger *slog.Logger

	loaded    bool
	loadedSum []byte // blake3 of the file at Load; nil if it did not exist
}

var _ Store = (*CSVStore)(nil)

// NewCSVStore creates a CSV-backed store at path. The file need not
// exist yet; a missing file loads as an empty store.
func NewCSVStore(path string, options CSVOptions) *CSVStore {
	cl := options.Clock
	if cl == nil {
		cl = clock.Real()
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVStore{path: path, clock: cl, logger: logger}
}

// Load reads and validates all rows from the CSV file.
func (s *CSVStore) Load(ctx context.Context) ([]Row, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.loaded = true
		s.loadedSum = nil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", s.path, err)
	}

	rows, err := parseCSV(data)
	if err != nil {
		return nil, fmt.Errorf("store: %s: %w", s.path, err)
	}
	if err := validateRows(rows); err != nil {
		return nil, fmt.Errorf("%w (in %s)", err, s.path)
	}

	sum := blake3.Sum256(data)
	s.loadedSum = sum[:]
	s.loaded = true
	s.logger.Debug("store loaded", "path", s.path, "rows", len(rows))
	return rows, nil
}

// Save atomically replaces the CSV file with rows. Fails with
// ErrConcurrentEdit if the file changed since Load.
func (s *CSVStore) Save(ctx context.Context, rows []Row) error {
	if !s.loaded {
		return fmt.Errorf("store: Save before Load on %s", s.path)
	}
	if err := s.checkUnchanged(); err != nil {
		return err
	}

	data, err := marshalCSV(rows)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", s.path, err)
	}

	// Write-to-temp then rename so a crash mid-write never leaves a
	// truncated store.
	dir := filepath.Dir(s.path)
	temp, err := os.CreateTemp(dir, ".chanops-store-*")
	if err != nil {
		return fmt.Errorf("store: create temp file in %s: %w", dir, err)
	}
	tempName := temp.Name()
	if _, err := temp.Write(data); err != nil {
		temp.Close()
		os.Remove(tempName)
		return fmt.Errorf("store: write %s: %w", tempName, err)
	}
	if err := temp.Close(); err != nil {
		os.Remove(tempName)
		return fmt.Errorf("store: close %s: %w", tempName, err)
	}
	if err := os.Rename(tempName, s.path); err != nil {
		os.Remove(tempName)
		return fmt.Errorf("store: rename %s to %s: %w", tempName, s.path, err)
	}

	sum := blake3.Sum256(data)
	s.loadedSum = sum[:]
	s.logger.Info("store saved", "path", s.path, "rows", len(rows))
	return nil
}

// Backup compresses the current file to <path>.<stamp>.bak.zst and
// returns that path. Returns "" when there is nothing to back up.
func (s *CSVStore) Backup(ctx context.Context) (string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store: read %s for backup: %w", s.path, err)
	}

	stamp := s.clock.Now().UTC().Format("20060102-150405")
	backupPath := fmt.Sprintf("%s.%s.bak.zst", s.path, stamp)

	file, err := os.OpenFile(backupPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("store: create backup %s: %w", backupPath, err)
	}
	encoder, err := zstd.NewWriter(file)
	if err != nil {
		file.Close()
		return "", fmt.Errorf("store: zstd writer: %w", err)
	}
	if _, err := encoder.Write(data); err != nil {
		encoder.Close()
		file.Close()
		return "", fmt.Errorf("store: write backup %s: %w", backupPath, err)
	}
	if err := encoder.Close(); err != nil {
		file.Close()
		return "", fmt.Errorf("store: finish backup %s: %w", backupPath, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("store: close backup %s: %w", backupPath, err)
	}

	s.logger.Info("store backed up", "path", backupPath)
	return backupPath, nil
}

// checkUnchanged compares the file's current hash against the one
// recorded at Load.
func (s *CSVStore) checkUnchanged() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		if s.loadedSum == nil {
			return nil
		}
		return fmt.Errorf("%w: %s was deleted", ErrConcurrentEdit, s.path)
	}
	if err != nil {
		return fmt.Errorf("store: re-read %s: %w", s.path, err)
	}
	if s.loadedSum == nil {
		return fmt.Errorf("%w: %s was created externally", ErrConcurrentEdit, s.path)
	}
	sum := blake3.Sum256(data)
	if !bytes.Equal(sum[:], s.loadedSum) {
		return fmt.Errorf("%w: %s", ErrConcurrentEdit, s.path)
	}
	return nil
}

func parseCSV(data []byte) ([]Row, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1 // header determines width; short rows pad

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	rows := make([]Row, 0, len(records)-1)
	for n, record := range records[1:] {
		action, err := ParseAction(field(record, "action"))
		if err != nil {
			return nil, fmt.Errorf("row %d (name %q): %w", n+1, field(record, "name"), err)
		}
		rows = append(rows, Row{
			ChannelID:    field(record, "channel_id"),
			Name:         field(record, "name"),
			Description:  field(record, "description"),
			Action:       action,
			TargetValue:  field(record, "target_value"),
			IsPrivate:    parseBool(field(record, "is_private")),
			IsShared:     parseBool(field(record, "is_shared")),
			MemberCount:  parseInt(field(record, "member_count")),
			CreatedDate:  field(record, "created_date"),
			LastActivity: field(record, "last_activity"),
			Notes:        field(record, "notes"),
		})
	}
	return rows, nil
}

func marshalCSV(rows []Row) ([]byte, error) {
	var buffer bytes.Buffer
	writer := csv.NewWriter(&buffer)

	if err := writer.Write(csvColumns); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := []string{
			row.ChannelID,
			row.Name,
			row.Description,
			string(row.Action),
			row.TargetValue,
			strconv.FormatBool(row.IsPrivate),
			strconv.FormatBool(row.IsShared),
			strconv.Itoa(row.MemberCount),
			row.CreatedDate,
			row.LastActivity,
			row.Notes,
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// parseBool is lenient: informational columns tolerate anything, and
// only an explicit true value counts.
func parseBool(s string) bool {
	value, err := strconv.ParseBool(strings.ToLower(s))
	return err == nil && value
}

func parseInt(s string) int {
	value, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return value
}
