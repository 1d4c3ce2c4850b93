// Copyright 2026 The Chanops Authors
// SPDX-License-Identifier: Apache-2.0

// Package activity persists per-channel last-activity timestamps
// between runs. History lookups against the API are expensive (one
// call per channel), so results are cached in a JSON file with a TTL
// and only refetched once an entry goes stale.
package activity

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/chanops/chanops/lib/clock"
)

// DefaultTTL is how long a cached activity timestamp stays fresh.
const DefaultTTL = 24 * time.Hour

// Entry is one cached observation.
type Entry struct {
	// LastActivity is the timestamp of the newest message seen in
	// the channel. Zero means the channel had no messages when it
	// was last checked.
	LastActivity time.Time `json:"last_activity"`
	// FetchedAt is when the observation was made.
	FetchedAt time.Time `json:"fetched_at"`
}

// Options configures a Cache.
type Options struct {
	// Clock drives staleness checks. If nil, the real clock is used.
	Clock clock.Clock
	// TTL overrides DefaultTTL when positive.
	TTL time.Duration
	// ForceRefresh makes every entry stale for this run.
	ForceRefresh bool
	// Logger is used for structured logging. If nil, slog.Default().
	Logger *slog.Logger
}

// Cache maps channel IDs to activity entries. Not safe for
// concurrent use.
type Cache struct {
	path    string
	clock   clock.Clock
	ttl     time.Duration
	refresh bool
	logger  *slog.Logger

	entries map[string]Entry
	dirty   bool
}

// Open loads the cache at path. A missing or corrupt file yields an
// empty cache with a warning, never an error: the cache is an
// optimization, and losing it only costs extra API calls.
func Open(path string, options Options) *Cache {
	cl := options.Clock
	if cl == nil {
		cl = clock.Real()
	}
	ttl := options.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Cache{
		path:    path,
		clock:   cl,
		ttl:     ttl,
		refresh: options.ForceRefresh,
		logger:  logger,
		entries: make(map[string]Entry),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c
	}
	if err != nil {
		logger.Warn("activity cache unreadable, starting empty", "path", path, "error", err)
		return c
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		logger.Warn("activity cache corrupt, starting empty", "path", path, "error", err)
		c.entries = make(map[string]Entry)
		return c
	}
	return c
}

// Get returns the cached last-activity timestamp for a channel. The
// second result is false when the channel has no entry.
func (c *Cache) Get(channelID string) (time.Time, bool) {
	entry, ok := c.entries[channelID]
	if !ok {
		return time.Time{}, false
	}
	return entry.LastActivity, true
}

// Put records an observation made now.
func (c *Cache) Put(channelID string, lastActivity time.Time) {
	c.entries[channelID] = Entry{
		LastActivity: lastActivity,
		FetchedAt:    c.clock.Now(),
	}
	c.dirty = true
}

// IsStale reports whether the entry for a channel needs refetching:
// absent, older than the TTL, or force-refreshed for this run.
func (c *Cache) IsStale(channelID string) bool {
	if c.refresh {
		return true
	}
	entry, ok := c.entries[channelID]
	if !ok {
		return true
	}
	return c.clock.Now().Sub(entry.FetchedAt) > c.ttl
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Save writes the cache back to its file if anything changed since
// Open. The write goes through a temp file and rename so a crash
// cannot corrupt the existing cache.
func (c *Cache) Save() error {
	if !c.dirty {
		return nil
	}

	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("activity: encode cache: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("activity: create cache directory %s: %w", dir, err)
	}
	temp, err := os.CreateTemp(dir, ".chanops-cache-*")
	if err != nil {
		return fmt.Errorf("activity: create temp file in %s: %w", dir, err)
	}
	tempName := temp.Name()
	if _, err := temp.Write(data); err != nil {
		temp.Close()
		os.Remove(tempName)
		return fmt.Errorf("activity: write %s: %w", tempName, err)
	}
	if err := temp.Close(); err != nil {
		os.Remove(tempName)
		return fmt.Errorf("activity: close %s: %w", tempName, err)
	}
	if err := os.Rename(tempName, c.path); err != nil {
		os.Remove(tempName)
		return fmt.Errorf("activity: rename %s to %s: %w", tempName, c.path, err)
	}

	c.dirty = false
	c.logger.Debug("activity cache saved", "path", c.path, "entries", len(c.entries))
	return nil
}
