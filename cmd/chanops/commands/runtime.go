// Copyright 2026 The Chanops Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/pflag"

	"github.com/chanops/chanops/activity"
	"github.com/chanops/chanops/curator"
	"github.com/chanops/chanops/lib/config"
	"github.com/chanops/chanops/policy"
	"github.com/chanops/chanops/slack"
	"github.com/chanops/chanops/store"
)

// commonFlags are shared by sync, plan, and apply.
type commonFlags struct {
	configPath string
	storePath  string
	dbPath     string
	cachePath  string
	refresh    bool
	verbose    bool
}

func (f *commonFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.configPath, "config", "", "config file (default: CHANOPS_CONFIG)")
	flags.StringVar(&f.storePath, "store", "", "CSV store file (overrides config)")
	flags.StringVar(&f.dbPath, "db", "", "use the SQLite store at this path instead of CSV")
	flags.StringVar(&f.cachePath, "cache", "", "activity cache file (overrides config)")
	flags.BoolVar(&f.refresh, "refresh", false, "treat all cached activity as stale this run")
	flags.BoolVar(&f.verbose, "verbose", false, "enable debug logging")
}

// runtime is everything a command needs after startup checks passed:
// a verified API client, the chosen store backend, the activity
// cache, and the protection policy.
type runtime struct {
	cfg      *config.Config
	client   *slack.Client
	identity *slack.Identity
	caller   curator.Caller
	store    store.Store
	cache    *activity.Cache
	policy   *policy.Policy
	logger   *slog.Logger

	closeStore func() error
}

func (r *runtime) Close() error {
	if r.closeStore != nil {
		return r.closeStore()
	}
	return nil
}

// setup loads configuration, authenticates against the platform, and
// fails fast when the token is missing a required scope. Mutating
// commands pass needWrite to demand the write scope set up front, per
// the rule that configuration errors abort before any mutation.
func setup(ctx context.Context, flags *commonFlags, needWrite bool, logger *slog.Logger) (*runtime, error) {
	var cfg *config.Config
	var err error
	if flags.configPath != "" {
		cfg, err = config.LoadFile(flags.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if flags.storePath != "" {
		cfg.Store.CSVPath = flags.storePath
	}
	if flags.cachePath != "" {
		cfg.Cache.Path = flags.cachePath
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	token, err := cfg.Token()
	if err != nil {
		return nil, err
	}
	client, err := slack.NewClient(slack.ClientConfig{
		BaseURL: cfg.API.BaseURL,
		Token:   token,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	identity, err := client.AuthTest(ctx)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	required := slack.ReadScopes
	if needWrite {
		required = append(append([]string{}, required...), slack.WriteScopes...)
	}
	if err := slack.CheckScopes(identity, required); err != nil {
		return nil, err
	}
	logger.Debug("authenticated", "user", identity.User, "team", identity.Team)

	r := &runtime{
		cfg:      cfg,
		client:   client,
		identity: identity,
		caller:   curator.Caller{UserID: identity.UserID, Privileged: cfg.API.Privileged},
		logger:   logger,
	}

	dbPath := cfg.Store.DBPath
	if flags.dbPath != "" {
		dbPath = flags.dbPath
	}
	if dbPath != "" {
		sqliteStore, err := store.OpenSQLiteStore(dbPath, store.SQLiteOptions{Logger: logger})
		if err != nil {
			return nil, err
		}
		r.store = sqliteStore
		r.closeStore = sqliteStore.Close
	} else {
		r.store = store.NewCSVStore(cfg.Store.CSVPath, store.CSVOptions{Logger: logger})
	}

	r.cache = activity.Open(cfg.Cache.Path, activity.Options{
		TTL:          time.Duration(cfg.Cache.TTL),
		ForceRefresh: flags.refresh,
		Logger:       logger,
	})

	r.policy = policy.Default()
	if cfg.PolicyFile != "" {
		r.policy, err = policy.Load(cfg.PolicyFile)
		if err != nil {
			return nil, err
		}
	}

	return r, nil
}

// refreshRows snapshots the workspace and reconciles the store rows
// against it. Used by sync (which persists the result) and by plan
// and apply (which need current mirrored state for validation).
func (r *runtime) refreshRows(ctx context.Context) ([]store.Row, *curator.Snapshot, curator.ReconcileStats, error) {
	rows, err := r.store.Load(ctx)
	if err != nil {
		return nil, nil, curator.ReconcileStats{}, err
	}
	snapshot, err := curator.FetchSnapshot(ctx, r.client, r.logger)
	if err != nil {
		return nil, nil, curator.ReconcileStats{}, err
	}
	merged, stats, err := curator.Reconcile(ctx, curator.ReconcileInput{
		Snapshot: snapshot,
		Rows:     rows,
		Cache:    r.cache,
		API:      r.client,
		Logger:   r.logger,
	})
	if err != nil {
		return nil, nil, curator.ReconcileStats{}, err
	}
	return merged, snapshot, stats, nil
}
