// Copyright 2026 The Chanops Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/chanops/chanops/cmd/chanops/cli"
)

func syncCommand() *cli.Command {
	flags := &commonFlags{}
	return &cli.Command{
		Name:    "sync",
		Summary: "Refresh the store from the live workspace",
		Description: `Snapshot the live channel list, merge it into the declarative store,
and save. Newly discovered channels are added with action "new" for
review; rows whose channel disappeared are marked, never deleted.
Read-only against the workspace.`,
		Usage: "chanops sync [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("sync", pflag.ContinueOnError)
			flags.register(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			return runSync(ctx, flags, logger)
		},
	}
}

func runSync(ctx context.Context, flags *commonFlags, logger *slog.Logger) error {
	r, err := setup(ctx, flags, false, logger)
	if err != nil {
		return err
	}
	defer r.Close()

	merged, _, stats, err := r.refreshRows(ctx)
	if err != nil {
		return err
	}
	if err := r.store.Save(ctx, merged); err != nil {
		return err
	}
	if err := r.cache.Save(); err != nil {
		return err
	}

	fmt.Printf("synced %d rows: %d new, %d updated, %d missing from workspace\n",
		len(merged), stats.New, stats.Updated, stats.Missing)
	return nil
}
