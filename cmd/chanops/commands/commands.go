// Copyright 2026 The Chanops Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the chanops CLI command tree.
package commands

import (
	"github.com/chanops/chanops/cmd/chanops/cli"
)

// Root builds and returns the complete chanops command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "chanops",
		Description: `Chanops: declarative channel curation.

Keep a workspace's channel set described in a spreadsheet-like store,
review the live state against it, and apply archive, rename, merge,
and description changes in operator-confirmed batches.`,
		Subcommands: []*cli.Command{
			syncCommand(),
			planCommand(),
			applyCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Pull the live channel list into the store for review",
				Command:     "chanops sync --store channels.csv",
			},
			{
				Description: "See what would happen, without touching anything",
				Command:     "chanops plan --store channels.csv",
			},
			{
				Description: "Apply the declared actions with batch approval",
				Command:     "chanops apply --store channels.csv --batch 5",
			},
			{
				Description: "Apply unattended from the database backend",
				Command:     "chanops apply --db channels.db --yes",
			},
		},
	}
}
