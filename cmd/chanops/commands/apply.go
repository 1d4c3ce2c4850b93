// Copyright 2026 The Chanops Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/chanops/chanops/cmd/chanops/cli"
	"github.com/chanops/chanops/curator"
	"github.com/chanops/chanops/lib/clock"
)

// Exit codes for apply, so calling automation can tell outcomes
// apart without parsing output.
const (
	exitNothingApplied = 2
	exitPartialFailure = 3
)

func applyCommand() *cli.Command {
	flags := &commonFlags{}
	var batch int
	var yes bool
	var dryRun bool
	return &cli.Command{
		Name:    "apply",
		Summary: "Execute the declared actions with batch approval",
		Description: `Validate the declared actions, back up the store, and execute the
validated set in operator-confirmed batches. Each succeeded action
resets its row to "keep" so repeating the run changes nothing.

Exit codes: 0 on clean success, 2 when nothing was applied, 3 when
the run completed but one or more actions failed.`,
		Usage: "chanops apply [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("apply", pflag.ContinueOnError)
			flags.register(flagSet)
			flagSet.IntVar(&batch, "batch", 0, "approval batch size (0 uses the configured default)")
			flagSet.BoolVar(&yes, "yes", false, "approve every batch without prompting")
			flagSet.BoolVar(&dryRun, "dry-run", false, "simulate only, mutate nothing")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			return runApply(ctx, flags, batch, yes, dryRun, logger)
		},
	}
}

func runApply(ctx context.Context, flags *commonFlags, batch int, yes, dryRun bool, logger *slog.Logger) error {
	r, err := setup(ctx, flags, !dryRun, logger)
	if err != nil {
		return err
	}
	defer r.Close()

	merged, snapshot, _, err := r.refreshRows(ctx)
	if err != nil {
		return err
	}

	actions, rejections := curator.ValidateAll(merged, snapshot, r.caller, r.policy)
	printActionSummary(os.Stdout, actions)
	printRejections(os.Stdout, rejections)
	if len(actions) == 0 {
		return &cli.ExitError{Code: exitNothingApplied}
	}

	if batch <= 0 {
		batch = r.cfg.Execute.BatchSize
	}
	engine := &curator.Engine{
		API:       r.client,
		Clock:     clock.Real(),
		Logger:    r.logger,
		BatchSize: batch,
		Pace:      time.Duration(r.cfg.Execute.Pace),
	}

	mode := curator.Apply
	approver := newInteractiveApprover(os.Stdout, os.Stdin)
	if yes {
		approver = curator.ApproveAll
	}
	if dryRun {
		mode = curator.Simulate
		approver = curator.ApproveAll
	} else {
		fmt.Println("destructive actions ahead: archives cannot be undone from here, only via the workspace admin UI")
	}

	results, err := engine.Execute(ctx, actions, mode, approver)
	if err != nil {
		return err
	}
	printResults(os.Stdout, results)

	if dryRun {
		return nil
	}

	counts := curator.CountByOutcome(results)
	if counts[curator.OutcomeSucceeded] > 0 {
		// Immutable pre-run backup first, then fold outcomes in.
		backupPath, err := r.store.Backup(ctx)
		if err != nil {
			return err
		}
		if backupPath != "" {
			fmt.Printf("store backed up to %s\n", backupPath)
		}
		updated := curator.ApplyResults(merged, results)
		if err := r.store.Save(ctx, updated); err != nil {
			return err
		}
	}
	if err := r.cache.Save(); err != nil {
		return err
	}

	if counts[curator.OutcomeFailed] > 0 {
		return &cli.ExitError{Code: exitPartialFailure}
	}
	if counts[curator.OutcomeSucceeded] == 0 {
		return &cli.ExitError{Code: exitNothingApplied}
	}
	return nil
}

func printResults(w io.Writer, results []curator.ExecutionResult) {
	for _, result := range results {
		switch result.Outcome {
		case curator.OutcomeSucceeded:
			if result.Note != "" {
				fmt.Fprintf(w, "  %s\n", result.Note)
			} else {
				fmt.Fprintf(w, "  ok: %s #%s\n", result.Kind, result.ChannelName)
			}
			if result.Warning != "" {
				fmt.Fprintf(w, "  warning: %s\n", result.Warning)
			}
		case curator.OutcomeFailed:
			fmt.Fprintf(w, "  FAILED: %s #%s: %s\n", result.Kind, result.ChannelName, result.Err)
		case curator.OutcomeSkipped:
			fmt.Fprintf(w, "  skipped: %s #%s (%s)\n", result.Kind, result.ChannelName, result.Note)
		}
	}
	counts := curator.CountByOutcome(results)
	fmt.Fprintf(w, "%d succeeded, %d failed, %d skipped\n",
		counts[curator.OutcomeSucceeded], counts[curator.OutcomeFailed], counts[curator.OutcomeSkipped])
}
