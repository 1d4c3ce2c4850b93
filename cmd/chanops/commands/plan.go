// Copyright 2026 The Chanops Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/spf13/pflag"

	"github.com/chanops/chanops/cmd/chanops/cli"
	"github.com/chanops/chanops/curator"
	"github.com/chanops/chanops/store"
)

func planCommand() *cli.Command {
	flags := &commonFlags{}
	return &cli.Command{
		Name:    "plan",
		Summary: "Validate declared actions and show what apply would do",
		Description: `Validate every declared action against the live workspace and print
the actions that would execute, plus rejections grouped by reason.
Never mutates the workspace, the store, or the cache.`,
		Usage: "chanops plan [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("plan", pflag.ContinueOnError)
			flags.register(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			return runPlan(ctx, flags, logger)
		},
	}
}

func runPlan(ctx context.Context, flags *commonFlags, logger *slog.Logger) error {
	r, err := setup(ctx, flags, false, logger)
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

	engine := &curator.Engine{API: r.client, Logger: r.logger}
	results, err := engine.Execute(ctx, actions, curator.Simulate, curator.ApproveAll)
	if err != nil {
		return err
	}
	for _, result := range results {
		fmt.Printf("  %s\n", result.Note)
	}
	printRejections(os.Stdout, rejections)
	return nil
}

// printActionSummary prints the per-kind counts shown before any
// execution or simulation.
func printActionSummary(w io.Writer, actions []curator.ValidatedAction) {
	if len(actions) == 0 {
		fmt.Fprintln(w, "no executable actions declared")
		return
	}
	counts := make(map[store.Action]int)
	for _, action := range actions {
		counts[action.Kind]++
	}
	fmt.Fprintf(w, "%d validated actions:", len(actions))
	for _, kind := range store.Actions {
		if counts[kind] > 0 {
			fmt.Fprintf(w, " %d %s", counts[kind], kind)
		}
	}
	fmt.Fprintln(w)
}

func printRejections(w io.Writer, rejections []curator.Rejection) {
	if len(rejections) == 0 {
		return
	}
	fmt.Fprintf(w, "%d rejected:\n", len(rejections))
	counts := curator.CountByReason(rejections)
	reasons := make([]string, 0, len(counts))
	for reason := range counts {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		fmt.Fprintf(w, "  %s: %d\n", reason, counts[curator.Reason(reason)])
	}
	for _, rejection := range rejections {
		fmt.Fprintf(w, "  %s\n", rejection)
	}
}
