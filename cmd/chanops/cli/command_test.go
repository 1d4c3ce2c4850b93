// Copyright 2026 The Chanops Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestExecuteDispatch(t *testing.T) {
	var ran string
	root := &Command{
		Name: "chanops",
		Subcommands: []*Command{
			{Name: "sync", Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
				ran = "sync"
				return nil
			}},
			{Name: "plan", Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
				ran = "plan"
				return nil
			}},
		},
	}

	if err := root.Execute(context.Background(), []string{"plan"}, testLogger()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if ran != "plan" {
		t.Errorf("ran %q", ran)
	}
}

func TestExecuteUnknownCommandSuggests(t *testing.T) {
	root := &Command{
		Name:        "chanops",
		Subcommands: []*Command{{Name: "apply"}, {Name: "sync"}},
	}

	err := root.Execute(context.Background(), []string{"aply"}, testLogger())
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
	if !strings.Contains(err.Error(), `did you mean "apply"`) {
		t.Errorf("error = %v", err)
	}
}

func TestExecuteFlagParsing(t *testing.T) {
	var batch int
	var rest []string
	command := &Command{
		Name: "apply",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("apply", pflag.ContinueOnError)
			flags.IntVar(&batch, "batch", 10, "approval batch size")
			return flags
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			rest = args
			return nil
		},
	}

	if err := command.Execute(context.Background(), []string{"--batch", "3", "extra"}, testLogger()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if batch != 3 {
		t.Errorf("batch = %d", batch)
	}
	if len(rest) != 1 || rest[0] != "extra" {
		t.Errorf("positional args = %v", rest)
	}
}

func TestExecuteUnknownFlagSuggests(t *testing.T) {
	command := &Command{
		Name: "apply",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("apply", pflag.ContinueOnError)
			flags.Bool("dry-run", false, "simulate only")
			return flags
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error { return nil },
	}

	err := command.Execute(context.Background(), []string{"--dry-rn"}, testLogger())
	if err == nil {
		t.Fatal("expected error for unknown flag")
	}
	if !strings.Contains(err.Error(), "--dry-run") {
		t.Errorf("error = %v", err)
	}
}

func TestPrintHelpListsSubcommands(t *testing.T) {
	root := &Command{
		Name:    "chanops",
		Summary: "Curate workspace channels from a declarative store.",
		Subcommands: []*Command{
			{Name: "sync", Summary: "Refresh the store from the live workspace"},
			{Name: "apply", Summary: "Execute approved actions"},
		},
	}

	var out strings.Builder
	root.PrintHelp(&out)
	help := out.String()
	for _, want := range []string{"sync", "Refresh the store", "apply", "chanops <command>"} {
		if !strings.Contains(help, want) {
			t.Errorf("help missing %q:\n%s", want, help)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"sync", "sync", 0},
		{"aply", "apply", 1},
		{"paln", "plan", 2},
		{"archive", "rename", 6},
	}
	for _, test := range tests {
		if got := levenshtein(test.a, test.b); got != test.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
		}
	}
}

func TestExitError(t *testing.T) {
	err := &ExitError{Code: 3}
	var coder interface{ ExitCode() int }
	if !strings.Contains(err.Error(), "3") {
		t.Errorf("Error() = %q", err.Error())
	}
	var anyErr error = err
	var ok bool
	coder, ok = anyErr.(interface{ ExitCode() int })
	if !ok || coder.ExitCode() != 3 {
		t.Errorf("ExitCode not exposed")
	}
}
