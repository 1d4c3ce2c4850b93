// Copyright 2026 The Chanops Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/chanops/chanops/cmd/chanops/cli"
	"github.com/chanops/chanops/cmd/chanops/commands"
)

func main() {
	if err := run(); err != nil {
		// Commands that print their own output return an ExitError
		// with the desired exit code. Don't print a redundant
		// "error:" line for those.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	verbose := slices.Contains(os.Args[1:], "--verbose")
	logger := cli.NewCommandLogger(verbose)
	return commands.Root().Execute(ctx, os.Args[1:], logger)
}
