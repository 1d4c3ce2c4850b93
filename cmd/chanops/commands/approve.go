// Copyright 2026 The Chanops Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/chanops/chanops/curator"
)

var (
	batchHeaderStyle = lipgloss.NewStyle().Bold(true)
	actionStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	warnStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	promptStyle      = lipgloss.NewStyle().Faint(true)
)

// newInteractiveApprover returns an Approver that walks the operator
// through each batch item by item. Keys: y approve, n skip, a approve
// this and everything after without further prompting, q abort the
// run. EOF on input counts as abort, so a closed stdin can never
// approve anything.
func newInteractiveApprover(out io.Writer, in io.Reader) curator.Approver {
	reader := bufio.NewReader(in)
	approveRest := false
	batchNumber := 0

	return func(batch []curator.ValidatedAction) ([]bool, bool, error) {
		batchNumber++
		approved := make([]bool, len(batch))

		fmt.Fprintln(out, batchHeaderStyle.Render(fmt.Sprintf("batch %d: %d actions", batchNumber, len(batch))))
		for _, action := range batch {
			fmt.Fprintf(out, "  %s\n", actionStyle.Render(action.Summary()))
			if warning := sizingWarning(action); warning != "" {
				fmt.Fprintf(out, "  %s\n", warnStyle.Render(warning))
			}
		}

		for i, action := range batch {
			if approveRest {
				approved[i] = true
				continue
			}
			fmt.Fprintf(out, "%s %s ", actionStyle.Render(action.Summary()),
				promptStyle.Render("[y]es [n]o [a]ll [q]uit:"))

			line, err := reader.ReadString('\n')
			if err != nil && line == "" {
				return approved, true, nil
			}
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "y", "yes":
				approved[i] = true
			case "a", "all":
				approved[i] = true
				approveRest = true
			case "q", "quit":
				return approved, true, nil
			default:
				// Anything else, including empty, skips. Destructive
				// actions need an explicit yes.
			}
		}
		return approved, false, nil
	}
}

// sizingWarning flags a merge that moves people into a smaller
// channel, which is usually a sign source and target are swapped.
func sizingWarning(action curator.ValidatedAction) string {
	if action.TargetName == "" {
		return ""
	}
	if action.TargetMemberCount < action.MemberCount {
		return fmt.Sprintf("warning: target #%s has fewer members (%d) than #%s (%d)",
			action.TargetName, action.TargetMemberCount, action.ChannelName, action.MemberCount)
	}
	return ""
}
