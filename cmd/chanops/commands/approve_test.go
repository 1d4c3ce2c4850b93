// Copyright 2026 The Chanops Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/chanops/chanops/curator"
	"github.com/chanops/chanops/store"
)

func testBatch() []curator.ValidatedAction {
	return []curator.ValidatedAction{
		{ChannelID: "C1", ChannelName: "stale-one", Kind: store.ActionArchive, MemberCount: 3},
		{ChannelID: "C2", ChannelName: "stale-two", Kind: store.ActionArchive, MemberCount: 5},
		{ChannelID: "C3", ChannelName: "old-name", Kind: store.ActionRename, Value: "new-name"},
	}
}

func TestInteractiveApprover(t *testing.T) {
	t.Run("mixed answers", func(t *testing.T) {
		var out bytes.Buffer
		approver := newInteractiveApprover(&out, strings.NewReader("y\nn\nyes\n"))

		approved, abort, err := approver(testBatch())
		if err != nil {
			t.Fatalf("approver: %v", err)
		}
		if abort {
			t.Fatal("unexpected abort")
		}
		want := []bool{true, false, true}
		for i, w := range want {
			if approved[i] != w {
				t.Errorf("approved[%d] = %v, want %v", i, approved[i], w)
			}
		}
		if !strings.Contains(out.String(), "batch 1: 3 actions") {
			t.Errorf("missing batch header in output:\n%s", out.String())
		}
	})

	t.Run("all approves rest without prompting", func(t *testing.T) {
		var out bytes.Buffer
		// A single "a" must cover the remaining two items.
		approver := newInteractiveApprover(&out, strings.NewReader("a\n"))

		approved, abort, err := approver(testBatch())
		if err != nil {
			t.Fatalf("approver: %v", err)
		}
		if abort {
			t.Fatal("unexpected abort")
		}
		for i, ok := range approved {
			if !ok {
				t.Errorf("approved[%d] = false after all", i)
			}
		}

		// The sticky approval carries into the next batch.
		approved, abort, err = approver(testBatch()[:1])
		if err != nil || abort {
			t.Fatalf("second batch: approved=%v abort=%v err=%v", approved, abort, err)
		}
		if !approved[0] {
			t.Error("all did not carry across batches")
		}
	})

	t.Run("quit aborts with partial approvals", func(t *testing.T) {
		var out bytes.Buffer
		approver := newInteractiveApprover(&out, strings.NewReader("y\nq\n"))

		approved, abort, err := approver(testBatch())
		if err != nil {
			t.Fatalf("approver: %v", err)
		}
		if !abort {
			t.Fatal("expected abort on quit")
		}
		if !approved[0] || approved[1] || approved[2] {
			t.Errorf("approved = %v, want [true false false]", approved)
		}
	})

	t.Run("eof aborts", func(t *testing.T) {
		var out bytes.Buffer
		approver := newInteractiveApprover(&out, strings.NewReader(""))

		approved, abort, err := approver(testBatch())
		if err != nil {
			t.Fatalf("approver: %v", err)
		}
		if !abort {
			t.Fatal("expected abort on EOF")
		}
		for i, ok := range approved {
			if ok {
				t.Errorf("approved[%d] = true on closed input", i)
			}
		}
	})

	t.Run("unknown answer skips", func(t *testing.T) {
		var out bytes.Buffer
		approver := newInteractiveApprover(&out, strings.NewReader("maybe\ny\ny\n"))

		approved, _, err := approver(testBatch())
		if err != nil {
			t.Fatalf("approver: %v", err)
		}
		if approved[0] {
			t.Error("ambiguous answer approved a destructive action")
		}
		if !approved[1] || !approved[2] {
			t.Errorf("approved = %v, want [false true true]", approved)
		}
	})
}

func TestSizingWarning(t *testing.T) {
	merge := curator.ValidatedAction{
		ChannelName: "big", MemberCount: 40,
		TargetName: "small", TargetMemberCount: 4,
		Kind: store.ActionMerge,
	}
	warning := sizingWarning(merge)
	if !strings.Contains(warning, "#small") || !strings.Contains(warning, "(4)") {
		t.Errorf("warning = %q, want target name and count", warning)
	}

	if w := sizingWarning(curator.ValidatedAction{ChannelName: "solo", MemberCount: 3}); w != "" {
		t.Errorf("warning without target = %q", w)
	}

	healthy := merge
	healthy.TargetMemberCount = 400
	if w := sizingWarning(healthy); w != "" {
		t.Errorf("warning for larger target = %q", w)
	}
}

func TestPrintActionSummary(t *testing.T) {
	var out bytes.Buffer
	printActionSummary(&out, testBatch())
	got := out.String()
	if !strings.Contains(got, "3 validated actions:") {
		t.Errorf("missing total: %q", got)
	}
	if !strings.Contains(got, "2 archive") || !strings.Contains(got, "1 rename") {
		t.Errorf("missing per-kind counts: %q", got)
	}

	out.Reset()
	printActionSummary(&out, nil)
	if !strings.Contains(out.String(), "no executable actions") {
		t.Errorf("empty summary = %q", out.String())
	}
}

func TestPrintRejections(t *testing.T) {
	var out bytes.Buffer
	printRejections(&out, []curator.Rejection{
		{ChannelName: "general", Kind: store.ActionArchive, Reason: curator.ReasonProtectedChannel},
		{ChannelName: "ghost", Kind: store.ActionRename, Reason: curator.ReasonChannelNotFound, Detail: "no channel with ID C404"},
	})
	got := out.String()
	if !strings.Contains(got, "2 rejected:") {
		t.Errorf("missing count: %q", got)
	}
	if !strings.Contains(got, "protected-channel: 1") {
		t.Errorf("missing reason tally: %q", got)
	}
	if !strings.Contains(got, "no channel with ID C404") {
		t.Errorf("missing detail line: %q", got)
	}

	out.Reset()
	printRejections(&out, nil)
	if out.Len() != 0 {
		t.Errorf("output for zero rejections: %q", out.String())
	}
}

func TestPrintResults(t *testing.T) {
	var out bytes.Buffer
	printResults(&out, []curator.ExecutionResult{
		{ChannelName: "stale-one", Kind: store.ActionArchive, Outcome: curator.OutcomeSucceeded},
		{ChannelName: "stale-two", Kind: store.ActionArchive, Outcome: curator.OutcomeFailed, Err: "channel_not_found: not found"},
		{ChannelName: "old-name", Kind: store.ActionRename, Outcome: curator.OutcomeSkipped, Note: "rejected by operator"},
	})
	got := out.String()
	if !strings.Contains(got, "ok: archive #stale-one") {
		t.Errorf("missing success line: %q", got)
	}
	if !strings.Contains(got, "FAILED: archive #stale-two: channel_not_found") {
		t.Errorf("missing failure line: %q", got)
	}
	if !strings.Contains(got, "skipped: rename #old-name (rejected by operator)") {
		t.Errorf("missing skip line: %q", got)
	}
	if !strings.Contains(got, "1 succeeded, 1 failed, 1 skipped") {
		t.Errorf("missing tally: %q", got)
	}
}
