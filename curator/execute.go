// Copyright 2026 The Chanops Authors
// SPDX-License-Identifier: Apache-2.0

package curator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chanops/chanops/lib/clock"
	"github.com/chanops/chanops/slack"
	"github.com/chanops/chanops/store"
)

// Mode selects between pre-flight simulation and live mutation.
type Mode int

const (
	// Simulate synthesizes successful results without calling any
	// mutating API. Used by plan and --dry-run.
	Simulate Mode = iota
	// Apply performs the real mutations.
	Apply
)

// maxRateLimitRetries bounds how often one action waits out a rate
// limit before giving up on it.
const maxRateLimitRetries = 8

// Approver decides the fate of one batch before anything is applied.
// approved must be the same length as the batch; a false entry skips
// that action with no side effect. abort stops the run before any
// further batch.
type Approver func(batch []ValidatedAction) (approved []bool, abort bool, err error)

// ApproveAll accepts every action in every batch. Used by --yes runs
// and tests.
func ApproveAll(batch []ValidatedAction) ([]bool, bool, error) {
	approved := make([]bool, len(batch))
	for i := range approved {
		approved[i] = true
	}
	return approved, false, nil
}

// Engine applies validated actions to the workspace.
type Engine struct {
	API    ChannelAPI
	Clock  clock.Clock
	Logger *slog.Logger

	// BatchSize is how many actions are offered per approval. Zero
	// means one at a time.
	BatchSize int
	// Pace is the pause between consecutive mutations, respecting
	// the platform's sustained-rate guidance. Zero disables pacing.
	Pace time.Duration
}

func (e *Engine) clock() clock.Clock {
	if e.Clock == nil {
		return clock.Real()
	}
	return e.Clock
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

func (e *Engine) batchSize() int {
	if e.BatchSize <= 0 {
		return 1
	}
	return e.BatchSize
}

// Execute runs the actions in order, in approval batches. Actions are
// applied strictly sequentially; a failure or rate-limit wait on one
// never disturbs the others. The returned results cover every action,
// in input order. The error return is reserved for run-level problems
// (context cancellation, approver failure); per-action API errors are
// reported in the results.
func (e *Engine) Execute(ctx context.Context, actions []ValidatedAction, mode Mode, approve Approver) ([]ExecutionResult, error) {
	if approve == nil {
		approve = ApproveAll
	}
	logger := e.logger()

	results := make([]ExecutionResult, 0, len(actions))
	size := e.batchSize()

	for start := 0; start < len(actions); start += size {
		end := min(start+size, len(actions))
		batch := actions[start:end]

		approved, abort, err := approve(batch)
		if err != nil {
			return results, fmt.Errorf("approval failed: %w", err)
		}
		if len(approved) != len(batch) {
			return results, fmt.Errorf("approver returned %d decisions for %d actions", len(approved), len(batch))
		}

		for i, action := range batch {
			if err := ctx.Err(); err != nil {
				return results, err
			}
			if !approved[i] {
				results = append(results, ExecutionResult{
					ChannelID:   action.ChannelID,
					ChannelName: action.ChannelName,
					Kind:        action.Kind,
					Value:       action.Value,
					Outcome:     OutcomeSkipped,
					Note:        "rejected by operator",
					AppliedAt:   e.clock().Now(),
				})
				continue
			}
			result := e.apply(ctx, action, mode)
			logger.Info("action finished",
				"channel", action.ChannelName, "kind", string(action.Kind),
				"outcome", string(result.Outcome), "error", result.Err)
			results = append(results, result)

			if mode == Apply && e.Pace > 0 {
				e.clock().Sleep(e.Pace)
			}
		}

		if abort {
			logger.Info("run aborted by operator", "applied", len(results), "remaining", len(actions)-len(results))
			for _, action := range actions[end:] {
				results = append(results, ExecutionResult{
					ChannelID:   action.ChannelID,
					ChannelName: action.ChannelName,
					Kind:        action.Kind,
					Value:       action.Value,
					Outcome:     OutcomeSkipped,
					Note:        "run aborted",
					AppliedAt:   e.clock().Now(),
				})
			}
			return results, nil
		}
	}
	return results, nil
}

// apply performs one action. Rate limits suspend and retry this
// action only; any other API error fails it and the caller moves on.
func (e *Engine) apply(ctx context.Context, action ValidatedAction, mode Mode) ExecutionResult {
	result := ExecutionResult{
		ChannelID:   action.ChannelID,
		ChannelName: action.ChannelName,
		Kind:        action.Kind,
		Value:       action.Value,
		AppliedAt:   e.clock().Now(),
	}

	if mode == Simulate {
		result.Outcome = OutcomeSucceeded
		result.Note = "would " + action.Summary()
		return result
	}

	var err error
	switch action.Kind {
	case store.ActionArchive:
		err = e.applyArchive(ctx, action, &result)
	case store.ActionRename:
		err = e.withRetry(ctx, func() error {
			_, renameErr := e.API.RenameChannel(ctx, action.ChannelID, action.Value)
			return renameErr
		})
	case store.ActionMerge:
		err = e.applyArchive(ctx, action, &result)
	case store.ActionUpdateDescription:
		err = e.withRetry(ctx, func() error {
			return e.API.SetChannelPurpose(ctx, action.ChannelID, action.Value)
		})
	default:
		err = fmt.Errorf("no handler for action %q", action.Kind)
	}

	if err != nil {
		result.Outcome = OutcomeFailed
		if code := slack.ErrorCode(err); code != "" {
			result.Err = fmt.Sprintf("%s: %v", code, err)
		} else {
			result.Err = err.Error()
		}
		return result
	}
	result.Outcome = OutcomeSucceeded
	return result
}

// applyArchive archives the channel and, when a redirect target is
// set, posts a notice into the target pointing members at it. The
// notice is best effort: once the archive succeeded the action counts
// as succeeded, and a notice failure is recorded as a warning.
func (e *Engine) applyArchive(ctx context.Context, action ValidatedAction, result *ExecutionResult) error {
	err := e.withRetry(ctx, func() error {
		return e.API.ArchiveChannel(ctx, action.ChannelID)
	})
	if err != nil {
		return err
	}

	if action.TargetID == "" {
		return nil
	}
	notice := redirectNotice(action)
	noticeErr := e.withRetry(ctx, func() error {
		_, postErr := e.API.PostMessage(ctx, action.TargetID, notice)
		return postErr
	})
	if noticeErr != nil {
		result.Warning = fmt.Sprintf("archived, but redirect notice to #%s failed: %v", action.TargetName, noticeErr)
		e.logger().Warn("redirect notice failed",
			"channel", action.ChannelName, "target", action.TargetName, "error", noticeErr)
	}
	return nil
}

func redirectNotice(action ValidatedAction) string {
	return fmt.Sprintf(":file_folder: #%s has been archived. Conversations that used to happen there belong here now.", action.ChannelName)
}

// withRetry runs call, waiting out rate limits with the interval the
// platform asked for. Bounded so a stuck 429 cannot hang a run
// forever.
func (e *Engine) withRetry(ctx context.Context, call func() error) error {
	for attempt := 0; ; attempt++ {
		err := call()
		if err == nil {
			return nil
		}
		delay, retryable := slack.RetryDelay(err)
		if !retryable || attempt >= maxRateLimitRetries {
			return err
		}
		e.logger().Debug("rate limited, waiting", "delay", delay, "attempt", attempt+1)
		e.clock().Sleep(delay)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
}
