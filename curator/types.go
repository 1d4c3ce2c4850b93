// Copyright 2026 The Chanops Authors
// SPDX-License-Identifier: Apache-2.0

package curator

import (
	"context"
	"fmt"
	"time"

	"github.com/chanops/chanops/slack"
	"github.com/chanops/chanops/store"
)

// ChannelRecord is one live channel as observed at the start of a
// run. Records are immutable once the snapshot is built.
type ChannelRecord struct {
	ID          string
	Name        string
	IsPrivate   bool
	IsShared    bool
	IsGeneral   bool
	IsArchived  bool
	IsMember    bool
	MemberCount int
	Created     time.Time
	Creator     string
	Description string

	// LastActivity is filled in from the activity cache during
	// reconciliation. Zero means unknown or no messages.
	LastActivity time.Time
}

// Snapshot is the point-in-time view of every channel in the
// workspace, indexed for validation lookups.
type Snapshot struct {
	Records []ChannelRecord

	byID   map[string]*ChannelRecord
	byName map[string]*ChannelRecord
}

// NewSnapshot indexes records, dropping duplicates by ID. Duplicates
// occur when a channel shows up in both listing passes.
func NewSnapshot(records []ChannelRecord) *Snapshot {
	s := &Snapshot{}
	seen := make(map[string]bool, len(records))
	for _, record := range records {
		if seen[record.ID] {
			continue
		}
		seen[record.ID] = true
		s.Records = append(s.Records, record)
	}
	s.byID = make(map[string]*ChannelRecord, len(s.Records))
	s.byName = make(map[string]*ChannelRecord, len(s.Records))
	for i := range s.Records {
		s.byID[s.Records[i].ID] = &s.Records[i]
		s.byName[s.Records[i].Name] = &s.Records[i]
	}
	return s
}

// ByID looks a record up by channel ID. Nil when absent.
func (s *Snapshot) ByID(id string) *ChannelRecord {
	return s.byID[id]
}

// ByName looks a record up by current channel name. Nil when absent.
func (s *Snapshot) ByName(name string) *ChannelRecord {
	return s.byName[name]
}

// Len returns the number of distinct channels in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.Records)
}

// ChannelAPI is the slice of the platform client the engine consumes.
// *slack.Client satisfies it; tests substitute a fake.
type ChannelAPI interface {
	ListChannels(ctx context.Context, options slack.ListChannelsOptions) (*slack.ChannelPage, error)
	LatestActivity(ctx context.Context, channelID string) (time.Time, error)
	ArchiveChannel(ctx context.Context, channelID string) error
	RenameChannel(ctx context.Context, channelID, name string) (*slack.Channel, error)
	SetChannelPurpose(ctx context.Context, channelID, purpose string) error
	PostMessage(ctx context.Context, channelID, text string) (string, error)
}

var _ ChannelAPI = (*slack.Client)(nil)

// Caller identifies who is running the tool, for permission checks.
type Caller struct {
	// UserID is the authenticated user, from auth.test.
	UserID string
	// Privileged marks an admin-level token. Privileged callers may
	// act on channels they do not belong to and rename channels they
	// did not create.
	Privileged bool
}

// ValidatedAction is an action that passed every applicability rule
// and is safe to submit for execution. Only the validator constructs
// these.
type ValidatedAction struct {
	ChannelID   string
	ChannelName string
	Kind        store.Action

	// TargetID and TargetName identify the resolved redirect target
	// for archive-with-redirect and merge.
	TargetID   string
	TargetName string

	// Value carries the new name for rename and the new text for
	// update_description.
	Value string

	// MemberCount and TargetMemberCount give the approver sizing
	// context before a destructive change.
	MemberCount       int
	TargetMemberCount int
}

// Summary renders the action for approval prompts and logs.
func (a ValidatedAction) Summary() string {
	switch a.Kind {
	case store.ActionArchive:
		if a.TargetName != "" {
			return fmt.Sprintf("archive #%s (%d members), redirect to #%s", a.ChannelName, a.MemberCount, a.TargetName)
		}
		return fmt.Sprintf("archive #%s (%d members)", a.ChannelName, a.MemberCount)
	case store.ActionRename:
		return fmt.Sprintf("rename #%s to #%s", a.ChannelName, a.Value)
	case store.ActionMerge:
		return fmt.Sprintf("merge #%s (%d members) into #%s (%d members)",
			a.ChannelName, a.MemberCount, a.TargetName, a.TargetMemberCount)
	case store.ActionUpdateDescription:
		return fmt.Sprintf("update description of #%s", a.ChannelName)
	}
	return fmt.Sprintf("%s #%s", a.Kind, a.ChannelName)
}

// Reason is a stable machine-readable rejection code, used to
// aggregate counts in reports.
type Reason string

const (
	ReasonMissingChannelID  Reason = "missing-channel-id"
	ReasonChannelNotFound   Reason = "channel-not-found"
	ReasonProtectedChannel  Reason = "protected-channel"
	ReasonAlreadyArchived   Reason = "already-archived"
	ReasonChannelArchived   Reason = "channel-archived"
	ReasonNotAMember        Reason = "not-a-member"
	ReasonNotInTarget       Reason = "not-in-target"
	ReasonMissingTarget     Reason = "missing-target"
	ReasonTargetNotFound    Reason = "target-not-found"
	ReasonTargetArchived    Reason = "target-archived"
	ReasonTargetIsSelf      Reason = "target-is-self"
	ReasonInvalidNameFormat Reason = "invalid-name-format"
	ReasonNameCollision     Reason = "name-collision"
	ReasonNotPermitted      Reason = "not-permitted"
)

// Rejection explains why a row's action will not execute this run.
type Rejection struct {
	ChannelID   string
	ChannelName string
	Kind        store.Action
	Reason      Reason
	Detail      string
}

func (r Rejection) String() string {
	if r.Detail != "" {
		return fmt.Sprintf("#%s: %s rejected (%s): %s", r.ChannelName, r.Kind, r.Reason, r.Detail)
	}
	return fmt.Sprintf("#%s: %s rejected (%s)", r.ChannelName, r.Kind, r.Reason)
}

// Outcome classifies one executed action.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// ExecutionResult records what happened to one validated action.
type ExecutionResult struct {
	ChannelID   string
	ChannelName string
	Kind        store.Action

	// Value mirrors ValidatedAction.Value so the result writer can
	// update renamed names and descriptions without re-resolving.
	Value string

	Outcome Outcome
	// Err holds the failure detail for OutcomeFailed, with the
	// platform error code where one exists.
	Err string
	// Warning records a non-fatal problem on a succeeded action,
	// such as a redirect notice that could not be posted.
	Warning string
	// Note annotates skipped and simulated results.
	Note string

	AppliedAt time.Time
}

// CountByOutcome aggregates results for reporting.
func CountByOutcome(results []ExecutionResult) map[Outcome]int {
	counts := make(map[Outcome]int)
	for _, result := range results {
		counts[result.Outcome]++
	}
	return counts
}

// CountByReason aggregates rejections for reporting.
func CountByReason(rejections []Rejection) map[Reason]int {
	counts := make(map[Reason]int)
	for _, rejection := range rejections {
		counts[rejection.Reason]++
	}
	return counts
}
