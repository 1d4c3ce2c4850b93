// Copyright 2026 The Chanops Authors
// SPDX-License-Identifier: Apache-2.0

package curator

import (
	"fmt"
	"regexp"

	"github.com/chanops/chanops/policy"
	"github.com/chanops/chanops/store"
)

// namePattern is the platform's channel name rule: lowercase letters,
// digits, hyphens, and underscores, at most 80 characters. No spaces
// or periods.
var namePattern = regexp.MustCompile(`^[a-z0-9_-]{1,80}$`)

// ValidName reports whether a candidate channel name is acceptable.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// Validate checks one row's declared action against the live
// snapshot. It returns exactly one non-nil result: a ValidatedAction
// ready for execution, a Rejection explaining refusal, or neither
// when the row asks for nothing (keep, new). Pure: no I/O, no
// mutation.
func Validate(row store.Row, snapshot *Snapshot, caller Caller, pol *policy.Policy) (*ValidatedAction, *Rejection) {
	if !row.Action.Executable() {
		return nil, nil
	}
	if pol == nil {
		pol = policy.Default()
	}

	reject := func(reason Reason, format string, args ...any) (*ValidatedAction, *Rejection) {
		return nil, &Rejection{
			ChannelID:   row.ChannelID,
			ChannelName: row.Name,
			Kind:        row.Action,
			Reason:      reason,
			Detail:      fmt.Sprintf(format, args...),
		}
	}

	if row.ChannelID == "" {
		return reject(ReasonMissingChannelID, "row has no channel id; run sync first")
	}
	record := snapshot.ByID(row.ChannelID)
	if record == nil {
		return reject(ReasonChannelNotFound, "channel %s not in workspace", row.ChannelID)
	}
	if record.IsShared && !caller.Privileged {
		return reject(ReasonNotPermitted, "#%s is shared with another workspace", record.Name)
	}

	switch row.Action {
	case store.ActionArchive:
		return validateArchive(row, record, snapshot, caller, pol)
	case store.ActionRename:
		return validateRename(row, record, snapshot, caller, pol)
	case store.ActionMerge:
		return validateMerge(row, record, snapshot, caller, pol)
	case store.ActionUpdateDescription:
		return validateUpdateDescription(row, record)
	}
	return nil, nil
}

func validateArchive(row store.Row, record *ChannelRecord, snapshot *Snapshot, caller Caller, pol *policy.Policy) (*ValidatedAction, *Rejection) {
	reject := func(reason Reason, format string, args ...any) (*ValidatedAction, *Rejection) {
		return nil, &Rejection{ChannelID: row.ChannelID, ChannelName: record.Name,
			Kind: row.Action, Reason: reason, Detail: fmt.Sprintf(format, args...)}
	}

	if pol.Protected(record.Name, record.IsGeneral) {
		return reject(ReasonProtectedChannel, "#%s is protected", record.Name)
	}
	if record.IsArchived {
		return reject(ReasonAlreadyArchived, "#%s is already archived", record.Name)
	}
	if !record.IsMember && !caller.Privileged {
		return reject(ReasonNotAMember, "caller is not a member of #%s", record.Name)
	}

	action := &ValidatedAction{
		ChannelID:   row.ChannelID,
		ChannelName: record.Name,
		Kind:        store.ActionArchive,
		MemberCount: record.MemberCount,
	}
	if row.TargetValue != "" {
		target := snapshot.ByName(row.TargetValue)
		if target == nil {
			return reject(ReasonTargetNotFound, "redirect target #%s does not exist", row.TargetValue)
		}
		if target.IsArchived {
			return reject(ReasonTargetArchived, "redirect target #%s is archived", target.Name)
		}
		if target.ID == record.ID {
			return reject(ReasonTargetIsSelf, "#%s cannot redirect to itself", record.Name)
		}
		action.TargetID = target.ID
		action.TargetName = target.Name
		action.TargetMemberCount = target.MemberCount
	}
	return action, nil
}

func validateRename(row store.Row, record *ChannelRecord, snapshot *Snapshot, caller Caller, pol *policy.Policy) (*ValidatedAction, *Rejection) {
	reject := func(reason Reason, format string, args ...any) (*ValidatedAction, *Rejection) {
		return nil, &Rejection{ChannelID: row.ChannelID, ChannelName: record.Name,
			Kind: row.Action, Reason: reason, Detail: fmt.Sprintf(format, args...)}
	}

	if pol.Protected(record.Name, record.IsGeneral) {
		return reject(ReasonProtectedChannel, "#%s is protected", record.Name)
	}
	if record.IsArchived {
		return reject(ReasonChannelArchived, "#%s is archived", record.Name)
	}
	if caller.UserID != record.Creator && !caller.Privileged {
		return reject(ReasonNotPermitted, "caller did not create #%s and is not privileged", record.Name)
	}
	newName := row.TargetValue
	if newName == "" {
		return reject(ReasonMissingTarget, "rename needs the new name in target_value")
	}
	if !ValidName(newName) {
		return reject(ReasonInvalidNameFormat,
			"%q must be 1-80 lowercase letters, digits, hyphens, or underscores", newName)
	}
	if existing := snapshot.ByName(newName); existing != nil && existing.ID != record.ID {
		return reject(ReasonNameCollision, "a channel named #%s already exists", newName)
	}

	return &ValidatedAction{
		ChannelID:   row.ChannelID,
		ChannelName: record.Name,
		Kind:        store.ActionRename,
		Value:       newName,
		MemberCount: record.MemberCount,
	}, nil
}

func validateMerge(row store.Row, record *ChannelRecord, snapshot *Snapshot, caller Caller, pol *policy.Policy) (*ValidatedAction, *Rejection) {
	reject := func(reason Reason, format string, args ...any) (*ValidatedAction, *Rejection) {
		return nil, &Rejection{ChannelID: row.ChannelID, ChannelName: record.Name,
			Kind: row.Action, Reason: reason, Detail: fmt.Sprintf(format, args...)}
	}

	if pol.Protected(record.Name, record.IsGeneral) {
		return reject(ReasonProtectedChannel, "#%s is protected", record.Name)
	}
	if record.IsArchived {
		return reject(ReasonAlreadyArchived, "#%s is already archived", record.Name)
	}
	if row.TargetValue == "" {
		return reject(ReasonMissingTarget, "merge needs the target channel name in target_value")
	}
	target := snapshot.ByName(row.TargetValue)
	if target == nil {
		return reject(ReasonTargetNotFound, "merge target #%s does not exist", row.TargetValue)
	}
	if target.IsArchived {
		return reject(ReasonTargetArchived, "merge target #%s is archived", target.Name)
	}
	if target.ID == record.ID {
		return reject(ReasonTargetIsSelf, "#%s cannot merge into itself", record.Name)
	}
	if !record.IsMember && !caller.Privileged {
		return reject(ReasonNotAMember, "caller is not a member of #%s", record.Name)
	}
	if !target.IsMember && !caller.Privileged {
		return reject(ReasonNotInTarget, "caller is not a member of target #%s", target.Name)
	}

	return &ValidatedAction{
		ChannelID:         row.ChannelID,
		ChannelName:       record.Name,
		Kind:              store.ActionMerge,
		TargetID:          target.ID,
		TargetName:        target.Name,
		MemberCount:       record.MemberCount,
		TargetMemberCount: target.MemberCount,
	}, nil
}

func validateUpdateDescription(row store.Row, record *ChannelRecord) (*ValidatedAction, *Rejection) {
	reject := func(reason Reason, format string, args ...any) (*ValidatedAction, *Rejection) {
		return nil, &Rejection{ChannelID: row.ChannelID, ChannelName: record.Name,
			Kind: row.Action, Reason: reason, Detail: fmt.Sprintf(format, args...)}
	}

	if record.IsArchived {
		return reject(ReasonChannelArchived, "#%s is archived", record.Name)
	}
	if row.TargetValue == "" {
		return reject(ReasonMissingTarget, "update_description needs the new text in target_value")
	}

	return &ValidatedAction{
		ChannelID:   row.ChannelID,
		ChannelName: record.Name,
		Kind:        store.ActionUpdateDescription,
		Value:       row.TargetValue,
		MemberCount: record.MemberCount,
	}, nil
}

// ValidateAll runs Validate over every row in store order, splitting
// executable actions from rejections. Store order is preserved so
// repeated runs prompt in the same sequence.
func ValidateAll(rows []store.Row, snapshot *Snapshot, caller Caller, pol *policy.Policy) ([]ValidatedAction, []Rejection) {
	var actions []ValidatedAction
	var rejections []Rejection
	for _, row := range rows {
		action, rejection := Validate(row, snapshot, caller, pol)
		if action != nil {
			actions = append(actions, *action)
		}
		if rejection != nil {
			rejections = append(rejections, *rejection)
		}
	}
	return actions, rejections
}
