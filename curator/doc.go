// Copyright 2026 The Chanops Authors
// SPDX-License-Identifier: Apache-2.0

// Package curator is the reconciliation and execution engine.
//
// A run moves through five stages: snapshot the live channel set
// (FetchSnapshot), merge it with the declarative store and activity
// cache (Reconcile), check each requested action against the rule set
// (Validate), apply approved actions in batches (Engine.Execute), and
// fold the outcomes back into the store (ApplyResults).
//
// Three guarantees hold throughout. Nothing destructive happens
// without explicit approval: the validator only emits actions that
// passed every rule, and the engine offers each batch to an approver
// before touching the API. Failures stay isolated: one channel's
// error or rate-limit wait never disturbs another channel's action.
// Runs converge: a succeeded action resets its row to "keep", so
// repeating a run does not repeat the change.
package curator
