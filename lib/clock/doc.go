// Copyright 2026 The Chanops Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// The activity cache decides staleness by comparing Now against a
// fetch timestamp, and the execution engine sleeps between actions
// and during rate-limit retries. Both take a Clock so tests can drive
// time deterministically with Fake instead of sleeping for real.
package clock
