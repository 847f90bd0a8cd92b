// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts the current time so that code stamping files
// (session autosaves, snapshots) can be tested deterministically.
//
// Inject a [Clock] instead of calling time.Now, and name files with
// [Stamp] so their names sort in time order:
//
//	name := base + "_" + clock.Stamp(options.Clock) + ".json"
//
// [Real] reads the system time. [Fake] starts at a fixed instant and
// moves only through [FakeClock.Advance] and [FakeClock.Set].
package clock
