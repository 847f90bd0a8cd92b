// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock supplies the current time. Production code uses [Real]; tests
// use [Fake] so timestamps in file names and snapshots are fixed.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// StampLayout formats instants for file names. It is always UTC and
// sorts lexically in time order.
const StampLayout = "20060102T150405.000000000Z"

// Stamp returns the clock's current time formatted with [StampLayout].
func Stamp(c Clock) string {
	return c.Now().UTC().Format(StampLayout)
}

// ParseStamp parses text produced by [Stamp].
func ParseStamp(text string) (time.Time, error) {
	return time.Parse(StampLayout, text)
}
