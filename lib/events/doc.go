// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package events parses the daemon's decision log into structured
// [Event] records and filters them by actor.
//
// One log line is one decision:
//
//	rule=3 dec=deny perm=execute uid=1000 gid=1000 pid=4521 exe=/usr/bin/foo : path=/tmp/bar
//
// [ParseLine] turns a line into an Event and [Event.String] renders it
// back in the same shape. [FromFile] reads a whole log, including
// rotated logs compressed with zstd, gzip or lz4 (detected by magic
// bytes). What happens on an unparseable line is chosen explicitly by
// [LinePolicy]: [Strict] aborts with a [*LineError] naming the line,
// [Skip] logs it and carries on.
//
// A [Perspective] selects events by user, group or subject program.
// [Perspective.Filter] yields pointers into the caller's slice, so a
// filtered view never copies events.
//
// Events are read-only: nothing in this package writes the daemon's
// log.
package events
