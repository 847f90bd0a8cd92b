// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package rules models the enforcement daemon's rule file: the rule
// grammar, a parsed rule database, a linter, and text changesets.
//
// A rule line has the shape
//
//	<decision> [perm=<permission>] <subject parts> : <object parts>
//
// for example "deny_audit perm=execute all : trust=0". Parts are
// either key=value attributes or the bare keyword "all". The daemon
// evaluates rules in file order and the first match wins, so this
// package never reorders rules.
//
// Loading is tolerant: a line that fails to parse is kept in the
// database as an Invalid [Def] carrying its verbatim text and a
// reason, so one bad line never blocks the rest of the file and
// write-back reproduces the file exactly. Blank lines and "#" comments
// are preserved in [DB.Text] but are not rules. Lines of the form
// "%name=a,b,c" define named sets that attribute values reference as
// "%name".
//
// Rule identity is the 1-based ordinal of the rule among rule lines,
// which is the number the daemon reports as "rule=N" in its audit
// log. [DB.ByLine] addresses the same entries by source line.
//
// Key exports:
//
//   - [ParseRule] and the [Decision], [Permission], [Subject], [Object] types
//   - [Read] and [Load] -- build a [DB] from rule file text
//   - [Lint] -- run the ordered check list, attaching at most one warning per rule
//   - [Changeset] -- ordered text edits applied functionally to a [DB]
//
// This package depends on no other execpolicy packages.
package rules
