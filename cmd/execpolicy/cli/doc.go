// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for execpolicy.
//
// The central type is [Command], which represents a named subcommand with
// optional nested [Command.Subcommands], a parameter struct whose tagged
// fields become pflag flags (see [BindFlags]), and a Run function.
// Commands are assembled into a tree in cmd/execpolicy/commands and
// dispatched via [Command.Execute], which handles flag parsing,
// subcommand routing, and structured help output with examples.
//
// When a user types an unknown subcommand or flag, the framework computes
// Levenshtein edit distance against all known names and suggests the
// closest match (threshold: distance <= 3).
//
// Output helpers:
//
//   - [JSONOutput] adds --json to a params struct.
//   - [Styles] colors statuses and decisions through a lipgloss
//     renderer bound to the output stream; color is dropped when the
//     stream is not a terminal or NO_COLOR is set.
//   - [Table] aligns styled columns and truncates the last one to the
//     terminal width.
//   - [ExitError] exits non-zero without an extra error line.
package cli
