// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Execpolicy inspects and edits the policy of an fapolicyd-style
// execution control daemon: the trust database, the rules file, and
// the decision log.
//
// Edits never touch the daemon's files. They accumulate in an edit
// session (autosaved, or kept in an explicit --session file) and are
// turned into a deployable snapshot with "execpolicy session snapshot".
package main
