// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package session tracks an interactive edit of the policy state.
//
// A [Session] starts from a loaded [app.State] and records every
// [Change] (a trust or rules changeset) applied to it. Each change
// produces a new State; the session keeps them all so [Session.Undo]
// and [Session.Redo] are pointer moves. Applying a change after an
// undo discards the redo history.
//
// The pending changes can be saved to a session file and replayed
// onto a freshly loaded State with [Open]. Session files are JSON
// (read tolerantly: comments and trailing commas are accepted) unless
// the name ends in ".cbor":
//
//	{"changes": [
//	  {"kind": "trust", "origin": "ancillary", "ops": [{"kind": "add", "trust": {...}}]},
//	  {"kind": "rules", "ops": [{"kind": "append", "text": "allow perm=any all : all"}]}
//	]}
//
// With autosave enabled the session writes its pending changes to
// "<basename>_<timestamp>.json" in the autosave directory after every
// edit and keeps the newest few. [DetectPrevious] and
// [RestorePrevious] recover from a session that ended without saving.
package session
