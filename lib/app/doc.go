// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package app composes the loaded policy state: the trust database, the
// rules database, the host's users and groups, and the daemon version,
// together with the configuration that produced them.
//
// A [State] is immutable. [State.ApplyTrustChanges] and
// [State.ApplyRuleChanges] return a new State that shares every facet
// the change did not touch; the receiver stays valid, which is what
// lets an edit session keep a history of States for undo and redo.
//
// [Load] reads declared state only. [LoadChecked] additionally syncs
// the trust database against the disk so each record carries a status.
// Load failures are [*LoadError] values naming the subsystem that
// failed; no partial State is returned.
//
// At load time every source file is fingerprinted (BLAKE3, see
// lib/binhash). [State.CheckStale] compares those fingerprints with
// the files on disk to tell whether someone changed the policy since.
// [State.WriteSnapshot] emits the deployable parts of the state as
// deterministic CBOR for the deploy step.
package app
