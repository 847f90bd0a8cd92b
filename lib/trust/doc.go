// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package trust maintains the trust database: content-addressed
// assertions that a file at a path with a given size and SHA256 hash is
// known-good.
//
// Every record has an [Origin]. System trust is derived from the
// package manager's file manifests and lives in the daemon's live
// trust store. Ancillary trust is curated by administrators in the
// trust file and the trust.d directory. The same path may be trusted
// under both origins; the [DB] keeps both records and
// [DB.SystemTrust] and [DB.AncillaryTrust] are disjoint views.
//
// Declared and observed state are kept apart. [Load] reads what the
// sources declare (and what the live store holds for each path) but
// never touches the files being trusted. [DiskSync] stats and hashes
// those files and returns a copy of the database with each record's
// [Actual] filled in, from which [Record.Status] derives Trusted,
// Mismatched, or Unknown.
//
// Edits are expressed as a [Changeset] bound to one origin at
// construction. [DB.Apply] applies it only to records of that origin
// and splices the result back beside the untouched records of the
// other origin, so an ancillary edit can never overwrite system trust
// for the same path.
//
// The live store is abstracted as [Store] (get, put, iterate over
// path keyed entries, duplicates allowed). [SQLiteStore] implements it
// on lib/sqlitepool. fapolicyd itself keeps that store in LMDB; this
// package has no LMDB reader, so the daemon's entries must first be
// copied into a SQLiteStore, for instance by seeding one from a
// manifest with "execpolicy store seed". Any other backend only needs
// to satisfy [Store].
package trust
