// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is the CBOR encoding used for execpolicy's binary
// files: saved edit sessions and deploy snapshots.
//
// Encoding uses Core Deterministic Encoding, so a snapshot of the same
// state is byte-identical every time and can be compared or hashed
// directly. Types implementing encoding.TextMarshaler encode as CBOR
// text, which keeps enumerations readable in diagnostic dumps.
//
// Files are written as documents: the value behind the self-described
// CBOR tag. [IsDocument] lets readers accept either a document or JSON
// from the same path.
//
// Struct tags: the library reads `cbor` tags first and falls back to
// `json`, so one set of json tags serves both session formats.
package codec
