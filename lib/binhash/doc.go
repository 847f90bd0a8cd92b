// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package binhash provides content hashing for files.
//
// SHA256 is the digest the trust database speaks: trust entries record
// the lowercase hex SHA256 of the trusted file, and disk sync compares
// against it.
//
//   - [HashFile] streams a file through SHA256
//   - [HashReader] hashes a stream and counts its bytes
//   - [FormatDigest] and [ParseDigest] convert to and from hex
//
// BLAKE3 keyed digests ([Fingerprint]) identify the contents of
// configuration sources so a loaded state can tell when the rules file,
// trust file or trust store changed underneath it.
package binhash
