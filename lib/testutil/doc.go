// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for execpolicy
// packages.
//
// [WriteFile] lays down one file of a fixture policy tree, creating
// parent directories as needed. [SHA256Hex] computes the digest a
// trust entry must carry for fixture content to be reported trusted.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no execpolicy-internal dependencies.
package testutil
