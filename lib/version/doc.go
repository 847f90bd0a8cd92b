// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports execpolicy's build version and the version
// of the policy daemon it manages.
//
// # Build information
//
// Four package-level variables are injected at build time via
// -ldflags -X:
//
//	go build -ldflags "-X github.com/bureau-foundation/execpolicy/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// [Current] gathers them, with the go tool's VCS stamp filling any
// left unset, into a [Build] for --version output.
//
// # Daemon version
//
// [DetectDaemon] asks the daemon binary for its version and
// [ParseDaemon] extracts a [Daemon] from free text. Detection failure
// is not fatal to callers: a zero Daemon reads as "unknown".
package version
