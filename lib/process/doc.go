// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides the binary entrypoint helper for execpolicy
// commands. [Exit] is the one place outside the CLI package that
// writes raw text to stderr: it runs after the command logger is gone
// and before the process ends.
package process
