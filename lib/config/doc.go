// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for execpolicy.
//
// Configuration is loaded from a single file named by either the
// EXECPOLICY_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). There is no automatic file search. Without a
// file, commands use [Resolved], the stock fapolicyd layout.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${EXECPOLICY_ROOT}, and ${VAR:-default} patterns are
// expanded. No environment variable overrides a config value.
//
// Key exports:
//
//   - [Config] -- master struct with Paths, Daemon, Events, Session
//   - [Default] -- the stock fapolicyd paths and session settings
//   - [Load] and [LoadFile] -- the two entry points for loading
//   - [Config.Validate] -- reports every problem at once
//
// This package depends on no other execpolicy packages.
package config
