// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewCommandLogger creates a structured logger for CLI command operations.
// When stderr is a terminal, uses slog.TextHandler for human-readable output.
// When stderr is piped or redirected (CI, scripts, cron), uses
// slog.JSONHandler for machine-parseable output.
func NewCommandLogger(level slog.Level) *slog.Logger {
	var handler slog.Handler
	options := &slog.HandlerOptions{Level: level}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}

// Verbosity is an embeddable struct adding --verbose to a params
// struct. It satisfies [LevelSetter].
type Verbosity struct {
	Verbose bool `json:"-" flag:"verbose,v" desc:"log at debug level"`
}

// LogLevel returns debug when --verbose is set, info otherwise.
func (v *Verbosity) LogLevel() slog.Level {
	if v.Verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
