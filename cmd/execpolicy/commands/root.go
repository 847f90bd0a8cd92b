// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the execpolicy command tree.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/execpolicy/cmd/execpolicy/cli"
	"github.com/bureau-foundation/execpolicy/lib/version"
)

// Root builds and returns the complete execpolicy command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "execpolicy",
		Description: `execpolicy: inspect and edit execution control policy.

Reads the daemon's trust store, trust file, trust.d and rules file,
checks trusted files against the disk, correlates the decision log with
the policy, and records edits in an undoable session.`,
		Subcommands: []*cli.Command{
			trustCommand(),
			rulesCommand(),
			eventsCommand(),
			sessionCommand(),
			snapshotCommand(),
			storeCommand(),
			versionCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Find trusted files that changed on disk",
				Command:     "execpolicy trust check",
			},
			{
				Description: "Lint the rules file",
				Command:     "execpolicy rules lint --problems",
			},
			{
				Description: "Show recent denials",
				Command:     "execpolicy events list --denied",
			},
			{
				Description: "Trust a tool, review, and build a deployable snapshot",
				Command:     "execpolicy trust add /opt/tool && execpolicy session show && execpolicy session snapshot -o policy.cbor",
			},
		},
	}
}

// versionReport is the JSON form of "execpolicy version".
type versionReport struct {
	Build  version.Build  `json:"build"`
	Daemon version.Daemon `json:"daemon"`
}

func versionCommand() *cli.Command {
	var params struct {
		stateParams
		cli.JSONOutput
	}
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			cfg, err := params.loadConfig()
			if err != nil {
				return err
			}
			daemon := version.Daemon{}
			if cfg.Daemon.Version != "" {
				daemon, err = version.ParseDaemon(cfg.Daemon.Version)
			} else if binary, lookupErr := cfg.DaemonPath(); lookupErr == nil {
				daemon, err = version.DetectDaemon(ctx, binary)
			}
			if err != nil {
				logger.Debug("daemon version unavailable", "error", err)
			}

			report := versionReport{Build: version.Current(), Daemon: daemon}
			if done, err := params.EmitJSON(report); done {
				return err
			}
			fmt.Printf("execpolicy %s\n", report.Build.Full())
			fmt.Printf("daemon %s\n", daemon)
			return nil
		},
	}
}
