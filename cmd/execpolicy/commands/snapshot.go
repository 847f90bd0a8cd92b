// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/bureau-foundation/execpolicy/cmd/execpolicy/cli"
	"github.com/bureau-foundation/execpolicy/lib/app"
)

func snapshotCommand() *cli.Command {
	return &cli.Command{
		Name:    "snapshot",
		Summary: "Write and verify policy snapshots",
		Subcommands: []*cli.Command{
			snapshotWriteCommand(),
			snapshotShowCommand(),
			snapshotVerifyCommand(),
		},
	}
}

type snapshotWriteParams struct {
	stateParams
	Output string `json:"output" flag:"output,o" desc:"snapshot file to write"`
}

func snapshotWriteCommand() *cli.Command {
	var params snapshotWriteParams
	return &cli.Command{
		Name:    "write",
		Summary: "Snapshot the policy as loaded from disk",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if params.Output == "" {
				return fmt.Errorf("--output is required")
			}
			state, err := params.loadState(ctx, logger, false)
			if err != nil {
				return err
			}
			return writeSnapshotFile(params.Output, state.WriteSnapshot)
		},
	}
}

func readSnapshotFile(path string) (app.Snapshot, error) {
	file, err := os.Open(path)
	if err != nil {
		return app.Snapshot{}, fmt.Errorf("opening snapshot: %w", err)
	}
	defer file.Close()
	return app.ReadSnapshot(file)
}

type snapshotShowParams struct {
	cli.JSONOutput
	Section string `json:"section" flag:"section" desc:"print only rules or trust, in file form"`
}

func snapshotShowCommand() *cli.Command {
	var params snapshotShowParams
	return &cli.Command{
		Name:    "show",
		Summary: "Print the contents of a snapshot",
		Usage:   "execpolicy snapshot show [flags] <file>",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("exactly one snapshot file is required")
			}
			snapshot, err := readSnapshotFile(args[0])
			if err != nil {
				return err
			}
			if done, err := params.EmitJSON(snapshot); done {
				return err
			}

			switch params.Section {
			case "rules":
				fmt.Print(snapshot.Rules)
			case "trust":
				fmt.Print(snapshot.TrustFile())
			case "":
				styles := cli.Stdout()
				fmt.Printf("%s %s\n", styles.Header.Render("daemon:"), snapshot.DaemonVersion)
				fmt.Println(styles.Header.Render("rules:"))
				fmt.Print(snapshot.Rules)
				fmt.Println(styles.Header.Render("trust:"))
				fmt.Print(snapshot.TrustFile())
			default:
				return fmt.Errorf("unknown section %q (want rules or trust)", params.Section)
			}
			return nil
		},
	}
}

func snapshotVerifyCommand() *cli.Command {
	var params cli.Verbosity
	return &cli.Command{
		Name:    "verify",
		Summary: "Check whether the sources of a snapshot changed",
		Description: `Compare the source fingerprints recorded in a snapshot with the files
on disk. Exits 1 and lists the changed files when any differ.`,
		Usage:  "execpolicy snapshot verify <file>",
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("exactly one snapshot file is required")
			}
			snapshot, err := readSnapshotFile(args[0])
			if err != nil {
				return err
			}
			changed := snapshot.Changed()
			if len(changed) == 0 {
				logger.Info("snapshot sources unchanged", "sources", len(snapshot.Fingerprints))
				return nil
			}
			for _, path := range changed {
				fmt.Println(path)
			}
			return &cli.ExitError{Code: 1}
		},
	}
}
