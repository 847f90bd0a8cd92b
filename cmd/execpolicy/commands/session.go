// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bureau-foundation/execpolicy/cmd/execpolicy/cli"
	"github.com/bureau-foundation/execpolicy/lib/session"
	"github.com/bureau-foundation/execpolicy/lib/trust"
)

func sessionCommand() *cli.Command {
	return &cli.Command{
		Name:    "session",
		Summary: "Review, save, and deploy pending changes",
		Description: `Review, save, and deploy the pending changes of the edit session.

Edit commands ("trust add", "rules append", ...) record their changes in
the edit session. Without --session that is the newest autosave in the
configured sessions directory; with --session it is the named file.`,
		Subcommands: []*cli.Command{
			sessionShowCommand(),
			sessionUndoCommand(),
			sessionSaveCommand(),
			sessionSnapshotCommand(),
			sessionAutosavesCommand(),
			sessionDiscardCommand(),
		},
	}
}

type sessionShowParams struct {
	sessionParams
	cli.JSONOutput
}

// changeRow is the JSON form of a pending change.
type changeRow struct {
	Kind   string   `json:"kind"`
	Origin string   `json:"origin,omitempty"`
	Ops    []string `json:"ops"`
}

func describeChange(change session.Change) changeRow {
	row := changeRow{Kind: change.Kind().String()}
	switch change.Kind() {
	case session.ChangeTrust:
		row.Origin = change.Trust.Origin().String()
		for _, op := range change.Trust.Ops() {
			switch op.Kind {
			case trust.OpAdd:
				row.Ops = append(row.Ops, "add "+op.Trust.Line())
			case trust.OpRemove:
				row.Ops = append(row.Ops, "remove "+op.Path)
			case trust.OpNote:
				row.Ops = append(row.Ops, "# "+op.Text)
			}
		}
	case session.ChangeRules:
		for _, op := range change.Rules.Ops() {
			text := op.Kind.String()
			if op.ID != 0 {
				text += " " + strconv.Itoa(op.ID)
			}
			if op.Text != "" {
				text += " " + op.Text
			}
			row.Ops = append(row.Ops, text)
		}
	}
	return row
}

func sessionShowCommand() *cli.Command {
	var params sessionShowParams
	return &cli.Command{
		Name:    "show",
		Summary: "List the pending changes",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			state, err := params.loadState(ctx, logger, false)
			if err != nil {
				return err
			}
			editing, err := params.openSession(state, logger)
			if err != nil {
				return err
			}

			rows := make([]changeRow, 0, len(editing.Pending()))
			for _, change := range editing.Pending() {
				rows = append(rows, describeChange(change))
			}
			if done, err := params.EmitJSON(rows); done {
				return err
			}
			if len(rows) == 0 {
				fmt.Println("no pending changes")
				return nil
			}

			styles := cli.Stdout()
			for index, row := range rows {
				header := fmt.Sprintf("%d. %s", index+1, row.Kind)
				if row.Origin != "" {
					header += " (" + row.Origin + ")"
				}
				fmt.Println(styles.Header.Render(header))
				for _, op := range row.Ops {
					fmt.Println("   " + op)
				}
			}

			stale := editing.Base().CheckStale()
			for _, path := range stale {
				logger.Warn("source changed since load", "path", path)
			}
			return nil
		},
	}
}

func sessionUndoCommand() *cli.Command {
	var params sessionParams
	return &cli.Command{
		Name:    "undo",
		Summary: "Drop the most recent pending change",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			state, err := params.loadState(ctx, logger, false)
			if err != nil {
				return err
			}
			editing, err := params.openSession(state, logger)
			if err != nil {
				return err
			}
			if !editing.Undo() {
				fmt.Println("nothing to undo")
				return nil
			}
			if err := params.saveSession(editing); err != nil {
				return err
			}
			fmt.Printf("%d pending change(s)\n", len(editing.Pending()))
			return nil
		},
	}
}

type sessionSaveParams struct {
	sessionParams
	Output string `json:"output" flag:"output,o" desc:"file to write (.json or .cbor)"`
}

func sessionSaveCommand() *cli.Command {
	var params sessionSaveParams
	return &cli.Command{
		Name:    "save",
		Summary: "Write the pending changes to a file",
		Usage:   "execpolicy session save --output <file>",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if params.Output == "" {
				return fmt.Errorf("--output is required")
			}
			state, err := params.loadState(ctx, logger, false)
			if err != nil {
				return err
			}
			editing, err := params.openSession(state, logger)
			if err != nil {
				return err
			}
			return editing.Save(params.Output)
		},
	}
}

type sessionSnapshotParams struct {
	sessionParams
	Output string `json:"output" flag:"output,o" desc:"snapshot file to write"`
}

func sessionSnapshotCommand() *cli.Command {
	var params sessionSnapshotParams
	return &cli.Command{
		Name:    "snapshot",
		Summary: "Write the edited policy as a deployable snapshot",
		Description: `Replay the pending changes onto the current policy and write the
result as a CBOR snapshot: the rules text, the ancillary trust
declarations, and fingerprints of the sources it was built from.
Refuses when a source changed since the session's base was loaded.`,
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if params.Output == "" {
				return fmt.Errorf("--output is required")
			}
			state, err := params.loadState(ctx, logger, false)
			if err != nil {
				return err
			}
			editing, err := params.openSession(state, logger)
			if err != nil {
				return err
			}
			if stale := editing.Base().CheckStale(); len(stale) > 0 {
				return fmt.Errorf("policy sources changed while building the snapshot: %v", stale)
			}
			return writeSnapshotFile(params.Output, editing.Current().WriteSnapshot)
		},
	}
}

func sessionAutosavesCommand() *cli.Command {
	var params stateParams
	return &cli.Command{
		Name:    "autosaves",
		Summary: "List autosaved sessions, newest first",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			cfg, err := params.loadConfig()
			if err != nil {
				return err
			}
			options := session.OptionsFromConfig(cfg)
			previous, err := session.DetectPrevious(options)
			if err != nil {
				return err
			}
			styles := cli.Stdout()
			table := cli.NewTable(styles, "FILE", "SAVED")
			for _, path := range previous {
				saved := "?"
				if when, ok := session.AutosaveTime(path, options); ok {
					saved = when.Local().Format(time.DateTime)
				}
				table.Row(filepath.Base(path), saved)
			}
			if table.Len() == 0 {
				logger.Info("no autosaved sessions", "dir", cfg.Paths.Sessions)
				return nil
			}
			return table.Render(os.Stdout)
		},
	}
}

func sessionDiscardCommand() *cli.Command {
	var params stateParams
	return &cli.Command{
		Name:    "discard",
		Summary: "Delete every autosaved session",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			cfg, err := params.loadConfig()
			if err != nil {
				return err
			}
			if err := session.CleanupAutosaves(session.OptionsFromConfig(cfg)); err != nil {
				return err
			}
			logger.Info("autosaves discarded", "dir", cfg.Paths.Sessions)
			return nil
		},
	}
}

// writeSnapshotFile writes through a temporary file renamed into place.
func writeSnapshotFile(path string, write func(io.Writer) error) error {
	temporary, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("creating snapshot: %w", err)
	}
	defer os.Remove(temporary.Name())

	if err := write(temporary); err != nil {
		temporary.Close()
		return err
	}
	if err := temporary.Close(); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(temporary.Name(), path); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}
