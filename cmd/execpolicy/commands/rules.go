// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/bureau-foundation/execpolicy/cmd/execpolicy/cli"
	"github.com/bureau-foundation/execpolicy/lib/rules"
	"github.com/bureau-foundation/execpolicy/lib/session"
)

func rulesCommand() *cli.Command {
	return &cli.Command{
		Name:    "rules",
		Summary: "Lint and edit the rules file",
		Subcommands: []*cli.Command{
			rulesLintCommand(),
			rulesAppendCommand(),
			rulesReplaceCommand(),
			rulesRemoveCommand(),
		},
	}
}

type rulesLintParams struct {
	stateParams
	cli.JSONOutput
	File     string `json:"file"     flag:"file,f"   desc:"rules file to lint (default: the configured rules file)"`
	Problems bool   `json:"problems" flag:"problems" desc:"only show rules with warnings or errors"`
}

// lintRow is the JSON form of a linted rule entry.
type lintRow struct {
	ID      int    `json:"id"`
	Line    int    `json:"line"`
	Kind    string `json:"kind"`
	Text    string `json:"text"`
	Message string `json:"message,omitempty"`
}

func rulesLintCommand() *cli.Command {
	var params rulesLintParams
	return &cli.Command{
		Name:    "lint",
		Summary: "Check the rules file for mistakes",
		Description: `Parse the rules file and run the linter over every rule.

Rules that do not parse are reported as invalid; rules that parse but
cannot have the intended effect (unreachable after a catch-all,
duplicates, undefined sets, relative paths) carry a warning. Exits 1
when any rule is invalid.`,
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			path := params.File
			if path == "" {
				cfg, err := params.loadConfig()
				if err != nil {
					return err
				}
				path = cfg.Paths.RulesFile
			}
			db, err := rules.Load(path)
			if err != nil {
				return err
			}
			logger.Debug("rules loaded", "path", path, "rules", db.Len())

			var rows []lintRow
			for entry := range db.All() {
				kind := entry.Def.Kind()
				if params.Problems && kind == rules.KindValid {
					continue
				}
				rows = append(rows, lintRow{
					ID:      entry.ID,
					Line:    entry.Line,
					Kind:    kind.String(),
					Text:    entry.Source,
					Message: entry.Def.Message(),
				})
			}

			if done, err := params.EmitJSON(rows); !done {
				styles := cli.Stdout()
				table := cli.NewTable(styles, "ID", "LINE", "KIND", "RULE")
				for entry := range db.All() {
					kind := entry.Def.Kind()
					if params.Problems && kind == rules.KindValid {
						continue
					}
					text := entry.Source
					if message := entry.Def.Message(); message != "" {
						text += styles.Faint.Render("  # " + message)
					}
					table.Row(strconv.Itoa(entry.ID), strconv.Itoa(entry.Line), styles.Kind(kind), text)
				}
				if err := table.Render(os.Stdout); err != nil {
					return err
				}
			} else if err != nil {
				return err
			}

			if db.Counts()[rules.KindInvalid] > 0 {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}

type rulesEditParams struct {
	sessionParams
	Note string `json:"note" flag:"note,m" desc:"annotation recorded with the change"`
}

func rulesAppendCommand() *cli.Command {
	var params rulesEditParams
	return &cli.Command{
		Name:    "append",
		Summary: "Add a rule at the end of the rules file",
		Usage:   "execpolicy rules append [flags] <rule>",
		Params:  func() any { return &params },
		Examples: []cli.Example{
			{Command: "execpolicy rules append 'allow perm=execute exe=/usr/bin/make : trust=1'"},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("exactly one rule is required (quote it)")
			}
			changeset := rules.NewChangeset()
			changeset.Append(args[0])
			return applyRuleEdit(ctx, &params, changeset, logger)
		},
	}
}

func rulesReplaceCommand() *cli.Command {
	var params rulesEditParams
	return &cli.Command{
		Name:    "replace",
		Summary: "Replace a rule by id",
		Usage:   "execpolicy rules replace [flags] <id> <rule>",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 2 {
				return fmt.Errorf("usage: execpolicy rules replace <id> <rule>")
			}
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("rule id %q: %w", args[0], err)
			}
			changeset := rules.NewChangeset()
			changeset.Replace(id, args[1])
			return applyRuleEdit(ctx, &params, changeset, logger)
		},
	}
}

func rulesRemoveCommand() *cli.Command {
	var params rulesEditParams
	return &cli.Command{
		Name:    "remove",
		Summary: "Remove rules by id",
		Usage:   "execpolicy rules remove [flags] <id>...",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) == 0 {
				return fmt.Errorf("at least one rule id is required")
			}
			ids := make([]int, 0, len(args))
			for _, arg := range args {
				id, err := strconv.Atoi(arg)
				if err != nil {
					return fmt.Errorf("rule id %q: %w", arg, err)
				}
				ids = append(ids, id)
			}
			// Ids shift as rules are removed; remove the highest first.
			changeset := rules.NewChangeset()
			for _, id := range sortedDescending(ids) {
				changeset.Remove(id)
			}
			return applyRuleEdit(ctx, &params, changeset, logger)
		},
	}
}

func applyRuleEdit(ctx context.Context, params *rulesEditParams, changeset *rules.Changeset, logger *slog.Logger) error {
	if params.Note != "" {
		changeset.Note(params.Note)
	}
	state, err := params.loadState(ctx, logger, false)
	if err != nil {
		return err
	}
	editing, err := params.openSession(state, logger)
	if err != nil {
		return err
	}
	if err := editing.Apply(session.RuleChange(changeset)); err != nil {
		return err
	}
	if err := params.saveSession(editing); err != nil {
		return err
	}

	current := editing.Current().Rules()
	counts := current.Counts()
	fmt.Printf("%d pending change(s), %d rule(s)", len(editing.Pending()), current.Len())
	if counts[rules.KindInvalid] > 0 {
		fmt.Printf(", %d invalid", counts[rules.KindInvalid])
	}
	fmt.Println()
	return nil
}
