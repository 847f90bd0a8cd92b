// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bureau-foundation/execpolicy/cmd/execpolicy/cli"
	"github.com/bureau-foundation/execpolicy/lib/session"
	"github.com/bureau-foundation/execpolicy/lib/trust"
)

func trustCommand() *cli.Command {
	return &cli.Command{
		Name:    "trust",
		Summary: "Inspect and edit the trust database",
		Description: `Inspect and edit the trust database.

System trust comes from the daemon's trust store (package manager
manifests). Ancillary trust is curated by administrators in the trust
file and trust.d. Edits only ever touch ancillary trust and are
recorded in the edit session; the daemon's files are not modified.`,
		Subcommands: []*cli.Command{
			trustListCommand(),
			trustShowCommand(),
			trustCheckCommand(),
			trustAddCommand(),
			trustRemoveCommand(),
		},
	}
}

// trustRow is the JSON form of a trust record. Size and Hash are the
// declared values; Observed is what the last disk sync found.
type trustRow struct {
	Path     string       `json:"path"`
	Size     uint64       `json:"size"`
	Hash     string       `json:"hash"`
	Origin   trust.Origin `json:"origin"`
	Status   trust.Status `json:"status"`
	Stored   int          `json:"stored"`
	InStore  bool         `json:"in_store"`
	Observed *observedRow `json:"observed,omitempty"`
}

type observedRow struct {
	Size     uint64    `json:"size"`
	Hash     string    `json:"hash,omitempty"`
	Modified time.Time `json:"modified"`
}

func rowFor(record trust.Record) trustRow {
	row := trustRow{
		Path:    record.Trust.Path,
		Size:    record.Trust.Size,
		Hash:    record.Trust.Hash,
		Origin:  record.Origin,
		Status:  record.Status(),
		Stored:  len(record.Stored),
		InStore: record.InStore(),
	}
	if record.Actual != nil {
		row.Observed = &observedRow{
			Size:     record.Actual.Size,
			Hash:     record.Actual.Hash,
			Modified: record.Actual.LastModified,
		}
	}
	return row
}

func rowsFor(records []trust.Record) []trustRow {
	rows := make([]trustRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, rowFor(record))
	}
	return rows
}

func storeMarker(record trust.Record) string {
	if record.InStore() {
		return "yes"
	}
	return "no"
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

func renderTrust(records []trust.Record) error {
	styles := cli.Stdout()
	table := cli.NewTable(styles, "STATUS", "ORIGIN", "STORE", "SIZE", "HASH", "PATH")
	for _, record := range records {
		table.Row(
			styles.Status(record.Status()),
			record.Origin.String(),
			storeMarker(record),
			strconv.FormatUint(record.Trust.Size, 10),
			shortHash(record.Trust.Hash),
			record.Trust.Path,
		)
	}
	return table.Render(os.Stdout)
}

type trustListParams struct {
	stateParams
	cli.JSONOutput
	Origin string `json:"origin" flag:"origin,o" desc:"only list system or ancillary trust"`
	Filter string `json:"filter" flag:"filter,f" desc:"only list paths containing this text"`
	Check  bool   `json:"check"  flag:"check"    desc:"compare every record with the file on disk"`
}

func trustListCommand() *cli.Command {
	var params trustListParams
	return &cli.Command{
		Name:    "list",
		Summary: "List trust records",
		Usage:   "execpolicy trust list [flags]",
		Params:  func() any { return &params },
		Examples: []cli.Example{
			{Description: "List administrator trust", Command: "execpolicy trust list --origin ancillary"},
			{Description: "Show the disk status of everything under /opt", Command: "execpolicy trust list --check --filter /opt/"},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			var origin trust.Origin
			if params.Origin != "" {
				parsed, err := trust.ParseOrigin(params.Origin)
				if err != nil {
					return err
				}
				origin = parsed
			}

			state, err := params.loadState(ctx, logger, params.Check)
			if err != nil {
				return err
			}

			var records []trust.Record
			for _, record := range state.Trust().Records() {
				if origin != 0 && record.Origin != origin {
					continue
				}
				if params.Filter != "" && !strings.Contains(record.Trust.Path, params.Filter) {
					continue
				}
				records = append(records, record)
			}

			if done, err := params.EmitJSON(rowsFor(records)); done {
				return err
			}
			return renderTrust(records)
		},
	}
}

type trustShowParams struct {
	stateParams
	cli.JSONOutput
}

// trustDetail is the JSON form of "trust show": the row plus the live
// store entries for the path.
type trustDetail struct {
	trustRow
	Entries []trust.Trust `json:"store_entries"`
}

func trustShowCommand() *cli.Command {
	var params trustShowParams
	return &cli.Command{
		Name:    "show",
		Summary: "Show declared and observed values for a path",
		Description: `Show every trust record for a path: the declared size and hash,
the matching entries of the daemon's trust store, and the size, hash
and modification time of the file on disk now.

A record marked "not in store" is declared (usually in the trust file
or trust.d) but the daemon's store has no identical entry yet.`,
		Usage:  "execpolicy trust show [flags] <path>",
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("exactly one path is required")
			}
			state, err := params.loadState(ctx, logger, true)
			if err != nil {
				return err
			}
			records := state.Trust().Lookup(args[0])
			if len(records) == 0 {
				return fmt.Errorf("%s is not trusted", args[0])
			}

			details := make([]trustDetail, 0, len(records))
			for _, record := range records {
				entries := record.Stored
				if entries == nil {
					entries = []trust.Trust{}
				}
				details = append(details, trustDetail{trustRow: rowFor(record), Entries: entries})
			}
			if done, err := params.EmitJSON(details); done {
				return err
			}
			for index, detail := range details {
				if index > 0 {
					fmt.Println()
				}
				printDetail(cli.Stdout(), detail)
			}
			return nil
		},
	}
}

func printDetail(styles *cli.Styles, detail trustDetail) {
	fmt.Printf("%s (%s)  %s\n", detail.Path, detail.Origin, styles.Status(detail.Status))
	fmt.Printf("  declared  %d %s\n", detail.Size, detail.Hash)
	if detail.InStore {
		fmt.Println("  store     in store")
	} else {
		fmt.Println("  store     not in store")
	}
	for _, entry := range detail.Entries {
		fmt.Printf("            %d %s\n", entry.Size, entry.Hash)
	}
	if detail.Observed == nil {
		fmt.Println("  observed  absent from disk")
		return
	}
	hash := detail.Observed.Hash
	if hash == "" {
		hash = "(size differs, not hashed)"
	}
	fmt.Printf("  observed  %d %s  modified %s\n",
		detail.Observed.Size, hash, detail.Observed.Modified.Format(time.RFC3339))
}

type trustCheckParams struct {
	stateParams
	cli.JSONOutput
}

// checkSummary is the result of "trust check".
type checkSummary struct {
	Counts     map[string]int `json:"counts"`
	Mismatched []trustRow     `json:"mismatched"`
}

func trustCheckCommand() *cli.Command {
	var params trustCheckParams
	return &cli.Command{
		Name:    "check",
		Summary: "Compare trusted files with the disk",
		Description: `Compare every trust record with the file on disk.

A record is trusted when the file's size and SHA-256 match, mismatched
when they differ, and unknown when the file does not exist. Exits 1
when any record is mismatched.`,
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			state, err := params.loadState(ctx, logger, true)
			if err != nil {
				return err
			}

			var mismatched []trust.Record
			for _, record := range state.Trust().Records() {
				if record.Status() == trust.StatusMismatched {
					mismatched = append(mismatched, record)
				}
			}
			summary := checkSummary{Counts: make(map[string]int), Mismatched: rowsFor(mismatched)}
			for status, count := range state.Trust().Counts() {
				summary.Counts[status.String()] = count
			}

			if done, err := params.EmitJSON(summary); !done {
				styles := cli.Stdout()
				if len(mismatched) > 0 {
					if err := renderTrust(mismatched); err != nil {
						return err
					}
					fmt.Println()
				}
				fmt.Printf("%s %d  %s %d  %s %d\n",
					styles.Status(trust.StatusTrusted), summary.Counts[trust.StatusTrusted.String()],
					styles.Status(trust.StatusMismatched), summary.Counts[trust.StatusMismatched.String()],
					styles.Status(trust.StatusUnknown), summary.Counts[trust.StatusUnknown.String()],
				)
			} else if err != nil {
				return err
			}

			if len(mismatched) > 0 {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}

type trustEditParams struct {
	sessionParams
	Note string `json:"note" flag:"note,m" desc:"annotation recorded with the change"`
}

func trustAddCommand() *cli.Command {
	var params trustEditParams
	return &cli.Command{
		Name:    "add",
		Summary: "Trust files as they are now",
		Description: `Add ancillary trust for each file, recording its current size and
SHA-256. Re-adding a trusted file updates the recorded values.`,
		Usage:  "execpolicy trust add [flags] <path>...",
		Params: func() any { return &params },
		Examples: []cli.Example{
			{Description: "Trust a locally built tool", Command: "execpolicy trust add /opt/tools/bin/build"},
			{Description: "Record the change in a named session", Command: "execpolicy trust add --session upgrade.json -m 'app 2.1' /opt/app/bin/*"},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) == 0 {
				return fmt.Errorf("at least one path is required")
			}
			changeset := trust.NewChangeset(trust.OriginAncillary)
			for _, path := range args {
				declaration, err := trust.FromFile(path)
				if err != nil {
					return err
				}
				changeset.Add(declaration)
			}
			if params.Note != "" {
				changeset.Note(params.Note)
			}
			return applyTrustEdit(ctx, &params, changeset, logger)
		},
	}
}

func trustRemoveCommand() *cli.Command {
	var params trustEditParams
	return &cli.Command{
		Name:    "remove",
		Summary: "Stop trusting files",
		Description: `Remove ancillary trust for each path. System trust is owned by the
package manager and cannot be removed here.`,
		Usage:  "execpolicy trust remove [flags] <path>...",
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) == 0 {
				return fmt.Errorf("at least one path is required")
			}
			changeset := trust.NewChangeset(trust.OriginAncillary)
			for _, path := range args {
				changeset.Remove(path)
			}
			if params.Note != "" {
				changeset.Note(params.Note)
			}
			return applyTrustEdit(ctx, &params, changeset, logger)
		},
	}
}

func applyTrustEdit(ctx context.Context, params *trustEditParams, changeset *trust.Changeset, logger *slog.Logger) error {
	state, err := params.loadState(ctx, logger, false)
	if err != nil {
		return err
	}
	editing, err := params.openSession(state, logger)
	if err != nil {
		return err
	}

	before := editing.Current().Trust()
	for path, kind := range changeset.Paths() {
		if kind == trust.OpRemove {
			if _, ok := before.Get(trust.OriginAncillary, path); !ok {
				logger.Warn("path has no ancillary trust", "path", path)
			}
		}
	}

	if err := editing.Apply(session.TrustChange(changeset)); err != nil {
		return err
	}
	if err := params.saveSession(editing); err != nil {
		return err
	}
	fmt.Printf("%d pending change(s), %d ancillary trust record(s)\n",
		len(editing.Pending()), len(editing.Current().AncillaryTrust()))
	return nil
}
