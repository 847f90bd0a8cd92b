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

	"github.com/bureau-foundation/execpolicy/cmd/execpolicy/cli"
	"github.com/bureau-foundation/execpolicy/lib/analysis"
	"github.com/bureau-foundation/execpolicy/lib/app"
	"github.com/bureau-foundation/execpolicy/lib/events"
	"github.com/bureau-foundation/execpolicy/lib/rules"
)

func eventsCommand() *cli.Command {
	return &cli.Command{
		Name:    "events",
		Summary: "Analyze the daemon's decision log",
		Description: `Analyze the daemon's decision log against the current policy.

Each event is joined with the rule that decided it, the trust records of
its subject and object, and the names of its user and groups. Compressed
log rotations (.zst, .gz, .lz4) are read transparently.`,
		Subcommands: []*cli.Command{
			eventsListCommand(),
			eventsSubjectsCommand(),
		},
	}
}

type eventsParams struct {
	stateParams
	cli.JSONOutput
	Log    string `json:"log"    flag:"log,l"  desc:"decision log to read (default: the configured event log)"`
	Policy string `json:"policy" flag:"policy" desc:"unparseable lines: strict (abort) or skip (default: from config)"`
}

// readFindings loads the state and correlates the log with it.
func (params *eventsParams) readFindings(ctx context.Context, logger *slog.Logger) (*events.Log, []analysis.Finding, error) {
	if params.Policy != "" {
		if _, err := events.ParseLinePolicy(params.Policy); err != nil {
			return nil, nil, err
		}
	}
	state, err := params.loadState(ctx, logger, true)
	if err != nil {
		return nil, nil, err
	}
	log, findings, err := state.Events(app.EventsQuery{Path: params.Log, Policy: params.Policy})
	if err != nil {
		return nil, nil, err
	}
	if len(log.Skipped) > 0 {
		logger.Warn("skipped unparseable log lines", "count", len(log.Skipped))
	}
	return log, findings, nil
}

type eventsListParams struct {
	eventsParams
	User    int    `json:"user"    flag:"user,u"    desc:"only events of this uid" default:"-1"`
	Group   int    `json:"group"   flag:"group,g"   desc:"only events carrying this gid" default:"-1"`
	Subject string `json:"subject" flag:"subject"   desc:"only events of this executable"`
	Denied  bool   `json:"denied"  flag:"denied,d"  desc:"only denials"`
}

// perspectives returns the filters selected by the flags.
func (params *eventsListParams) perspectives() []events.Perspective {
	var selected []events.Perspective
	if params.User >= 0 {
		selected = append(selected, events.ByUser(params.User))
	}
	if params.Group >= 0 {
		selected = append(selected, events.ByGroup(params.Group))
	}
	if params.Subject != "" {
		selected = append(selected, events.BySubject(params.Subject))
	}
	return selected
}

// findingRow is the JSON form of a finding.
type findingRow struct {
	Event         *events.Event `json:"event"`
	User          string        `json:"user,omitempty"`
	Groups        []string      `json:"groups,omitempty"`
	Rule          string        `json:"rule,omitempty"`
	RuleDrift     bool          `json:"rule_drift"`
	SubjectStatus string        `json:"subject_status"`
	ObjectStatus  string        `json:"object_status"`
}

func eventsListCommand() *cli.Command {
	var params eventsListParams
	return &cli.Command{
		Name:    "list",
		Summary: "List decisions with their policy context",
		Params:  func() any { return &params },
		Examples: []cli.Example{
			{Description: "Denials for one user", Command: "execpolicy events list --denied --user 1000"},
			{Description: "Everything a program did, from a rotated log", Command: "execpolicy events list --subject /usr/bin/python3 --log /var/log/fapolicyd-access.log.1.zst"},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			log, findings, err := params.readFindings(ctx, logger)
			if err != nil {
				return err
			}
			perspectives := params.perspectives()

			var selected []analysis.Finding
		next:
			for _, finding := range findings {
				if params.Denied && !finding.Event.Decision.Denies() {
					continue
				}
				for _, perspective := range perspectives {
					if !perspective.Fit(finding.Event) {
						continue next
					}
				}
				selected = append(selected, finding)
			}
			logger.Debug("events filtered", "read", len(log.Events), "selected", len(selected))

			rows := make([]findingRow, 0, len(selected))
			for _, finding := range selected {
				row := findingRow{
					Event:         finding.Event,
					User:          finding.User,
					Groups:        finding.Groups,
					RuleDrift:     finding.RuleDrift(),
					SubjectStatus: finding.SubjectStatus().String(),
					ObjectStatus:  finding.ObjectStatus().String(),
				}
				if finding.Rule != nil {
					row.Rule = finding.Rule.Source
				}
				rows = append(rows, row)
			}
			if done, err := params.EmitJSON(rows); done {
				return err
			}

			styles := cli.Stdout()
			table := cli.NewTable(styles, "RULE", "DECISION", "PERM", "USER", "SUBJECT", "OBJECT", "EVENT")
			for _, finding := range selected {
				event := finding.Event
				rule := strconv.Itoa(event.RuleID)
				if finding.RuleDrift() {
					rule = styles.Warn.Render(rule + "*")
				}
				user := finding.User
				if user == "" {
					user = strconv.Itoa(event.UID)
				}
				table.Row(
					rule,
					styles.Decision(event.Decision),
					event.Permission.String(),
					user,
					styles.Status(finding.SubjectStatus()),
					styles.Status(finding.ObjectStatus()),
					event.Exe()+" : "+event.Object.String(),
				)
			}
			if err := table.Render(os.Stdout); err != nil {
				return err
			}

			tally := analysis.Tally(log.Events)
			var parts []string
			for _, decision := range rules.Decisions() {
				if count := tally[decision]; count > 0 {
					parts = append(parts, fmt.Sprintf("%s=%d", decision, count))
				}
			}
			fmt.Printf("\n%d of %d event(s)  %s\n", len(selected), len(log.Events), strings.Join(parts, " "))
			return nil
		},
	}
}

func eventsSubjectsCommand() *cli.Command {
	var params eventsParams
	return &cli.Command{
		Name:    "subjects",
		Summary: "List or fuzzy-search the programs in the log",
		Usage:   "execpolicy events subjects [flags] [query]",
		Params:  func() any { return &params },
		Examples: []cli.Example{
			{Description: "Find python interpreters", Command: "execpolicy events subjects pyth"},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			log, _, err := params.readFindings(ctx, logger)
			if err != nil {
				return err
			}
			matches := analysis.SearchSubjects(analysis.Subjects(log.Events), strings.Join(args, " "))
			if done, err := params.EmitJSON(matches); done {
				return err
			}

			styles := cli.Stdout()
			for _, match := range matches {
				fmt.Println(highlight(match, styles))
			}
			return nil
		},
	}
}

// highlight renders a subject with its matched characters emphasized.
func highlight(match analysis.Match, styles *cli.Styles) string {
	if len(match.Positions) == 0 {
		return match.Subject
	}
	matched := make(map[int]bool, len(match.Positions))
	for _, position := range match.Positions {
		matched[position] = true
	}
	var builder strings.Builder
	for index, r := range []rune(match.Subject) {
		if matched[index] {
			builder.WriteString(styles.Good.Render(string(r)))
		} else {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}
