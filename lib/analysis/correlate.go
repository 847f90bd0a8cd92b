// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package analysis

import (
	"slices"

	"github.com/bureau-foundation/execpolicy/lib/events"
	"github.com/bureau-foundation/execpolicy/lib/rules"
	"github.com/bureau-foundation/execpolicy/lib/trust"
	"github.com/bureau-foundation/execpolicy/lib/users"
)

// Context is the state events are correlated against.
type Context struct {
	Rules  rules.DB
	Trust  trust.DB
	Users  users.Users
	Groups users.Groups
}

// Finding is one event joined with the state.
type Finding struct {
	Event *events.Event

	// Rule is the entry the event names, nil when the rule id is not
	// in the database (the log predates a rules change).
	Rule *rules.Entry

	SubjectTrust []trust.Record
	ObjectTrust  []trust.Record

	// User is the account name for the event uid, empty if unknown.
	User string

	// Groups holds the names of the event's known groups.
	Groups []string
}

// RuleDrift reports whether the rule the event names no longer exists
// or now carries a different decision than the one logged.
func (finding Finding) RuleDrift() bool {
	if finding.Rule == nil {
		return true
	}
	rule, ok := finding.Rule.Def.Rule()
	return !ok || rule.Decision != finding.Event.Decision
}

// SubjectStatus is the best status among the subject's trust records.
func (finding Finding) SubjectStatus() trust.Status {
	return bestStatus(finding.SubjectTrust)
}

// ObjectStatus is the best status among the object's trust records.
func (finding Finding) ObjectStatus() trust.Status {
	return bestStatus(finding.ObjectTrust)
}

func bestStatus(records []trust.Record) trust.Status {
	best := trust.StatusUnknown
	for _, record := range records {
		switch record.Status() {
		case trust.StatusTrusted:
			return trust.StatusTrusted
		case trust.StatusMismatched:
			best = trust.StatusMismatched
		}
	}
	return best
}

// Correlate joins every event with state. Findings point into
// eventList and are in the same order.
func Correlate(eventList []events.Event, state Context) []Finding {
	findings := make([]Finding, len(eventList))
	for index := range eventList {
		event := &eventList[index]
		finding := Finding{Event: event}

		if entry, ok := state.Rules.ByID(event.RuleID); ok {
			finding.Rule = &entry
		}
		if exe := event.Exe(); exe != "" {
			finding.SubjectTrust = state.Trust.Lookup(exe)
		}
		if path := event.Path(); path != "" {
			finding.ObjectTrust = state.Trust.Lookup(path)
		}
		if user, ok := state.Users.ByUID(event.UID); ok {
			finding.User = user.Name
		}
		for _, gid := range event.GIDs {
			if group, ok := state.Groups.ByGID(gid); ok {
				finding.Groups = append(finding.Groups, group.Name)
			}
		}
		findings[index] = finding
	}
	return findings
}

// Subjects returns the distinct subject programs in eventList, sorted.
func Subjects(eventList []events.Event) []string {
	var subjects []string
	for _, event := range eventList {
		if exe := event.Exe(); exe != "" {
			subjects = append(subjects, exe)
		}
	}
	slices.Sort(subjects)
	return slices.Compact(subjects)
}

// Tally counts events per decision.
func Tally(eventList []events.Event) map[rules.Decision]int {
	counts := make(map[rules.Decision]int)
	for _, event := range eventList {
		counts[event.Decision]++
	}
	return counts
}
