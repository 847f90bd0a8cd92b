// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"fmt"

	"github.com/bureau-foundation/execpolicy/lib/analysis"
	"github.com/bureau-foundation/execpolicy/lib/events"
)

// EventsQuery selects the decision log [State.Events] reads and how.
type EventsQuery struct {
	// Path is the log to read. Empty reads the configured event log.
	Path string

	// Policy is "strict" or "skip". Empty uses the configured policy.
	Policy string
}

// Events reads a decision log and correlates every event with the
// state.
func (state *State) Events(query EventsQuery) (*events.Log, []analysis.Finding, error) {
	path := query.Path
	if path == "" {
		path = state.config.Paths.EventLog
	}
	policyName := query.Policy
	if policyName == "" {
		policyName = state.config.Events.LinePolicy
	}
	policy, err := events.ParseLinePolicy(policyName)
	if err != nil {
		return nil, nil, fmt.Errorf("events line policy: %w", err)
	}

	log, err := events.FromFile(path, events.ReadOptions{Policy: policy, Logger: state.logger})
	if err != nil {
		return nil, nil, err
	}
	findings := analysis.Correlate(log.Events, analysis.Context{
		Rules:  state.rulesDB,
		Trust:  state.trustDB,
		Users:  state.users,
		Groups: state.groups,
	})
	return log, findings, nil
}
