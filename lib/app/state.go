// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/bureau-foundation/execpolicy/lib/binhash"
	"github.com/bureau-foundation/execpolicy/lib/config"
	"github.com/bureau-foundation/execpolicy/lib/rules"
	"github.com/bureau-foundation/execpolicy/lib/trust"
	"github.com/bureau-foundation/execpolicy/lib/users"
	"github.com/bureau-foundation/execpolicy/lib/version"
)

// State is an immutable view of the policy state and the configuration
// that produced it.
type State struct {
	config        config.Config
	trustDB       trust.DB
	rulesDB       rules.DB
	users         users.Users
	groups        users.Groups
	daemonVersion version.Daemon

	// fingerprints maps each source path to its content fingerprint at
	// load time. A zero fingerprint records a missing file.
	fingerprints map[string]binhash.Fingerprint

	logger *slog.Logger
}

// Empty returns a State with no trust, rules or accounts. The daemon
// version is taken from the configuration when pinned. The State keeps
// its own copy of cfg.
func Empty(cfg *config.Config) *State {
	state := &State{
		config: *cfg,
		logger: slog.New(slog.DiscardHandler),
	}
	if cfg.Daemon.Version != "" {
		if daemon, err := version.ParseDaemon(cfg.Daemon.Version); err == nil {
			state.daemonVersion = daemon
		}
	}
	return state
}

// Config returns a copy of the configuration the state was loaded
// with. Changing the copy does not affect any State.
func (state *State) Config() config.Config { return state.config }

// Trust returns the trust database.
func (state *State) Trust() trust.DB { return state.trustDB }

// Rules returns the rules database.
func (state *State) Rules() rules.DB { return state.rulesDB }

// Users returns a copy of the user database.
func (state *State) Users() users.Users { return slices.Clone(state.users) }

// Groups returns a copy of the group database.
func (state *State) Groups() users.Groups { return slices.Clone(state.groups) }

// DaemonVersion returns the detected daemon version, possibly unknown.
func (state *State) DaemonVersion() version.Daemon { return state.daemonVersion }

// SystemTrust returns the system trust records.
func (state *State) SystemTrust() []trust.Record { return state.trustDB.SystemTrust() }

// AncillaryTrust returns the ancillary trust records.
func (state *State) AncillaryTrust() []trust.Record { return state.trustDB.AncillaryTrust() }

// ApplyTrustChanges returns a new State with changeset applied to the
// trust database. Every other facet is shared with the receiver.
func (state *State) ApplyTrustChanges(changeset *trust.Changeset) *State {
	next := *state
	next.trustDB = state.trustDB.Apply(changeset)
	state.logger.Debug("trust changes applied",
		"origin", changeset.Origin(),
		"operations", changeset.Len(),
	)
	return &next
}

// ApplyRuleChanges returns a new State with changeset applied to the
// rules database. Every other facet is shared with the receiver.
func (state *State) ApplyRuleChanges(changeset *rules.Changeset) (*State, error) {
	modified, err := changeset.Apply(state.rulesDB)
	if err != nil {
		return nil, fmt.Errorf("applying rule changes: %w", err)
	}
	next := *state
	next.rulesDB = modified
	state.logger.Debug("rule changes applied",
		"operations", changeset.Len(),
		"rules", modified.Len(),
	)
	return &next, nil
}

// Sync returns a new State whose trust records carry their disk status.
func (state *State) Sync() (*State, error) {
	synced, err := trust.DiskSync(state.trustDB)
	if err != nil {
		return nil, &LoadError{Subsystem: SubsystemTrust, Err: err}
	}
	next := *state
	next.trustDB = synced
	return &next, nil
}

// Subsystem names the part of the state a load failure came from.
type Subsystem string

const (
	SubsystemTrust  Subsystem = "trust"
	SubsystemRules  Subsystem = "rules"
	SubsystemUsers  Subsystem = "users"
	SubsystemGroups Subsystem = "groups"
)

// LoadError reports a failure to load one subsystem of the state.
type LoadError struct {
	Subsystem Subsystem
	Err       error
}

func (err *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", err.Subsystem, err.Err)
}

func (err *LoadError) Unwrap() error {
	return err.Err
}
