// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/bureau-foundation/execpolicy/lib/app"
	"github.com/bureau-foundation/execpolicy/lib/clock"
	"github.com/bureau-foundation/execpolicy/lib/config"
	"github.com/bureau-foundation/execpolicy/lib/rules"
	"github.com/bureau-foundation/execpolicy/lib/trust"
)

// ChangeKind says which database a [Change] edits.
type ChangeKind uint8

const (
	ChangeTrust ChangeKind = iota + 1
	ChangeRules
)

func (kind ChangeKind) String() string {
	switch kind {
	case ChangeTrust:
		return "trust"
	case ChangeRules:
		return "rules"
	default:
		return fmt.Sprintf("ChangeKind(%d)", uint8(kind))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (kind ChangeKind) MarshalText() ([]byte, error) {
	if kind != ChangeTrust && kind != ChangeRules {
		return nil, fmt.Errorf("cannot marshal invalid change kind %d", uint8(kind))
	}
	return []byte(kind.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (kind *ChangeKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "trust":
		*kind = ChangeTrust
	case "rules":
		*kind = ChangeRules
	default:
		return fmt.Errorf("unknown change kind %q", text)
	}
	return nil
}

// Change is one edit: exactly one of Trust and Rules is set.
type Change struct {
	Trust *trust.Changeset
	Rules *rules.Changeset
}

// TrustChange wraps a trust changeset.
func TrustChange(changeset *trust.Changeset) Change {
	return Change{Trust: changeset}
}

// RuleChange wraps a rules changeset.
func RuleChange(changeset *rules.Changeset) Change {
	return Change{Rules: changeset}
}

// Kind returns the database the change edits, zero if it is empty.
func (change Change) Kind() ChangeKind {
	switch {
	case change.Trust != nil:
		return ChangeTrust
	case change.Rules != nil:
		return ChangeRules
	default:
		return 0
	}
}

func (change Change) apply(state *app.State) (*app.State, error) {
	switch {
	case change.Trust != nil && change.Rules != nil:
		return nil, fmt.Errorf("change carries both trust and rules edits")
	case change.Trust != nil:
		return state.ApplyTrustChanges(change.Trust), nil
	case change.Rules != nil:
		return state.ApplyRuleChanges(change.Rules)
	default:
		return nil, fmt.Errorf("empty change")
	}
}

// Options configures a [Session].
type Options struct {
	// Clock stamps autosave file names. Nil uses the real clock.
	Clock clock.Clock

	// Logger receives session activity. Nil discards.
	Logger *slog.Logger

	// Autosave writes pending changes after every edit.
	Autosave bool

	// AutosaveDir holds autosave files. Required when Autosave is set.
	AutosaveDir string

	// AutosaveBasename prefixes autosave file names.
	AutosaveBasename string

	// AutosaveCount is how many autosave files to keep. Values below
	// one keep one.
	AutosaveCount int
}

// OptionsFromConfig returns the autosave settings from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Autosave:         cfg.Session.Autosave,
		AutosaveDir:      cfg.Paths.Sessions,
		AutosaveBasename: cfg.Session.AutosaveBasename,
		AutosaveCount:    cfg.Session.AutosaveCount,
	}
}

func (options Options) withDefaults() Options {
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.DiscardHandler)
	}
	if options.AutosaveBasename == "" {
		options.AutosaveBasename = "session"
	}
	if options.AutosaveCount < 1 {
		options.AutosaveCount = 1
	}
	return options
}

// Session is an undoable sequence of changes over a base State. It is
// not safe for concurrent use.
type Session struct {
	// states[0] is the base; states[i] is the result of changes[:i].
	states  []*app.State
	changes []Change

	// position indexes the current state in states.
	position int

	options Options
}

// New starts a session at state.
func New(state *app.State, options Options) *Session {
	return &Session{
		states:  []*app.State{state},
		options: options.withDefaults(),
	}
}

// Current returns the state after the pending changes.
func (session *Session) Current() *app.State {
	return session.states[session.position]
}

// Base returns the state the session started from.
func (session *Session) Base() *app.State {
	return session.states[0]
}

// Pending returns the changes from the base to the current state.
func (session *Session) Pending() []Change {
	return slices.Clone(session.changes[:session.position])
}

// Dirty reports whether there are pending changes.
func (session *Session) Dirty() bool {
	return session.position > 0
}

// CanUndo reports whether [Session.Undo] would move.
func (session *Session) CanUndo() bool {
	return session.position > 0
}

// CanRedo reports whether [Session.Redo] would move.
func (session *Session) CanRedo() bool {
	return session.position < len(session.changes)
}

// Apply applies change to the current state and makes the result
// current. Undone changes are discarded. On error the session is
// unchanged.
func (session *Session) Apply(change Change) error {
	next, err := change.apply(session.Current())
	if err != nil {
		return err
	}
	session.states = append(session.states[:session.position+1], next)
	session.changes = append(session.changes[:session.position], change)
	session.position++

	session.options.Logger.Debug("change applied",
		"kind", change.Kind(),
		"pending", session.position,
	)
	session.autosave()
	return nil
}

// Undo steps back one change. It reports false when there is nothing
// to undo.
func (session *Session) Undo() bool {
	if !session.CanUndo() {
		return false
	}
	session.position--
	session.autosave()
	return true
}

// Redo reapplies the last undone change. It reports false when there
// is nothing to redo.
func (session *Session) Redo() bool {
	if !session.CanRedo() {
		return false
	}
	session.position++
	session.autosave()
	return true
}

// autosave writes the pending changes when enabled. Failures are
// logged; the edit itself has already succeeded.
func (session *Session) autosave() {
	if !session.options.Autosave {
		return
	}
	path, err := writeAutosave(session.Pending(), session.options)
	if err != nil {
		session.options.Logger.Warn("autosave failed", "error", err)
		return
	}
	session.options.Logger.Debug("autosaved", "path", path)
}
