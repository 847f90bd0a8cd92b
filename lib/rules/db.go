// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rules

import (
	"iter"
	"slices"
	"strings"
)

// Kind tags the validity state of a [Def].
type Kind uint8

const (
	KindValid Kind = iota + 1
	KindValidWithWarning
	KindInvalid
)

func (kind Kind) String() string {
	switch kind {
	case KindValid:
		return "valid"
	case KindValidWithWarning:
		return "warning"
	case KindInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Def is a rule definition in one of three states: a valid rule, a
// valid rule with a lint warning, or an invalid line with the reason
// it failed to parse. Build one with [Valid], [ValidWithWarning], or
// [Invalid].
type Def struct {
	kind    Kind
	rule    Rule
	message string
	text    string
}

// Valid wraps a rule that parsed and linted cleanly.
func Valid(rule Rule) Def {
	return Def{kind: KindValid, rule: rule}
}

// ValidWithWarning wraps a parsed rule that a lint check flagged.
func ValidWithWarning(rule Rule, message string) Def {
	return Def{kind: KindValidWithWarning, rule: rule, message: message}
}

// Invalid records a line that did not parse, with its verbatim text.
func Invalid(text, reason string) Def {
	return Def{kind: KindInvalid, text: text, message: reason}
}

// Kind returns the validity state.
func (def Def) Kind() Kind { return def.kind }

// Rule returns the parsed rule. The second result is false for
// Invalid definitions.
func (def Def) Rule() (Rule, bool) {
	if def.kind == KindInvalid {
		return Rule{}, false
	}
	return def.rule, true
}

// Message returns the lint warning of a ValidWithWarning definition or
// the parse failure reason of an Invalid one. Empty for Valid.
func (def Def) Message() string { return def.message }

// Text returns the raw line of an Invalid definition.
func (def Def) Text() string { return def.text }

// Equal reports whether two definitions are identical.
func (def Def) Equal(other Def) bool {
	return def.kind == other.kind &&
		def.message == other.message &&
		def.text == other.text &&
		(def.kind == KindInvalid || def.rule.Equal(other.rule))
}

// Entry is one rule line of the database.
type Entry struct {
	// ID is the 1-based ordinal of the rule among rule lines, the same
	// number the daemon logs as rule=N.
	ID int
	// Line is the 1-based line number in the source text.
	Line int
	// Source is the line exactly as written.
	Source string
	Def    Def
}

// SetDef is a named set definition ("%name=a,b,c").
type SetDef struct {
	Name   string
	Values []string
	Line   int
}

// DB is an ordered, immutable rule database. Values are safe to copy
// and share; every operation that changes content returns a new DB.
type DB struct {
	entries []Entry
	lines   []string
	sets    []SetDef
	byLine  map[int]int
}

func newDB(lines []string, entries []Entry, sets []SetDef) DB {
	byLine := make(map[int]int, len(entries))
	for index, entry := range entries {
		byLine[entry.Line] = index
	}
	return DB{entries: entries, lines: lines, sets: sets, byLine: byLine}
}

// FromEntries rebuilds db with replacement definitions. Source text,
// ids, and line numbers of db are kept; entries are matched by ID and
// ids missing from entries keep their current definition.
func FromEntries(db DB, entries []Entry) DB {
	replaced := slices.Clone(db.entries)
	for _, entry := range entries {
		if entry.ID >= 1 && entry.ID <= len(replaced) {
			replaced[entry.ID-1].Def = entry.Def
		}
	}
	return newDB(db.lines, replaced, db.sets)
}

// Len returns the number of rule entries, valid or not.
func (db DB) Len() int { return len(db.entries) }

// Entries returns a copy of every entry in file order.
func (db DB) Entries() []Entry { return slices.Clone(db.entries) }

// All iterates entries in file order without copying the slice.
func (db DB) All() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for _, entry := range db.entries {
			if !yield(entry) {
				return
			}
		}
	}
}

// ByID returns the entry with the given rule id.
func (db DB) ByID(id int) (Entry, bool) {
	if id < 1 || id > len(db.entries) {
		return Entry{}, false
	}
	return db.entries[id-1], true
}

// ByLine returns the entry defined on the given 1-based source line.
func (db DB) ByLine(line int) (Entry, bool) {
	index, ok := db.byLine[line]
	if !ok {
		return Entry{}, false
	}
	return db.entries[index], true
}

// Source returns the verbatim text of the rule with the given id.
func (db DB) Source(id int) (string, bool) {
	entry, ok := db.ByID(id)
	return entry.Source, ok
}

// Sets returns the named set definitions in file order.
func (db DB) Sets() []SetDef { return slices.Clone(db.sets) }

// Set returns the set definition with the given name.
func (db DB) Set(name string) (SetDef, bool) {
	for _, set := range db.sets {
		if set.Name == name {
			return set, true
		}
	}
	return SetDef{}, false
}

// Lines returns a copy of every source line, including comments and
// blank lines.
func (db DB) Lines() []string { return slices.Clone(db.lines) }

// Text renders the database back to rule file text. Lines are
// reproduced verbatim.
func (db DB) Text() string {
	if len(db.lines) == 0 {
		return ""
	}
	return strings.Join(db.lines, "\n") + "\n"
}

// Counts tallies entries by kind.
func (db DB) Counts() map[Kind]int {
	counts := make(map[Kind]int, 3)
	for _, entry := range db.entries {
		counts[entry.Def.Kind()]++
	}
	return counts
}

// Equal reports whether two databases have identical source and
// definitions.
func (db DB) Equal(other DB) bool {
	if !slices.Equal(db.lines, other.lines) || len(db.entries) != len(other.entries) {
		return false
	}
	for index, entry := range db.entries {
		peer := other.entries[index]
		if entry.ID != peer.ID || entry.Line != peer.Line || entry.Source != peer.Source || !entry.Def.Equal(peer.Def) {
			return false
		}
	}
	return true
}
