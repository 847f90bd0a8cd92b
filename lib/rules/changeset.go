// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rules

import (
	"fmt"
	"slices"
	"strings"
)

// OpKind identifies a rule changeset operation.
type OpKind uint8

const (
	// OpSet replaces the whole rule text.
	OpSet OpKind = iota + 1
	// OpAppend adds a line at the end of the file.
	OpAppend
	// OpReplace swaps the line of rule ID for Text.
	OpReplace
	// OpRemove deletes the line of rule ID.
	OpRemove
	// OpNote records a comment about the change. It has no effect on
	// the database.
	OpNote
)

var opKindNames = map[OpKind]string{
	OpSet:     "set",
	OpAppend:  "append",
	OpReplace: "replace",
	OpRemove:  "remove",
	OpNote:    "note",
}

func (kind OpKind) String() string {
	if name, ok := opKindNames[kind]; ok {
		return name
	}
	return fmt.Sprintf("OpKind(%d)", uint8(kind))
}

// MarshalText implements encoding.TextMarshaler.
func (kind OpKind) MarshalText() ([]byte, error) {
	if _, ok := opKindNames[kind]; !ok {
		return nil, fmt.Errorf("cannot marshal invalid rule op %d", uint8(kind))
	}
	return []byte(kind.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (kind *OpKind) UnmarshalText(text []byte) error {
	for candidate, name := range opKindNames {
		if name == string(text) {
			*kind = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown rule op %q", text)
}

// Op is one edit of a rule [Changeset].
type Op struct {
	Kind OpKind `json:"kind"`
	ID   int    `json:"id,omitempty"`
	Text string `json:"text,omitempty"`
}

// Changeset is an ordered list of rule file edits. Applying it is a
// pure function of the input database.
type Changeset struct {
	ops []Op
}

// NewChangeset returns a changeset holding ops.
func NewChangeset(ops ...Op) *Changeset {
	return &Changeset{ops: slices.Clone(ops)}
}

// Set replaces the whole rule text.
func (changeset *Changeset) Set(text string) {
	changeset.ops = append(changeset.ops, Op{Kind: OpSet, Text: text})
}

// Append adds line to the end of the rule file.
func (changeset *Changeset) Append(line string) {
	changeset.ops = append(changeset.ops, Op{Kind: OpAppend, Text: line})
}

// Replace swaps the text of rule id for line.
func (changeset *Changeset) Replace(id int, line string) {
	changeset.ops = append(changeset.ops, Op{Kind: OpReplace, ID: id, Text: line})
}

// Remove deletes rule id.
func (changeset *Changeset) Remove(id int) {
	changeset.ops = append(changeset.ops, Op{Kind: OpRemove, ID: id})
}

// Note records a comment about the change.
func (changeset *Changeset) Note(text string) {
	changeset.ops = append(changeset.ops, Op{Kind: OpNote, Text: text})
}

// Ops returns a copy of the operations in order.
func (changeset *Changeset) Ops() []Op {
	return slices.Clone(changeset.ops)
}

// Len returns the number of operations.
func (changeset *Changeset) Len() int {
	return len(changeset.ops)
}

// Apply runs the operations in order against db and returns the
// linted result. Each operation sees the database produced by the
// previous one, so ids refer to the rule numbering at that point.
// Replacing or removing an id that does not exist is a no-op. db is
// not modified.
func (changeset *Changeset) Apply(db DB) (DB, error) {
	current := db
	for index, op := range changeset.ops {
		lines := current.Lines()
		switch op.Kind {
		case OpSet:
			current = ReadString(op.Text)
			continue
		case OpAppend:
			if strings.ContainsAny(op.Text, "\n\r") {
				return DB{}, fmt.Errorf("rule op %d: appended text must be a single line", index)
			}
			lines = append(lines, op.Text)
		case OpReplace:
			if strings.ContainsAny(op.Text, "\n\r") {
				return DB{}, fmt.Errorf("rule op %d: replacement must be a single line", index)
			}
			entry, ok := current.ByID(op.ID)
			if !ok {
				continue
			}
			lines[entry.Line-1] = op.Text
		case OpRemove:
			entry, ok := current.ByID(op.ID)
			if !ok {
				continue
			}
			lines = slices.Delete(lines, entry.Line-1, entry.Line)
		case OpNote:
			continue
		default:
			return DB{}, fmt.Errorf("rule op %d: unknown kind %d", index, op.Kind)
		}
		current = parseLines(lines)
	}
	return Lint(current), nil
}
