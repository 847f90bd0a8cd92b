// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package trust

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
)

// OpKind is the kind of a trust changeset operation.
type OpKind uint8

const (
	// OpAdd declares (or redeclares) trust for a path.
	OpAdd OpKind = iota + 1
	// OpRemove drops the trust for a path.
	OpRemove
	// OpNote carries a free-text annotation and changes nothing.
	OpNote
)

var opKindNames = map[OpKind]string{
	OpAdd:    "add",
	OpRemove: "remove",
	OpNote:   "note",
}

func (kind OpKind) String() string {
	if name, ok := opKindNames[kind]; ok {
		return name
	}
	return fmt.Sprintf("OpKind(%d)", uint8(kind))
}

// MarshalText implements encoding.TextMarshaler.
func (kind OpKind) MarshalText() ([]byte, error) {
	name, ok := opKindNames[kind]
	if !ok {
		return nil, fmt.Errorf("cannot marshal invalid trust op kind %d", uint8(kind))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (kind *OpKind) UnmarshalText(text []byte) error {
	for candidate, name := range opKindNames {
		if name == string(text) {
			*kind = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown trust op kind %q", text)
}

// Op is one changeset operation. Add uses Trust, Remove uses Path, Note
// uses Text.
type Op struct {
	Kind  OpKind `json:"kind"`
	Path  string `json:"path,omitempty"`
	Trust Trust  `json:"trust,omitzero"`
	Text  string `json:"text,omitempty"`
}

// Target returns the path the operation affects, or "" for a note.
func (op Op) Target() string {
	switch op.Kind {
	case OpAdd:
		return op.Trust.Path
	case OpRemove:
		return op.Path
	default:
		return ""
	}
}

// Changeset is an ordered list of trust edits bound to one origin.
type Changeset struct {
	origin Origin
	ops    []Op
}

// NewChangeset creates a changeset for origin holding ops. It panics
// when origin is neither OriginSystem nor OriginAncillary; decode
// untrusted origins with ParseOrigin first.
func NewChangeset(origin Origin, ops ...Op) *Changeset {
	if !origin.Valid() {
		panic(fmt.Sprintf("trust.NewChangeset: invalid origin %s", origin))
	}
	return &Changeset{origin: origin, ops: slices.Clone(ops)}
}

// Origin returns the origin the changeset edits.
func (changeset *Changeset) Origin() Origin {
	return changeset.origin
}

// Add appends a declaration of trust.
func (changeset *Changeset) Add(trust Trust) {
	changeset.ops = append(changeset.ops, Op{Kind: OpAdd, Trust: trust})
}

// Remove appends removal of path.
func (changeset *Changeset) Remove(path string) {
	changeset.ops = append(changeset.ops, Op{Kind: OpRemove, Path: path})
}

// Note appends an annotation.
func (changeset *Changeset) Note(text string) {
	changeset.ops = append(changeset.ops, Op{Kind: OpNote, Text: text})
}

// Ops returns a copy of the operations in order.
func (changeset *Changeset) Ops() []Op {
	return slices.Clone(changeset.ops)
}

// Len returns the number of operations, notes included.
func (changeset *Changeset) Len() int {
	return len(changeset.ops)
}

// Paths maps each affected path to the last operation on it.
func (changeset *Changeset) Paths() map[string]OpKind {
	paths := make(map[string]OpKind)
	for _, op := range changeset.ops {
		if target := op.Target(); target != "" {
			paths[target] = op.Kind
		}
	}
	return paths
}

// Apply runs the operations in order over records (all of the
// changeset's origin) and returns a new map. Removing an absent path is
// a no-op. The input map is not modified.
//
// Redeclaring a present path replaces only the declaration: the live
// store entries stay, and the disk observation stays while the declared
// size is unchanged. A size change drops the observation, since the
// file was hashed (or not) against the old size.
func (changeset *Changeset) Apply(records map[string]Record) map[string]Record {
	result := maps.Clone(records)
	if result == nil {
		result = make(map[string]Record)
	}
	for _, op := range changeset.ops {
		switch op.Kind {
		case OpAdd:
			if op.Trust.Path == "" {
				continue
			}
			next := Record{Trust: op.Trust, Origin: changeset.origin}
			if existing, ok := result[op.Trust.Path]; ok {
				next.Stored = slices.Clone(existing.Stored)
				if existing.Actual != nil && existing.Trust.Size == op.Trust.Size {
					actual := *existing.Actual
					next.Actual = &actual
				}
			}
			result[op.Trust.Path] = next
		case OpRemove:
			delete(result, op.Path)
		}
	}
	return result
}

// Inverse returns a changeset that, applied after this one to the
// result of applying it to records, restores the declarations of
// records.
func (changeset *Changeset) Inverse(records map[string]Record) *Changeset {
	inverse := NewChangeset(changeset.origin)
	for path := range changeset.Paths() {
		if original, existed := records[path]; existed {
			inverse.Add(original.Trust)
		} else {
			inverse.Remove(path)
		}
	}
	slices.SortFunc(inverse.ops, func(a, b Op) int {
		return cmp.Compare(a.Target(), b.Target())
	})
	return inverse
}
