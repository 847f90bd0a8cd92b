// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rules

import (
	"encoding/json"
	"testing"
)

const baseRules = `# base
allow perm=open exe=/usr/bin/rpm : all
allow perm=execute all : trust=1
deny_audit perm=any all : all
`

func TestChangesetEmptyIsIdentity(t *testing.T) {
	db := Lint(ReadString(baseRules))
	applied, err := NewChangeset().Apply(db)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !applied.Equal(db) {
		t.Error("empty changeset changed the database")
	}
}

func TestChangesetDoesNotMutateInput(t *testing.T) {
	db := Lint(ReadString(baseRules))
	before := db.Text()

	changeset := NewChangeset()
	changeset.Remove(1)
	changeset.Append("allow perm=open all : all")
	if _, err := changeset.Apply(db); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if db.Text() != before || db.Len() != 3 {
		t.Error("Apply modified its input database")
	}
}

func TestChangesetOperations(t *testing.T) {
	db := Lint(ReadString(baseRules))

	changeset := NewChangeset()
	changeset.Note("tighten python")
	changeset.Replace(2, "allow perm=execute all : trust=1 ftype=application/x-executable")
	changeset.Remove(1)
	changeset.Append("# trailing comment")
	changeset.Remove(99)

	applied, err := changeset.Apply(db)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := `# base
allow perm=execute all : trust=1 ftype=application/x-executable
deny_audit perm=any all : all
# trailing comment
`
	if applied.Text() != want {
		t.Errorf("Text() =\n%s\nwant\n%s", applied.Text(), want)
	}
	if applied.Len() != 2 {
		t.Errorf("Len() = %d, want 2", applied.Len())
	}
}

func TestChangesetSetThenEdit(t *testing.T) {
	changeset := NewChangeset()
	changeset.Set("allow perm=open all : all\ndeny perm=any all : all\n")
	changeset.Remove(1)

	applied, err := changeset.Apply(DB{})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if applied.Text() != "deny perm=any all : all\n" {
		t.Errorf("Text() = %q", applied.Text())
	}
}

func TestChangesetDeterministic(t *testing.T) {
	db := Lint(ReadString(baseRules))
	changeset := NewChangeset()
	changeset.Append("allow perm=open exe=/usr/bin/rpm : all")

	first, err := changeset.Apply(db)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	second, err := changeset.Apply(db)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !first.Equal(second) {
		t.Error("applying the same changeset twice produced different results")
	}
	entry, _ := first.ByID(4)
	if entry.Def.Kind() != KindValidWithWarning {
		t.Errorf("appended rule should be linted, got %s", entry.Def.Kind())
	}
}

func TestChangesetRejectsMultilineAppend(t *testing.T) {
	changeset := NewChangeset()
	changeset.Append("allow all : all\ndeny all : all")
	if _, err := changeset.Apply(DB{}); err == nil {
		t.Fatal("multi-line append should fail")
	}
}

func TestOpJSON(t *testing.T) {
	data, err := json.Marshal(Op{Kind: OpReplace, ID: 3, Text: "allow all : all"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var op Op
	if err := json.Unmarshal(data, &op); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if op.Kind != OpReplace || op.ID != 3 {
		t.Errorf("decoded %+v from %s", op, data)
	}
}
