// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleRules = `# fapolicyd rules
%languages=application/x-bytecode.python,text/x-python

allow perm=open exe=/usr/bin/rpm : all
this line is not a rule
deny_audit perm=execute all : ftype=%languages trust=0

allow perm=execute all : trust=1
deny_audit perm=any all : all
`

func TestReadKeepsInvalidLines(t *testing.T) {
	db, err := Read(strings.NewReader(sampleRules))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if db.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", db.Len())
	}

	entry, ok := db.ByID(2)
	if !ok {
		t.Fatal("ByID(2) not found")
	}
	if entry.Def.Kind() != KindInvalid {
		t.Fatalf("entry 2 kind = %s, want invalid", entry.Def.Kind())
	}
	if entry.Def.Text() != "this line is not a rule" || entry.Source != "this line is not a rule" {
		t.Errorf("invalid entry text not preserved: %q / %q", entry.Def.Text(), entry.Source)
	}
	if entry.Def.Message() == "" {
		t.Error("invalid entry has no reason")
	}
	if entry.Line != 5 {
		t.Errorf("entry 2 line = %d, want 5", entry.Line)
	}
}

func TestReadIDsAndLines(t *testing.T) {
	db, err := Read(strings.NewReader(sampleRules))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	wantLines := []int{4, 5, 6, 8, 9}
	for index, entry := range db.Entries() {
		if entry.ID != index+1 {
			t.Errorf("entry %d has ID %d", index, entry.ID)
		}
		if entry.Line != wantLines[index] {
			t.Errorf("entry %d line = %d, want %d", entry.ID, entry.Line, wantLines[index])
		}
		byLine, ok := db.ByLine(entry.Line)
		if !ok || byLine.ID != entry.ID {
			t.Errorf("ByLine(%d) = %d, %v", entry.Line, byLine.ID, ok)
		}
	}
	if _, ok := db.ByLine(1); ok {
		t.Error("ByLine(1) should not find the comment line")
	}
}

func TestReadSets(t *testing.T) {
	db, err := Read(strings.NewReader(sampleRules))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	set, ok := db.Set("languages")
	if !ok {
		t.Fatal("set languages not found")
	}
	if len(set.Values) != 2 || set.Values[1] != "text/x-python" {
		t.Errorf("set values = %v", set.Values)
	}
	if set.Line != 2 {
		t.Errorf("set line = %d, want 2", set.Line)
	}
}

func TestTextRoundTrip(t *testing.T) {
	db, err := Read(strings.NewReader(sampleRules))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if db.Text() != sampleRules {
		t.Errorf("Text() does not reproduce source:\n%s", db.Text())
	}
	if Lint(db).Text() != sampleRules {
		t.Error("Lint changed the source text")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fapolicyd.rules")
	if err := os.WriteFile(path, []byte(sampleRules), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	db, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	counts := db.Counts()
	if counts[KindInvalid] != 1 {
		t.Errorf("invalid count = %d, want 1", counts[KindInvalid])
	}
	if counts[KindValid]+counts[KindValidWithWarning] != 4 {
		t.Errorf("valid count = %v", counts)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.rules")); err == nil {
		t.Fatal("Load of a missing file should fail")
	}
}

func TestMalformedSetIsInvalid(t *testing.T) {
	db := ReadString("%=nothing\nallow perm=open all : all\n")
	entry, ok := db.ByID(1)
	if !ok || entry.Def.Kind() != KindInvalid {
		t.Fatalf("malformed set definition should be invalid entry 1, got %+v", entry)
	}
	rule, ok := db.ByID(2)
	if !ok || rule.Def.Kind() != KindValid {
		t.Fatalf("rule after malformed set should be valid entry 2")
	}
}
