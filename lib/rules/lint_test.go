// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rules

import (
	"strings"
	"testing"
)

func TestLintWarnings(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		id      int
		contain string
	}{
		{
			name:    "catch-all before other rules",
			text:    "deny perm=any all : all\nallow perm=open all : all\n",
			id:      1,
			contain: "short-circuit",
		},
		{
			name:    "unreachable after catch-all",
			text:    "deny perm=any all : all\nallow perm=open all : all\n",
			id:      2,
			contain: "unreachable, rule 1",
		},
		{
			name:    "duplicate match",
			text:    "allow perm=open exe=/usr/bin/rpm : all\ndeny perm=open exe=/usr/bin/rpm : all\n",
			id:      2,
			contain: "Duplicates the match of rule 1",
		},
		{
			name:    "undefined set",
			text:    "allow perm=open all : ftype=%missing\n",
			id:      1,
			contain: "%missing is not defined",
		},
		{
			name:    "relative exe",
			text:    "allow perm=open exe=bin/sh : all\n",
			id:      1,
			contain: "not an absolute path",
		},
		{
			name:    "dir without slash",
			text:    "allow perm=open all : dir=/usr/lib\n",
			id:      1,
			contain: "should end with a /",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			db := Lint(ReadString(test.text))
			entry, ok := db.ByID(test.id)
			if !ok {
				t.Fatalf("ByID(%d) not found", test.id)
			}
			if entry.Def.Kind() != KindValidWithWarning {
				t.Fatalf("kind = %s, want warning", entry.Def.Kind())
			}
			if !strings.Contains(entry.Def.Message(), test.contain) {
				t.Errorf("message %q does not contain %q", entry.Def.Message(), test.contain)
			}
		})
	}
}

func TestLintCleanRules(t *testing.T) {
	text := `%languages=text/x-python
allow perm=open exe=/usr/bin/rpm : all
allow perm=execute all : dir=execdirs trust=1
allow perm=open all : ftype=%languages dir=/usr/share/
deny_audit perm=any all : all
`
	db := Lint(ReadString(text))
	for entry := range db.All() {
		if entry.Def.Kind() != KindValid {
			t.Errorf("rule %d flagged: %s", entry.ID, entry.Def.Message())
		}
	}
}

func TestLintFirstWarningWins(t *testing.T) {
	// Rule 2 is both unreachable (L002) and relative (L005).
	db := Lint(ReadString("deny perm=any all : all\nallow perm=open exe=sh : all\n"))
	entry, _ := db.ByID(2)
	if !strings.Contains(entry.Def.Message(), "unreachable") {
		t.Errorf("message = %q, want the unreachable warning", entry.Def.Message())
	}
}

func TestLintIdempotent(t *testing.T) {
	text := `allow perm=open exe=/usr/bin/rpm : all
allow perm=open exe=/usr/bin/rpm : all
garbage
deny perm=any all : all
allow perm=open all : dir=/tmp
deny_audit perm=any all : all
`
	once := Lint(ReadString(text))
	twice := Lint(once)
	if !once.Equal(twice) {
		t.Error("Lint(Lint(db)) differs from Lint(db)")
	}
}

func TestLintLeavesInvalidUnchanged(t *testing.T) {
	db := Lint(ReadString("not a rule\n"))
	entry, _ := db.ByID(1)
	if entry.Def.Kind() != KindInvalid || entry.Def.Text() != "not a rule" {
		t.Errorf("invalid entry changed: %+v", entry)
	}
}

func TestChecksOrder(t *testing.T) {
	var codes []string
	for _, check := range Checks() {
		codes = append(codes, check.Code)
	}
	want := "L001 L002 L003 L004 L005 L006"
	if strings.Join(codes, " ") != want {
		t.Errorf("check order = %v, want %s", codes, want)
	}
}
