// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"slices"
	"testing"

	"github.com/bureau-foundation/execpolicy/lib/rules"
)

const sampleLine = "rule=3 dec=deny perm=execute uid=1000 gid=1000 pid=4521 exe=/usr/bin/foo : path=/tmp/bar"

func TestParseLine(t *testing.T) {
	event, err := ParseLine(sampleLine)
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if event.RuleID != 3 || event.Decision != rules.Deny || event.Permission != rules.PermissionExecute {
		t.Errorf("header = %d %s %s", event.RuleID, event.Decision, event.Permission)
	}
	if event.UID != 1000 || !slices.Equal(event.GIDs, []int{1000}) || event.PID != 4521 {
		t.Errorf("ids = uid %d gid %v pid %d", event.UID, event.GIDs, event.PID)
	}
	if event.Exe() != "/usr/bin/foo" {
		t.Errorf("Exe() = %q", event.Exe())
	}
	if !slices.Contains(event.Object.Parts, rules.Part{Key: "path", Value: "/tmp/bar"}) {
		t.Errorf("object parts = %v", event.Object.Parts)
	}
}

func TestEventStringRoundTrip(t *testing.T) {
	lines := []string{
		sampleLine,
		"rule=9 dec=allow_audit perm=open uid=0 gid=0,10,27 pid=1 exe=/usr/lib/systemd/systemd : path=/etc/passwd ftype=text/plain trust=1",
	}
	for _, line := range lines {
		event, err := ParseLine(line)
		if err != nil {
			t.Fatalf("ParseLine(%q): %v", line, err)
		}
		if event.String() != line {
			t.Errorf("String() = %q, want %q", event.String(), line)
		}
	}
}

func TestParseLineAcceptsAuid(t *testing.T) {
	event, err := ParseLine("rule=1 dec=allow perm=open auid=42 pid=7 exe=/bin/sh : path=/x")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if event.UID != 42 || event.GIDs != nil {
		t.Errorf("uid = %d gids = %v", event.UID, event.GIDs)
	}
}

func TestParseLineErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"no separator", "rule=1 dec=allow perm=open uid=1 pid=1 exe=/bin/sh path=/x"},
		{"bad decision", "rule=1 dec=maybe perm=open uid=1 pid=1 exe=/bin/sh : path=/x"},
		{"bad rule id", "rule=x dec=allow perm=open uid=1 pid=1 exe=/bin/sh : path=/x"},
		{"missing pid", "rule=1 dec=allow perm=open uid=1 exe=/bin/sh : path=/x"},
		{"bad gid", "rule=1 dec=allow perm=open uid=1 gid=1,a pid=1 exe=/bin/sh : path=/x"},
		{"empty subject", "rule=1 dec=allow perm=open uid=1 pid=1 : path=/x"},
		{"empty object", "rule=1 dec=allow perm=open uid=1 pid=1 exe=/bin/sh : "},
		{"duplicate uid", "rule=1 dec=allow perm=open uid=1 auid=2 pid=1 exe=/bin/sh : path=/x"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := ParseLine(test.line); err == nil {
				t.Errorf("ParseLine(%q) succeeded", test.line)
			}
		})
	}
}

func TestPerspectiveFit(t *testing.T) {
	event := &Event{UID: 1000, GIDs: []int{5, 7, 9}, Subject: rules.NewSubject(rules.Part{Key: "exe", Value: "/usr/bin/foo"})}

	tests := []struct {
		perspective Perspective
		want        bool
	}{
		{ByGroup(7), true},
		{ByGroup(8), false},
		{ByUser(1000), true},
		{ByUser(0), false},
		{BySubject("/usr/bin/foo"), true},
		{BySubject("/usr/bin/fo"), false},
		{Perspective{}, false},
	}
	for _, test := range tests {
		if got := test.perspective.Fit(event); got != test.want {
			t.Errorf("%s Fit = %v, want %v", test.perspective, got, test.want)
		}
	}

	if ByGroup(7).Fit(&Event{GIDs: []int{1, 2}}) {
		t.Error("group 7 matched gids {1,2}")
	}
}

func TestPerspectiveFilterYieldsPointers(t *testing.T) {
	events := []Event{
		{RuleID: 1, UID: 1},
		{RuleID: 2, UID: 2},
		{RuleID: 3, UID: 1},
	}
	var matched []*Event
	for event := range ByUser(1).Filter(events) {
		matched = append(matched, event)
	}
	if len(matched) != 2 || matched[0] != &events[0] || matched[1] != &events[2] {
		t.Errorf("Filter yielded %v", matched)
	}
}
