// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"context"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"testing"
)

func TestCurrentPrefersInjectedValues(t *testing.T) {
	savedCommit, savedDirty := GitCommit, GitDirty
	t.Cleanup(func() { GitCommit, GitDirty = savedCommit, savedDirty })

	GitCommit, GitDirty = "abc1234", "true"
	build := Current()
	if build.Commit != "abc1234" || !build.Dirty {
		t.Errorf("Current() = %+v", build)
	}
	if line := build.String(); !strings.Contains(line, "abc1234-dirty") || !strings.HasPrefix(line, Version) {
		t.Errorf("String() = %q", line)
	}
	if !strings.Contains(build.Full(), "Go: ") {
		t.Errorf("Full() = %q", build.Full())
	}
}

func TestFillFromVCS(t *testing.T) {
	build := Build{Version: "1.0.0", Commit: "unknown", Time: "unknown"}
	build.fillFromVCS([]debug.BuildSetting{
		{Key: "vcs.revision", Value: "0123456789abcdef0123"},
		{Key: "vcs.time", Value: "2026-03-01T12:00:00Z"},
		{Key: "vcs.modified", Value: "true"},
	})
	if build.Commit != "0123456789ab" || build.Time != "2026-03-01T12:00:00Z" || !build.Dirty {
		t.Errorf("fillFromVCS = %+v", build)
	}
}

func TestParseDaemon(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"fapolicyd 1.3.2\n", "1.3.2"},
		{"1.1", "1.1.0"},
		{"version: 0.9.12-rc1", "0.9.12"},
	}
	for _, test := range tests {
		daemon, err := ParseDaemon(test.input)
		if err != nil {
			t.Fatalf("ParseDaemon(%q): %v", test.input, err)
		}
		if daemon.String() != test.want {
			t.Errorf("ParseDaemon(%q) = %s, want %s", test.input, daemon, test.want)
		}
	}
	if _, err := ParseDaemon("no digits here"); err == nil {
		t.Error("ParseDaemon accepted text without a version")
	}
}

func TestDaemonOrdering(t *testing.T) {
	older, _ := ParseDaemon("1.1.7")
	newer, _ := ParseDaemon("1.3.0")
	if older.Compare(newer) >= 0 || newer.Compare(older) <= 0 {
		t.Error("Compare ordering wrong")
	}
	if !newer.AtLeast(1, 3, 0) || older.AtLeast(1, 3, 0) {
		t.Error("AtLeast wrong")
	}
	if (Daemon{}).AtLeast(0, 0, 0) || (Daemon{}).String() != "unknown" {
		t.Error("zero Daemon should be unknown")
	}
}

func TestDetectDaemon(t *testing.T) {
	script := filepath.Join(t.TempDir(), "fapolicyd")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho \"fapolicyd 1.3.2\"\n"), 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	daemon, err := DetectDaemon(context.Background(), script)
	if err != nil {
		t.Fatalf("DetectDaemon: %v", err)
	}
	if daemon.String() != "1.3.2" {
		t.Errorf("DetectDaemon = %s", daemon)
	}

	if _, err := DetectDaemon(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("DetectDaemon succeeded for a missing binary")
	}
}
