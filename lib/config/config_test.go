// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Paths.TrustFile != "/etc/fapolicyd/fapolicyd.trust" {
		t.Errorf("trust_file = %s", cfg.Paths.TrustFile)
	}
	if cfg.Events.LinePolicy != "strict" {
		t.Errorf("line_policy = %s, want strict", cfg.Events.LinePolicy)
	}
	if cfg.Session.AutosaveCount != 2 || cfg.Session.AutosaveBasename != "FaCurrentSession.tmp" {
		t.Errorf("session = %+v", cfg.Session)
	}
	if err := Resolved().Validate(); err != nil {
		t.Errorf("resolved defaults do not validate: %v", err)
	}
}

func TestLoadRequiresEnvironmentVariable(t *testing.T) {
	t.Setenv(EnvironmentVariable, "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when EXECPOLICY_CONFIG not set")
	}
	if !strings.HasPrefix(err.Error(), "EXECPOLICY_CONFIG environment variable not set") {
		t.Errorf("error = %q", err)
	}
}

func TestLoadFromEnvironmentVariable(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "execpolicy.yaml")
	content := `
paths:
  root: /test/root
  rules_file: /test/rules/compiled.rules
events:
  line_policy: skip
session:
  autosave: false
  autosave_count: 5
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv(EnvironmentVariable, configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Paths.RulesFile != "/test/rules/compiled.rules" {
		t.Errorf("rules_file = %s", cfg.Paths.RulesFile)
	}
	if cfg.Paths.Sessions != "/test/root/sessions" {
		t.Errorf("sessions = %s, want expansion against root", cfg.Paths.Sessions)
	}
	if cfg.Paths.TrustDir != "/etc/fapolicyd/trust.d" {
		t.Errorf("unset trust_dir should keep its default, got %s", cfg.Paths.TrustDir)
	}
	if cfg.Events.LinePolicy != "skip" || cfg.Session.Autosave || cfg.Session.AutosaveCount != 5 {
		t.Errorf("loaded %+v %+v", cfg.Events, cfg.Session)
	}
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("missing file loaded")
	}

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("paths: [unclosed"), 0o644)
	if _, err := LoadFile(bad); err == nil {
		t.Error("malformed YAML loaded")
	}
}

func TestExpandVars(t *testing.T) {
	t.Setenv("EXECPOLICY_TEST_VAR", "fromenv")
	vars := map[string]string{"EXECPOLICY_ROOT": "/root/x"}

	tests := []struct {
		input string
		want  string
	}{
		{"${EXECPOLICY_ROOT}/sessions", "/root/x/sessions"},
		{"${EXECPOLICY_TEST_VAR}/a", "fromenv/a"},
		{"${EXECPOLICY_UNSET:-/fallback}", "/fallback"},
		{"/plain/path", "/plain/path"},
	}
	for _, test := range tests {
		if got := expandVars(test.input, vars); got != test.want {
			t.Errorf("expandVars(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Resolved()
	cfg.Paths.RulesFile = "relative.rules"
	cfg.Events.LinePolicy = "lenient"
	cfg.Session.AutosaveCount = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate accepted an invalid config")
	}
	for _, fragment := range []string{"paths.rules_file", "events.line_policy", "session.autosave_count"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Errorf("error %q does not mention %s", err, fragment)
		}
	}
}

func TestEnsurePaths(t *testing.T) {
	root := filepath.Join(t.TempDir(), "data")
	cfg := Default()
	cfg.Paths.Root = root
	cfg.Paths.Sessions = filepath.Join(root, "sessions")

	if err := cfg.EnsurePaths(); err != nil {
		t.Fatalf("EnsurePaths: %v", err)
	}
	if info, err := os.Stat(cfg.Paths.Sessions); err != nil || !info.IsDir() {
		t.Errorf("sessions directory not created: %v", err)
	}
}

func TestDaemonPath(t *testing.T) {
	binary := filepath.Join(t.TempDir(), "fapolicyd")
	os.WriteFile(binary, []byte("#!/bin/sh\n"), 0o755)

	cfg := Default()
	cfg.Daemon.Binary = binary
	if path, err := cfg.DaemonPath(); err != nil || path != binary {
		t.Errorf("DaemonPath = %q, %v", path, err)
	}

	cfg.Daemon.Binary = "execpolicy-no-such-daemon"
	if _, err := cfg.DaemonPath(); err == nil {
		t.Error("DaemonPath found a nonexistent binary")
	}
}
