// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/execpolicy/lib/config"
	"github.com/bureau-foundation/execpolicy/lib/rules"
	"github.com/bureau-foundation/execpolicy/lib/testutil"
	"github.com/bureau-foundation/execpolicy/lib/trust"
)

// testConfig lays out a complete policy tree under a temp directory
// and returns a config pointing at it.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	tool := filepath.Join(dir, "bin", "tool")
	testutil.WriteFile(t, tool, "tool")

	cfg := config.Default()
	cfg.Paths.Root = dir
	cfg.Paths.TrustStore = filepath.Join(dir, "trust.db")
	cfg.Paths.TrustFile = filepath.Join(dir, "fapolicyd.trust")
	cfg.Paths.TrustDir = filepath.Join(dir, "trust.d")
	cfg.Paths.RulesFile = filepath.Join(dir, "compiled.rules")
	cfg.Paths.Passwd = filepath.Join(dir, "passwd")
	cfg.Paths.Group = filepath.Join(dir, "group")
	cfg.Paths.EventLog = filepath.Join(dir, "access.log")
	cfg.Daemon.Version = "fapolicyd 1.3.2"

	store, err := trust.CreateStore(cfg.Paths.TrustStore, nil)
	if err != nil {
		t.Fatalf("CreateStore: %v", err)
	}
	manifest := "/usr/bin/ls 12 abcd\n" + tool + " 4 " + testutil.SHA256Hex("tool") + "\n"
	if _, err := trust.Seed(context.Background(), store, strings.NewReader(manifest), trust.OriginSystem); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	testutil.WriteFile(t, cfg.Paths.TrustFile, tool+" 4 "+testutil.SHA256Hex("changed")+"\n")
	testutil.WriteFile(t, filepath.Join(cfg.Paths.TrustDir, "10-app"), "/opt/app 9 cccc\n")
	testutil.WriteFile(t, cfg.Paths.RulesFile, "allow perm=open exe=/usr/bin/rpm : all\ndeny_audit perm=any all : all\n")
	testutil.WriteFile(t, cfg.Paths.Passwd, "root:x:0:0:root:/root:/bin/bash\nalice:x:1000:1000::/home/alice:/bin/sh\n")
	testutil.WriteFile(t, cfg.Paths.Group, "root:x:0:\nwheel:x:10:alice\n")
	return cfg
}

func TestLoad(t *testing.T) {
	cfg := testConfig(t)
	state, err := Load(context.Background(), cfg, Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := len(state.SystemTrust()); got != 2 {
		t.Errorf("system trust = %d, want 2", got)
	}
	if got := len(state.AncillaryTrust()); got != 2 {
		t.Errorf("ancillary trust = %d, want 2", got)
	}
	if state.Rules().Len() != 2 {
		t.Errorf("rules = %d, want 2", state.Rules().Len())
	}
	if len(state.Users()) != 2 || len(state.Groups()) != 2 {
		t.Errorf("users = %d, groups = %d", len(state.Users()), len(state.Groups()))
	}
	if !state.DaemonVersion().AtLeast(1, 3, 2) {
		t.Errorf("daemon version = %s, want 1.3.2", state.DaemonVersion())
	}
	for record := range state.Trust().All() {
		if record.Status() != trust.StatusUnknown {
			t.Errorf("%s status = %s before sync", record.Trust.Path, record.Status())
		}
	}
}

func TestLoadChecked(t *testing.T) {
	cfg := testConfig(t)
	state, err := LoadChecked(context.Background(), cfg, Options{})
	if err != nil {
		t.Fatalf("LoadChecked: %v", err)
	}
	tool := filepath.Join(cfg.Paths.Root, "bin", "tool")

	system, _ := state.Trust().Get(trust.OriginSystem, tool)
	if system.Status() != trust.StatusTrusted {
		t.Errorf("system %s status = %s, want trusted", tool, system.Status())
	}
	ancillary, _ := state.Trust().Get(trust.OriginAncillary, tool)
	if ancillary.Status() != trust.StatusMismatched {
		t.Errorf("ancillary %s status = %s, want mismatched", tool, ancillary.Status())
	}
	missing, _ := state.Trust().Get(trust.OriginSystem, "/usr/bin/ls")
	if missing.Status() != trust.StatusUnknown && missing.Status() != trust.StatusMismatched {
		t.Errorf("/usr/bin/ls status = %s", missing.Status())
	}
}

func TestLoadErrorNamesSubsystem(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(cfg *config.Config)
		subsystem Subsystem
	}{
		{"store", func(cfg *config.Config) { cfg.Paths.TrustStore += ".missing" }, SubsystemTrust},
		{"trust file", func(cfg *config.Config) { cfg.Paths.TrustFile += ".missing" }, SubsystemTrust},
		{"rules", func(cfg *config.Config) { cfg.Paths.RulesFile += ".missing" }, SubsystemRules},
		{"passwd", func(cfg *config.Config) { cfg.Paths.Passwd += ".missing" }, SubsystemUsers},
		{"group", func(cfg *config.Config) { cfg.Paths.Group += ".missing" }, SubsystemGroups},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := testConfig(t)
			test.mutate(cfg)
			state, err := Load(context.Background(), cfg, Options{})
			if state != nil {
				t.Error("Load returned a partial state")
			}
			var loadErr *LoadError
			if !errors.As(err, &loadErr) {
				t.Fatalf("error = %v, want *LoadError", err)
			}
			if loadErr.Subsystem != test.subsystem {
				t.Errorf("subsystem = %s, want %s", loadErr.Subsystem, test.subsystem)
			}
		})
	}
}

func TestApplyTrustChangesSharesOtherFacets(t *testing.T) {
	cfg := testConfig(t)
	state, err := Load(context.Background(), cfg, Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	changeset := trust.NewChangeset(trust.OriginAncillary)
	changeset.Add(trust.New("/opt/new", 1, "ab"))
	changeset.Remove("/opt/app")
	next := state.ApplyTrustChanges(changeset)

	if !next.Rules().Equal(state.Rules()) {
		t.Error("rules changed by a trust changeset")
	}
	if next.Config() != state.Config() {
		t.Error("config differs between derived states")
	}
	if _, ok := next.Trust().Get(trust.OriginAncillary, "/opt/new"); !ok {
		t.Error("added trust missing")
	}
	if !state.Trust().Contains("/opt/app") {
		t.Error("original state modified")
	}
	if len(next.SystemTrust()) != len(state.SystemTrust()) {
		t.Error("ancillary changeset touched system trust")
	}
}

func TestApplyRuleChanges(t *testing.T) {
	cfg := testConfig(t)
	state, err := Load(context.Background(), cfg, Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	changeset := rules.NewChangeset()
	changeset.Append("allow perm=execute all : trust=1")
	next, err := state.ApplyRuleChanges(changeset)
	if err != nil {
		t.Fatalf("ApplyRuleChanges: %v", err)
	}
	if next.Rules().Len() != 3 || state.Rules().Len() != 2 {
		t.Errorf("rules: next %d, original %d", next.Rules().Len(), state.Rules().Len())
	}
	if !next.Trust().Equal(state.Trust()) {
		t.Error("trust changed by a rule changeset")
	}
}

func TestCheckStale(t *testing.T) {
	cfg := testConfig(t)
	state, err := Load(context.Background(), cfg, Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if stale := state.CheckStale(); len(stale) != 0 {
		t.Fatalf("fresh state stale: %v", stale)
	}

	testutil.WriteFile(t, cfg.Paths.RulesFile, "deny perm=any all : all\n")
	testutil.WriteFile(t, filepath.Join(cfg.Paths.TrustDir, "20-more"), "/opt/more 1 aa\n")

	stale := state.CheckStale()
	want := []string{cfg.Paths.RulesFile, filepath.Join(cfg.Paths.TrustDir, "20-more")}
	if len(stale) != len(want) {
		t.Fatalf("CheckStale = %v, want %v", stale, want)
	}
	for i := range want {
		if stale[i] != want[i] {
			t.Errorf("CheckStale[%d] = %s, want %s", i, stale[i], want[i])
		}
	}

	if stale := Empty(cfg).CheckStale(); stale != nil {
		t.Errorf("empty state stale: %v", stale)
	}
}

func TestSnapshotDeterministic(t *testing.T) {
	cfg := testConfig(t)
	state, err := Load(context.Background(), cfg, Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	var first, second bytes.Buffer
	if err := state.WriteSnapshot(&first); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if err := state.WriteSnapshot(&second); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Error("snapshots of the same state differ")
	}

	snapshot, err := ReadSnapshot(&first)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if snapshot.Rules != state.Rules().Text() {
		t.Errorf("rules = %q", snapshot.Rules)
	}
	if len(snapshot.Ancillary) != 2 || snapshot.DaemonVersion == "unknown" {
		t.Errorf("snapshot = %+v", snapshot)
	}
	if fingerprint := snapshot.Fingerprints[cfg.Paths.RulesFile]; fingerprint.IsZero() {
		t.Error("rules file fingerprint missing")
	}
	if !strings.Contains(snapshot.TrustFile(), "/opt/app 9 cccc\n") {
		t.Errorf("TrustFile() = %q", snapshot.TrustFile())
	}
}

func TestEvents(t *testing.T) {
	cfg := testConfig(t)
	testutil.WriteFile(t, cfg.Paths.EventLog,
		"rule=2 dec=deny_audit perm=execute uid=1000 gid=10 pid=42 exe=/usr/bin/bash : path=/opt/app ftype=application/x-executable\n"+
			"garbage\n")
	state, err := Load(context.Background(), cfg, Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if _, _, err := state.Events(EventsQuery{}); err == nil {
		t.Error("strict policy accepted a malformed line")
	}

	log, findings, err := state.Events(EventsQuery{Policy: "skip"})
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(log.Events) != 1 || len(log.Skipped) != 1 {
		t.Fatalf("events = %d, skipped = %d", len(log.Events), len(log.Skipped))
	}
	finding := findings[0]
	if finding.User != "alice" || finding.Rule == nil || finding.RuleDrift() {
		t.Errorf("finding = %+v", finding)
	}
	if len(finding.ObjectTrust) != 1 {
		t.Errorf("object trust = %+v", finding.ObjectTrust)
	}
}

func TestEventsRejectsUnknownPolicy(t *testing.T) {
	state := Empty(testConfig(t))
	if _, _, err := state.Events(EventsQuery{Policy: "lenient"}); err == nil {
		t.Error("unknown line policy accepted")
	}
}

func TestConfigIsolatedBetweenStates(t *testing.T) {
	cfg := testConfig(t)
	original := Empty(cfg)
	changeset := trust.NewChangeset(trust.OriginAncillary)
	changeset.Add(trust.New("/opt/new", 1, "ab"))
	derived := original.ApplyTrustChanges(changeset)

	view := derived.Config()
	view.Events.LinePolicy = "skip"
	view.Paths.EventLog = "/elsewhere"
	if original.Config().Events.LinePolicy != "strict" || derived.Config().Events.LinePolicy != "strict" {
		t.Errorf("editing a returned config changed a state: %q, %q",
			original.Config().Events.LinePolicy, derived.Config().Events.LinePolicy)
	}

	cfg.Events.LinePolicy = "skip"
	if original.Config().Events.LinePolicy != "strict" {
		t.Error("editing the caller's config after Empty changed the state")
	}
}

func TestEmpty(t *testing.T) {
	cfg := config.Default()
	cfg.Daemon.Version = "1.1"
	state := Empty(cfg)
	if state.Trust().Len() != 0 || state.Rules().Len() != 0 {
		t.Error("empty state has content")
	}
	if !state.DaemonVersion().Known() {
		t.Error("pinned version ignored")
	}
}

func TestSnapshotChanged(t *testing.T) {
	cfg := testConfig(t)
	state, err := Load(context.Background(), cfg, Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	snapshot := state.Snapshot()
	if changed := snapshot.Changed(); len(changed) != 0 {
		t.Fatalf("fresh snapshot changed: %v", changed)
	}

	if err := os.Remove(cfg.Paths.TrustFile); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	changed := snapshot.Changed()
	if len(changed) != 1 || changed[0] != cfg.Paths.TrustFile {
		t.Errorf("Changed() = %v, want [%s]", changed, cfg.Paths.TrustFile)
	}
}
