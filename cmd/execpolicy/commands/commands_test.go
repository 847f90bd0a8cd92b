// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/bureau-foundation/execpolicy/cmd/execpolicy/cli"
	"github.com/bureau-foundation/execpolicy/lib/app"
	"github.com/bureau-foundation/execpolicy/lib/rules"
	"github.com/bureau-foundation/execpolicy/lib/session"
	"github.com/bureau-foundation/execpolicy/lib/testutil"
	"github.com/bureau-foundation/execpolicy/lib/trust"
)

// testHost lays out a policy tree and returns its directory and the
// path of a config file describing it.
func testHost(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()

	testutil.WriteFile(t, filepath.Join(dir, "manifest"), "/nonexistent/bin/ls 12 abcd\n")
	if err := execute(t, "store", "seed", "--store", filepath.Join(dir, "trust.db"), filepath.Join(dir, "manifest")); err != nil {
		t.Fatalf("store seed: %v", err)
	}

	testutil.WriteFile(t, filepath.Join(dir, "fapolicyd.trust"), "/opt/app 9 cccc\n")
	testutil.WriteFile(t, filepath.Join(dir, "trust.d", "10-empty"), "")
	testutil.WriteFile(t, filepath.Join(dir, "compiled.rules"), "allow perm=open exe=/usr/bin/rpm : all\ndeny_audit perm=any all : all\n")
	testutil.WriteFile(t, filepath.Join(dir, "passwd"), "root:x:0:0:root:/root:/bin/bash\n")
	testutil.WriteFile(t, filepath.Join(dir, "group"), "root:x:0:\n")
	testutil.WriteFile(t, filepath.Join(dir, "access.log"),
		"rule=2 dec=deny_audit perm=execute uid=0 pid=7 exe=/usr/bin/bash : path=/opt/app\n")

	configPath := filepath.Join(dir, "execpolicy.yaml")
	testutil.WriteFile(t, configPath, `paths:
  root: `+dir+`
  trust_store: ${EXECPOLICY_ROOT}/trust.db
  trust_file: ${EXECPOLICY_ROOT}/fapolicyd.trust
  trust_dir: ${EXECPOLICY_ROOT}/trust.d
  rules_file: ${EXECPOLICY_ROOT}/compiled.rules
  passwd: ${EXECPOLICY_ROOT}/passwd
  group: ${EXECPOLICY_ROOT}/group
  event_log: ${EXECPOLICY_ROOT}/access.log
  sessions: ${EXECPOLICY_ROOT}/sessions
daemon:
  version: "1.3.2"
`)
	return dir, configPath
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	return Root().Execute(context.Background(), args)
}

func exitCode(err error) int {
	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return -1
}

func TestTrustAddWithSessionFile(t *testing.T) {
	dir, configPath := testHost(t)
	tool := filepath.Join(dir, "tool")
	testutil.WriteFile(t, tool, "tool")
	sessionPath := filepath.Join(dir, "edit.json")

	if err := execute(t, "trust", "add", "-c", configPath, "--session", sessionPath, "-m", "local tool", tool); err != nil {
		t.Fatalf("trust add: %v", err)
	}
	if err := execute(t, "trust", "remove", "-c", configPath, "--session", sessionPath, "/opt/app"); err != nil {
		t.Fatalf("trust remove: %v", err)
	}

	changes, err := session.ReadChanges(sessionPath)
	if err != nil {
		t.Fatalf("ReadChanges: %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("changes = %d, want 2", len(changes))
	}
	paths := changes[0].Trust.Paths()
	if paths[tool] != trust.OpAdd {
		t.Errorf("first change paths = %v", paths)
	}
	if previous, _ := os.ReadDir(filepath.Join(dir, "sessions")); len(previous) != 0 {
		t.Error("an explicit session file also wrote autosaves")
	}
}

func TestEditsAutosaveAndSnapshot(t *testing.T) {
	dir, configPath := testHost(t)

	if err := execute(t, "rules", "append", "-c", configPath, "allow perm=execute all : trust=1"); err != nil {
		t.Fatalf("rules append: %v", err)
	}
	if err := execute(t, "trust", "remove", "-c", configPath, "/opt/app"); err != nil {
		t.Fatalf("trust remove: %v", err)
	}

	autosaves, err := os.ReadDir(filepath.Join(dir, "sessions"))
	if err != nil || len(autosaves) == 0 {
		t.Fatalf("no autosave written: %v", err)
	}

	snapshotPath := filepath.Join(dir, "policy.cbor")
	if err := execute(t, "session", "snapshot", "-c", configPath, "-o", snapshotPath); err != nil {
		t.Fatalf("session snapshot: %v", err)
	}
	file, err := os.Open(snapshotPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer file.Close()
	snapshot, err := app.ReadSnapshot(file)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if !strings.HasSuffix(snapshot.Rules, "allow perm=execute all : trust=1\n") {
		t.Errorf("snapshot rules = %q", snapshot.Rules)
	}
	if len(snapshot.Ancillary) != 0 {
		t.Errorf("snapshot ancillary = %+v, want none", snapshot.Ancillary)
	}

	if err := execute(t, "snapshot", "verify", snapshotPath); err != nil {
		t.Errorf("verify of fresh snapshot: %v", err)
	}
	testutil.WriteFile(t, filepath.Join(dir, "compiled.rules"), "deny perm=any all : all\n")
	if err := execute(t, "snapshot", "verify", snapshotPath); exitCode(err) != 1 {
		t.Errorf("verify after edit = %v, want exit 1", err)
	}

	if err := execute(t, "session", "undo", "-c", configPath); err != nil {
		t.Fatalf("session undo: %v", err)
	}
	if err := execute(t, "session", "discard", "-c", configPath); err != nil {
		t.Fatalf("session discard: %v", err)
	}
	if remaining, _ := os.ReadDir(filepath.Join(dir, "sessions")); len(remaining) != 0 {
		t.Errorf("autosaves after discard = %d", len(remaining))
	}
}

func TestRulesLintExitCode(t *testing.T) {
	dir, configPath := testHost(t)
	if err := execute(t, "rules", "lint", "-c", configPath); err != nil {
		t.Errorf("lint of valid rules: %v", err)
	}

	broken := filepath.Join(dir, "broken.rules")
	testutil.WriteFile(t, broken, "allow perm=open all : all\nthis is not a rule\n")
	if err := execute(t, "rules", "lint", "--file", broken, "--problems"); exitCode(err) != 1 {
		t.Errorf("lint of invalid rules = %v, want exit 1", err)
	}
}

func TestTrustCheckExitCode(t *testing.T) {
	dir, configPath := testHost(t)
	if err := execute(t, "trust", "check", "-c", configPath, "--json"); err != nil {
		t.Errorf("check with no files on disk: %v", err)
	}

	target := filepath.Join(dir, "changed")
	testutil.WriteFile(t, target, "after")
	testutil.WriteFile(t, filepath.Join(dir, "trust.d", "20-changed"), target+" 6 0000\n")
	if err := execute(t, "trust", "check", "-c", configPath, "--json"); exitCode(err) != 1 {
		t.Errorf("check with a changed file = %v, want exit 1", err)
	}
}

func TestTrustRowsFlagDeclaredButNotStored(t *testing.T) {
	dir, configPath := testHost(t)
	testutil.WriteFile(t, filepath.Join(dir, "opt-app"), "123456789")
	testutil.WriteFile(t, filepath.Join(dir, "fapolicyd.trust"),
		filepath.Join(dir, "opt-app")+" 9 "+testutil.SHA256Hex("123456789")+"\n")

	params := stateParams{Config: configPath}
	state, err := params.loadState(context.Background(), nil, true)
	if err != nil {
		t.Fatalf("loadState: %v", err)
	}
	rows := rowsFor(state.Trust().Records())
	if len(rows) != 2 {
		t.Fatalf("rows = %+v, want system ls and ancillary opt-app", rows)
	}
	for _, row := range rows {
		switch row.Origin {
		case trust.OriginSystem:
			if !row.InStore || row.Observed != nil {
				t.Errorf("system row = %+v, want in store and absent from disk", row)
			}
		case trust.OriginAncillary:
			if row.InStore {
				t.Errorf("trust file entry %s reported as in store", row.Path)
			}
			if row.Status != trust.StatusTrusted || row.Observed == nil ||
				row.Observed.Size != 9 || row.Observed.Hash != row.Hash {
				t.Errorf("ancillary row = %+v, want the observed size and hash", row)
			}
		}
	}

	if err := execute(t, "trust", "list", "-c", configPath); err != nil {
		t.Errorf("trust list: %v", err)
	}
}

func TestTrustRowShowsMismatchedObservation(t *testing.T) {
	record := trust.Record{
		Trust:  trust.New("/opt/app", 9, "aa"),
		Origin: trust.OriginAncillary,
		Stored: []trust.Trust{trust.New("/opt/app", 9, "aa")},
		Actual: &trust.Actual{Size: 12},
	}
	row := rowFor(record)
	if !row.InStore || row.Status != trust.StatusMismatched {
		t.Errorf("row = %+v", row)
	}
	if row.Observed == nil || row.Observed.Size != 12 || row.Observed.Hash != "" {
		t.Errorf("Observed = %+v, want size 12 without a hash", row.Observed)
	}
	if storeMarker(record) != "yes" {
		t.Errorf("storeMarker = %q", storeMarker(record))
	}
}

func TestTrustShow(t *testing.T) {
	_, configPath := testHost(t)
	if err := execute(t, "trust", "show", "-c", configPath, "/opt/app"); err != nil {
		t.Errorf("trust show: %v", err)
	}
	if err := execute(t, "trust", "show", "-c", configPath, "--json", "/nonexistent/bin/ls"); err != nil {
		t.Errorf("trust show --json: %v", err)
	}
	if err := execute(t, "trust", "show", "-c", configPath, "/not/trusted"); err == nil {
		t.Error("show of an untrusted path succeeded")
	}
	if err := execute(t, "trust", "show", "-c", configPath); err == nil {
		t.Error("show without a path succeeded")
	}
}

func TestEventsCommands(t *testing.T) {
	_, configPath := testHost(t)
	if err := execute(t, "events", "list", "-c", configPath, "--denied", "--user", "0", "--json"); err != nil {
		t.Errorf("events list: %v", err)
	}
	if err := execute(t, "events", "subjects", "-c", configPath, "bash"); err != nil {
		t.Errorf("events subjects: %v", err)
	}
	if err := execute(t, "events", "list", "-c", configPath, "--policy", "lenient"); err == nil {
		t.Error("unknown line policy accepted")
	}
}

func TestUnknownCommandSuggests(t *testing.T) {
	err := execute(t, "trsut")
	if err == nil || !strings.Contains(err.Error(), `"trust"`) {
		t.Errorf("error = %v, want a suggestion of trust", err)
	}
}

func TestDescribeChange(t *testing.T) {
	trustChanges := trust.NewChangeset(trust.OriginAncillary)
	trustChanges.Add(trust.New("/opt/tool", 4, "ab"))
	trustChanges.Remove("/opt/old")
	trustChanges.Note("swap")
	row := describeChange(session.TrustChange(trustChanges))
	want := []string{"add /opt/tool 4 ab", "remove /opt/old", "# swap"}
	if row.Kind != "trust" || row.Origin != "ancillary" || !slices.Equal(row.Ops, want) {
		t.Errorf("trust row = %+v", row)
	}

	ruleChanges := rules.NewChangeset()
	ruleChanges.Replace(3, "deny perm=any all : all")
	row = describeChange(session.RuleChange(ruleChanges))
	if row.Kind != "rules" || !slices.Equal(row.Ops, []string{"replace 3 deny perm=any all : all"}) {
		t.Errorf("rules row = %+v", row)
	}
}

func TestSortedDescending(t *testing.T) {
	if got := sortedDescending([]int{2, 9, 2, 5}); !slices.Equal(got, []int{9, 5, 2}) {
		t.Errorf("sortedDescending = %v", got)
	}
}
