// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"cmp"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Daemon is the version of the policy daemon. The zero value is
// unknown.
type Daemon struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Patch int `json:"patch"`

	// Raw is the text the version was parsed from.
	Raw string `json:"raw,omitempty"`
}

// Known reports whether a version was detected.
func (daemon Daemon) Known() bool {
	return daemon.Major != 0 || daemon.Minor != 0 || daemon.Patch != 0
}

func (daemon Daemon) String() string {
	if !daemon.Known() {
		return "unknown"
	}
	return fmt.Sprintf("%d.%d.%d", daemon.Major, daemon.Minor, daemon.Patch)
}

// Compare orders versions numerically. Raw text is ignored.
func (daemon Daemon) Compare(other Daemon) int {
	if order := cmp.Compare(daemon.Major, other.Major); order != 0 {
		return order
	}
	if order := cmp.Compare(daemon.Minor, other.Minor); order != 0 {
		return order
	}
	return cmp.Compare(daemon.Patch, other.Patch)
}

// AtLeast reports whether the version is known and not older than
// major.minor.patch.
func (daemon Daemon) AtLeast(major, minor, patch int) bool {
	return daemon.Known() && daemon.Compare(Daemon{Major: major, Minor: minor, Patch: patch}) >= 0
}

var daemonVersionPattern = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

// ParseDaemon extracts the first dotted version from text, such as
// "fapolicyd 1.3.2" or "1.1".
func ParseDaemon(text string) (Daemon, error) {
	match := daemonVersionPattern.FindStringSubmatch(text)
	if match == nil {
		return Daemon{}, fmt.Errorf("no version number in %q", strings.TrimSpace(text))
	}
	daemon := Daemon{Raw: strings.TrimSpace(text)}
	daemon.Major, _ = strconv.Atoi(match[1])
	daemon.Minor, _ = strconv.Atoi(match[2])
	if match[3] != "" {
		daemon.Patch, _ = strconv.Atoi(match[3])
	}
	return daemon, nil
}

// detectTimeout bounds how long the daemon binary may take to print
// its version.
const detectTimeout = 5 * time.Second

// DetectDaemon runs "<binary> --version" and parses its output.
func DetectDaemon(ctx context.Context, binary string) (Daemon, error) {
	ctx, cancel := context.WithTimeout(ctx, detectTimeout)
	defer cancel()

	output, err := exec.CommandContext(ctx, binary, "--version").CombinedOutput()
	if err != nil {
		return Daemon{}, fmt.Errorf("running %s --version: %w", binary, err)
	}
	return ParseDaemon(string(output))
}
