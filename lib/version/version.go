// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// These variables are set via -ldflags at build time.
var (
	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"

	// GitDirty is "true" when the build had uncommitted changes.
	GitDirty = "false"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"

	// Version is the semantic version, set manually for releases.
	Version = "0.1.0-dev"
)

// Build describes the running execpolicy binary.
type Build struct {
	Version  string `json:"version"`
	Commit   string `json:"commit"`
	Dirty    bool   `json:"dirty,omitempty"`
	Time     string `json:"time"`
	Go       string `json:"go"`
	Platform string `json:"platform"`
}

// Current returns the build description. Values not injected through
// -ldflags are taken from the VCS stamp the go tool embeds, when
// present.
func Current() Build {
	build := Build{
		Version:  Version,
		Commit:   GitCommit,
		Dirty:    GitDirty == "true",
		Time:     BuildTime,
		Go:       runtime.Version(),
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		build.fillFromVCS(info.Settings)
	}
	return build
}

func (build *Build) fillFromVCS(settings []debug.BuildSetting) {
	stamp := make(map[string]string, len(settings))
	for _, setting := range settings {
		stamp[setting.Key] = setting.Value
	}
	if revision := stamp["vcs.revision"]; build.Commit == "unknown" && revision != "" {
		build.Commit = revision[:min(len(revision), 12)]
		build.Dirty = stamp["vcs.modified"] == "true"
	}
	if when := stamp["vcs.time"]; build.Time == "unknown" && when != "" {
		build.Time = when
	}
}

// String returns the --version line.
func (build Build) String() string {
	dirty := ""
	if build.Dirty {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", build.Version, build.Commit, dirty, build.Time)
}

// Full returns String plus the Go version and platform.
func (build Build) Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s", build, build.Go, build.Platform)
}
