// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bureau-foundation/execpolicy/lib/app"
	"github.com/bureau-foundation/execpolicy/lib/clock"
)

// writeAutosave writes changes to a new autosave file and prunes the
// oldest files beyond the configured count.
func writeAutosave(changes []Change, options Options) (string, error) {
	if options.AutosaveDir == "" {
		return "", fmt.Errorf("autosave directory not configured")
	}
	if err := os.MkdirAll(options.AutosaveDir, 0o700); err != nil {
		return "", fmt.Errorf("creating autosave directory: %w", err)
	}

	path := filepath.Join(options.AutosaveDir, options.AutosaveBasename+"_"+clock.Stamp(options.Clock)+".json")
	if err := WriteChanges(path, changes); err != nil {
		return "", err
	}

	previous, err := DetectPrevious(options)
	if err != nil {
		return path, err
	}
	if len(previous) > options.AutosaveCount {
		for _, stale := range previous[options.AutosaveCount:] {
			if err := os.Remove(stale); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return path, fmt.Errorf("pruning autosave: %w", err)
			}
		}
	}
	return path, nil
}

// DetectPrevious returns the autosave files in the configured
// directory, newest first. A missing directory yields none.
func DetectPrevious(options Options) ([]string, error) {
	options = options.withDefaults()
	entries, err := os.ReadDir(options.AutosaveDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing autosaves: %w", err)
	}

	prefix := options.AutosaveBasename + "_"
	var paths []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.Type().IsRegular() && strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".json") {
			paths = append(paths, filepath.Join(options.AutosaveDir, name))
		}
	}
	slices.Sort(paths)
	slices.Reverse(paths)
	return paths, nil
}

// AutosaveTime returns when the autosave at path was written, read
// from its name. It reports false for names [DetectPrevious] would not
// list.
func AutosaveTime(path string, options Options) (time.Time, bool) {
	options = options.withDefaults()
	name := filepath.Base(path)
	stamp, ok := strings.CutPrefix(name, options.AutosaveBasename+"_")
	if !ok {
		return time.Time{}, false
	}
	stamp, ok = strings.CutSuffix(stamp, ".json")
	if !ok {
		return time.Time{}, false
	}
	saved, err := clock.ParseStamp(stamp)
	if err != nil {
		return time.Time{}, false
	}
	return saved, true
}

// RestorePrevious replays the newest autosave onto base. It reports
// false when there is no autosave to restore.
func RestorePrevious(base *app.State, options Options) (*Session, bool, error) {
	previous, err := DetectPrevious(options)
	if err != nil {
		return nil, false, err
	}
	if len(previous) == 0 {
		return nil, false, nil
	}
	session, err := Open(previous[0], base, options)
	if err != nil {
		return nil, false, err
	}
	return session, true, nil
}

// CleanupAutosaves removes every autosave file.
func CleanupAutosaves(options Options) error {
	previous, err := DetectPrevious(options)
	if err != nil {
		return err
	}
	var errs []error
	for _, path := range previous {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
