// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"errors"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/bureau-foundation/execpolicy/lib/binhash"
	"github.com/bureau-foundation/execpolicy/lib/config"
)

// sourcePaths lists the files a state is loaded from: the rules file,
// the trust store, the trust file and every regular file in trust.d.
func sourcePaths(cfg *config.Config) []string {
	var paths []string
	for _, path := range []string{cfg.Paths.RulesFile, cfg.Paths.TrustStore, cfg.Paths.TrustFile} {
		if path != "" {
			paths = append(paths, path)
		}
	}
	if cfg.Paths.TrustDir != "" {
		entries, err := os.ReadDir(cfg.Paths.TrustDir)
		if err == nil {
			for _, entry := range entries {
				if entry.Type().IsRegular() {
					paths = append(paths, filepath.Join(cfg.Paths.TrustDir, entry.Name()))
				}
			}
		}
	}
	return paths
}

// fingerprintSources fingerprints every source path. Unreadable files
// get the zero fingerprint.
func fingerprintSources(cfg *config.Config, logger *slog.Logger) map[string]binhash.Fingerprint {
	fingerprints := make(map[string]binhash.Fingerprint)
	for _, path := range sourcePaths(cfg) {
		fingerprint, err := binhash.FingerprintFile(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Debug("cannot fingerprint source", "path", path, "error", err)
		}
		fingerprints[path] = fingerprint
	}
	return fingerprints
}

// Fingerprints returns the load-time fingerprint of each source file.
func (state *State) Fingerprints() map[string]binhash.Fingerprint {
	return maps.Clone(state.fingerprints)
}

// CheckStale returns, sorted, the source files whose content changed
// since the state was loaded, including trust.d files that appeared or
// disappeared. A state that was not loaded from disk is never stale.
func (state *State) CheckStale() []string {
	if state.fingerprints == nil {
		return nil
	}
	current := fingerprintSources(&state.config, state.logger)

	var changed []string
	for path, fingerprint := range current {
		if previous, known := state.fingerprints[path]; !known || previous != fingerprint {
			changed = append(changed, path)
		}
	}
	for path := range state.fingerprints {
		if _, present := current[path]; !present {
			changed = append(changed, path)
		}
	}
	slices.Sort(changed)
	return changed
}
