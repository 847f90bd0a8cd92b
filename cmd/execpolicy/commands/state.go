// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/bureau-foundation/execpolicy/cmd/execpolicy/cli"
	"github.com/bureau-foundation/execpolicy/lib/app"
	"github.com/bureau-foundation/execpolicy/lib/config"
	"github.com/bureau-foundation/execpolicy/lib/session"
)

// stateParams is embedded by every command that reads the policy
// state.
type stateParams struct {
	cli.Verbosity
	Config string `json:"config" flag:"config,c" desc:"path to execpolicy.yaml (default: $EXECPOLICY_CONFIG, then the stock fapolicyd layout)"`
}

// loadConfig resolves the configuration: --config, then the
// environment variable, then the stock layout.
func (params *stateParams) loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case params.Config != "":
		cfg, err = config.LoadFile(params.Config)
	case os.Getenv(config.EnvironmentVariable) != "":
		cfg, err = config.Load()
	default:
		cfg = config.Resolved()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// loadState loads the state, syncing trust with the disk when checked
// is set.
func (params *stateParams) loadState(ctx context.Context, logger *slog.Logger, checked bool) (*app.State, error) {
	cfg, err := params.loadConfig()
	if err != nil {
		return nil, err
	}
	options := app.Options{Logger: logger}
	if checked {
		return app.LoadChecked(ctx, cfg, options)
	}
	return app.Load(ctx, cfg, options)
}

// sessionParams is embedded by commands that edit or read the pending
// changes.
type sessionParams struct {
	stateParams
	Session string `json:"session" flag:"session,s" desc:"session file to use instead of the autosave (.json or .cbor)"`
}

// openSession returns the edit session over state: the --session file
// when given (new if it does not exist yet), otherwise the newest
// autosave, otherwise a fresh session.
func (params *sessionParams) openSession(state *app.State, logger *slog.Logger) (*session.Session, error) {
	cfg := state.Config()
	options := session.OptionsFromConfig(&cfg)
	options.Logger = logger

	if params.Session != "" {
		options.Autosave = false
		if _, err := os.Stat(params.Session); errors.Is(err, fs.ErrNotExist) {
			return session.New(state, options), nil
		}
		return session.Open(params.Session, state, options)
	}

	if err := cfg.EnsurePaths(); err != nil {
		return nil, err
	}
	restored, found, err := session.RestorePrevious(state, options)
	if err != nil {
		return nil, fmt.Errorf("restoring autosaved session: %w", err)
	}
	if found {
		logger.Debug("resumed autosaved session", "pending", len(restored.Pending()))
		return restored, nil
	}
	return session.New(state, options), nil
}

// saveSession writes an explicit --session file. Autosaved sessions
// were written by the edit itself.
func (params *sessionParams) saveSession(editing *session.Session) error {
	if params.Session == "" {
		return nil
	}
	return editing.Save(params.Session)
}
