// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"log/slog"

	"github.com/bureau-foundation/execpolicy/lib/config"
	"github.com/bureau-foundation/execpolicy/lib/rules"
	"github.com/bureau-foundation/execpolicy/lib/trust"
	"github.com/bureau-foundation/execpolicy/lib/users"
	"github.com/bureau-foundation/execpolicy/lib/version"
)

// Options configures [Load] and [LoadChecked].
type Options struct {
	// Logger receives load progress. Nil discards.
	Logger *slog.Logger

	// Store replaces the trust store at the configured path. The
	// caller keeps ownership and closes it.
	Store trust.Store
}

// Load reads the declared policy state described by cfg. Trust records
// carry no disk status; use [LoadChecked] for that.
func Load(ctx context.Context, cfg *config.Config, options Options) (*State, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	sources := trust.Sources{
		StorePath:     cfg.Paths.TrustStore,
		AncillaryFile: cfg.Paths.TrustFile,
		AncillaryDir:  cfg.Paths.TrustDir,
	}
	var trustDB trust.DB
	var err error
	if options.Store != nil {
		trustDB, err = trust.LoadFromStore(ctx, options.Store, sources, logger)
	} else {
		trustDB, err = trust.Load(ctx, sources, logger)
	}
	if err != nil {
		return nil, &LoadError{Subsystem: SubsystemTrust, Err: err}
	}

	rulesDB, err := rules.Load(cfg.Paths.RulesFile)
	if err != nil {
		return nil, &LoadError{Subsystem: SubsystemRules, Err: err}
	}

	userList, err := users.ReadUsers(cfg.Paths.Passwd, logger)
	if err != nil {
		return nil, &LoadError{Subsystem: SubsystemUsers, Err: err}
	}
	groupList, err := users.ReadGroups(cfg.Paths.Group, logger)
	if err != nil {
		return nil, &LoadError{Subsystem: SubsystemGroups, Err: err}
	}

	state := &State{
		config:        *cfg,
		trustDB:       trustDB,
		rulesDB:       rulesDB,
		users:         userList,
		groups:        groupList,
		daemonVersion: daemonVersion(ctx, cfg, logger),
		fingerprints:  fingerprintSources(cfg, logger),
		logger:        logger,
	}

	logger.Info("state loaded",
		"trust", trustDB.Len(),
		"rules", rulesDB.Len(),
		"users", len(userList),
		"groups", len(groupList),
		"daemon", state.daemonVersion,
	)
	return state, nil
}

// LoadChecked is [Load] followed by a disk sync of the trust database.
func LoadChecked(ctx context.Context, cfg *config.Config, options Options) (*State, error) {
	state, err := Load(ctx, cfg, options)
	if err != nil {
		return nil, err
	}
	return state.Sync()
}

// daemonVersion returns the pinned version from cfg or asks the daemon
// binary. Any failure yields the unknown version.
func daemonVersion(ctx context.Context, cfg *config.Config, logger *slog.Logger) version.Daemon {
	if cfg.Daemon.Version != "" {
		daemon, err := version.ParseDaemon(cfg.Daemon.Version)
		if err != nil {
			logger.Warn("ignoring pinned daemon version", "version", cfg.Daemon.Version, "error", err)
			return version.Daemon{}
		}
		return daemon
	}
	if cfg.Daemon.Binary == "" {
		return version.Daemon{}
	}
	binary, err := cfg.DaemonPath()
	if err != nil {
		logger.Debug("daemon binary unavailable", "error", err)
		return version.Daemon{}
	}
	daemon, err := version.DetectDaemon(ctx, binary)
	if err != nil {
		logger.Debug("daemon version unavailable", "binary", cfg.Daemon.Binary, "error", err)
		return version.Daemon{}
	}
	return daemon
}
