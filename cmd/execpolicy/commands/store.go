// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/bureau-foundation/execpolicy/cmd/execpolicy/cli"
	"github.com/bureau-foundation/execpolicy/lib/trust"
)

func storeCommand() *cli.Command {
	return &cli.Command{
		Name:    "store",
		Summary: "Build trust stores for testing and staging",
		Description: `Build trust stores outside the daemon's control, for test hosts and
staging images. The live store at the configured path is only ever
opened read-only by the other commands.`,
		Subcommands: []*cli.Command{
			storeSeedCommand(),
		},
	}
}

type storeSeedParams struct {
	cli.Verbosity
	Store  string `json:"store"  flag:"store"  desc:"trust store to create or extend"`
	Origin string `json:"origin" flag:"origin" desc:"origin of the manifest entries" default:"system"`
}

func storeSeedCommand() *cli.Command {
	var params storeSeedParams
	return &cli.Command{
		Name:    "seed",
		Summary: "Load a trust manifest into a store",
		Description: `Read a manifest of "<path> <size> <sha256>" lines and write each entry
into the store. System entries are recorded with the rpm source,
ancillary entries with the file source.`,
		Usage:  "execpolicy store seed --store <db> [--origin system|ancillary] <manifest>",
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if params.Store == "" || len(args) != 1 {
				return fmt.Errorf("--store and one manifest file are required")
			}
			origin, err := trust.ParseOrigin(params.Origin)
			if err != nil {
				return err
			}

			manifest, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening manifest: %w", err)
			}
			defer manifest.Close()

			store, err := trust.CreateStore(params.Store, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			written, err := trust.Seed(ctx, store, manifest, origin)
			if err != nil {
				return err
			}
			logger.Info("store seeded", "store", params.Store, "entries", written, "origin", origin)
			return nil
		},
	}
}
