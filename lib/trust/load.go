// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package trust

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Sources locates the trust inputs on disk.
type Sources struct {
	// StorePath is the live trust store. Required.
	StorePath string

	// AncillaryFile is the administrator trust file. Empty skips it.
	AncillaryFile string

	// AncillaryDir is the trust.d directory. Empty skips it; every
	// regular file in it is read in name order.
	AncillaryDir string
}

// Load opens the live store at sources.StorePath and builds the
// declared trust database from it and the ancillary sources.
func Load(ctx context.Context, sources Sources, logger *slog.Logger) (DB, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	store, err := OpenStore(sources.StorePath, logger)
	if err != nil {
		return DB{}, err
	}
	defer store.Close()
	return LoadFromStore(ctx, store, sources, logger)
}

// LoadFromStore builds the declared trust database from an open store
// and the ancillary sources. sources.StorePath is only used in error
// messages.
//
// System records come from store entries with a package manager
// source; when a path appears several times the first entry is the
// declaration and all of them are kept as Stored. Ancillary records
// come from the trust file and trust.d; store entries with the file
// source are attached to them as Stored, and become ancillary records
// of their own when nothing declares the path. Later ancillary
// declarations of the same path replace earlier ones.
func LoadFromStore(ctx context.Context, store Store, sources Sources, logger *slog.Logger) (DB, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	system := make(map[string]Record)
	storedAncillary := make(map[string][]Trust)
	entries := 0
	err := store.Iterate(ctx, func(key, value string) error {
		entries++
		origin, trust, err := parseStoreValue(key, value)
		if err != nil {
			return withPath(err, sources.StorePath)
		}
		if origin == OriginAncillary {
			storedAncillary[key] = append(storedAncillary[key], trust)
			return nil
		}
		record, exists := system[key]
		if !exists {
			record = Record{Trust: trust, Origin: OriginSystem}
		}
		record.Stored = append(record.Stored, trust)
		system[key] = record
		return nil
	})
	if err != nil {
		return DB{}, err
	}

	declared, err := readAncillary(sources, logger)
	if err != nil {
		return DB{}, err
	}

	records := make([]Record, 0, len(system)+len(declared))
	for _, record := range system {
		records = append(records, record)
	}
	for path, trust := range declared {
		records = append(records, Record{
			Trust:  trust,
			Origin: OriginAncillary,
			Stored: storedAncillary[path],
		})
	}
	for path, stored := range storedAncillary {
		if _, exists := declared[path]; !exists {
			records = append(records, Record{Trust: stored[0], Origin: OriginAncillary, Stored: stored})
		}
	}

	logger.Info("trust loaded",
		"store", sources.StorePath,
		"store_entries", entries,
		"system", len(system),
		"ancillary", len(declared),
	)
	return NewDB(records...), nil
}

func readAncillary(sources Sources, logger *slog.Logger) (map[string]Trust, error) {
	declared := make(map[string]Trust)

	if sources.AncillaryFile != "" {
		if err := readTrustFile(sources.AncillaryFile, "trust file", declared, logger); err != nil {
			return nil, err
		}
	}

	if sources.AncillaryDir != "" {
		entries, err := os.ReadDir(sources.AncillaryDir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, &Error{Kind: KindTrustSourceNotFound, Path: sources.AncillaryDir, Detail: "trust.d directory", Err: err}
			}
			return nil, &Error{Kind: KindFileIO, Path: sources.AncillaryDir, Err: err}
		}
		for _, entry := range entries {
			if !entry.Type().IsRegular() {
				continue
			}
			path := filepath.Join(sources.AncillaryDir, entry.Name())
			if err := readTrustFile(path, "trust.d file", declared, logger); err != nil {
				return nil, err
			}
		}
	}

	return declared, nil
}

func readTrustFile(path, sourceName string, declared map[string]Trust, logger *slog.Logger) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Error{Kind: KindTrustSourceNotFound, Path: path, Detail: sourceName, Err: err}
		}
		return &Error{Kind: KindFileIO, Path: path, Err: err}
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		trust, err := ParseLine(line)
		if err != nil {
			return withPath(err, path)
		}
		if previous, exists := declared[trust.Path]; exists && previous != trust {
			logger.Debug("ancillary trust redeclared",
				"path", trust.Path,
				"source", path,
			)
		}
		declared[trust.Path] = trust
	}
	if err := scanner.Err(); err != nil {
		return &Error{Kind: KindFileIO, Path: path, Err: fmt.Errorf("reading: %w", err)}
	}
	return nil
}

// FormatTrustFile renders records in trust file form, one line each, in
// the order given.
func FormatTrustFile(records []Record) string {
	var builder strings.Builder
	for _, record := range records {
		builder.WriteString(record.Trust.Line())
		builder.WriteByte('\n')
	}
	return builder.String()
}
