// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package trust

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/sys/unix"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/execpolicy/lib/sqlitepool"
)

// Store is the daemon's live trust store: a path keyed table whose
// values are "<source> <size> <hash>". A key may hold several values.
type Store interface {
	// Get returns every value stored under key.
	Get(ctx context.Context, key string) ([]string, error)

	// Put adds a value under key.
	Put(ctx context.Context, key, value string) error

	// Iterate calls fn for every entry. Iteration stops at the first
	// error fn returns.
	Iterate(ctx context.Context, fn func(key, value string) error) error

	Close() error
}

const storeSchema = `
CREATE TABLE IF NOT EXISTS trust (
	key   TEXT NOT NULL,
	value TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS trust_key ON trust (key);
`

// SQLiteStore is a [Store] backed by a SQLite file. It holds the same
// key/value layout as the daemon's LMDB store but is not file
// compatible with it.
type SQLiteStore struct {
	pool *sqlitepool.Pool
	path string
}

var _ Store = (*SQLiteStore)(nil)

// OpenStore opens an existing trust store read-only. A missing file
// yields KindStoreNotFound and an unreadable one
// KindStorePermissionDenied.
func OpenStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &Error{Kind: KindStoreNotFound, Path: path, Err: err}
		}
		return nil, &Error{Kind: KindStoreReadFailure, Path: path, Err: err}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		if errors.Is(err, unix.EACCES) || errors.Is(err, unix.EPERM) {
			return nil, &Error{Kind: KindStorePermissionDenied, Path: path, Err: err}
		}
		return nil, &Error{Kind: KindStoreReadFailure, Path: path, Err: err}
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     path,
		PoolSize: 1,
		ReadOnly: true,
		Logger:   logger,
	})
	if err != nil {
		return nil, &Error{Kind: KindStoreReadFailure, Path: path, Err: err}
	}
	return &SQLiteStore{pool: pool, path: path}, nil
}

// CreateStore opens a writable trust store, creating the file and
// schema if needed.
func CreateStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     path,
		PoolSize: 1,
		Logger:   logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, storeSchema, nil)
		},
	})
	if err != nil {
		return nil, &Error{Kind: KindStoreReadFailure, Path: path, Err: err}
	}
	return &SQLiteStore{pool: pool, path: path}, nil
}

// Path returns the store's file path.
func (store *SQLiteStore) Path() string {
	return store.path
}

func (store *SQLiteStore) Get(ctx context.Context, key string) ([]string, error) {
	var values []string
	err := store.query(ctx, "SELECT value FROM trust WHERE key = ? ORDER BY rowid", []any{key},
		func(stmt *sqlite.Stmt) error {
			values = append(values, stmt.ColumnText(0))
			return nil
		})
	return values, err
}

func (store *SQLiteStore) Put(ctx context.Context, key, value string) error {
	if store.pool.ReadOnly() {
		return &Error{Kind: KindStorePermissionDenied, Path: store.path, Err: errors.New("store opened read-only")}
	}
	conn, err := store.pool.Take(ctx)
	if err != nil {
		return &Error{Kind: KindStoreReadFailure, Path: store.path, Err: err}
	}
	defer store.pool.Put(conn)

	err = sqlitex.Execute(conn, "INSERT INTO trust (key, value) VALUES (?, ?)", &sqlitex.ExecOptions{
		Args: []any{key, value},
	})
	if err != nil {
		return fmt.Errorf("writing trust store %s: %w", store.path, err)
	}
	return nil
}

func (store *SQLiteStore) Iterate(ctx context.Context, fn func(key, value string) error) error {
	return store.query(ctx, "SELECT key, value FROM trust ORDER BY rowid", nil,
		func(stmt *sqlite.Stmt) error {
			return fn(stmt.ColumnText(0), stmt.ColumnText(1))
		})
}

func (store *SQLiteStore) Close() error {
	return store.pool.Close()
}

// query runs a read statement. Callback errors pass through untouched
// so callers see their own trust errors; SQLite failures become
// KindStoreReadFailure.
func (store *SQLiteStore) query(ctx context.Context, query string, args []any, result func(*sqlite.Stmt) error) error {
	conn, err := store.pool.Take(ctx)
	if err != nil {
		return &Error{Kind: KindStoreReadFailure, Path: store.path, Err: err}
	}
	defer store.pool.Put(conn)

	var callbackErr error
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			if err := result(stmt); err != nil {
				callbackErr = err
				return err
			}
			return nil
		},
	})
	if callbackErr != nil {
		return callbackErr
	}
	if err != nil {
		return &Error{Kind: KindStoreReadFailure, Path: store.path, Err: err}
	}
	return nil
}

// Seed writes every trust line read from manifest into store under
// origin and returns the number of entries written. Blank lines and
// lines starting with '#' are skipped.
func Seed(ctx context.Context, store Store, manifest io.Reader, origin Origin) (int, error) {
	scanner := bufio.NewScanner(manifest)
	written := 0
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		trust, err := ParseLine(line)
		if err != nil {
			return written, fmt.Errorf("manifest line %d: %w", lineNumber, err)
		}
		if err := store.Put(ctx, trust.Path, storeValue(origin, trust)); err != nil {
			return written, err
		}
		written++
	}
	if err := scanner.Err(); err != nil {
		return written, fmt.Errorf("reading manifest: %w", err)
	}
	return written, nil
}
