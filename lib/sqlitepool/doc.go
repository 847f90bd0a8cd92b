// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides a SQLite connection pool with standard
// pragmas, built on zombiezen.com/go/sqlite.
//
// Callers [Pool.Take] a connection, work on it, and [Pool.Put] it
// back. Connections are not safe for concurrent use.
//
// # Pragmas
//
// Every connection gets busy_timeout=5000, cache_size=-8192 and
// temp_store=MEMORY. Read-write pools additionally set
// journal_mode=WAL, synchronous=NORMAL and foreign_keys=OFF. Read-only
// pools (see [Config.ReadOnly]) instead set query_only=ON and leave
// the journal mode of the file untouched, since the file usually
// belongs to another process.
//
// # Usage
//
//	pool, err := sqlitepool.Open(sqlitepool.Config{
//	    Path:     "/var/lib/fapolicyd/trust.db",
//	    ReadOnly: true,
//	    Logger:   logger,
//	})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	conn, err := pool.Take(ctx)
//	if err != nil {
//	    return err
//	}
//	defer pool.Put(conn)
package sqlitepool
