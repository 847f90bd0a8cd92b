// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package trust

import (
	"errors"
	"time"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/execpolicy/lib/binhash"
)

// DiskSync observes every record's path on disk and returns a copy of
// db with Actual populated. The input is not modified.
//
// A path that no longer exists leaves Actual nil (status Unknown). When
// the observed size differs from the declared one the file is not
// hashed: the record is already Mismatched. Any other stat failure
// aborts with KindMetadata, and a read failure while hashing aborts
// with KindFileIO.
func DiskSync(db DB) (DB, error) {
	observed := make(map[string]*Actual)
	missing := make(map[string]bool)

	result := DB{records: make(map[recordKey]Record, len(db.records)), detached: db.detached}
	for key, record := range db.records {
		record = record.clone()
		record.Actual = nil
		path := record.Trust.Path

		if !missing[path] {
			actual, cached := observed[path]
			if !cached || (actual.Hash == "" && actual.Size == record.Trust.Size) {
				var err error
				actual, err = observe(path, record.Trust.Size)
				if err != nil {
					return DB{}, err
				}
				if actual == nil {
					missing[path] = true
				} else {
					observed[path] = actual
				}
			}
			record.Actual = actual
		}
		result.records[key] = record
	}
	return result, nil
}

// observe stats path and hashes it when its size equals declaredSize.
// A missing file returns (nil, nil).
func observe(path string, declaredSize uint64) (*Actual, error) {
	var stat unix.Stat_t
	if err := unix.Stat(path, &stat); err != nil {
		if errors.Is(err, unix.ENOENT) || errors.Is(err, unix.ENOTDIR) {
			return nil, nil
		}
		return nil, &Error{Kind: KindMetadata, Path: path, Err: err}
	}

	seconds, nanoseconds := stat.Mtim.Unix()
	actual := &Actual{
		Size:         uint64(stat.Size),
		LastModified: time.Unix(seconds, nanoseconds).UTC(),
	}
	if actual.Size != declaredSize {
		return actual, nil
	}

	digest, err := binhash.HashFile(path)
	if err != nil {
		return nil, &Error{Kind: KindFileIO, Path: path, Err: err}
	}
	actual.Hash = binhash.FormatDigest(digest)
	return actual, nil
}

// FromFile builds a Trust for the file currently at path.
func FromFile(path string) (Trust, error) {
	var stat unix.Stat_t
	if err := unix.Stat(path, &stat); err != nil {
		return Trust{}, &Error{Kind: KindMetadata, Path: path, Err: err}
	}
	if stat.Mode&unix.S_IFMT != unix.S_IFREG {
		return Trust{}, &Error{Kind: KindMetadata, Path: path, Err: errors.New("not a regular file")}
	}
	digest, err := binhash.HashFile(path)
	if err != nil {
		return Trust{}, &Error{Kind: KindFileIO, Path: path, Err: err}
	}
	return New(path, uint64(stat.Size), binhash.FormatDigest(digest)), nil
}
