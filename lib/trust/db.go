// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package trust

import (
	"cmp"
	"iter"
	"maps"
	"slices"
)

type recordKey struct {
	origin Origin
	path   string
}

// DB is the trust database: records keyed by (origin, path). A DB is a
// value; every operation that changes it returns a new DB and leaves
// the receiver untouched. Records handed out are copies.
//
// detached holds the live store entries of paths whose declaration a
// changeset removed. The store still has them, so they reattach when
// the path is declared again.
type DB struct {
	records  map[recordKey]Record
	detached map[recordKey][]Trust
}

// NewDB builds a database from records. A later record with the same
// origin and path replaces an earlier one.
func NewDB(records ...Record) DB {
	db := DB{records: make(map[recordKey]Record, len(records))}
	for _, record := range records {
		db.records[recordKey{record.Origin, record.Trust.Path}] = record.clone()
	}
	return db
}

// Len returns the number of records across both origins.
func (db DB) Len() int {
	return len(db.records)
}

// Get returns the record for path under origin.
func (db DB) Get(origin Origin, path string) (Record, bool) {
	record, ok := db.records[recordKey{origin, path}]
	return record.clone(), ok
}

// Lookup returns every record for path, system first.
func (db DB) Lookup(path string) []Record {
	var found []Record
	for _, origin := range []Origin{OriginSystem, OriginAncillary} {
		if record, ok := db.records[recordKey{origin, path}]; ok {
			found = append(found, record.clone())
		}
	}
	return found
}

// Contains reports whether path is trusted under any origin.
func (db DB) Contains(path string) bool {
	return len(db.Lookup(path)) > 0
}

// All iterates records ordered by origin then path.
func (db DB) All() iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for _, record := range db.Records() {
			if !yield(record) {
				return
			}
		}
	}
}

// Records returns all records ordered by origin then path.
func (db DB) Records() []Record {
	records := make([]Record, 0, len(db.records))
	for record := range maps.Values(db.records) {
		records = append(records, record.clone())
	}
	slices.SortFunc(records, compareRecords)
	return records
}

// SystemTrust returns the system records ordered by path.
func (db DB) SystemTrust() []Record {
	return db.filter(OriginSystem)
}

// AncillaryTrust returns the ancillary records ordered by path.
func (db DB) AncillaryTrust() []Record {
	return db.filter(OriginAncillary)
}

func (db DB) filter(origin Origin) []Record {
	var records []Record
	for key, record := range db.records {
		if key.origin == origin {
			records = append(records, record.clone())
		}
	}
	slices.SortFunc(records, compareRecords)
	return records
}

// ByOrigin returns a fresh path-keyed map of origin's records.
func (db DB) ByOrigin(origin Origin) map[string]Record {
	scoped := make(map[string]Record)
	for key, record := range db.records {
		if key.origin == origin {
			scoped[key.path] = record.clone()
		}
	}
	return scoped
}

// Counts returns the number of records per status.
func (db DB) Counts() map[Status]int {
	counts := make(map[Status]int)
	for _, record := range db.records {
		counts[record.Status()]++
	}
	return counts
}

// Apply applies changeset to the records of the changeset's origin and
// returns the resulting database. Records of the other origin are
// carried over unchanged. A removed path keeps its live store entries
// aside and gets them back if a later changeset declares it again.
func (db DB) Apply(changeset *Changeset) DB {
	origin := changeset.Origin()
	before := db.ByOrigin(origin)
	applied := changeset.Apply(before)

	result := DB{
		records:  make(map[recordKey]Record, len(db.records)+len(applied)),
		detached: make(map[recordKey][]Trust, len(db.detached)),
	}
	for key, stored := range db.detached {
		result.detached[key] = stored
	}
	for key, record := range db.records {
		if key.origin != origin {
			result.records[key] = record
		}
	}
	for path, record := range before {
		if _, kept := applied[path]; !kept && len(record.Stored) > 0 {
			result.detached[recordKey{origin, path}] = record.Stored
		}
	}
	for path, record := range applied {
		key := recordKey{origin, path}
		if _, existed := before[path]; !existed {
			if stored, ok := result.detached[key]; ok {
				record.Stored = slices.Clone(stored)
			}
		}
		delete(result.detached, key)
		result.records[key] = record
	}
	return result
}

// Equal compares declarations, stored entries and observations.
func (db DB) Equal(other DB) bool {
	if len(db.records) != len(other.records) {
		return false
	}
	for key, record := range db.records {
		otherRecord, ok := other.records[key]
		if !ok || !recordsEqual(record, otherRecord) {
			return false
		}
	}
	return true
}

func (record Record) clone() Record {
	record.Stored = slices.Clone(record.Stored)
	if record.Actual != nil {
		actual := *record.Actual
		record.Actual = &actual
	}
	return record
}

func recordsEqual(a, b Record) bool {
	if a.Trust != b.Trust || a.Origin != b.Origin || !slices.Equal(a.Stored, b.Stored) {
		return false
	}
	switch {
	case a.Actual == nil && b.Actual == nil:
		return true
	case a.Actual == nil || b.Actual == nil:
		return false
	default:
		return a.Actual.Size == b.Actual.Size &&
			a.Actual.Hash == b.Actual.Hash &&
			a.Actual.LastModified.Equal(b.Actual.LastModified)
	}
}

func compareRecords(a, b Record) int {
	if order := cmp.Compare(a.Origin, b.Origin); order != 0 {
		return order
	}
	return cmp.Compare(a.Trust.Path, b.Trust.Path)
}
