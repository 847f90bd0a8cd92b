// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package trust

import "testing"

func TestViewsDoNotAliasDB(t *testing.T) {
	views := map[string]func(DB) Record{
		"Get": func(db DB) Record {
			record, _ := db.Get(OriginAncillary, "/opt/app")
			return record
		},
		"Lookup":         func(db DB) Record { return db.Lookup("/opt/app")[0] },
		"Records":        func(db DB) Record { return db.Records()[1] },
		"AncillaryTrust": func(db DB) Record { return db.AncillaryTrust()[0] },
		"ByOrigin":       func(db DB) Record { return db.ByOrigin(OriginAncillary)["/opt/app"] },
		"All": func(db DB) Record {
			for record := range db.All() {
				if record.IsAncillary() && record.Trust.Path == "/opt/app" {
					return record
				}
			}
			return Record{}
		},
	}

	for name, view := range views {
		t.Run(name, func(t *testing.T) {
			db := storedDB()
			record := view(db)
			if record.Trust.Path != "/opt/app" {
				t.Fatalf("view returned %s, want /opt/app", record.Trust.Path)
			}
			record.Actual.Hash = "ff"
			record.Stored[0].Hash = "ff"

			fresh, _ := db.Get(OriginAncillary, "/opt/app")
			if fresh.Status() != StatusTrusted {
				t.Errorf("status after editing the view = %v, want trusted", fresh.Status())
			}
			if !fresh.InStore() {
				t.Error("editing the view changed the stored entries")
			}
			if !db.Equal(storedDB()) {
				t.Error("editing the view changed the database")
			}
		})
	}
}

func TestNewDBCopiesInput(t *testing.T) {
	trust := New("/opt/app", 20, "bb")
	record := Record{
		Trust:  trust,
		Origin: OriginAncillary,
		Stored: []Trust{trust},
		Actual: &Actual{Size: 20, Hash: "bb"},
	}
	db := NewDB(record)
	record.Stored[0].Hash = "ff"
	record.Actual.Hash = "ff"

	got, _ := db.Get(OriginAncillary, "/opt/app")
	if !got.InStore() || got.Status() != StatusTrusted {
		t.Errorf("NewDB kept references to its input: %+v", got)
	}
}

func TestSystemTrustViewIsolated(t *testing.T) {
	ls := New("/usr/bin/ls", 10, "aa")
	db := NewDB(Record{
		Trust:  ls,
		Origin: OriginSystem,
		Stored: []Trust{ls},
		Actual: &Actual{Size: 10, Hash: "aa"},
	})
	view := db.SystemTrust()[0]
	view.Actual.Hash = "ff"
	view.Stored[0].Hash = "ff"

	if status := db.SystemTrust()[0].Status(); status != StatusTrusted {
		t.Errorf("status = %v, want trusted", status)
	}
	if !db.SystemTrust()[0].InStore() {
		t.Error("stored entry changed through the view")
	}
}
