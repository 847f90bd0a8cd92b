// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "trust.d", "10-app")
	WriteFile(t, path, "/usr/bin/app 3 abc\n")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "/usr/bin/app 3 abc\n" {
		t.Errorf("content = %q", data)
	}
}

func TestSHA256Hex(t *testing.T) {
	const empty = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := SHA256Hex(""); got != empty {
		t.Errorf("SHA256Hex(\"\") = %s, want %s", got, empty)
	}
}
