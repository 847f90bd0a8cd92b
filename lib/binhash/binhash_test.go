// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package binhash

import (
	"bytes"
	"crypto/sha256"
	"os"
	"path/filepath"
	"testing"
)

func TestHashFile(t *testing.T) {
	content := []byte("#!/bin/sh\necho trusted\n")
	path := filepath.Join(t.TempDir(), "script")
	if err := os.WriteFile(path, content, 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	if want := sha256.Sum256(content); got != want {
		t.Errorf("HashFile = %x, want %x", got, want)
	}
}

func TestHashFileNonexistent(t *testing.T) {
	if _, err := HashFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("HashFile should fail for a missing file")
	}
}

func TestHashReaderCountsBytes(t *testing.T) {
	content := make([]byte, 300*1024)
	for index := range content {
		content[index] = byte(index % 251)
	}

	digest, size, err := HashReader(bytes.NewReader(content))
	if err != nil {
		t.Fatalf("HashReader: %v", err)
	}
	if size != uint64(len(content)) {
		t.Errorf("size = %d, want %d", size, len(content))
	}
	if want := sha256.Sum256(content); digest != want {
		t.Errorf("digest = %x, want %x", digest, want)
	}
}

func TestParseDigestRoundTrip(t *testing.T) {
	original := sha256.Sum256([]byte("round-trip"))
	formatted := FormatDigest(original)
	if len(formatted) != 64 {
		t.Fatalf("FormatDigest length = %d, want 64", len(formatted))
	}

	parsed, err := ParseDigest(formatted)
	if err != nil {
		t.Fatalf("ParseDigest: %v", err)
	}
	if parsed != original {
		t.Errorf("round trip: %x != %x", parsed, original)
	}
}

func TestParseDigestInvalid(t *testing.T) {
	for name, input := range map[string]string{
		"not hex":   "zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz",
		"too short": "abcd",
		"empty":     "",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseDigest(input); err == nil {
				t.Errorf("ParseDigest(%q) should fail", input)
			}
		})
	}
}
