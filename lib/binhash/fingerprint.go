// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package binhash

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// Fingerprint is a BLAKE3 keyed digest of a configuration source
// (rules file, trust file, trust store). Two loads of an unchanged
// source produce the same fingerprint.
type Fingerprint [32]byte

// fingerprintKey separates source fingerprints from any other BLAKE3
// use of the same bytes. Changing it invalidates stored fingerprints.
var fingerprintKey = [32]byte{
	'e', 'x', 'e', 'c', 'p', 'o', 'l', 'i', 'c', 'y', '.', 's', 'o', 'u', 'r', 'c',
	'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// FingerprintBytes fingerprints an in-memory source.
func FingerprintBytes(data []byte) Fingerprint {
	hasher := newFingerprintHasher()
	hasher.Write(data)
	var fingerprint Fingerprint
	copy(fingerprint[:], hasher.Sum(nil))
	return fingerprint
}

// FingerprintFile fingerprints the contents of the file at path.
func FingerprintFile(path string) (Fingerprint, error) {
	file, err := os.Open(path)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("opening %s for fingerprinting: %w", path, err)
	}
	defer file.Close()

	hasher := newFingerprintHasher()
	if _, err := io.Copy(hasher, file); err != nil {
		return Fingerprint{}, fmt.Errorf("fingerprinting %s: %w", path, err)
	}
	var fingerprint Fingerprint
	copy(fingerprint[:], hasher.Sum(nil))
	return fingerprint, nil
}

// IsZero reports whether the fingerprint is unset.
func (fingerprint Fingerprint) IsZero() bool {
	return fingerprint == Fingerprint{}
}

func (fingerprint Fingerprint) String() string {
	return hex.EncodeToString(fingerprint[:])
}

// MarshalText implements encoding.TextMarshaler.
func (fingerprint Fingerprint) MarshalText() ([]byte, error) {
	return []byte(fingerprint.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (fingerprint *Fingerprint) UnmarshalText(text []byte) error {
	decoded, err := hex.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("parsing fingerprint: %w", err)
	}
	if len(decoded) != len(fingerprint) {
		return fmt.Errorf("fingerprint is %d bytes, want %d", len(decoded), len(fingerprint))
	}
	copy(fingerprint[:], decoded)
	return nil
}

func newFingerprintHasher() *blake3.Hasher {
	// NewKeyed only fails on a key that is not 32 bytes.
	hasher, err := blake3.NewKeyed(fingerprintKey[:])
	if err != nil {
		panic("binhash: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	return hasher
}
