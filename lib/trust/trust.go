// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package trust

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Trust declares that the file at Path with Size bytes and SHA256 Hash
// (lowercase hex) is trusted.
type Trust struct {
	Path string `json:"path"`
	Size uint64 `json:"size"`
	Hash string `json:"hash"`
}

// New builds a Trust.
func New(path string, size uint64, hash string) Trust {
	return Trust{Path: path, Size: size, Hash: strings.ToLower(hash)}
}

// Line renders the trust in trust file form: "path size hash".
func (trust Trust) Line() string {
	return fmt.Sprintf("%s %d %s", trust.Path, trust.Size, trust.Hash)
}

// ParseLine parses a trust file line. The path may contain spaces; the
// size and hash are the last two fields.
func ParseLine(line string) (Trust, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return Trust{}, &Error{Kind: KindMalformedTrustEntry, Detail: line}
	}
	hash := fields[len(fields)-1]
	size, err := strconv.ParseUint(fields[len(fields)-2], 10, 64)
	if err != nil || !isHex(hash) {
		return Trust{}, &Error{Kind: KindMalformedTrustEntry, Detail: line}
	}
	// Rejoin on the original text so runs of spaces inside the path survive.
	path := strings.TrimSpace(line)
	path = strings.TrimSpace(strings.TrimSuffix(path, hash))
	path = strings.TrimSpace(strings.TrimSuffix(path, fields[len(fields)-2]))
	if !strings.HasPrefix(path, "/") {
		return Trust{}, &Error{Kind: KindMalformedTrustEntry, Detail: line}
	}
	return New(path, size, hash), nil
}

func isHex(text string) bool {
	if text == "" {
		return false
	}
	for _, character := range text {
		switch {
		case character >= '0' && character <= '9':
		case character >= 'a' && character <= 'f':
		case character >= 'A' && character <= 'F':
		default:
			return false
		}
	}
	return true
}

// Origin is the provenance of a trust record.
type Origin uint8

const (
	// OriginSystem is trust derived from package manager manifests.
	OriginSystem Origin = iota + 1
	// OriginAncillary is trust curated in the trust file or trust.d.
	OriginAncillary
)

func (origin Origin) String() string {
	switch origin {
	case OriginSystem:
		return "system"
	case OriginAncillary:
		return "ancillary"
	default:
		return fmt.Sprintf("Origin(%d)", uint8(origin))
	}
}

// Valid reports whether origin is OriginSystem or OriginAncillary.
func (origin Origin) Valid() bool {
	return origin == OriginSystem || origin == OriginAncillary
}

// ParseOrigin parses "system" or "ancillary".
func ParseOrigin(text string) (Origin, error) {
	switch text {
	case "system":
		return OriginSystem, nil
	case "ancillary":
		return OriginAncillary, nil
	default:
		return 0, fmt.Errorf("unknown trust origin %q", text)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (origin Origin) MarshalText() ([]byte, error) {
	if !origin.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid origin %d", uint8(origin))
	}
	return []byte(origin.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (origin *Origin) UnmarshalText(text []byte) error {
	parsed, err := ParseOrigin(string(text))
	if err != nil {
		return err
	}
	*origin = parsed
	return nil
}

// Source codes used in live store values. Both package manager
// backends map to system trust.
const (
	sourceRPM  = "1"
	sourceFile = "2"
	sourceDeb  = "3"
)

func originFromSource(code string) (Origin, error) {
	switch code {
	case sourceRPM, sourceDeb:
		return OriginSystem, nil
	case sourceFile:
		return OriginAncillary, nil
	default:
		return 0, &Error{Kind: KindUnsupportedTrustType, Detail: code}
	}
}

func sourceFromOrigin(origin Origin) string {
	if origin == OriginAncillary {
		return sourceFile
	}
	return sourceRPM
}

// storeValue renders the live store value for a trust entry:
// "<source> <size> <hash>".
func storeValue(origin Origin, trust Trust) string {
	return fmt.Sprintf("%s %d %s", sourceFromOrigin(origin), trust.Size, trust.Hash)
}

// parseStoreValue parses a live store entry.
func parseStoreValue(path, value string) (Origin, Trust, error) {
	fields := strings.Fields(value)
	if len(fields) != 3 {
		return 0, Trust{}, &Error{Kind: KindMalformedTrustEntry, Detail: path + " " + value}
	}
	origin, err := originFromSource(fields[0])
	if err != nil {
		return 0, Trust{}, err
	}
	size, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil || !isHex(fields[2]) {
		return 0, Trust{}, &Error{Kind: KindMalformedTrustEntry, Detail: path + " " + value}
	}
	return origin, New(path, size, fields[2]), nil
}

// Actual is what disk sync observed for a record's path.
type Actual struct {
	Size         uint64    `json:"size"`
	Hash         string    `json:"hash,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Status is the reconciliation state of a record.
type Status uint8

const (
	// StatusUnknown means no observation: never synced, or the file
	// is absent from disk.
	StatusUnknown Status = iota
	// StatusTrusted means the observed size and hash match the declaration.
	StatusTrusted
	// StatusMismatched means the file on disk differs from the declaration.
	StatusMismatched
)

func (status Status) String() string {
	switch status {
	case StatusTrusted:
		return "trusted"
	case StatusMismatched:
		return "mismatched"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (status Status) MarshalText() ([]byte, error) {
	return []byte(status.String()), nil
}

// Record is one declared trust entry with its origin, the matching
// entries of the live store, and the disk observation if synced.
type Record struct {
	Trust  Trust   `json:"trust"`
	Origin Origin  `json:"origin"`
	Stored []Trust `json:"stored,omitempty"`
	Actual *Actual `json:"actual,omitempty"`
}

// IsSystem reports whether the record is system trust.
func (record Record) IsSystem() bool { return record.Origin == OriginSystem }

// IsAncillary reports whether the record is ancillary trust.
func (record Record) IsAncillary() bool { return record.Origin == OriginAncillary }

// InStore reports whether the live store holds an entry matching the
// declaration exactly.
func (record Record) InStore() bool {
	for _, stored := range record.Stored {
		if stored == record.Trust {
			return true
		}
	}
	return false
}

// Status derives the reconciliation state from the disk observation.
func (record Record) Status() Status {
	if record.Actual == nil {
		return StatusUnknown
	}
	if record.Actual.Size == record.Trust.Size && strings.EqualFold(record.Actual.Hash, record.Trust.Hash) {
		return StatusTrusted
	}
	return StatusMismatched
}
