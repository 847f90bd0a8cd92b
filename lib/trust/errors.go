// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package trust

import (
	"errors"
	"fmt"
)

// ErrorKind classifies trust load and sync failures.
type ErrorKind uint8

const (
	KindStoreNotFound ErrorKind = iota + 1
	KindStorePermissionDenied
	KindStoreReadFailure
	KindUnsupportedTrustType
	KindMalformedTrustEntry
	KindTrustSourceNotFound
	KindFileIO
	KindMetadata
)

// Error is returned by every failing operation in this package.
type Error struct {
	Kind ErrorKind

	// Path is the file or store the failure relates to, when known.
	Path string

	// Detail carries kind-specific text: the offending line for
	// KindMalformedTrustEntry, the source code for
	// KindUnsupportedTrustType, the source name for
	// KindTrustSourceNotFound.
	Detail string

	// Err is the underlying error, if any.
	Err error
}

func (err *Error) Error() string {
	switch err.Kind {
	case KindStoreNotFound:
		return fmt.Sprintf("trust store not found, %s", err.Path)
	case KindStorePermissionDenied:
		return fmt.Sprintf("permission denied, %s", err.Path)
	case KindStoreReadFailure:
		return fmt.Sprintf("reading trust store %s: %v", err.Path, err.Err)
	case KindUnsupportedTrustType:
		return fmt.Sprintf("unsupported trust type: %s", err.Detail)
	case KindMalformedTrustEntry:
		if err.Path != "" {
			return fmt.Sprintf("malformed trust entry in %s: %s", err.Path, err.Detail)
		}
		return fmt.Sprintf("malformed trust entry: %s", err.Detail)
	case KindTrustSourceNotFound:
		return fmt.Sprintf("%s not found at %s", err.Detail, err.Path)
	case KindFileIO:
		return fmt.Sprintf("file IO error: %s: %v", err.Path, err.Err)
	case KindMetadata:
		return fmt.Sprintf("error reading metadata: %s: %v", err.Path, err.Err)
	default:
		return fmt.Sprintf("trust error: %s: %v", err.Path, err.Err)
	}
}

func (err *Error) Unwrap() error {
	return err.Err
}

// IsKind reports whether err is (or wraps) a trust [Error] of kind.
func IsKind(err error, kind ErrorKind) bool {
	var trustError *Error
	return errors.As(err, &trustError) && trustError.Kind == kind
}

// withPath sets Path on a trust error that does not carry one yet.
func withPath(err error, path string) error {
	var trustError *Error
	if errors.As(err, &trustError) && trustError.Path == "" {
		trustError.Path = path
	}
	return err
}
