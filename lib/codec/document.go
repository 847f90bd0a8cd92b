// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"fmt"
	"io"
)

// selfDescribed is the encoded form of CBOR tag 55799 (RFC 8949
// Section 3.4.6). It wraps every document so files can be told apart
// from JSON by content alone.
var selfDescribed = []byte{0xd9, 0xd9, 0xf7}

// maxDocumentSize bounds [ReadDocument].
const maxDocumentSize = 64 << 20

// IsDocument reports whether data starts with the self-described CBOR
// marker that [MarshalDocument] writes.
func IsDocument(data []byte) bool {
	return bytes.HasPrefix(data, selfDescribed)
}

// MarshalDocument encodes v deterministically behind the
// self-described CBOR marker.
func MarshalDocument(v any) ([]byte, error) {
	body, err := Marshal(v)
	if err != nil {
		return nil, err
	}
	return append(bytes.Clone(selfDescribed), body...), nil
}

// UnmarshalDocument decodes a document into v. The marker is optional
// so bare CBOR values decode too.
func UnmarshalDocument(data []byte, v any) error {
	return Unmarshal(bytes.TrimPrefix(data, selfDescribed), v)
}

// WriteDocument writes v to w as a document.
func WriteDocument(w io.Writer, v any) error {
	data, err := MarshalDocument(v)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ReadDocument reads r to the end and decodes it into v.
func ReadDocument(r io.Reader, v any) error {
	data, err := io.ReadAll(io.LimitReader(r, maxDocumentSize+1))
	if err != nil {
		return err
	}
	if len(data) > maxDocumentSize {
		return fmt.Errorf("document exceeds %d bytes", maxDocumentSize)
	}
	return UnmarshalDocument(data, v)
}
