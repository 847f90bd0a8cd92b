// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rules

import (
	"fmt"
	"slices"
	"strings"
)

// KeywordAll is the bare part that matches every subject or object.
const KeywordAll = "all"

// Part is one matcher term of a subject or object: either a key=value
// attribute or the bare keyword "all" (Value empty).
type Part struct {
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
}

// String renders the part as it appears in a rule line.
func (part Part) String() string {
	if part.Value == "" && part.Key == KeywordAll {
		return part.Key
	}
	return part.Key + "=" + part.Value
}

// SetName returns the referenced set name when the value is a "%name"
// set reference.
func (part Part) SetName() (string, bool) {
	if strings.HasPrefix(part.Value, "%") && len(part.Value) > 1 {
		return part.Value[1:], true
	}
	return "", false
}

// subjectKeys and objectKeys are the attributes the daemon accepts on
// each side of a rule.
var (
	subjectKeys = []string{"auid", "uid", "gid", "sessionid", "pid", "ppid", "trust", "comm", "exe", "dir", "ftype", "device", "pattern"}
	objectKeys  = []string{"path", "dir", "device", "ftype", "trust", "sha256hash"}
)

// Subject identifies the process side of a rule or event. Part order
// is preserved for display.
type Subject struct {
	Parts []Part `json:"parts"`
}

// NewSubject builds a subject from parts without validation.
func NewSubject(parts ...Part) Subject {
	return Subject{Parts: parts}
}

// Exe returns the value of the exe attribute.
func (subject Subject) Exe() (string, bool) {
	return lookup(subject.Parts, "exe")
}

// IsAll reports whether the subject is the bare "all" keyword.
func (subject Subject) IsAll() bool {
	return isAll(subject.Parts)
}

func (subject Subject) String() string {
	return joinParts(subject.Parts)
}

// Equal reports whether both subjects have the same parts in the same order.
func (subject Subject) Equal(other Subject) bool {
	return slices.Equal(subject.Parts, other.Parts)
}

// Object identifies the file side of a rule or event.
type Object struct {
	Parts []Part `json:"parts"`
}

// NewObject builds an object from parts without validation.
func NewObject(parts ...Part) Object {
	return Object{Parts: parts}
}

// Path returns the value of the path attribute.
func (object Object) Path() (string, bool) {
	return lookup(object.Parts, "path")
}

// IsAll reports whether the object is the bare "all" keyword.
func (object Object) IsAll() bool {
	return isAll(object.Parts)
}

func (object Object) String() string {
	return joinParts(object.Parts)
}

// Equal reports whether both objects have the same parts in the same order.
func (object Object) Equal(other Object) bool {
	return slices.Equal(object.Parts, other.Parts)
}

// ParseSubject parses and validates the subject side of a rule.
func ParseSubject(text string) (Subject, error) {
	parts, err := parseSide(text, "subject", subjectKeys)
	if err != nil {
		return Subject{}, err
	}
	return Subject{Parts: parts}, nil
}

// ParseObject parses and validates the object side of a rule.
func ParseObject(text string) (Object, error) {
	parts, err := parseSide(text, "object", objectKeys)
	if err != nil {
		return Object{}, err
	}
	return Object{Parts: parts}, nil
}

// SplitParts splits whitespace-separated parts without checking keys
// against the rule grammar. Audit log lines carry attributes the rule
// grammar does not, so the event parser uses this directly.
func SplitParts(text string) ([]Part, error) {
	fields := strings.Fields(text)
	parts := make([]Part, 0, len(fields))
	for _, field := range fields {
		if field == KeywordAll {
			parts = append(parts, Part{Key: KeywordAll})
			continue
		}
		key, value, found := strings.Cut(field, "=")
		if !found || key == "" || value == "" {
			return nil, fmt.Errorf("malformed attribute %q", field)
		}
		parts = append(parts, Part{Key: key, Value: value})
	}
	return parts, nil
}

func parseSide(text, side string, allowed []string) ([]Part, error) {
	parts, err := SplitParts(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", side, err)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("%s is empty", side)
	}
	for _, part := range parts {
		if part.Key == KeywordAll {
			if len(parts) != 1 {
				return nil, fmt.Errorf("%s: %q must be the only attribute", side, KeywordAll)
			}
			continue
		}
		if !slices.Contains(allowed, part.Key) {
			return nil, fmt.Errorf("unknown %s attribute %q", side, part.Key)
		}
		if part.Key == "trust" && part.Value != "0" && part.Value != "1" {
			return nil, fmt.Errorf("%s: trust must be 0 or 1, got %q", side, part.Value)
		}
	}
	return parts, nil
}

func lookup(parts []Part, key string) (string, bool) {
	for _, part := range parts {
		if part.Key == key {
			return part.Value, true
		}
	}
	return "", false
}

func isAll(parts []Part) bool {
	return len(parts) == 1 && parts[0].Key == KeywordAll
}

func joinParts(parts []Part) string {
	rendered := make([]string, len(parts))
	for index, part := range parts {
		rendered[index] = part.String()
	}
	return strings.Join(rendered, " ")
}
