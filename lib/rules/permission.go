// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rules

import "fmt"

// Permission is the access class a rule applies to.
type Permission uint8

const (
	// PermissionOpen is the daemon's default when a rule omits perm=.
	PermissionOpen Permission = iota + 1
	PermissionExecute
	PermissionAny
)

func (permission Permission) String() string {
	switch permission {
	case PermissionOpen:
		return "open"
	case PermissionExecute:
		return "execute"
	case PermissionAny:
		return "any"
	default:
		return fmt.Sprintf("Permission(%d)", uint8(permission))
	}
}

// ParsePermission parses the value of a perm= attribute.
func ParsePermission(text string) (Permission, error) {
	switch text {
	case "open":
		return PermissionOpen, nil
	case "execute":
		return PermissionExecute, nil
	case "any":
		return PermissionAny, nil
	default:
		return 0, fmt.Errorf("unknown permission %q", text)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (permission Permission) MarshalText() ([]byte, error) {
	if permission < PermissionOpen || permission > PermissionAny {
		return nil, fmt.Errorf("cannot marshal invalid permission %d", uint8(permission))
	}
	return []byte(permission.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (permission *Permission) UnmarshalText(text []byte) error {
	parsed, err := ParsePermission(string(text))
	if err != nil {
		return err
	}
	*permission = parsed
	return nil
}
