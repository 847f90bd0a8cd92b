// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rules

import (
	"fmt"
	"strings"
)

// Rule is one parsed policy expression.
type Rule struct {
	Decision   Decision   `json:"decision"`
	Permission Permission `json:"permission"`
	Subject    Subject    `json:"subject"`
	Object     Object     `json:"object"`
}

// String renders the rule in canonical rule file form. The permission
// is always written explicitly, so a rule parsed without perm= gains
// "perm=open" on display.
func (rule Rule) String() string {
	return fmt.Sprintf("%s perm=%s %s : %s", rule.Decision, rule.Permission, rule.Subject, rule.Object)
}

// Equal reports whether two rules are identical.
func (rule Rule) Equal(other Rule) bool {
	return rule.Decision == other.Decision && rule.SameMatch(other)
}

// SameMatch reports whether two rules match exactly the same events,
// ignoring the decision.
func (rule Rule) SameMatch(other Rule) bool {
	return rule.Permission == other.Permission &&
		rule.Subject.Equal(other.Subject) &&
		rule.Object.Equal(other.Object)
}

// IsCatchAll reports whether the rule matches every event:
// perm=any all : all.
func (rule Rule) IsCatchAll() bool {
	return rule.Permission == PermissionAny && rule.Subject.IsAll() && rule.Object.IsAll()
}

// ParseError describes why a rule line could not be parsed. Text is
// the offending line exactly as it appeared in the source.
type ParseError struct {
	Text   string
	Reason string
}

func (err *ParseError) Error() string {
	return fmt.Sprintf("invalid rule %q: %s", err.Text, err.Reason)
}

// ParseRule parses a single rule line. Comments and blank lines are
// not rules; the database loader filters them before calling this.
func ParseRule(line string) (Rule, error) {
	fail := func(format string, args ...any) (Rule, error) {
		return Rule{}, &ParseError{Text: line, Reason: fmt.Sprintf(format, args...)}
	}

	fields := strings.Fields(line)
	separator := -1
	for index, field := range fields {
		if field == ":" {
			if separator >= 0 {
				return fail("more than one %q separator", ":")
			}
			separator = index
		}
	}
	if separator < 0 {
		return fail("missing %q between subject and object", ":")
	}
	if separator == 0 {
		return fail("missing decision")
	}

	decision, err := ParseDecision(fields[0])
	if err != nil {
		return fail("%v", err)
	}

	permission := PermissionOpen
	subjectFields := fields[1:separator]
	if len(subjectFields) > 0 && strings.HasPrefix(subjectFields[0], "perm=") {
		permission, err = ParsePermission(strings.TrimPrefix(subjectFields[0], "perm="))
		if err != nil {
			return fail("%v", err)
		}
		subjectFields = subjectFields[1:]
	}

	subject, err := ParseSubject(strings.Join(subjectFields, " "))
	if err != nil {
		return fail("%v", err)
	}
	object, err := ParseObject(strings.Join(fields[separator+1:], " "))
	if err != nil {
		return fail("%v", err)
	}

	return Rule{
		Decision:   decision,
		Permission: permission,
		Subject:    subject,
		Object:     object,
	}, nil
}
