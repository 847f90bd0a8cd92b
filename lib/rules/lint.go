// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rules

import (
	"fmt"
	"strings"
)

// Check is one lint check. Run returns a warning message, or "" when
// the rule passes. Checks must be pure functions of the rule and the
// database so that linting an already linted database is stable.
type Check struct {
	Code string
	Run  func(id int, rule Rule, db DB) string
}

// checks is evaluated in order and the first warning wins, so the list
// is ordered from most to least severe. The order is part of the
// contract: reordering changes which warning a rule displays.
var checks = []Check{
	{Code: "L001", Run: checkCatchAll},
	{Code: "L002", Run: checkUnreachable},
	{Code: "L003", Run: checkDuplicate},
	{Code: "L004", Run: checkUndefinedSet},
	{Code: "L005", Run: checkRelativePath},
	{Code: "L006", Run: checkDirSlash},
}

// Checks returns the lint checks in evaluation order.
func Checks() []Check {
	return append([]Check(nil), checks...)
}

// Lint runs every check against each Valid entry and returns a new
// database in which flagged rules become ValidWithWarning. Invalid and
// already warned entries pass through unchanged.
func Lint(db DB) DB {
	var linted []Entry
	for _, entry := range db.entries {
		if entry.Def.Kind() != KindValid {
			continue
		}
		rule, _ := entry.Def.Rule()
		for _, check := range checks {
			if message := check.Run(entry.ID, rule, db); message != "" {
				entry.Def = ValidWithWarning(rule, message)
				linted = append(linted, entry)
				break
			}
		}
	}
	return FromEntries(db, linted)
}

// earlierRules yields the parsed rules that precede id in file order.
func earlierRules(db DB, id int) []Entry {
	var earlier []Entry
	for _, entry := range db.entries {
		if entry.ID >= id {
			break
		}
		if _, ok := entry.Def.Rule(); ok {
			earlier = append(earlier, entry)
		}
	}
	return earlier
}

func checkCatchAll(id int, rule Rule, db DB) string {
	if rule.IsCatchAll() && id < db.Len() {
		return "Using any+all+all here will short-circuit all other rules"
	}
	return ""
}

func checkUnreachable(id int, rule Rule, db DB) string {
	for _, entry := range earlierRules(db, id) {
		earlier, _ := entry.Def.Rule()
		if earlier.IsCatchAll() {
			return fmt.Sprintf("Rule is unreachable, rule %d matches every event first", entry.ID)
		}
	}
	return ""
}

func checkDuplicate(id int, rule Rule, db DB) string {
	for _, entry := range earlierRules(db, id) {
		earlier, _ := entry.Def.Rule()
		if earlier.SameMatch(rule) {
			return fmt.Sprintf("Duplicates the match of rule %d", entry.ID)
		}
	}
	return ""
}

func checkUndefinedSet(id int, rule Rule, db DB) string {
	for _, part := range ruleParts(rule) {
		if name, ok := part.SetName(); ok {
			if _, defined := db.Set(name); !defined {
				return fmt.Sprintf("Set %%%s is not defined", name)
			}
		}
	}
	return ""
}

// dirKeywords are the dir= values the daemon expands itself.
var dirKeywords = map[string]bool{
	"execdirs":   true,
	"systemdirs": true,
	"untrusted":  true,
}

func checkRelativePath(id int, rule Rule, db DB) string {
	for _, part := range ruleParts(rule) {
		switch part.Key {
		case "exe", "path", "dir":
		default:
			continue
		}
		if _, isSet := part.SetName(); isSet || dirKeywords[part.Value] {
			continue
		}
		if !strings.HasPrefix(part.Value, "/") {
			return fmt.Sprintf("The %s value %q is not an absolute path", part.Key, part.Value)
		}
	}
	return ""
}

func checkDirSlash(id int, rule Rule, db DB) string {
	for _, part := range ruleParts(rule) {
		if part.Key != "dir" || dirKeywords[part.Value] {
			continue
		}
		if strings.HasPrefix(part.Value, "/") && !strings.HasSuffix(part.Value, "/") {
			return fmt.Sprintf("The dir value %q should end with a /", part.Value)
		}
	}
	return ""
}

func ruleParts(rule Rule) []Part {
	parts := make([]Part, 0, len(rule.Subject.Parts)+len(rule.Object.Parts))
	parts = append(parts, rule.Subject.Parts...)
	return append(parts, rule.Object.Parts...)
}
