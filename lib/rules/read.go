// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rules

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// maxLineLength bounds a single rule file line. Set definitions listing
// many mime types are the longest lines in practice.
const maxLineLength = 1024 * 1024

// Load reads and lints the rule file at path.
func Load(path string) (DB, error) {
	file, err := os.Open(path)
	if err != nil {
		return DB{}, fmt.Errorf("opening rules file: %w", err)
	}
	defer file.Close()

	db, err := Read(file)
	if err != nil {
		return DB{}, fmt.Errorf("reading rules file %s: %w", path, err)
	}
	return Lint(db), nil
}

// Read parses rule file text into an unlinted database. Only I/O
// failures are returned as errors; unparseable lines become Invalid
// entries.
func Read(reader io.Reader) (DB, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return DB{}, err
	}
	return parseLines(lines), nil
}

// ReadString parses rule file text held in memory.
func ReadString(text string) DB {
	if text == "" {
		return DB{}
	}
	return parseLines(strings.Split(strings.TrimSuffix(text, "\n"), "\n"))
}

func parseLines(lines []string) DB {
	var entries []Entry
	var sets []SetDef

	for index, line := range lines {
		number := index + 1
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if strings.HasPrefix(trimmed, "%") {
			set, err := parseSetDef(trimmed, number)
			if err == nil {
				sets = append(sets, set)
				continue
			}
			entries = append(entries, Entry{
				ID:     len(entries) + 1,
				Line:   number,
				Source: line,
				Def:    Invalid(line, err.Error()),
			})
			continue
		}

		var def Def
		rule, err := ParseRule(trimmed)
		if err != nil {
			reason := err.Error()
			var parseError *ParseError
			if errors.As(err, &parseError) {
				reason = parseError.Reason
			}
			def = Invalid(line, reason)
		} else {
			def = Valid(rule)
		}
		entries = append(entries, Entry{
			ID:     len(entries) + 1,
			Line:   number,
			Source: line,
			Def:    def,
		})
	}

	return newDB(lines, entries, sets)
}

func parseSetDef(text string, line int) (SetDef, error) {
	name, values, found := strings.Cut(strings.TrimPrefix(text, "%"), "=")
	if !found || name == "" || strings.ContainsAny(name, " \t") {
		return SetDef{}, fmt.Errorf("malformed set definition")
	}
	var members []string
	for _, value := range strings.Split(values, ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			members = append(members, value)
		}
	}
	if len(members) == 0 {
		return SetDef{}, fmt.Errorf("set %%%s has no members", name)
	}
	return SetDef{Name: name, Values: members, Line: line}, nil
}
