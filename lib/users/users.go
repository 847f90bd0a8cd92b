// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package users reads the host's user and group databases in
// passwd(5) and group(5) form. Malformed lines are logged and skipped;
// only an unreadable file is an error.
package users

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// User is one passwd entry.
type User struct {
	Name  string `json:"name"`
	UID   int    `json:"uid"`
	GID   int    `json:"gid"`
	Home  string `json:"home"`
	Shell string `json:"shell"`
}

// Group is one group entry.
type Group struct {
	Name    string   `json:"name"`
	GID     int      `json:"gid"`
	Members []string `json:"members,omitempty"`
}

// Users is the user database in file order.
type Users []User

// ByUID returns the first user with uid.
func (users Users) ByUID(uid int) (User, bool) {
	for _, user := range users {
		if user.UID == uid {
			return user, true
		}
	}
	return User{}, false
}

// Groups is the group database in file order.
type Groups []Group

// ByGID returns the first group with gid.
func (groups Groups) ByGID(gid int) (Group, bool) {
	for _, group := range groups {
		if group.GID == gid {
			return group, true
		}
	}
	return Group{}, false
}

// ReadUsers reads a passwd file.
func ReadUsers(path string, logger *slog.Logger) (Users, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening users file: %w", err)
	}
	defer file.Close()
	return ParseUsers(file, logger)
}

// ParseUsers parses passwd lines from reader.
func ParseUsers(reader io.Reader, logger *slog.Logger) (Users, error) {
	var users Users
	err := scanRecords(reader, 7, logger, func(fields []string) error {
		uid, err := strconv.Atoi(fields[2])
		if err != nil {
			return fmt.Errorf("invalid uid for user %s: %w", fields[0], err)
		}
		gid, err := strconv.Atoi(fields[3])
		if err != nil {
			return fmt.Errorf("invalid gid for user %s: %w", fields[0], err)
		}
		users = append(users, User{
			Name:  fields[0],
			UID:   uid,
			GID:   gid,
			Home:  fields[5],
			Shell: fields[6],
		})
		return nil
	})
	return users, err
}

// ReadGroups reads a group file.
func ReadGroups(path string, logger *slog.Logger) (Groups, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening groups file: %w", err)
	}
	defer file.Close()
	return ParseGroups(file, logger)
}

// ParseGroups parses group lines from reader.
func ParseGroups(reader io.Reader, logger *slog.Logger) (Groups, error) {
	var groups Groups
	err := scanRecords(reader, 4, logger, func(fields []string) error {
		gid, err := strconv.Atoi(fields[2])
		if err != nil {
			return fmt.Errorf("invalid gid for group %s: %w", fields[0], err)
		}
		group := Group{Name: fields[0], GID: gid}
		if fields[3] != "" {
			group.Members = strings.Split(fields[3], ",")
		}
		groups = append(groups, group)
		return nil
	})
	return groups, err
}

// scanRecords splits colon-separated records and hands those with at
// least minFields fields to parse. Short lines and parse errors are
// logged and skipped.
func scanRecords(reader io.Reader, minFields int, logger *slog.Logger, parse func(fields []string) error) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	scanner := bufio.NewScanner(reader)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ":")
		if len(fields) < minFields {
			logger.Warn("skipping short account line", "line", lineNumber, "fields", len(fields))
			continue
		}
		if err := parse(fields); err != nil {
			logger.Warn("skipping account line", "line", lineNumber, "error", err)
		}
	}
	return scanner.Err()
}
