// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bureau-foundation/execpolicy/lib/rules"
)

// Event is one decision from the daemon's log.
type Event struct {
	RuleID     int              `json:"rule_id"`
	Decision   rules.Decision   `json:"dec"`
	Permission rules.Permission `json:"perm"`
	UID        int              `json:"uid"`
	GIDs       []int            `json:"gid"`
	PID        int              `json:"pid"`
	Subject    rules.Subject    `json:"subj"`
	Object     rules.Object     `json:"obj"`
}

// Exe returns the subject program, or "" when the line carried none.
func (event Event) Exe() string {
	exe, _ := event.Subject.Exe()
	return exe
}

// Path returns the object path, or "" when the line carried none.
func (event Event) Path() string {
	path, _ := event.Object.Path()
	return path
}

// InGroup reports whether gid is among the event's groups.
func (event Event) InGroup(gid int) bool {
	for _, candidate := range event.GIDs {
		if candidate == gid {
			return true
		}
	}
	return false
}

// String renders the event in log line form. The gid attribute is
// omitted when the event has no groups.
func (event Event) String() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "rule=%d dec=%s perm=%s uid=%d ", event.RuleID, event.Decision, event.Permission, event.UID)
	if len(event.GIDs) > 0 {
		gids := make([]string, len(event.GIDs))
		for index, gid := range event.GIDs {
			gids[index] = strconv.Itoa(gid)
		}
		fmt.Fprintf(&builder, "gid=%s ", strings.Join(gids, ","))
	}
	fmt.Fprintf(&builder, "pid=%d %s : %s", event.PID, event.Subject, event.Object)
	return builder.String()
}

// ParseLine parses one log line. The header attributes (rule, dec,
// perm, uid or auid, gid, pid) may appear in any order before the
// separator; every other attribute on that side belongs to the
// subject, and everything after it to the object.
func ParseLine(line string) (Event, error) {
	head, tail, found := strings.Cut(line, " : ")
	if !found {
		return Event{}, errors.New("missing subject/object separator")
	}

	headParts, err := rules.SplitParts(head)
	if err != nil {
		return Event{}, fmt.Errorf("subject: %w", err)
	}
	objectParts, err := rules.SplitParts(tail)
	if err != nil {
		return Event{}, fmt.Errorf("object: %w", err)
	}
	if len(objectParts) == 0 {
		return Event{}, errors.New("object is empty")
	}

	event := Event{Object: rules.NewObject(objectParts...)}
	seen := make(map[string]bool)
	var subjectParts []rules.Part
	for _, part := range headParts {
		key := part.Key
		if key == "auid" {
			key = "uid"
		}
		switch key {
		case "rule", "dec", "perm", "uid", "gid", "pid":
			if seen[key] {
				return Event{}, fmt.Errorf("duplicate %s attribute", key)
			}
			seen[key] = true
			if err := event.setHeader(key, part.Value); err != nil {
				return Event{}, err
			}
		default:
			subjectParts = append(subjectParts, part)
		}
	}
	for _, required := range []string{"rule", "dec", "perm", "uid", "pid"} {
		if !seen[required] {
			return Event{}, fmt.Errorf("missing %s attribute", required)
		}
	}
	if len(subjectParts) == 0 {
		return Event{}, errors.New("subject is empty")
	}
	event.Subject = rules.NewSubject(subjectParts...)
	return event, nil
}

func (event *Event) setHeader(key, value string) error {
	var err error
	switch key {
	case "rule":
		event.RuleID, err = strconv.Atoi(value)
	case "dec":
		event.Decision, err = rules.ParseDecision(value)
	case "perm":
		event.Permission, err = rules.ParsePermission(value)
	case "uid":
		event.UID, err = strconv.Atoi(value)
	case "pid":
		event.PID, err = strconv.Atoi(value)
	case "gid":
		for _, field := range strings.Split(value, ",") {
			gid, convertErr := strconv.Atoi(field)
			if convertErr != nil {
				err = convertErr
				break
			}
			event.GIDs = append(event.GIDs, gid)
		}
	}
	if err != nil {
		return fmt.Errorf("invalid %s=%q: %w", key, value, err)
	}
	return nil
}
