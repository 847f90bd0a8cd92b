// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rules

import "fmt"

// Decision is the disposition the daemon applies when a rule matches.
// Any decision containing "deny" blocks access and every "allow"
// decision permits it. The suffix only selects how the decision is
// reported (see [Notification]); it never changes the outcome.
type Decision uint8

const (
	Allow Decision = iota + 1
	AllowAudit
	AllowSyslog
	AllowLog
	Deny
	DenyAudit
	DenySyslog
	DenyLog
)

var decisionNames = map[Decision]string{
	Allow:       "allow",
	AllowAudit:  "allow_audit",
	AllowSyslog: "allow_syslog",
	AllowLog:    "allow_log",
	Deny:        "deny",
	DenyAudit:   "deny_audit",
	DenySyslog:  "deny_syslog",
	DenyLog:     "deny_log",
}

// Decisions returns every decision in declaration order.
func Decisions() []Decision {
	return []Decision{Allow, AllowAudit, AllowSyslog, AllowLog, Deny, DenyAudit, DenySyslog, DenyLog}
}

// String returns the rule file keyword for the decision.
func (decision Decision) String() string {
	if name, ok := decisionNames[decision]; ok {
		return name
	}
	return fmt.Sprintf("Decision(%d)", uint8(decision))
}

// ParseDecision parses a rule file decision keyword.
func ParseDecision(text string) (Decision, error) {
	for decision, name := range decisionNames {
		if name == text {
			return decision, nil
		}
	}
	return 0, fmt.Errorf("unknown decision %q", text)
}

// Denies reports whether the decision blocks access.
func (decision Decision) Denies() bool {
	return decision >= Deny && decision <= DenyLog
}

// Notification describes the side channel a decision reports on.
type Notification uint8

const (
	// NotifyNone reports nothing beyond the access decision.
	NotifyNone Notification = iota
	// NotifyAudit emits a fanotify audit event.
	NotifyAudit
	// NotifySyslog writes the event to syslog.
	NotifySyslog
	// NotifyLog emits both an audit event and a syslog entry.
	NotifyLog
)

// Notification returns the reporting side channel of the decision.
func (decision Decision) Notification() Notification {
	switch decision {
	case AllowAudit, DenyAudit:
		return NotifyAudit
	case AllowSyslog, DenySyslog:
		return NotifySyslog
	case AllowLog, DenyLog:
		return NotifyLog
	default:
		return NotifyNone
	}
}

// MarshalText implements encoding.TextMarshaler.
func (decision Decision) MarshalText() ([]byte, error) {
	if _, ok := decisionNames[decision]; !ok {
		return nil, fmt.Errorf("cannot marshal invalid decision %d", uint8(decision))
	}
	return []byte(decision.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (decision *Decision) UnmarshalText(text []byte) error {
	parsed, err := ParseDecision(string(text))
	if err != nil {
		return err
	}
	*decision = parsed
	return nil
}
