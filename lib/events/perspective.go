// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"fmt"
	"iter"
)

// Perspective selects events by one actor attribute.
type Perspective struct {
	kind    perspectiveKind
	id      int
	subject string
}

type perspectiveKind uint8

const (
	perspectiveUser perspectiveKind = iota + 1
	perspectiveGroup
	perspectiveSubject
)

// ByUser selects events whose uid equals uid.
func ByUser(uid int) Perspective {
	return Perspective{kind: perspectiveUser, id: uid}
}

// ByGroup selects events whose gid set contains gid.
func ByGroup(gid int) Perspective {
	return Perspective{kind: perspectiveGroup, id: gid}
}

// BySubject selects events whose subject program is exactly exe.
func BySubject(exe string) Perspective {
	return Perspective{kind: perspectiveSubject, subject: exe}
}

// Fit reports whether event matches the perspective.
func (perspective Perspective) Fit(event *Event) bool {
	switch perspective.kind {
	case perspectiveUser:
		return event.UID == perspective.id
	case perspectiveGroup:
		return event.InGroup(perspective.id)
	case perspectiveSubject:
		exe, ok := event.Subject.Exe()
		return ok && exe == perspective.subject
	default:
		return false
	}
}

// Filter yields the events that fit, as pointers into events.
func (perspective Perspective) Filter(events []Event) iter.Seq[*Event] {
	return func(yield func(*Event) bool) {
		for index := range events {
			if perspective.Fit(&events[index]) && !yield(&events[index]) {
				return
			}
		}
	}
}

func (perspective Perspective) String() string {
	switch perspective.kind {
	case perspectiveUser:
		return fmt.Sprintf("user %d", perspective.id)
	case perspectiveGroup:
		return fmt.Sprintf("group %d", perspective.id)
	case perspectiveSubject:
		return "subject " + perspective.subject
	default:
		return "none"
	}
}
