// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package analysis

import (
	"cmp"
	"slices"
	"strings"
	"unicode"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// Match is one ranked search result.
type Match struct {
	Subject string `json:"subject"`
	Score   int    `json:"score"`

	// Positions are the rune offsets of the matched characters.
	Positions []int `json:"positions,omitempty"`
}

// SearchSubjects ranks subjects against query with fzf's V2 algorithm.
// Subjects that do not match are dropped. Matching is case-insensitive
// unless the query contains an upper-case letter (fzf's smart case).
// An empty query returns every subject with score 0, in input order.
func SearchSubjects(subjects []string, query string) []Match {
	query = strings.TrimSpace(query)
	if query == "" {
		matches := make([]Match, len(subjects))
		for index, subject := range subjects {
			matches[index] = Match{Subject: subject}
		}
		return matches
	}

	caseSensitive := strings.IndexFunc(query, unicode.IsUpper) >= 0
	pattern := []rune(query)
	if !caseSensitive {
		pattern = []rune(strings.ToLower(query))
	}
	slab := util.MakeSlab(100*1024, 2048)

	var matches []Match
	for _, subject := range subjects {
		chars := util.ToChars([]byte(subject))
		result, positions := algo.FuzzyMatchV2(caseSensitive, false, true, &chars, pattern, true, slab)
		if result.Start < 0 {
			continue
		}
		match := Match{Subject: subject, Score: result.Score}
		if positions != nil {
			match.Positions = slices.Clone(*positions)
			slices.Sort(match.Positions)
		}
		matches = append(matches, match)
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		if order := cmp.Compare(b.Score, a.Score); order != 0 {
			return order
		}
		return cmp.Compare(len(a.Subject), len(b.Subject))
	})
	return matches
}
