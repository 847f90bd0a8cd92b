// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"

	"github.com/spf13/pflag"
)

// maxSuggestDistance is the largest edit distance still offered as a
// suggestion.
const maxSuggestDistance = 3

// closest picks the candidate the user most likely meant: the only
// candidate input is a prefix of, else the nearest candidate within
// maxSuggestDistance edits. It returns "" when nothing qualifies.
func closest(input string, candidates []string) string {
	if input == "" {
		return ""
	}

	var prefixed []string
	for _, candidate := range candidates {
		if strings.HasPrefix(candidate, input) {
			prefixed = append(prefixed, candidate)
		}
	}
	if len(prefixed) == 1 {
		return prefixed[0]
	}

	best, bestDistance := "", maxSuggestDistance+1
	for _, candidate := range candidates {
		if distance := levenshtein(input, candidate); distance < bestDistance {
			best, bestDistance = candidate, distance
		}
	}
	return best
}

func suggestCommand(unknown string, commands []*Command) string {
	names := make([]string, 0, len(commands))
	for _, command := range commands {
		names = append(names, command.Name)
	}
	return closest(unknown, names)
}

// suggestFlag returns the defined flag, with its -- prefix, closest to
// the first unrecognized long flag in args.
func suggestFlag(args []string, flagSet *pflag.FlagSet) string {
	for _, arg := range args {
		if arg == "--" {
			return ""
		}
		name, isLong := strings.CutPrefix(arg, "--")
		if !isLong {
			continue
		}
		name, _, _ = strings.Cut(name, "=")
		if flagSet.Lookup(name) != nil {
			continue
		}

		var names []string
		flagSet.VisitAll(func(flag *pflag.Flag) {
			names = append(names, flag.Name)
		})
		if suggestion := closest(name, names); suggestion != "" {
			return "--" + suggestion
		}
		return ""
	}
	return ""
}

// levenshtein is the edit distance between a and b, counted in runes.
func levenshtein(a, b string) int {
	left, right := []rune(a), []rune(b)
	if len(left) > len(right) {
		left, right = right, left
	}

	previous := make([]int, len(left)+1)
	current := make([]int, len(left)+1)
	for index := range previous {
		previous[index] = index
	}
	for row := 1; row <= len(right); row++ {
		current[0] = row
		for column := 1; column <= len(left); column++ {
			cost := 1
			if left[column-1] == right[row-1] {
				cost = 0
			}
			current[column] = min(previous[column]+1, current[column-1]+1, previous[column-1]+cost)
		}
		previous, current = current, previous
	}
	return previous[len(left)]
}
