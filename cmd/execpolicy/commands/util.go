// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"cmp"
	"slices"
)

// sortedDescending returns the distinct values of ids, highest first.
func sortedDescending(ids []int) []int {
	sorted := slices.Clone(ids)
	slices.SortFunc(sorted, func(a, b int) int { return cmp.Compare(b, a) })
	return slices.Compact(sorted)
}
