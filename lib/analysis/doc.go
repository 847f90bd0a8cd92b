// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package analysis correlates decision log events with a loaded
// policy state: which rule decided, whether the subject and object are
// trusted, and who the acting user and groups are.
//
// [Correlate] joins each event with its rule entry by id, its subject
// and object trust records by path, and its user and group names.
// [Subjects] lists the distinct programs in a log and
// [SearchSubjects] ranks them against a query with fzf's fuzzy
// matching algorithm, the way an interactive picker would.
package analysis
