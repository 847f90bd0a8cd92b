// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ExitCoder is implemented by errors that carry a process exit code.
// Commands that already printed their own report (like "trust check")
// return one so no redundant "error:" line is written.
type ExitCoder interface {
	ExitCode() int
}

// Code returns the exit status for err and whether err should be
// reported on stderr. A nil error is status 0.
func Code(err error) (int, bool) {
	if err == nil {
		return 0, false
	}
	var coder ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode(), false
	}
	return 1, true
}

// Report writes "error: err" to w when err should be reported, and
// returns the exit status.
func Report(w io.Writer, err error) int {
	code, report := Code(err)
	if report {
		fmt.Fprintf(w, "error: %v\n", err)
	}
	return code
}

// Exit reports err on stderr and ends the process with its status.
func Exit(err error) {
	os.Exit(Report(os.Stderr, err))
}
