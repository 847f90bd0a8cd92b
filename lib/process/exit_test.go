// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

type codedError int

func (err codedError) Error() string { return fmt.Sprintf("exit %d", int(err)) }
func (err codedError) ExitCode() int { return int(err) }

func TestReport(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   int
		output string
	}{
		{"nil", nil, 0, ""},
		{"plain", errors.New("boom"), 1, "error: boom\n"},
		{"coded", codedError(3), 3, ""},
		{"wrapped coded", fmt.Errorf("trust check: %w", codedError(1)), 1, ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var buffer bytes.Buffer
			if code := Report(&buffer, test.err); code != test.code {
				t.Errorf("code = %d, want %d", code, test.code)
			}
			if buffer.String() != test.output {
				t.Errorf("output = %q, want %q", buffer.String(), test.output)
			}
		})
	}
}
