// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/bureau-foundation/execpolicy/lib/rules"
	"github.com/bureau-foundation/execpolicy/lib/trust"
)

// Styles renders the semantic colors of command output. All colors use
// ANSI 256-color codes.
type Styles struct {
	Header lipgloss.Style
	Faint  lipgloss.Style
	Good   lipgloss.Style
	Bad    lipgloss.Style
	Warn   lipgloss.Style

	// Width is the output width in cells, zero when unbounded.
	Width int
}

// DetectProfile returns the color profile for w: none unless w is a
// terminal, and none when the environment asks for it (NO_COLOR).
func DetectProfile(w io.Writer) termenv.Profile {
	file, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return termenv.Ascii
	}
	return termenv.NewOutput(w).EnvColorProfile()
}

// NewStyles returns styles rendering for w with the given profile.
func NewStyles(w io.Writer, profile termenv.Profile) *Styles {
	renderer := lipgloss.NewRenderer(w, termenv.WithProfile(profile))
	renderer.SetColorProfile(profile)

	styles := &Styles{
		Header: renderer.NewStyle().Bold(true),
		Faint:  renderer.NewStyle().Foreground(lipgloss.Color("245")),
		Good:   renderer.NewStyle().Foreground(lipgloss.Color("35")),
		Bad:    renderer.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		Warn:   renderer.NewStyle().Foreground(lipgloss.Color("214")),
	}
	if file, ok := w.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		if width, _, err := term.GetSize(int(file.Fd())); err == nil {
			styles.Width = width
		}
	}
	return styles
}

// Stdout returns styles for standard output with a detected profile.
func Stdout() *Styles {
	return NewStyles(os.Stdout, DetectProfile(os.Stdout))
}

// Status renders a trust status.
func (styles *Styles) Status(status trust.Status) string {
	switch status {
	case trust.StatusTrusted:
		return styles.Good.Render(status.String())
	case trust.StatusMismatched:
		return styles.Bad.Render(status.String())
	default:
		return styles.Faint.Render(status.String())
	}
}

// Decision renders a rule decision: denials stand out.
func (styles *Styles) Decision(decision rules.Decision) string {
	if decision.Denies() {
		return styles.Bad.Render(decision.String())
	}
	return styles.Good.Render(decision.String())
}

// Kind renders a rule entry kind.
func (styles *Styles) Kind(kind rules.Kind) string {
	switch kind {
	case rules.KindValid:
		return styles.Good.Render(kind.String())
	case rules.KindValidWithWarning:
		return styles.Warn.Render(kind.String())
	default:
		return styles.Bad.Render(kind.String())
	}
}
