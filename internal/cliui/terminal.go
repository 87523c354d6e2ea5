// Package cliui provides terminal styling and output helpers for the
// companion CLI.
package cliui

import (
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTerminal returns true if stdout is connected to a terminal (TTY).
func IsTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// ShouldUseColor determines if ANSI color codes should be used, respecting
// NO_COLOR/CLICOLOR conventions and falling back to TTY detection.
func ShouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("CLICOLOR") == "0" {
		return false
	}
	if os.Getenv("CLICOLOR_FORCE") != "" {
		return true
	}
	return termenv.ColorProfile() != termenv.Ascii && IsTerminal()
}

// GetWidth returns the terminal width, or a default when it cannot be
// determined (piped output, non-TTY).
func GetWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

// RenderMarkdown renders description/design text as styled markdown when
// attached to a terminal; piped output gets the raw text so scripts parsing
// CLI output are not broken by ANSI codes.
func RenderMarkdown(text string) string {
	if !IsTerminal() || text == "" {
		return text
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(GetWidth()),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return out
}
