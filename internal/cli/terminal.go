// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Rendered answers are wrapped to the terminal, within these bounds.
const (
	fallbackWidth = 80
	minWidth      = 40
	maxWidth      = 120
)

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// isWriterTTY reports whether w is the process's stdout attached to a
// terminal. Anything else, including a redirected stdout, gets raw text.
func isWriterTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && f == os.Stdout && term.IsTerminal(int(f.Fd()))
}

// outputWidth is the wrap width for markdown printed to stdout.
func outputWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackWidth
	}
	return min(max(width, minWidth), maxWidth)
}

// colorProfile honors NO_COLOR and FORCE_COLOR (https://no-color.org/)
// before asking the terminal.
func colorProfile() termenv.Profile {
	switch {
	case os.Getenv("NO_COLOR") != "":
		return termenv.Ascii
	case os.Getenv("FORCE_COLOR") != "":
		return termenv.TrueColor
	case !term.IsTerminal(int(os.Stdout.Fd())):
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}

// TTYRequiredError is returned by commands that need an interactive stdin.
type TTYRequiredError struct {
	Operation string
}

func (e *TTYRequiredError) Error() string {
	if e.Operation != "" {
		return "stdin is not a terminal; cannot " + e.Operation + " interactively"
	}
	return "stdin is not a terminal; interactive input not available"
}

// requireTTY fails unless stdin is a terminal.
func requireTTY(operation string) error {
	if !stdinIsTerminal() {
		return &TTYRequiredError{Operation: operation}
	}
	return nil
}
