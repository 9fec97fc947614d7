// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

// TerminalRenderer renders markdown for the terminal with glamour. The
// underlying renderer is rebuilt when the wrap width changes.
type TerminalRenderer struct {
	mu    sync.Mutex
	style string
	width int
	tr    *glamour.TermRenderer
}

// ResolveStyle maps a theme setting to a glamour style name. "auto" asks
// the terminal for its background color.
func ResolveStyle(theme string) string {
	switch strings.ToLower(theme) {
	case "dark", "light", "notty", "dracula", "pink", "tokyo-night", "ascii":
		return strings.ToLower(theme)
	default:
		if termenv.HasDarkBackground() {
			return "dark"
		}
		return "light"
	}
}

// NewTerminalRenderer creates a renderer for the given theme and wrap width.
func NewTerminalRenderer(theme string, width int) *TerminalRenderer {
	return &TerminalRenderer{style: ResolveStyle(theme), width: width}
}

// SetWidth changes the wrap width.
func (t *TerminalRenderer) SetWidth(width int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if width != t.width {
		t.width = width
		t.tr = nil
	}
}

// SetTheme changes the style.
func (t *TerminalRenderer) SetTheme(theme string) {
	style := ResolveStyle(theme)
	t.mu.Lock()
	defer t.mu.Unlock()
	if style != t.style {
		t.style = style
		t.tr = nil
	}
}

// Render returns the styled text, or the markdown itself when glamour fails.
func (t *TerminalRenderer) Render(markdown string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.tr == nil {
		opts := []glamour.TermRendererOption{glamour.WithStandardStyle(t.style)}
		if t.width > 0 {
			opts = append(opts, glamour.WithWordWrap(t.width))
		}
		tr, err := glamour.NewTermRenderer(opts...)
		if err != nil {
			return markdown
		}
		t.tr = tr
	}

	out, err := t.tr.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.Trim(out, "\n")
}
