// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ocrchat/internal/chat"
	"github.com/jeranaias/ocrchat/internal/ui/styles"
	"github.com/jeranaias/ocrchat/internal/util"
)

// =============================================================================
// SLASH COMMAND COMPLETION
// =============================================================================

// Suggestion is one slash command offered while typing.
type Suggestion struct {
	Name        string // "/image"
	Usage       string // "/image PATH"
	Description string
}

// Suggest returns the commands whose name starts with the typed word.
// It returns nothing once the input holds more than the command name.
func Suggest(input string) []Suggestion {
	if !strings.HasPrefix(input, "/") || strings.ContainsAny(input, " \t") {
		return nil
	}
	var out []Suggestion
	for _, h := range chat.CommandHelp {
		name, _, _ := strings.Cut(h.Usage, " ")
		if strings.HasPrefix(name, input) {
			out = append(out, Suggestion{Name: name, Usage: h.Usage, Description: h.Description})
		}
	}
	return out
}

// CompletionPopup lists suggestions above the input.
type CompletionPopup struct {
	suggestions []Suggestion
	selected    int
	maxVisible  int
	width       int
	theme       *styles.Theme
}

// NewCompletionPopup creates a new completion popup.
func NewCompletionPopup(theme *styles.Theme) *CompletionPopup {
	return &CompletionPopup{maxVisible: 8, width: 60, theme: theme}
}

// Update recomputes the suggestions for the current input.
func (c *CompletionPopup) Update(input string) {
	next := Suggest(input)
	if len(next) != len(c.suggestions) {
		c.selected = 0
	}
	c.suggestions = next
}

// Visible reports whether there is anything to show.
func (c *CompletionPopup) Visible() bool {
	return len(c.suggestions) > 0
}

// Next selects the next suggestion.
func (c *CompletionPopup) Next() {
	if len(c.suggestions) == 0 {
		return
	}
	c.selected = (c.selected + 1) % len(c.suggestions)
}

// Selected returns the highlighted suggestion.
func (c *CompletionPopup) Selected() (Suggestion, bool) {
	if len(c.suggestions) == 0 {
		return Suggestion{}, false
	}
	return c.suggestions[c.selected], true
}

// Clear hides the popup.
func (c *CompletionPopup) Clear() {
	c.suggestions = nil
	c.selected = 0
}

// SetWidth sets the popup width.
func (c *CompletionPopup) SetWidth(width int) {
	c.width = width
}

// View renders the popup.
func (c *CompletionPopup) View() string {
	if !c.Visible() {
		return ""
	}
	usageWidth := 0
	for _, s := range c.suggestions {
		usageWidth = max(usageWidth, lipgloss.Width(s.Usage))
	}

	lines := make([]string, 0, c.maxVisible)
	for i, s := range c.suggestions {
		if i >= c.maxVisible {
			break
		}
		usage := util.PadRight(s.Usage, usageWidth)
		desc := util.TruncateWidth(s.Description, max(c.width-usageWidth-6, 10))
		line := c.theme.InputPrompt.Render(usage) + "  " + c.theme.StatusHint.Render(desc)
		if i == c.selected {
			line = c.theme.BlockBarSelected.MarginLeft(0).Render(usage + "  " + desc)
		}
		lines = append(lines, line)
	}
	return lipgloss.NewStyle().PaddingLeft(1).Render(strings.Join(lines, "\n"))
}
