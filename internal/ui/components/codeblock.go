// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ocrchat/internal/chat"
	"github.com/jeranaias/ocrchat/internal/render"
	"github.com/jeranaias/ocrchat/internal/ui/styles"
	"github.com/jeranaias/ocrchat/internal/util"
)

// =============================================================================
// CODE BLOCK ACTION BAR
// =============================================================================

// BlockBar is the row shown under a reply for one of its code blocks:
// index, language badge, suggested file name and the two action labels.
type BlockBar struct {
	Block     render.CodeBlock
	CopyLabel string
	SaveLabel string
	Selected  bool
	MaxWidth  int
}

// NewBlockBar creates a bar with the resting labels.
func NewBlockBar(b render.CodeBlock) BlockBar {
	return BlockBar{
		Block:     b,
		CopyLabel: chat.ActionCopy.RestingLabel(),
		SaveLabel: chat.ActionSave.RestingLabel(),
		MaxWidth:  80,
	}
}

// Render renders the bar with the theme's styles.
func (b BlockBar) Render(theme *styles.Theme) string {
	lang := b.Block.Language
	if lang == "" {
		lang = render.DefaultLanguage
	}

	actions := actionStyle(theme, b.CopyLabel).Render(b.CopyLabel) + "  " +
		actionStyle(theme, b.SaveLabel).Render(b.SaveLabel)
	head := "[" + strconv.Itoa(b.Block.Index) + "] " + theme.BlockLanguage.Render(lang) + " "

	// The file name gives way first on narrow terminals.
	nameWidth := b.MaxWidth - lipgloss.Width(head) - lipgloss.Width(actions) - 8
	name := ""
	if nameWidth > 4 {
		name = theme.BlockName.Render(util.TruncateMiddle(b.Block.Filename(), nameWidth))
	}

	style := theme.BlockBar
	if b.Selected {
		style = theme.BlockBarSelected
	}
	return style.Render(head + name + "  " + actions)
}

func actionStyle(theme *styles.Theme, label string) lipgloss.Style {
	switch {
	case label == chat.ErrorLabel:
		return theme.ActionError
	case label == chat.CopiedLabel || label == chat.SavedLabel:
		return theme.ActionSuccess
	default:
		return theme.Action
	}
}

// RenderBlockBars stacks the bars of one reply.
func RenderBlockBars(theme *styles.Theme, bars []BlockBar) string {
	lines := make([]string, 0, len(bars))
	for _, b := range bars {
		lines = append(lines, b.Render(theme))
	}
	return strings.Join(lines, "\n")
}
