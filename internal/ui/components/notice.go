// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ocrchat/internal/ui/styles"
)

// =============================================================================
// BLOCKING OVERLAYS
// =============================================================================

// NoticeKind selects the look of an overlay.
type NoticeKind int

const (
	// NoticeInfo is dismissed with any key.
	NoticeInfo NoticeKind = iota
	// NoticeConfirm asks a yes/no question.
	NoticeConfirm
	// NoticeHelp lists commands and keys.
	NoticeHelp
)

// Notice is a modal box drawn over the transcript. While one is visible
// the chat screen ignores every key except the ones that close it.
type Notice struct {
	Kind    NoticeKind
	Title   string
	Message string
	width   int
	height  int
}

// NewNotice creates an informational notice.
func NewNotice(message string) Notice {
	return Notice{Kind: NoticeInfo, Title: "Notice", Message: message}
}

// NewConfirm creates a yes/no prompt.
func NewConfirm(title, question string) Notice {
	return Notice{Kind: NoticeConfirm, Title: title, Message: question}
}

// SetSize sets the area the notice is centered in.
func (n *Notice) SetSize(width, height int) {
	n.width = width
	n.height = height
}

func (n Notice) hint() string {
	switch n.Kind {
	case NoticeConfirm:
		return "y overwrite · n cancel"
	case NoticeHelp:
		return "Esc close"
	default:
		return "Enter or Esc to dismiss"
	}
}

// View renders the box centered in its area.
func (n Notice) View(theme *styles.Theme) string {
	style := theme.Notice
	switch n.Kind {
	case NoticeConfirm:
		style = theme.Confirm
	case NoticeHelp:
		style = theme.Help
	}

	boxWidth := 60
	if n.width > 0 && n.width-4 < boxWidth {
		boxWidth = max(n.width-4, 20)
	}

	var b strings.Builder
	b.WriteString(theme.NoticeTitle.Render(n.Title))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Width(boxWidth - 6).Render(n.Message))
	b.WriteString("\n\n")
	b.WriteString(theme.NoticeHint.Render(n.hint()))

	box := style.Width(boxWidth).Render(b.String())
	if n.width == 0 || n.height == 0 {
		return box
	}
	return lipgloss.Place(n.width, n.height, lipgloss.Center, lipgloss.Center, box)
}
