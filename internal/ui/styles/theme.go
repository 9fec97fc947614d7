// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components of the chat screen.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	Width  int
	Height int

	// ==========================================================================
	// HEADER
	// ==========================================================================

	Header         lipgloss.Style
	HeaderTitle    lipgloss.Style
	HeaderSubtitle lipgloss.Style

	// ==========================================================================
	// TRANSCRIPT
	// ==========================================================================

	UserLabel      lipgloss.Style
	UserText       lipgloss.Style
	AssistantLabel lipgloss.Style
	ErrorText      lipgloss.Style
	Loading        lipgloss.Style
	Timestamp      lipgloss.Style

	// ==========================================================================
	// CODE BLOCK BARS
	// ==========================================================================

	BlockBar         lipgloss.Style
	BlockBarSelected lipgloss.Style
	BlockLanguage    lipgloss.Style
	BlockName        lipgloss.Style
	Action           lipgloss.Style
	ActionSuccess    lipgloss.Style
	ActionError      lipgloss.Style

	// ==========================================================================
	// INPUT AREA
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputPlaceholder lipgloss.Style

	// ==========================================================================
	// STATUS BAR
	// ==========================================================================

	StatusBar        lipgloss.Style
	StatusModel      lipgloss.Style
	StatusReady      lipgloss.Style
	StatusBusy       lipgloss.Style
	StatusError      lipgloss.Style
	StatusAttachment lipgloss.Style
	StatusStats      lipgloss.Style
	StatusHint       lipgloss.Style

	// ==========================================================================
	// OVERLAYS
	// ==========================================================================

	Notice      lipgloss.Style
	NoticeTitle lipgloss.Style
	NoticeHint  lipgloss.Style
	Confirm     lipgloss.Style
	Help        lipgloss.Style
}

// NewTheme creates a theme for the current terminal.
func NewTheme() *Theme {
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)
	t.HeaderSubtitle = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.UserLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)
	t.UserText = lipgloss.NewStyle().
		Foreground(TextPrimary).
		PaddingLeft(2)
	t.AssistantLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)
	t.ErrorText = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true).
		PaddingLeft(2)
	t.Loading = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true).
		PaddingLeft(2)
	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.BlockBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1).
		MarginLeft(2)
	t.BlockBarSelected = t.BlockBar.
		Background(SelectionBg).
		Bold(true)
	t.BlockLanguage = lipgloss.NewStyle().
		Foreground(TextMuted).
		Background(OverlayDim).
		Padding(0, 1).
		Bold(true)
	t.BlockName = lipgloss.NewStyle().
		Foreground(TextSecondary)
	t.Action = lipgloss.NewStyle().
		Foreground(Cyan)
	t.ActionSuccess = lipgloss.NewStyle().
		Foreground(Emerald).
		Bold(true)
	t.ActionError = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)
	t.InputPlaceholder = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)
	t.StatusModel = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true)
	t.StatusReady = lipgloss.NewStyle().
		Foreground(Emerald)
	t.StatusBusy = lipgloss.NewStyle().
		Foreground(Amber)
	t.StatusError = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)
	t.StatusAttachment = lipgloss.NewStyle().
		Foreground(Amber)
	t.StatusStats = lipgloss.NewStyle().
		Foreground(TextMuted)
	t.StatusHint = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.Notice = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Amber).
		Padding(1, 2)
	t.NoticeTitle = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)
	t.NoticeHint = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)
	t.Confirm = t.Notice.
		BorderForeground(Rose)
	t.Help = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(1, 2)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // >= 100 columns
)
