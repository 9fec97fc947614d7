// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ocrchat/internal/attachment"
	"github.com/jeranaias/ocrchat/internal/ui/styles"
	"github.com/jeranaias/ocrchat/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Status represents what the application is doing.
type Status int

const (
	StatusReady Status = iota
	StatusExtracting
	StatusWaiting
	StatusStreaming
	StatusOffline
)

// String returns the display string for the status
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusExtracting:
		return "Extracting..."
	case StatusWaiting:
		return "Waiting..."
	case StatusStreaming:
		return "Streaming..."
	case StatusOffline:
		return "Ollama offline"
	default:
		return "Unknown"
	}
}

// Icon returns a shape for the status so it does not rely on color.
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return styles.StatusIndicators.Success
	case StatusExtracting, StatusWaiting:
		return styles.StatusIndicators.Pending
	case StatusStreaming:
		return styles.StatusIndicators.Active
	case StatusOffline:
		return styles.StatusIndicators.Error
	default:
		return "?"
	}
}

// StatusBar is the bottom line of the chat screen.
type StatusBar struct {
	ModelName   string
	Status      Status
	Attachments []*attachment.Attachment // pending, image first
	Stats       string                   // summary of the last reply
	Hint        string
	Width       int
	theme       *styles.Theme
}

// NewStatusBar creates a new StatusBar component
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		Status: StatusReady,
		Width:  80,
		theme:  theme,
	}
}

// SetWidth updates the status bar width
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetAttachments shows the pending attachments of set.
func (s *StatusBar) SetAttachments(set attachment.Set) {
	s.Attachments = s.Attachments[:0]
	for _, a := range []*attachment.Attachment{set.Image, set.PDF} {
		if a != nil {
			s.Attachments = append(s.Attachments, a)
		}
	}
}

// View renders the bar. Narrow terminals drop the stats and the hint, and
// attachment names are shortened to fit.
func (s *StatusBar) View() string {
	t := s.theme
	sep := lipgloss.NewStyle().Foreground(styles.Overlay).Render(" | ")

	statusStyle := t.StatusReady
	switch s.Status {
	case StatusExtracting, StatusWaiting, StatusStreaming:
		statusStyle = t.StatusBusy
	case StatusOffline:
		statusStyle = t.StatusError
	}

	parts := []string{
		statusStyle.Render(s.Status.Icon() + " " + s.Status.String()),
		t.StatusModel.Render(util.TruncateWidth(s.ModelName, 24)),
	}

	nameWidth := 28
	if s.Width < 60 {
		nameWidth = 12
	}
	for _, a := range s.Attachments {
		parts = append(parts, t.StatusAttachment.Render(a.Kind.Glyph()+" "+util.TruncateMiddle(a.Name, nameWidth)))
	}

	if s.Width >= 60 && s.Stats != "" {
		parts = append(parts, t.StatusStats.Render(s.Stats))
	}
	line := strings.Join(parts, sep)

	if s.Width >= 100 && s.Hint != "" {
		gap := s.Width - lipgloss.Width(line) - lipgloss.Width(s.Hint) - 2
		if gap > 1 {
			line += strings.Repeat(" ", gap) + t.StatusHint.Render(s.Hint)
		}
	}

	return t.StatusBar.Width(s.Width).MaxWidth(s.Width).Render(line)
}
