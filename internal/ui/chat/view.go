// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ocrchat/internal/chat"
	"github.com/jeranaias/ocrchat/internal/ollama"
	"github.com/jeranaias/ocrchat/internal/transcript"
	"github.com/jeranaias/ocrchat/internal/ui/components"
)

// View renders the chat screen.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.notice != nil {
		return m.notice.View(m.theme)
	}

	parts := []string{m.renderHeader(), m.viewport.View()}
	if m.completion.Visible() {
		parts = append(parts, m.completion.View())
	}
	parts = append(parts,
		m.theme.InputContainer.Width(max(m.width-2, 10)).Render(m.input.View()),
		m.status.View(),
	)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("ocrchat")
	sub := m.theme.HeaderSubtitle.Render(" chat about your images and PDFs")
	if m.client != nil {
		sub += m.theme.HeaderSubtitle.Render(" · " + m.client.BaseURL())
		if !ollama.IsLocalURL(m.client.BaseURL()) {
			sub += m.theme.StatusError.Render(" (remote)")
		}
	}
	return m.theme.Header.Width(m.width).MaxWidth(m.width).Render(title + sub)
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// refresh re-renders the transcript into the viewport and pins it to the
// newest entry. Scrolling back lasts until the next transcript change.
func (m *Model) refresh() {
	m.watch.changed.Store(false)
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
	m.dirty = false
}

// stale reports whether the viewport lags behind the transcript.
func (m Model) stale() bool {
	return m.dirty || m.watch.changed.Load()
}

// renderTranscript renders every entry and rebuilds the list of selectable
// code blocks.
func (m *Model) renderTranscript() string {
	entries := m.session.Transcript.Entries()
	if len(entries) == 0 {
		return m.theme.Loading.Render("No messages yet. Attach a file with /image or /pdf, then ask about it.")
	}

	var selected blockRef
	if m.selected >= 0 && m.selected < len(m.blocks) {
		selected = m.blocks[m.selected]
	}
	m.blocks = m.blocks[:0]

	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		switch e.Role {
		case transcript.RoleUser:
			b.WriteString(m.theme.UserLabel.Render("You") + " " + m.theme.Timestamp.Render(e.CreatedAt.Format("15:04")) + "\n")
			b.WriteString(m.theme.UserText.Width(max(m.width-4, 10)).Render(e.Text))
			b.WriteString("\n")

		case transcript.RoleAssistant:
			b.WriteString(m.theme.AssistantLabel.Render("Assistant") + "\n")
			b.WriteString(m.renderReply(e))
			if e.State == transcript.StateFinal && len(e.Blocks) > 0 {
				b.WriteString(m.renderBlockBars(e, selected))
				b.WriteString("\n")
			}

		case transcript.RoleError:
			b.WriteString(m.theme.ErrorText.Width(max(m.width-4, 10)).Render(e.Text))
			b.WriteString("\n")
		}
	}

	// Keep the selection on the same block when it still exists.
	m.selected = -1
	for i, ref := range m.blocks {
		if ref == selected {
			m.selected = i
		}
	}
	return b.String()
}

// renderReply renders the markdown of an assistant entry. Finished replies
// are cached per width and theme.
func (m *Model) renderReply(e transcript.Entry) string {
	if e.State == transcript.StatePlaceholder || (e.Loading && e.Text == "") {
		return m.theme.Loading.Render(m.spinner.View()+" Thinking...") + "\n"
	}

	if e.State == transcript.StateFinal {
		if c, ok := m.cache[e.ID]; ok && c.width == m.width && c.style == m.themeName {
			return c.out
		}
	}
	out := m.markdown.Render(e.Text)
	if e.State == transcript.StateFinal {
		m.cache[e.ID] = cachedEntry{width: m.width, style: m.themeName, out: out}
	}
	return out
}

func (m *Model) renderBlockBars(e transcript.Entry, selected blockRef) string {
	bars := make([]components.BlockBar, 0, len(e.Blocks))
	for _, blk := range e.Blocks {
		ref := blockRef{entryID: e.ID, index: blk.Index}
		m.blocks = append(m.blocks, ref)

		bar := components.NewBlockBar(blk)
		bar.MaxWidth = m.width
		bar.Selected = ref == selected
		bar.CopyLabel = m.dispatcher.Feedback.Label(chat.FeedbackKey{EntryID: e.ID, Index: blk.Index, Action: chat.ActionCopy})
		bar.SaveLabel = m.dispatcher.Feedback.Label(chat.FeedbackKey{EntryID: e.ID, Index: blk.Index, Action: chat.ActionSave})
		bars = append(bars, bar)
	}
	return components.RenderBlockBars(m.theme, bars)
}
