// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/ocrchat/internal/chat"
	"github.com/jeranaias/ocrchat/internal/ollama"
	"github.com/jeranaias/ocrchat/internal/transcript"
	"github.com/jeranaias/ocrchat/internal/ui/components"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case StreamDeltaMsg:
		return m.handleStreamDelta(msg)

	case StreamDoneMsg:
		return m.handleStreamDone(msg)

	case StreamTickMsg:
		if m.stream == nil {
			return m, nil
		}
		if m.stale() {
			m.refresh()
		}
		return m, streamTickCmd()

	case AttachDoneMsg:
		m.state = StateReady
		m.status.Status = m.restingStatus()
		return m.handleResult(msg.Result)

	case FeedbackExpiredMsg:
		m.refresh()
		return m, nil

	case OllamaStatusMsg:
		return m.handleOllamaStatus(msg)

	case ConfigReloadedMsg:
		return m.handleConfigReloaded(msg)

	case spinner.TickMsg:
		if m.state != StateExtracting && !m.waitingForFirstDelta() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.dirty = true
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true

	m.theme.SetSize(msg.Width, msg.Height)
	m.status.SetWidth(msg.Width)
	m.completion.SetWidth(msg.Width)
	m.input.Width = max(msg.Width-8, 10)
	m.markdown.SetWidth(max(msg.Width-6, 20))
	if m.notice != nil {
		m.notice.SetSize(msg.Width, msg.Height)
	}

	m.viewport.Width = msg.Width
	m.viewport.Height = m.viewportHeight()
	m.refresh()
	return m, nil
}

// viewportHeight is what is left after the header, the input box, the
// completion popup and the status bar.
func (m Model) viewportHeight() int {
	chrome := 1 + 3 + 1
	if m.completion.Visible() {
		chrome += min(len(components.Suggest(m.input.Value())), 8)
	}
	return max(m.height-chrome, 3)
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.shutdown()
		return m, tea.Quit
	}

	if m.notice != nil {
		return m.handleNoticeKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Cancel):
		if m.stream != nil {
			return m.cancelStream()
		}
		m.input.Reset()
		m.completion.Clear()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		line := m.input.Value()
		if m.state != StateReady && !strings.HasPrefix(strings.TrimSpace(line), "/") {
			// Keep the draft until the current work is done.
			m.showNotice(chat.UserMessage(chat.ErrBusy))
			return m, nil
		}
		m.input.Reset()
		m.completion.Clear()
		m.viewport.Height = m.viewportHeight()
		return m.submit(line)

	case key.Matches(msg, m.keys.Complete) && m.completion.Visible():
		if s, ok := m.completion.Selected(); ok {
			m.input.SetValue(s.Name + " ")
			m.input.CursorEnd()
		}
		m.completion.Clear()
		m.viewport.Height = m.viewportHeight()
		return m, nil

	case key.Matches(msg, m.keys.NextBlock):
		m.moveSelection(1)
		return m, nil

	case key.Matches(msg, m.keys.PrevBlock):
		m.moveSelection(-1)
		return m, nil

	case key.Matches(msg, m.keys.CopyBlock):
		if ref, ok := m.selectedBlock(); ok {
			return m.dispatch(chat.CopyIntent{EntryID: ref.entryID, Index: ref.index})
		}
		return m, nil

	case key.Matches(msg, m.keys.SaveBlock):
		if ref, ok := m.selectedBlock(); ok {
			return m.dispatch(chat.SaveIntent{EntryID: ref.entryID, Index: ref.index})
		}
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.showHelp()
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.viewport.LineUp(1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.viewport.LineDown(1)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	visible := m.completion.Visible()
	m.completion.Update(m.input.Value())
	if visible != m.completion.Visible() {
		m.viewport.Height = m.viewportHeight()
	}
	return m, cmd
}

// handleNoticeKey handles keys while a modal is open.
func (m Model) handleNoticeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.notice.Kind == components.NoticeConfirm {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			in := *m.pendingSave
			in.Overwrite = true
			m.notice, m.pendingSave = nil, nil
			return m.dispatch(in)
		case key.Matches(msg, m.keys.Deny):
			m.notice, m.pendingSave = nil, nil
		}
		return m, nil
	}

	if key.Matches(msg, m.keys.Dismiss) || key.Matches(msg, m.keys.Help) {
		m.notice = nil
	}
	return m, nil
}

// =============================================================================
// INPUT
// =============================================================================

// submit runs one line of input: a message or a slash command.
func (m Model) submit(line string) (tea.Model, tea.Cmd) {
	trimmed := strings.TrimSpace(line)
	switch trimmed {
	case "/quit", "/exit":
		m.shutdown()
		return m, tea.Quit
	case "/help":
		m.showHelp()
		return m, nil
	}

	in, err := m.session.Intent(line)
	if err != nil {
		m.showNotice(chat.UserMessage(err))
		return m, nil
	}
	return m.dispatch(in)
}

// dispatch runs an intent. Extraction is moved off the update loop; all
// other handlers are quick.
func (m Model) dispatch(in chat.Intent) (tea.Model, tea.Cmd) {
	switch in := in.(type) {
	case chat.AttachIntent:
		if m.state != StateReady {
			m.showNotice(chat.UserMessage(chat.ErrBusy))
			return m, nil
		}
		m.state = StateExtracting
		m.status.Status = components.StatusExtracting
		m.log.WithFields(logrus.Fields{"kind": in.Kind.String(), "path": in.Path}).Debug("extracting")
		return m, tea.Batch(attachCmd(m.ctx, m.dispatcher, in), m.spinner.Tick)

	case chat.SendIntent:
		if m.state == StateExtracting {
			m.showNotice(chat.UserMessage(chat.ErrBusy))
			return m, nil
		}

	case chat.SaveIntent:
		// Kept until the result says whether confirmation is needed.
		m.pendingSave = &in
	}
	return m.handleResult(m.dispatcher.Dispatch(m.ctx, in))
}

// handleResult shows what a handler asked for.
func (m Model) handleResult(res chat.Result) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch {
	case res.Turn != nil:
		cmds = append(cmds, m.startStream(res.Turn))

	case res.ConfirmPath != "" && m.pendingSave != nil:
		in := *m.pendingSave
		in.Path = res.ConfirmPath
		m.pendingSave = &in
		n := components.NewConfirm("File exists", "Overwrite "+res.ConfirmPath+"?")
		n.SetSize(m.width, m.height)
		m.notice = &n

	case res.Feedback != nil:
		cmds = append(cmds, feedbackTickCmd(m.dispatcher.Feedback.Delay()))
		if errors.Is(res.Err, chat.ErrNoSuchBlock) {
			m.showNotice(chat.UserMessage(res.Err))
		} else if res.Err != nil {
			m.log.WithError(res.Err).Debug("code block action failed")
		}

	case res.Notice != "":
		m.showNotice(res.Notice)
	}

	if res.ConfirmPath == "" {
		m.pendingSave = nil
	}
	if res.Attachment != nil {
		m.log.WithField("file", res.Attachment.Name).Debug("attachment added")
	}
	m.status.SetAttachments(m.session.Pending.Snapshot())
	m.refresh()
	return m, tea.Batch(cmds...)
}

// =============================================================================
// STREAMING
// =============================================================================

func (m *Model) startStream(turn *chat.Turn) tea.Cmd {
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel.set(cancel)
	m.stream = startReader(ctx, turn)
	m.state = StateStreaming
	m.status.Status = components.StatusWaiting
	m.selected = -1
	return tea.Batch(waitForEvent(turn.ID, m.stream.events), streamTickCmd(), m.spinner.Tick)
}

func (m Model) handleStreamDelta(msg StreamDeltaMsg) (tea.Model, tea.Cmd) {
	if m.stream == nil || msg.TurnID != m.stream.turn.ID {
		return m, nil
	}
	events := m.stream.events

	if err := m.stream.turn.Apply(msg.Delta); err != nil {
		m.finishStream(err)
		return m, nil
	}
	m.status.Status = components.StatusStreaming
	m.repaint.Do(m.refresh)
	return m, waitForEvent(msg.TurnID, events)
}

func (m Model) handleStreamDone(msg StreamDoneMsg) (tea.Model, tea.Cmd) {
	if m.stream == nil || msg.TurnID != m.stream.turn.ID {
		return m, nil
	}
	m.finishStream(msg.Err)
	return m, nil
}

// finishStream completes or fails the turn and returns to the ready state.
func (m *Model) finishStream(err error) {
	turn := m.stream.turn
	m.stream = nil
	m.cancel.cancel()
	m.state = StateReady

	if err != nil {
		turn.Fail(err)
		m.offline = ollama.IsNotRunning(err)
	} else {
		if cerr := turn.Complete(); cerr != nil {
			m.log.WithError(cerr).Error("completing reply")
		}
		m.offline = false
		m.status.Stats = m.session.LastStats().Format()
	}
	m.status.Status = m.restingStatus()
	m.refresh()
}

// cancelStream abandons the reply on Esc. The reader sees the cancelled
// context and stops; its remaining events are ignored.
func (m Model) cancelStream() (tea.Model, tea.Cmd) {
	m.cancel.cancel()
	m.finishStream(ollama.ErrCanceled)
	return m, nil
}

func (m Model) waitingForFirstDelta() bool {
	if m.stream == nil {
		return false
	}
	e, ok := m.stream.turn.Entry()
	return ok && e.State == transcript.StatePlaceholder
}

func (m Model) restingStatus() components.Status {
	if m.offline {
		return components.StatusOffline
	}
	return components.StatusReady
}

// =============================================================================
// OLLAMA AND CONFIG
// =============================================================================

func (m Model) handleOllamaStatus(msg OllamaStatusMsg) (tea.Model, tea.Cmd) {
	if m.state != StateReady {
		return m, nil
	}
	m.offline = !msg.Running
	m.status.Status = m.restingStatus()
	if msg.Error != nil {
		m.log.WithError(msg.Error).Warn("ollama health check failed")
	}
	return m, nil
}

func (m Model) handleConfigReloaded(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.log.WithError(msg.Err).Warn("config reload failed, keeping previous settings")
		m.status.Hint = "config reload failed, see log"
		return m, nil
	}

	if m.onConfig != nil {
		if c := m.onConfig(msg.Config); c != nil {
			m.client = c
			m.status.ModelName = c.Model()
		}
	}
	if msg.Config.UI.Theme != m.themeName {
		m.themeName = msg.Config.UI.Theme
		m.markdown.SetTheme(m.themeName)
		clear(m.cache)
	}
	m.status.Hint = "config reloaded"
	m.log.WithField("model", m.status.ModelName).Info("config reloaded")
	m.refresh()
	return m, CheckOllamaCmd(m.client)
}

// =============================================================================
// CODE BLOCK SELECTION
// =============================================================================

// moveSelection steps through the code blocks of finished replies.
func (m *Model) moveSelection(step int) {
	if len(m.blocks) == 0 {
		m.selected = -1
		return
	}
	switch {
	case m.selected < 0 && step > 0:
		// Start at the first block of the latest reply.
		last := m.blocks[len(m.blocks)-1].entryID
		m.selected = len(m.blocks) - 1
		for m.selected > 0 && m.blocks[m.selected-1].entryID == last {
			m.selected--
		}
	case m.selected < 0:
		m.selected = len(m.blocks) - 1
	default:
		m.selected = (m.selected + step + len(m.blocks)) % len(m.blocks)
	}
	m.refresh()
}

// selectedBlock returns the selected block, or the first block of the
// latest reply when nothing is selected.
func (m *Model) selectedBlock() (blockRef, bool) {
	if m.selected < 0 {
		m.moveSelection(1)
	}
	if m.selected < 0 || m.selected >= len(m.blocks) {
		return blockRef{}, false
	}
	return m.blocks[m.selected], true
}

// =============================================================================
// OVERLAYS
// =============================================================================

func (m *Model) showNotice(text string) {
	n := components.NewNotice(text)
	n.SetSize(m.width, m.height)
	m.notice = &n
}

func (m *Model) showHelp() {
	var b strings.Builder
	for _, h := range chat.CommandHelp {
		b.WriteString(h.Usage + "  " + h.Description + "\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.FullHelpView(m.keys.FullHelp()))

	n := components.Notice{Kind: components.NoticeHelp, Title: "Help", Message: b.String()}
	n.SetSize(m.width, m.height)
	m.notice = &n
}
