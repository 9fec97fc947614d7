// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/ocrchat/internal/attachment"
	"github.com/jeranaias/ocrchat/internal/chat"
	"github.com/jeranaias/ocrchat/internal/clipboard"
	"github.com/jeranaias/ocrchat/internal/config"
	"github.com/jeranaias/ocrchat/internal/ollama"
	"github.com/jeranaias/ocrchat/internal/transcript"
	"github.com/jeranaias/ocrchat/internal/ui/components"
)

// =============================================================================
// FAKES
// =============================================================================

// scriptedStream replays deltas, then ends with err (io.EOF when nil).
// With block set it waits for the request context instead.
type scriptedStream struct {
	ctx    context.Context
	deltas []string
	err    error
	block  bool
}

func (s *scriptedStream) Next() (string, error) {
	if s.block {
		<-s.ctx.Done()
		return "", ollama.ErrCanceled
	}
	if len(s.deltas) == 0 {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	d := s.deltas[0]
	s.deltas = s.deltas[1:]
	return d, nil
}

func (s *scriptedStream) Close() error { return nil }

func (s *scriptedStream) Stats() ollama.StreamStats {
	return ollama.StreamStats{TotalDuration: 1500 * time.Millisecond, CompletionTokens: 12}
}

type scriptedGenerator struct {
	deltas  []string
	openErr error
	block   bool
}

func (g scriptedGenerator) Generate(ctx context.Context, _ string) (chat.Stream, error) {
	if g.openErr != nil {
		return nil, g.openErr
	}
	return &scriptedStream{ctx: ctx, deltas: append([]string(nil), g.deltas...), block: g.block}, nil
}

type fakeExtractor struct {
	text string
	err  error
}

func (f fakeExtractor) Extract(_ context.Context, kind attachment.Kind, path string) (*attachment.Attachment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return attachment.New(kind, path, f.text), nil
}

// =============================================================================
// HELPERS
// =============================================================================

type harness struct {
	model     Model
	session   *chat.Session
	clipboard *clipboard.Memory
	saveDir   string
}

func newHarness(t *testing.T, gen chat.Generator, ex chat.Extractor) *harness {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	sess := chat.NewSession(gen, nil, logrus.NewEntry(log))
	cb := &clipboard.Memory{}
	dir := t.TempDir()
	disp := chat.NewDispatcher(sess, ex, cb, chat.NewFeedback(20*time.Millisecond, nil), dir)

	m := New(context.Background(), Deps{
		Session:    sess,
		Dispatcher: disp,
		Theme:      "dark",
		Log:        logrus.NewEntry(log),
	})
	m.input.Cursor.SetMode(cursor.CursorStatic)
	h := &harness{session: sess, clipboard: cb, saveDir: dir}
	h.model = h.update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return h
}

// update applies msg and pumps every command it produces until the model
// settles.
func (h *harness) update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	return h.pump(t, m, cmd)
}

func (h *harness) pump(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 5000, "model did not settle")
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg := c()
		switch msg := msg.(type) {
		case nil, cursor.BlinkMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			next, more := m.Update(msg)
			m = next.(Model)
			queue = append(queue, more)
		}
	}
	return m
}

func (h *harness) press(t *testing.T, k tea.KeyMsg) {
	t.Helper()
	h.model = h.update(t, h.model, k)
}

func (h *harness) send(t *testing.T, line string) {
	t.Helper()
	h.model.input.SetValue(line)
	h.press(t, tea.KeyMsg{Type: tea.KeyEnter})
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

const replyWithCode = "Here you go:\n\n```go\nfmt.Println(1)\n```\n"

// =============================================================================
// STREAMING TESTS
// =============================================================================

func TestModel_SendStreamsReply(t *testing.T) {
	h := newHarness(t, scriptedGenerator{deltas: []string{"Hel", "lo", " world"}}, nil)

	h.send(t, "hi")

	entries := h.session.Transcript.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, transcript.RoleUser, entries[0].Role)
	assert.Equal(t, "hi", entries[0].Text)
	assert.Equal(t, transcript.StateFinal, entries[1].State)
	assert.Equal(t, "Hello world", entries[1].Text)

	assert.False(t, h.model.IsStreaming())
	assert.Equal(t, StateReady, h.model.state)
	assert.Equal(t, components.StatusReady, h.model.status.Status)
	assert.Contains(t, h.model.status.Stats, "12 tokens")
	assert.Empty(t, h.model.input.Value())
}

func TestModel_EmptyInputSendsNothing(t *testing.T) {
	h := newHarness(t, scriptedGenerator{deltas: []string{"x"}}, nil)

	h.send(t, "   ")

	assert.Equal(t, 0, h.session.Transcript.Len())
	assert.Nil(t, h.model.notice)
}

func TestModel_ConnectFailureBecomesErrorEntry(t *testing.T) {
	h := newHarness(t, scriptedGenerator{openErr: ollama.ErrNotRunning}, nil)

	h.send(t, "hi")

	entries := h.session.Transcript.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, transcript.RoleError, entries[1].Role)
	assert.Equal(t, chat.ConnectMessage, entries[1].Text)
	assert.Equal(t, 0, h.session.Transcript.Count(transcript.RoleAssistant))
	assert.Equal(t, components.StatusOffline, h.model.status.Status)
}

func TestModel_EscCancelsReply(t *testing.T) {
	h := newHarness(t, scriptedGenerator{block: true}, nil)

	// Enter without pumping: the reader is left waiting on the server.
	h.model.input.SetValue("hi")
	next, _ := h.model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	h.model = next.(Model)
	require.True(t, h.model.IsStreaming())

	h.press(t, tea.KeyMsg{Type: tea.KeyEsc})

	assert.False(t, h.model.IsStreaming())
	last, ok := h.session.Transcript.Last(transcript.RoleError)
	require.True(t, ok)
	assert.Equal(t, "Error: Request canceled.", last.Text)
	assert.False(t, h.session.Busy())
}

func TestModel_BusyKeepsDraft(t *testing.T) {
	h := newHarness(t, scriptedGenerator{block: true}, nil)

	h.model.input.SetValue("first")
	next, _ := h.model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	h.model = next.(Model)

	h.model.input.SetValue("second")
	next, _ = h.model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	h.model = next.(Model)

	require.NotNil(t, h.model.notice)
	assert.Equal(t, chat.UserMessage(chat.ErrBusy), h.model.notice.Message)
	assert.Equal(t, "second", h.model.input.Value())

	h.model.shutdown()
}

func TestModel_StaleEventsIgnored(t *testing.T) {
	h := newHarness(t, scriptedGenerator{}, nil)

	next, cmd := h.model.Update(StreamDeltaMsg{TurnID: "gone", Delta: "x"})
	assert.Nil(t, cmd)
	assert.Equal(t, 0, next.(Model).session.Transcript.Len())
}

func TestModel_TranscriptChangesMarkViewStale(t *testing.T) {
	h := newHarness(t, scriptedGenerator{}, nil)
	require.False(t, h.model.stale())

	h.session.Transcript.Append(transcript.RoleUser, "from elsewhere")
	assert.True(t, h.model.stale())

	h.model.refresh()
	assert.False(t, h.model.stale())
	assert.Contains(t, h.model.viewport.View(), "from elsewhere")
}

// =============================================================================
// CODE BLOCK TESTS
// =============================================================================

func TestModel_CopySelectedBlock(t *testing.T) {
	h := newHarness(t, scriptedGenerator{deltas: []string{replyWithCode}}, nil)
	h.send(t, "code please")

	require.Len(t, h.model.blocks, 1)
	h.press(t, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 0, h.model.selected)

	next, cmd := h.model.Update(tea.KeyMsg{Type: tea.KeyCtrlY})
	h.model = next.(Model)

	assert.Equal(t, "fmt.Println(1)\n", h.clipboard.Text())
	assert.Contains(t, h.model.viewport.View(), chat.CopiedLabel)

	// The label reverts once the feedback delay has passed.
	h.model = h.pump(t, h.model, cmd)
	assert.NotContains(t, h.model.renderTranscript(), chat.CopiedLabel)
}

func TestModel_TranscriptChangePinsToBottom(t *testing.T) {
	long := "```text\n" + strings.Repeat("line\n", 120) + "```\n"
	h := newHarness(t, scriptedGenerator{deltas: []string{long}}, nil)
	h.send(t, "many lines please")
	require.True(t, h.model.viewport.AtBottom())

	h.press(t, tea.KeyMsg{Type: tea.KeyTab})
	h.press(t, tea.KeyMsg{Type: tea.KeyPgUp})
	require.False(t, h.model.viewport.AtBottom())

	// A feedback label is a transcript change too.
	h.press(t, tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Equal(t, strings.Repeat("line\n", 120), h.clipboard.Text())
	assert.True(t, h.model.viewport.AtBottom())
}

func TestModel_SaveAsksBeforeOverwrite(t *testing.T) {
	h := newHarness(t, scriptedGenerator{deltas: []string{replyWithCode}}, nil)
	h.send(t, "code please")

	target := filepath.Join(h.saveDir, "go_1.go")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0o644))

	h.press(t, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, h.model.notice)
	assert.Equal(t, components.NoticeConfirm, h.model.notice.Kind)
	assert.Contains(t, h.model.notice.Message, target)

	h.press(t, runes("y"))
	assert.Nil(t, h.model.notice)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "fmt.Println(1)\n", string(data))
}

func TestModel_SaveDeclined(t *testing.T) {
	h := newHarness(t, scriptedGenerator{deltas: []string{replyWithCode}}, nil)
	h.send(t, "code please")

	target := filepath.Join(h.saveDir, "go_1.go")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0o644))

	h.send(t, "/save 1")
	require.NotNil(t, h.model.notice)
	h.press(t, runes("n"))

	assert.Nil(t, h.model.notice)
	assert.Nil(t, h.model.pendingSave)
	data, _ := os.ReadFile(target)
	assert.Equal(t, "old", string(data))
}

func TestModel_CopyUnknownBlock(t *testing.T) {
	h := newHarness(t, scriptedGenerator{deltas: []string{replyWithCode}}, nil)
	h.send(t, "code please")

	h.send(t, "/copy 4")

	require.NotNil(t, h.model.notice)
	assert.Equal(t, chat.UserMessage(chat.ErrNoSuchBlock), h.model.notice.Message)
}

// =============================================================================
// ATTACHMENT AND COMMAND TESTS
// =============================================================================

func TestModel_AttachShowsInStatusBar(t *testing.T) {
	h := newHarness(t, scriptedGenerator{}, fakeExtractor{text: "INVOICE 42"})

	h.send(t, "/image /tmp/scan.png")

	assert.Equal(t, StateReady, h.model.state)
	require.Len(t, h.model.status.Attachments, 1)
	assert.Equal(t, "scan.png", h.model.status.Attachments[0].Name)
	assert.Contains(t, h.model.status.View(), "📎 scan.png")
}

func TestModel_AttachValidationNotice(t *testing.T) {
	verr := &attachment.ValidationError{Kind: attachment.KindImage, Path: "/tmp/notes.txt", Reason: "not an image"}
	h := newHarness(t, scriptedGenerator{}, fakeExtractor{err: verr})

	h.send(t, "/image /tmp/notes.txt")

	require.NotNil(t, h.model.notice)
	assert.Equal(t, "Please select an image file.", h.model.notice.Message)
	assert.Empty(t, h.model.status.Attachments)

	h.press(t, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, h.model.notice)
}

func TestModel_UnknownCommand(t *testing.T) {
	h := newHarness(t, scriptedGenerator{}, nil)

	h.send(t, "/bogus")

	require.NotNil(t, h.model.notice)
	assert.Contains(t, h.model.notice.Message, "unknown command")
}

func TestModel_HelpOverlay(t *testing.T) {
	h := newHarness(t, scriptedGenerator{}, nil)

	h.press(t, tea.KeyMsg{Type: tea.KeyF1})
	require.NotNil(t, h.model.notice)
	assert.Equal(t, components.NoticeHelp, h.model.notice.Kind)
	assert.Contains(t, h.model.View(), "/image PATH")

	h.press(t, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, h.model.notice)
}

func TestModel_CommandCompletion(t *testing.T) {
	h := newHarness(t, scriptedGenerator{}, nil)

	h.press(t, runes("/cl"))
	assert.True(t, h.model.completion.Visible())

	h.press(t, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "/clear ", h.model.input.Value())
	assert.False(t, h.model.completion.Visible())
}

func TestModel_QuitCommand(t *testing.T) {
	h := newHarness(t, scriptedGenerator{}, nil)
	h.model.input.SetValue("/quit")

	_, cmd := h.model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

// =============================================================================
// CONFIG RELOAD TESTS
// =============================================================================

func TestModel_ConfigReload(t *testing.T) {
	h := newHarness(t, scriptedGenerator{}, nil)

	var applied *config.Config
	h.model.onConfig = func(cfg *config.Config) *ollama.Client {
		applied = cfg
		return ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: "http://127.0.0.1:1", Model: cfg.Ollama.Model})
	}

	cfg := config.Default()
	cfg.Ollama.Model = "llama3"
	cfg.UI.Theme = "light"
	next, cmd := h.model.Update(ConfigReloadedMsg{Config: cfg})
	h.model = next.(Model)

	require.Same(t, cfg, applied)
	assert.Equal(t, "llama3", h.model.status.ModelName)
	assert.Equal(t, "light", h.model.themeName)
	assert.NotNil(t, cmd, "reload re-checks the server")
}

func TestModel_ConfigReloadError(t *testing.T) {
	h := newHarness(t, scriptedGenerator{}, nil)
	called := false
	h.model.onConfig = func(*config.Config) *ollama.Client { called = true; return nil }

	next, _ := h.model.Update(ConfigReloadedMsg{Err: assert.AnError})
	h.model = next.(Model)

	assert.False(t, called)
	assert.True(t, strings.Contains(h.model.status.Hint, "reload failed"))
}
