// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/jeranaias/ocrchat/internal/chat"
	"github.com/jeranaias/ocrchat/internal/config"
	"github.com/jeranaias/ocrchat/internal/ollama"
	"github.com/jeranaias/ocrchat/internal/render"
	"github.com/jeranaias/ocrchat/internal/transcript"
	"github.com/jeranaias/ocrchat/internal/ui/components"
	"github.com/jeranaias/ocrchat/internal/ui/styles"
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Deps are the components the chat screen drives.
type Deps struct {
	Session    *chat.Session
	Dispatcher *chat.Dispatcher
	Client     *ollama.Client
	// Theme is the glamour theme setting ("auto", "dark", "light").
	Theme string
	// ConfigPath, when set, is watched for changes.
	ConfigPath string
	// OnConfig applies a reloaded configuration and returns the client to
	// use from now on.
	OnConfig func(*config.Config) *ollama.Client
	Log      *logrus.Entry
}

// =============================================================================
// MODEL
// =============================================================================

// State is the screen's interaction state.
type State int

const (
	StateReady State = iota
	StateExtracting
	StateStreaming
)

// blockRef points at one code block of a finished reply.
type blockRef struct {
	entryID int64
	index   int
}

// cachedEntry is a finished reply already rendered at some width.
type cachedEntry struct {
	width int
	style string
	out   string
}

// transcriptWatch is set by the transcript observer and consumed by refresh.
type transcriptWatch struct {
	changed atomic.Bool
}

func (w *transcriptWatch) observe(transcript.Change) {
	w.changed.Store(true)
}

// Model is the Bubble Tea model of the chat screen.
type Model struct {
	ctx        context.Context
	session    *chat.Session
	dispatcher *chat.Dispatcher
	client     *ollama.Client
	onConfig   func(*config.Config) *ollama.Client
	log        *logrus.Entry

	theme      *styles.Theme
	themeName  string
	keys       KeyMap
	markdown   *render.TerminalRenderer
	input      textinput.Model
	viewport   viewport.Model
	spinner    spinner.Model
	help       help.Model
	status     *components.StatusBar
	completion *components.CompletionPopup
	notice     *components.Notice

	state       State
	offline     bool
	stream      *activeStream
	cancel      *cancelManager
	repaint     *rate.Sometimes
	watch       *transcriptWatch
	dirty       bool // spinner frame changed
	pendingSave *chat.SaveIntent
	blocks      []blockRef
	selected    int // index into blocks, -1 for none
	cache       map[int64]cachedEntry

	width  int
	height int
	ready  bool
}

// New creates the chat model. ctx bounds every request it starts.
func New(ctx context.Context, deps Deps) Model {
	log := deps.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	theme := styles.NewTheme()

	ti := textinput.New()
	ti.Placeholder = "Ask something, or /image PATH, /pdf PATH, /help"
	ti.Prompt = "> "
	ti.PromptStyle = theme.InputPrompt
	ti.PlaceholderStyle = theme.InputPlaceholder
	ti.CharLimit = 0
	ti.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(theme.Loading.PaddingLeft(0)))

	status := components.NewStatusBar(theme)
	if deps.Client != nil {
		status.ModelName = deps.Client.Model()
	}
	status.Hint = "F1 help · Tab blocks · Esc cancel"

	watch := &transcriptWatch{}
	if deps.Session != nil {
		deps.Session.Transcript.SetObserver(watch.observe)
	}

	return Model{
		ctx:        ctx,
		session:    deps.Session,
		dispatcher: deps.Dispatcher,
		client:     deps.Client,
		onConfig:   deps.OnConfig,
		log:        log,
		theme:      theme,
		themeName:  deps.Theme,
		keys:       DefaultKeyMap(),
		markdown:   render.NewTerminalRenderer(deps.Theme, 80),
		input:      ti,
		viewport:   viewport.New(80, 20),
		spinner:    sp,
		help:       help.New(),
		status:     status,
		completion: components.NewCompletionPopup(theme),
		cancel:     newCancelManager(),
		repaint:    newRepaintThrottle(),
		watch:      watch,
		selected:   -1,
		cache:      make(map[int64]cachedEntry),
		width:      80,
		height:     24,
	}
}

// Init starts the cursor blink and the health check.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, CheckOllamaCmd(m.client))
}

// IsStreaming reports whether a reply is being read.
func (m Model) IsStreaming() bool {
	return m.stream != nil
}

// shutdown cancels a reply still in flight when the program exits.
func (m *Model) shutdown() {
	if m.stream != nil {
		m.stream.turn.Fail(ollama.ErrCanceled)
		m.stream = nil
	}
	m.cancel.cancel()
}

// =============================================================================
// RUN
// =============================================================================

// Run shows the chat screen until the user quits or ctx is done.
func Run(ctx context.Context, deps Deps) error {
	if deps.Session == nil || deps.Dispatcher == nil {
		return errors.New("chat screen needs a session and a dispatcher")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := New(ctx, deps)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))

	if deps.ConfigPath != "" {
		err := config.Watch(ctx, deps.ConfigPath, func(cfg *config.Config, err error) {
			p.Send(ConfigReloadedMsg{Config: cfg, Err: err})
		})
		if err != nil {
			m.log.WithError(err).Warn("config hot reload disabled")
		}
	}

	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.shutdown()
	}
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
