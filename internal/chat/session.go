// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/ocrchat/internal/attachment"
	"github.com/jeranaias/ocrchat/internal/compose"
	"github.com/jeranaias/ocrchat/internal/ollama"
	"github.com/jeranaias/ocrchat/internal/render"
	"github.com/jeranaias/ocrchat/internal/transcript"
)

// =============================================================================
// SESSION
// =============================================================================

// Session is one conversation: its transcript, the attachments of the
// message being composed, and the model connection.
type Session struct {
	Transcript *transcript.Transcript
	Pending    *attachment.Pending

	renderer *render.Renderer
	gen      Generator
	log      *logrus.Entry

	mu         sync.Mutex
	inFlight   bool
	extracting bool
	lastStats  ollama.StreamStats
}

// NewSession creates a session with an empty transcript.
func NewSession(gen Generator, r *render.Renderer, log *logrus.Entry) *Session {
	if r == nil {
		r = render.New()
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Session{
		Transcript: transcript.New(),
		Pending:    attachment.NewPending(),
		renderer:   r,
		gen:        gen,
		log:        log.WithField("component", "chat"),
	}
}

// Renderer returns the markdown renderer.
func (s *Session) Renderer() *render.Renderer {
	return s.renderer
}

// SetGenerator swaps the model connection, e.g. after a config reload.
// It takes effect on the next turn.
func (s *Session) SetGenerator(gen Generator) {
	s.mu.Lock()
	s.gen = gen
	s.mu.Unlock()
}

// Busy reports whether a turn or an extraction is in progress.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight || s.extracting
}

// Streaming reports whether a turn is in flight.
func (s *Session) Streaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Extracting reports whether an attachment is being extracted.
func (s *Session) Extracting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.extracting
}

// LastStats returns the statistics of the last completed turn.
func (s *Session) LastStats() ollama.StreamStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastStats
}

// BeginExtraction marks an extraction as running. Sending is refused until
// the returned release func is called.
func (s *Session) BeginExtraction() (release func(), err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.extracting {
		return nil, ErrBusy
	}
	s.extracting = true
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.extracting = false
			s.mu.Unlock()
		})
	}, nil
}

// Prepare composes input with the pending attachments, records the user
// entry and the assistant placeholder, and clears the attachments. The
// returned turn has not contacted the model yet.
func (s *Session) Prepare(input string) (*Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight || s.extracting {
		return nil, ErrBusy
	}
	msg, ok := compose.Compose(input, s.Pending.Snapshot())
	if !ok {
		return nil, ErrNothingToSend
	}

	s.Transcript.Append(transcript.RoleUser, msg.Display)
	s.Pending.ClearAll()
	cycle := Begin(s.Transcript, s.renderer)
	s.inFlight = true

	t := &Turn{
		ID:      uuid.NewString(),
		Message: msg,
		session: s,
		gen:     s.gen,
		cycle:   cycle,
		started: time.Now(),
	}
	t.log = s.log.WithField("turn", t.ID)
	t.log.WithFields(logrus.Fields{
		"prompt_len": len(msg.Prompt),
		"image":      msg.Image,
		"pdf":        msg.PDF,
	}).Info("turn started")
	return t, nil
}

// Send runs a whole turn synchronously. onDelta, if set, sees each delta
// after it has been applied. The returned error is the turn's failure, if
// any; the transcript already holds the corresponding error entry.
func (s *Session) Send(ctx context.Context, input string, onDelta func(string)) (*Turn, error) {
	t, err := s.Prepare(input)
	if err != nil {
		return nil, err
	}
	return t, t.Run(ctx, onDelta)
}

func (s *Session) release(stats ollama.StreamStats, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if ok {
		s.lastStats = stats
	}
}

// =============================================================================
// TURN
// =============================================================================

// Turn is one request/response exchange.
//
// Open and Next may run on a reader goroutine; Apply, Complete and Fail must
// run on the goroutine that owns the transcript.
type Turn struct {
	ID      string
	Message compose.Message

	session *Session
	gen     Generator
	cycle   *Cycle
	started time.Time
	ended   bool
	log     *logrus.Entry

	mu     sync.Mutex // guards stream and closed
	stream Stream
	closed bool
}

// EntryID returns the transcript id of the assistant entry.
func (t *Turn) EntryID() int64 {
	return t.cycle.ID()
}

// Entry returns the assistant entry of this turn. After a failure the
// entry has been replaced and Entry reports false.
func (t *Turn) Entry() (transcript.Entry, bool) {
	return t.session.Transcript.Get(t.EntryID())
}

// Text returns the reply received so far.
func (t *Turn) Text() string {
	return t.cycle.Text()
}

// Open issues the request.
func (t *Turn) Open(ctx context.Context) error {
	if t.gen == nil {
		return errors.New("no model connection configured")
	}
	s, err := t.gen.Generate(ctx, t.Message.Prompt)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		// The turn ended while the request was in flight.
		s.Close()
		return ollama.ErrCanceled
	}
	t.stream = s
	return nil
}

func (t *Turn) currentStream() Stream {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stream
}

// Next reads the next delta. It returns io.EOF at the end of the reply.
func (t *Turn) Next() (string, error) {
	s := t.currentStream()
	if s == nil {
		return "", io.EOF
	}
	return s.Next()
}

// Apply renders a delta into the transcript.
func (t *Turn) Apply(delta string) error {
	return t.cycle.Apply(delta)
}

// Stats returns the stream statistics so far.
func (t *Turn) Stats() ollama.StreamStats {
	s := t.currentStream()
	if s == nil {
		return ollama.StreamStats{}
	}
	return s.Stats()
}

// Complete finalizes the reply and releases the session.
func (t *Turn) Complete() error {
	if t.ended {
		return nil
	}
	t.ended = true
	err := t.cycle.Complete()
	stats := t.Stats()
	t.close()
	t.session.release(stats, err == nil)
	t.log.WithFields(logrus.Fields{
		"deltas":    t.cycle.Deltas(),
		"chars":     len(t.cycle.Text()),
		"malformed": stats.Malformed,
		"elapsed":   time.Since(t.started).String(),
	}).Info("turn completed")
	return err
}

// Fail replaces the reply with an error entry and releases the session.
func (t *Turn) Fail(cause error) transcript.Entry {
	if t.ended {
		return transcript.Entry{}
	}
	t.ended = true
	e, err := t.cycle.Fail(cause)
	t.close()
	t.session.release(ollama.StreamStats{}, false)

	entry := t.log.WithFields(logrus.Fields{"class": Classify(cause).String(), "error": cause})
	if err != nil {
		entry = entry.WithField("transcript_error", err)
	}
	entry.Warn("turn failed")
	return e
}

func (t *Turn) close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	if t.stream != nil {
		t.stream.Close()
	}
}

// Run opens the stream and applies every delta until the reply ends.
func (t *Turn) Run(ctx context.Context, onDelta func(string)) error {
	if err := t.Open(ctx); err != nil {
		t.Fail(err)
		return err
	}
	for {
		delta, err := t.Next()
		if errors.Is(err, io.EOF) {
			return t.Complete()
		}
		if err != nil {
			t.Fail(err)
			return err
		}
		if err := t.Apply(delta); err != nil {
			t.Fail(err)
			return err
		}
		if onDelta != nil {
			onDelta(delta)
		}
	}
}
