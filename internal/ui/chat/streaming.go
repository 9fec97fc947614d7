// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"

	"github.com/jeranaias/ocrchat/internal/chat"
)

// frameInterval caps repaints of a streaming reply at about 30 fps.
const frameInterval = 33 * time.Millisecond

// =============================================================================
// READER
// =============================================================================

// streamEvent is what the reader goroutine hands to Update.
type streamEvent struct {
	delta string
	done  bool
	err   error
}

// activeStream is the reply currently being read.
type activeStream struct {
	turn   *chat.Turn
	events chan streamEvent
}

// startReader opens the turn and forwards its deltas until the reply ends,
// fails, or ctx is cancelled. It touches only the network side of the turn.
func startReader(ctx context.Context, turn *chat.Turn) *activeStream {
	s := &activeStream{turn: turn, events: make(chan streamEvent, 64)}
	go s.read(ctx)
	return s
}

func (s *activeStream) read(ctx context.Context) {
	defer close(s.events)

	if err := s.turn.Open(ctx); err != nil {
		s.emit(ctx, streamEvent{err: err})
		return
	}
	for {
		delta, err := s.turn.Next()
		if errors.Is(err, io.EOF) {
			s.emit(ctx, streamEvent{done: true})
			return
		}
		if err != nil {
			s.emit(ctx, streamEvent{err: err})
			return
		}
		if !s.emit(ctx, streamEvent{delta: delta}) {
			return
		}
	}
}

// emit reports false once nobody is listening any more.
func (s *activeStream) emit(ctx context.Context, ev streamEvent) bool {
	select {
	case s.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// waitForEvent turns the next channel value into a message. A closed
// channel yields no message.
func waitForEvent(turnID string, events <-chan streamEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		if ev.done || ev.err != nil {
			return StreamDoneMsg{TurnID: turnID, Err: ev.err}
		}
		return StreamDeltaMsg{TurnID: turnID, Delta: ev.delta}
	}
}

// =============================================================================
// REPAINT THROTTLE
// =============================================================================

// newRepaintThrottle returns the limiter deltas repaint through. Repaints
// it skips are picked up by the next stream tick.
func newRepaintThrottle() *rate.Sometimes {
	return &rate.Sometimes{Interval: frameInterval}
}

// streamTickCmd sends StreamTickMsg once per frame.
func streamTickCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}
