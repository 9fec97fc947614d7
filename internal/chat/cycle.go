// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/jeranaias/ocrchat/internal/render"
	"github.com/jeranaias/ocrchat/internal/transcript"
)

// Cycle renders one streamed reply into a transcript entry. It owns the
// accumulator for the reply and is discarded once the reply ends.
type Cycle struct {
	tr       *transcript.Transcript
	renderer *render.Renderer
	id       int64
	acc      strings.Builder
	deltas   int
	last     render.Result
	ended    bool
}

// Begin appends the loading placeholder and returns its cycle.
func Begin(tr *transcript.Transcript, r *render.Renderer) *Cycle {
	e := tr.AppendPlaceholder()
	return &Cycle{tr: tr, renderer: r, id: e.ID}
}

// ID returns the transcript id of the assistant entry.
func (c *Cycle) ID() int64 {
	return c.id
}

// Text returns everything received so far.
func (c *Cycle) Text() string {
	return c.acc.String()
}

// Result returns the latest render.
func (c *Cycle) Result() render.Result {
	return c.last
}

// Deltas returns how many deltas were applied.
func (c *Cycle) Deltas() int {
	return c.deltas
}

// Apply appends delta and re-renders the whole accumulated text.
func (c *Cycle) Apply(delta string) error {
	c.acc.WriteString(delta)
	c.deltas++
	return c.update()
}

func (c *Cycle) update() error {
	text := c.acc.String()
	c.last = c.renderer.Render(text)
	return c.tr.Stream(c.id, text, c.last)
}

// Complete finalizes the entry. A reply with no deltas still passes through
// the streaming state, as an empty render.
func (c *Cycle) Complete() error {
	if c.ended {
		return nil
	}
	c.ended = true
	if c.deltas == 0 {
		if err := c.update(); err != nil {
			return err
		}
	}
	return c.tr.Finalize(c.id)
}

// Fail removes the entry and appends one error entry describing err.
func (c *Cycle) Fail(err error) (transcript.Entry, error) {
	if c.ended {
		return transcript.Entry{}, transcript.ErrInvalidTransition
	}
	c.ended = true
	return c.tr.Fail(c.id, UserMessage(err))
}
