// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"
	"time"

	"github.com/jeranaias/ocrchat/internal/render"
)

// DefaultFeedbackDelay is how long a success or error label stays visible.
const DefaultFeedbackDelay = 2 * time.Second

// Transient labels.
const (
	CopiedLabel = "✓ Copied!"
	SavedLabel  = "✓ Saved!"
	ErrorLabel  = "❌ Error"
)

// Action is a code block action.
type Action int

const (
	ActionCopy Action = iota + 1
	ActionSave
)

// String returns the action name used in data-action attributes.
func (a Action) String() string {
	switch a {
	case ActionCopy:
		return "copy"
	case ActionSave:
		return "save"
	default:
		return "unknown"
	}
}

// RestingLabel is the label shown when no feedback is active.
func (a Action) RestingLabel() string {
	if a == ActionSave {
		return render.SaveLabel
	}
	return render.CopyLabel
}

func (a Action) successLabel() string {
	if a == ActionSave {
		return SavedLabel
	}
	return CopiedLabel
}

// FeedbackKey identifies one action button.
type FeedbackKey struct {
	EntryID int64
	Index   int
	Action  Action
}

type flash struct {
	label string
	until time.Time
}

// Feedback tracks the transient labels of code block actions. Labels revert
// to the resting label once the delay has passed.
type Feedback struct {
	mu     sync.Mutex
	delay  time.Duration
	now    func() time.Time
	active map[FeedbackKey]flash
}

// NewFeedback creates a tracker. A non-positive delay uses DefaultFeedbackDelay.
func NewFeedback(delay time.Duration, now func() time.Time) *Feedback {
	if delay <= 0 {
		delay = DefaultFeedbackDelay
	}
	if now == nil {
		now = time.Now
	}
	return &Feedback{delay: delay, now: now, active: make(map[FeedbackKey]flash)}
}

// Delay returns the revert delay.
func (f *Feedback) Delay() time.Duration {
	return f.delay
}

// Success shows the success label for key.
func (f *Feedback) Success(key FeedbackKey) {
	f.set(key, key.Action.successLabel())
}

// Error shows the error label for key.
func (f *Feedback) Error(key FeedbackKey) {
	f.set(key, ErrorLabel)
}

func (f *Feedback) set(key FeedbackKey, label string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active[key] = flash{label: label, until: f.now().Add(f.delay)}
}

// Label returns the label currently shown for key.
func (f *Feedback) Label(key FeedbackKey) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	fl, ok := f.active[key]
	if !ok {
		return key.Action.RestingLabel()
	}
	if !f.now().Before(fl.until) {
		delete(f.active, key)
		return key.Action.RestingLabel()
	}
	return fl.label
}

// Pending reports whether any label has yet to revert.
func (f *Feedback) Pending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.now()
	for k, fl := range f.active {
		if !now.Before(fl.until) {
			delete(f.active, k)
		}
	}
	return len(f.active) > 0
}
