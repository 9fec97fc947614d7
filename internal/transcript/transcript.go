// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transcript holds the ordered list of chat entries and enforces the
// lifecycle of the in-progress assistant entry:
//
//	placeholder -> streaming -> final
//	placeholder | streaming -> (removed, replaced by one error entry)
//
// Entries other than the in-progress one never change after creation.
package transcript

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jeranaias/ocrchat/internal/render"
)

// =============================================================================
// TYPES
// =============================================================================

// Role is who produced an entry.
type Role int

const (
	RoleUser Role = iota + 1
	RoleAssistant
	RoleError
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	case RoleError:
		return "error"
	default:
		return "unknown"
	}
}

// State is the lifecycle state of an entry.
type State int

const (
	StatePlaceholder State = iota + 1
	StateStreaming
	StateFinal
	StateErrored
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StatePlaceholder:
		return "placeholder"
	case StateStreaming:
		return "streaming"
	case StateFinal:
		return "final"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Entry is one item of the transcript.
type Entry struct {
	ID        int64
	Role      Role
	State     State
	Text      string // display text (user, error) or accumulated markdown (assistant)
	HTML      string // rendered markup, assistant entries only
	Blocks    []render.CodeBlock
	Loading   bool
	CreatedAt time.Time
}

// Block returns the code block with the given 1-based index.
func (e Entry) Block(index int) (render.CodeBlock, bool) {
	if index < 1 || index > len(e.Blocks) {
		return render.CodeBlock{}, false
	}
	return e.Blocks[index-1], true
}

// ChangeKind says what happened to an entry.
type ChangeKind int

const (
	ChangeAppended ChangeKind = iota + 1
	ChangeUpdated
	ChangeFinalized
	ChangeRemoved
)

// Change is delivered to the observer after every mutation.
type Change struct {
	Kind ChangeKind
	ID   int64
}

// Observer is notified of changes. It is called without the transcript lock
// held, so it may read the transcript.
type Observer func(Change)

var (
	// ErrNotFound is returned for an unknown entry id.
	ErrNotFound = errors.New("transcript entry not found")
	// ErrInvalidTransition is returned when an entry cannot move to the requested state.
	ErrInvalidTransition = errors.New("invalid transcript transition")
)

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is an append-only list of entries. It is safe for concurrent use.
type Transcript struct {
	mu       sync.RWMutex
	entries  []Entry
	lastID   int64
	now      func() time.Time
	observer Observer
}

// Option configures a Transcript.
type Option func(*Transcript)

// WithClock overrides the time source used for ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(t *Transcript) { t.now = now }
}

// WithObserver registers the change observer.
func WithObserver(o Observer) Option {
	return func(t *Transcript) { t.observer = o }
}

// New creates an empty transcript.
func New(opts ...Option) *Transcript {
	t := &Transcript{now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetObserver replaces the change observer.
func (t *Transcript) SetObserver(o Observer) {
	t.mu.Lock()
	t.observer = o
	t.mu.Unlock()
}

// nextID returns a millisecond timestamp, bumped past the previous id when
// two entries land in the same millisecond. Caller holds the lock.
func (t *Transcript) nextID(at time.Time) int64 {
	id := at.UnixMilli()
	if id <= t.lastID {
		id = t.lastID + 1
	}
	t.lastID = id
	return id
}

func (t *Transcript) appendLocked(e Entry) Entry {
	at := t.now()
	e.ID = t.nextID(at)
	e.CreatedAt = at
	t.entries = append(t.entries, e)
	return e
}

func (t *Transcript) indexLocked(id int64) int {
	for i := len(t.entries) - 1; i >= 0; i-- {
		if t.entries[i].ID == id {
			return i
		}
	}
	return -1
}

func (t *Transcript) notify(changes ...Change) {
	t.mu.RLock()
	o := t.observer
	t.mu.RUnlock()
	if o == nil {
		return
	}
	for _, c := range changes {
		o(c)
	}
}

// Append adds a final user or error entry.
func (t *Transcript) Append(role Role, text string) Entry {
	state := StateFinal
	if role == RoleError {
		state = StateErrored
	}
	t.mu.Lock()
	e := t.appendLocked(Entry{Role: role, State: state, Text: text})
	t.mu.Unlock()

	t.notify(Change{Kind: ChangeAppended, ID: e.ID})
	return e
}

// AppendPlaceholder adds an empty assistant entry in the loading state.
func (t *Transcript) AppendPlaceholder() Entry {
	t.mu.Lock()
	e := t.appendLocked(Entry{Role: RoleAssistant, State: StatePlaceholder, Loading: true})
	t.mu.Unlock()

	t.notify(Change{Kind: ChangeAppended, ID: e.ID})
	return e
}

// Stream replaces the content of an in-progress assistant entry with the
// full accumulated text and its render.
func (t *Transcript) Stream(id int64, text string, res render.Result) error {
	t.mu.Lock()
	i := t.indexLocked(id)
	if i < 0 {
		t.mu.Unlock()
		return fmt.Errorf("stream %d: %w", id, ErrNotFound)
	}
	e := &t.entries[i]
	if e.State != StatePlaceholder && e.State != StateStreaming {
		t.mu.Unlock()
		return fmt.Errorf("stream %d from %s: %w", id, e.State, ErrInvalidTransition)
	}
	e.State = StateStreaming
	e.Loading = false
	e.Text = text
	e.HTML = res.HTML
	e.Blocks = res.Blocks
	t.mu.Unlock()

	t.notify(Change{Kind: ChangeUpdated, ID: id})
	return nil
}

// Finalize marks a streaming entry complete.
func (t *Transcript) Finalize(id int64) error {
	t.mu.Lock()
	i := t.indexLocked(id)
	if i < 0 {
		t.mu.Unlock()
		return fmt.Errorf("finalize %d: %w", id, ErrNotFound)
	}
	e := &t.entries[i]
	if e.State != StateStreaming {
		t.mu.Unlock()
		return fmt.Errorf("finalize %d from %s: %w", id, e.State, ErrInvalidTransition)
	}
	e.State = StateFinal
	e.Loading = false
	t.mu.Unlock()

	t.notify(Change{Kind: ChangeFinalized, ID: id})
	return nil
}

// Fail removes an in-progress assistant entry and appends one error entry
// with the given message in its place.
func (t *Transcript) Fail(id int64, message string) (Entry, error) {
	t.mu.Lock()
	i := t.indexLocked(id)
	if i < 0 {
		t.mu.Unlock()
		return Entry{}, fmt.Errorf("fail %d: %w", id, ErrNotFound)
	}
	if s := t.entries[i].State; s != StatePlaceholder && s != StateStreaming {
		t.mu.Unlock()
		return Entry{}, fmt.Errorf("fail %d from %s: %w", id, s, ErrInvalidTransition)
	}
	t.entries = append(t.entries[:i], t.entries[i+1:]...)
	e := t.appendLocked(Entry{Role: RoleError, State: StateErrored, Text: message})
	t.mu.Unlock()

	t.notify(Change{Kind: ChangeRemoved, ID: id}, Change{Kind: ChangeAppended, ID: e.ID})
	return e, nil
}

// Entries returns a copy of all entries in order.
func (t *Transcript) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Get returns the entry with the given id.
func (t *Transcript) Get(id int64) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if i := t.indexLocked(id); i >= 0 {
		return t.entries[i], true
	}
	return Entry{}, false
}

// Last returns the most recent entry with the given role.
func (t *Transcript) Last(role Role) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := len(t.entries) - 1; i >= 0; i-- {
		if t.entries[i].Role == role {
			return t.entries[i], true
		}
	}
	return Entry{}, false
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Count returns the number of entries with the given role.
func (t *Transcript) Count(role Role) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, e := range t.entries {
		if e.Role == role {
			n++
		}
	}
	return n
}
