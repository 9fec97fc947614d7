// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package clipboard writes text to the system clipboard.
package clipboard

import (
	"errors"
	"sync"

	"github.com/atotto/clipboard"
)

// ErrUnsupported is returned when no clipboard utility is available
// (e.g. a headless Linux box without xclip, xsel or wl-copy).
var ErrUnsupported = errors.New("clipboard not available")

// Writer places text on a clipboard.
type Writer interface {
	WriteText(text string) error
}

// System is the OS clipboard.
type System struct{}

// WriteText implements Writer.
func (System) WriteText(text string) error {
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	return clipboard.WriteAll(text)
}

// Memory is an in-process clipboard, used in tests and when the system
// clipboard is unavailable.
type Memory struct {
	mu   sync.Mutex
	text string
	Err  error // returned by WriteText when set
}

// WriteText implements Writer.
func (m *Memory) WriteText(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.text = text
	return nil
}

// Text returns the last text written.
func (m *Memory) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}
