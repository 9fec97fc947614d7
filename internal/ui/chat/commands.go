// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/ocrchat/internal/chat"
	"github.com/jeranaias/ocrchat/internal/ollama"
)

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// CheckOllamaCmd creates a command that checks if Ollama is running.
func CheckOllamaCmd(client *ollama.Client) tea.Cmd {
	return func() tea.Msg {
		if client == nil {
			return OllamaStatusMsg{Running: false, Error: ollama.ErrNotRunning}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := client.CheckRunning(ctx)
		return OllamaStatusMsg{
			Running: err == nil,
			Error:   err,
		}
	}
}

// attachCmd runs an extraction off the update loop.
func attachCmd(ctx context.Context, d *chat.Dispatcher, in chat.AttachIntent) tea.Cmd {
	return func() tea.Msg {
		return AttachDoneMsg{Result: d.Dispatch(ctx, in)}
	}
}

// feedbackTickCmd fires once the action labels shown now have reverted.
func feedbackTickCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay+10*time.Millisecond, func(time.Time) tea.Msg {
		return FeedbackExpiredMsg{}
	})
}
