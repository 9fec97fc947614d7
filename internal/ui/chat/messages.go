// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/jeranaias/ocrchat/internal/chat"
	"github.com/jeranaias/ocrchat/internal/config"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamDeltaMsg delivers one delta of the reply to turn TurnID.
type StreamDeltaMsg struct {
	TurnID string
	Delta  string
}

// StreamDoneMsg signals the end of the reply. Err is nil on a clean end.
type StreamDoneMsg struct {
	TurnID string
	Err    error
}

// StreamTickMsg is sent at a fixed rate while a reply streams.
type StreamTickMsg struct {
	Time time.Time
}

// =============================================================================
// OLLAMA MESSAGES
// =============================================================================

// OllamaStatusMsg reports Ollama connection status.
type OllamaStatusMsg struct {
	Running bool
	Error   error
}

// =============================================================================
// ATTACHMENT AND ACTION MESSAGES
// =============================================================================

// AttachDoneMsg carries the result of an extraction.
type AttachDoneMsg struct {
	Result chat.Result
}

// FeedbackExpiredMsg asks for a repaint once action labels may have reverted.
type FeedbackExpiredMsg struct{}

// =============================================================================
// CONFIG MESSAGES
// =============================================================================

// ConfigReloadedMsg carries a configuration re-read after the file changed.
type ConfigReloadedMsg struct {
	Config *config.Config
	Err    error
}
