// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the full-screen chat interface built on Bubble Tea.
//
// # Architecture
//
// The Model owns the transcript: every mutation (rendering a delta,
// finalizing a reply, replacing it with an error) happens in Update. A
// reply is read on a goroutine that only talks to the network and hands
// each delta over a channel; a tea.Cmd turns channel values into messages.
//
//	Enter ──► Session.Intent ──► Dispatcher ──► Turn
//	                                              │
//	           reader goroutine: Open, Next ──► chan ──► StreamDeltaMsg
//	                                                          │
//	                                     Update: Turn.Apply, repaint
//
// Attachments are extracted inside a tea.Cmd so OCR never blocks the UI.
// Repainting the glamour view is throttled to about 30 frames a second.
// The transcript observer marks the view stale, and a tick picks up
// whatever the throttle skipped.
//
// # Keys
//
//	Enter         send the message or run a /command
//	Esc           cancel the reply being streamed
//	Tab           complete a /command, or select the next code block
//	Ctrl+Y        copy the selected code block
//	Ctrl+S        save the selected code block
//	PgUp/PgDn     scroll
//	F1            help
//	Ctrl+C        quit
package chat
