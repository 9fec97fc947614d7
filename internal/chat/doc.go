// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat ties the pieces of one conversation together: composing a
// message from input and attachments, streaming the model's reply into the
// transcript, and the code block actions on finished replies.
//
// A Session allows one turn at a time. The synchronous form is Send:
//
//	sess := chat.NewSession(chat.OllamaGenerator{Client: client}, render.New(), log)
//	turn, err := sess.Send(ctx, "Explain this", nil)
//
// Interactive front ends call Prepare, read the stream on a goroutine and
// apply each delta on their own event loop so that the transcript has a
// single writer.
//
// UI events are routed through a Dispatcher, a table from intent kind to
// handler; every handler returns a Result describing what to show.
package chat
