// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes a chat transcript to a file.
//
// # Supported Formats
//
//   - HTML: standalone page reusing the rendered replies and the renderer's CSS
//   - Markdown: the raw text of every entry
//   - JSON: the entries with ids, roles and timestamps
//
// The format is picked from the file extension:
//
//	err := export.ToFile(sess.Transcript.Entries(), "chat.html", export.Options{CSS: r.CSS()})
package export
