// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the reusable pieces of the chat screen:
// the code block action bar, the status bar and the modal notice.
//
// Components are plain values rendered with a *styles.Theme; they hold no
// Bubble Tea state of their own. The chat model owns them and rebuilds
// them from the session on every update.
package components
