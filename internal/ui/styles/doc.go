// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the colors and lipgloss styles of the ocrchat TUI.

Colors (colors.go) are lipgloss.AdaptiveColor values so the same palette
works on dark and light terminals. Theme (theme.go) groups the styles of
each screen area: header, transcript, code block bars, input, status bar
and overlays.

State is never shown by color alone: StatusIndicators pairs each colored
state with an ASCII marker.

	theme := styles.NewTheme()
	theme.SetSize(width, height)
	if theme.GetLayoutMode() == styles.LayoutNarrow {
	    // drop the stats from the status bar
	}
*/
package styles
