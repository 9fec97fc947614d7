// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// UNICODE: widths are terminal columns, so emoji and CJK count as two.

// TruncateWidth truncates s to at most maxWidth columns, ending in "..."
// when something was cut and there is room for it.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// TruncateMiddle keeps both ends of s, e.g. "/home/me/…/scan.pdf". File
// names are recognisable by their tail.
func TruncateMiddle(s string, maxWidth int) string {
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth < 5 {
		return TruncateWidth(s, maxWidth)
	}
	keep := maxWidth - 1 // for "…"
	head := keep / 2
	tail := keep - head

	runes := []rune(s)
	var suffix []rune
	w := 0
	for i := len(runes) - 1; i >= 0; i-- {
		rw := runewidth.RuneWidth(runes[i])
		if w+rw > tail {
			break
		}
		w += rw
		suffix = append([]rune{runes[i]}, suffix...)
	}
	return runewidth.Truncate(s, head, "") + "…" + string(suffix)
}

// StringWidth returns the display width of s.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// PadRight pads s with spaces to width columns.
func PadRight(s string, width int) string {
	if w := runewidth.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
