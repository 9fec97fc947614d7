// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// clean trims recognized text and normalizes it to NFC so that composed and
// decomposed accents compare equal downstream.
func clean(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\f", "")
	return strings.TrimSpace(norm.NFC.String(s))
}
