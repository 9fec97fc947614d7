// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
)

// SuggestFilename returns "<lang>_<index>.<ext>" for a code block. The
// extension comes from the lexer's filename patterns when the language is
// known, otherwise the language tag itself is used.
func SuggestFilename(language string, index int) string {
	lang := sanitize(language)
	if lang == "" {
		lang = DefaultLanguage
	}
	return lang + "_" + strconv.Itoa(index) + "." + fileExtension(lang)
}

func fileExtension(lang string) string {
	if lang == DefaultLanguage {
		return "txt"
	}
	if lexer := lexers.Get(lang); lexer != nil {
		for _, pattern := range lexer.Config().Filenames {
			ext, ok := strings.CutPrefix(pattern, "*.")
			if ok && ext != "" && !strings.ContainsAny(ext, "*?[]{}") {
				return ext
			}
		}
	}
	return lang
}

// sanitize keeps characters that are safe in a file name.
func sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '+', r == '#', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}
