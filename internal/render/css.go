// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import "strings"

const codeBlockCSS = `.code-block { margin: 1.5em 0; border-radius: 4px; overflow: hidden; }
.code-block-header { display: flex; justify-content: space-between; align-items: center; padding: 4px 8px; background: #2d2d2d; color: #fff; font-family: system-ui, -apple-system, sans-serif; font-size: 12px; }
.code-block-header .code-language { text-transform: uppercase; }
.code-actions { display: flex; gap: 8px; }
.code-block-btn { background: none; border: 1px solid #666; border-radius: 4px; color: #fff; padding: 2px 8px; cursor: pointer; font-size: 12px; }
.code-block-btn:hover { background: #444; }
.code-block pre.chroma { margin: 0; padding: 1em; border-radius: 0 0 4px 4px; overflow-x: auto; }
`

// CSS returns the stylesheet for rendered HTML: the chroma token classes of
// the configured style plus the code block header rules.
func (r *Renderer) CSS() string {
	var sb strings.Builder
	if err := r.formatter.WriteCSS(&sb, r.style); err != nil {
		sb.Reset()
	}
	sb.WriteString(codeBlockCSS)
	return sb.String()
}
