// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"

	"github.com/jeranaias/ocrchat/internal/transcript"
)

// MarkdownExporter writes entries as a markdown document. Replies are
// already markdown and are copied verbatim.
type MarkdownExporter struct {
	options Options
}

// NewMarkdownExporter creates a markdown exporter.
func NewMarkdownExporter(opts Options) *MarkdownExporter {
	return &MarkdownExporter{options: opts.withDefaults()}
}

// Export implements Exporter.
func (e *MarkdownExporter) Export(entries []transcript.Entry) ([]byte, error) {
	entries = finished(entries)
	if len(entries) == 0 {
		return nil, ErrEmpty
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", e.options.Title)
	fmt.Fprintf(&sb, "_Exported %s", formatTimestamp(e.options.Now))
	if e.options.Model != "" {
		fmt.Fprintf(&sb, " · model `%s`", e.options.Model)
	}
	sb.WriteString("_\n\n---\n\n")

	for _, entry := range entries {
		fmt.Fprintf(&sb, "### %s", roleLabel(entry.Role))
		if e.options.IncludeTimestamps {
			fmt.Fprintf(&sb, " (%s)", formatShortTimestamp(entry.CreatedAt))
		}
		sb.WriteString("\n\n")

		switch entry.Role {
		case transcript.RoleError:
			for _, line := range strings.Split(entry.Text, "\n") {
				sb.WriteString("> " + line + "\n")
			}
		default:
			sb.WriteString(strings.TrimRight(entry.Text, "\n"))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return []byte(sb.String()), nil
}

// FileExtension implements Exporter.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}
