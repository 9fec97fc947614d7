// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/jeranaias/ocrchat/internal/transcript"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter writes a standalone page. Replies keep the markup the
// renderer produced, code block headers included; the copy and save buttons
// are wired to the clipboard by a small inline script.
type HTMLExporter struct {
	options Options
}

// NewHTMLExporter creates an HTML exporter.
func NewHTMLExporter(opts Options) *HTMLExporter {
	return &HTMLExporter{options: opts.withDefaults()}
}

// Export implements Exporter.
func (e *HTMLExporter) Export(entries []transcript.Entry) ([]byte, error) {
	entries = finished(entries)
	if len(entries) == 0 {
		return nil, ErrEmpty
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("<meta charset=\"UTF-8\">\n")
	sb.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&sb, "<title>%s</title>\n", html.EscapeString(e.options.Title))
	sb.WriteString("<meta name=\"generator\" content=\"ocrchat\">\n")
	fmt.Fprintf(&sb, "<meta name=\"date\" content=\"%s\">\n", e.options.Now.Format(time.RFC3339))
	sb.WriteString("<style>\n")
	sb.WriteString(pageCSS)
	sb.WriteString(e.options.CSS)
	sb.WriteString("</style>\n</head>\n<body>\n<div class=\"container\">\n")

	sb.WriteString("<header class=\"header\">\n")
	fmt.Fprintf(&sb, "<h1>%s</h1>\n<div class=\"metadata\">", html.EscapeString(e.options.Title))
	fmt.Fprintf(&sb, "<span class=\"meta-item\">%s</span>", formatTimestamp(e.options.Now))
	if e.options.Model != "" {
		fmt.Fprintf(&sb, "<span class=\"meta-item\">%s</span>", html.EscapeString(e.options.Model))
	}
	sb.WriteString("</div>\n</header>\n<main class=\"conversation\">\n")

	for _, entry := range entries {
		sb.WriteString(e.renderEntry(entry))
	}

	sb.WriteString("</main>\n</div>\n")
	sb.WriteString(copyScript)
	sb.WriteString("</body>\n</html>\n")
	return []byte(sb.String()), nil
}

// FileExtension implements Exporter.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

func (e *HTMLExporter) renderEntry(entry transcript.Entry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<section class=\"message %s-message\" id=\"msg-%d\">\n", entry.Role, entry.ID)
	fmt.Fprintf(&sb, "<div class=\"message-role\">%s", roleLabel(entry.Role))
	if e.options.IncludeTimestamps {
		fmt.Fprintf(&sb, " <span class=\"timestamp\">%s</span>", formatShortTimestamp(entry.CreatedAt))
	}
	sb.WriteString("</div>\n<div class=\"message-content\">\n")

	if entry.Role == transcript.RoleAssistant && entry.HTML != "" {
		sb.WriteString(entry.HTML)
	} else {
		sb.WriteString("<p>")
		sb.WriteString(strings.ReplaceAll(html.EscapeString(entry.Text), "\n", "<br>\n"))
		sb.WriteString("</p>\n")
	}
	sb.WriteString("</div>\n</section>\n")
	return sb.String()
}

// =============================================================================
// EMBEDDED CSS / SCRIPT
// =============================================================================

const pageCSS = `* { margin: 0; padding: 0; box-sizing: border-box; }
:root {
  --font-sans: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
  --font-mono: "SF Mono", "Monaco", "Inconsolata", "Fira Code", "Source Code Pro", monospace;
  --bg-primary: #1a1b26; --bg-secondary: #24283b; --bg-tertiary: #414868;
  --text-primary: #c0caf5; --text-muted: #565f89;
  --user-bg: #1f2335; --accent-blue: #7aa2f7; --accent-red: #f7768e;
}
body { font-family: var(--font-sans); line-height: 1.6; color: var(--text-primary); background: var(--bg-primary); padding: 20px; }
.container { max-width: 900px; margin: 0 auto; background: var(--bg-secondary); border-radius: 12px; overflow: hidden; }
.header { padding: 24px 32px; background: var(--bg-tertiary); }
.metadata { display: flex; gap: 16px; font-size: 14px; color: var(--text-muted); }
.conversation { padding: 24px 32px; }
.message { margin-bottom: 24px; padding: 16px 20px; border-radius: 8px; border-left: 4px solid transparent; }
.user-message { background: var(--user-bg); border-left-color: var(--accent-blue); }
.error-message { border-left-color: var(--accent-red); color: var(--accent-red); }
.message-role { font-weight: 600; margin-bottom: 8px; }
.timestamp { font-weight: 400; font-size: 12px; color: var(--text-muted); }
.message-content code { font-family: var(--font-mono); }
`

const copyScript = `<script>
document.querySelectorAll('.code-block-btn[data-action="copy"]').forEach(function (btn) {
  btn.addEventListener('click', function () {
    var code = btn.closest('.code-block').querySelector('pre').textContent;
    navigator.clipboard.writeText(code).then(function () {
      btn.textContent = '✓ Copied!';
    }, function () {
      btn.textContent = '❌ Error';
    }).finally(function () {
      setTimeout(function () { btn.textContent = '📋 Copy'; }, 2000);
    });
  });
});
document.querySelectorAll('.code-block-btn[data-action="save"]').forEach(function (btn) {
  btn.style.display = 'none';
});
</script>
`
