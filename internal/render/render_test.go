// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_Paragraph(t *testing.T) {
	r := New()
	res := r.Render("Hello world")
	assert.Equal(t, "<p>Hello world</p>\n", res.HTML)
	assert.Empty(t, res.Blocks)
	assert.Equal(t, "Hello world", PlainText(res.HTML))
}

func TestRender_HardLineBreaks(t *testing.T) {
	res := New().Render("line one\nline two")
	assert.Contains(t, res.HTML, "<br")
}

func TestRender_GFMTable(t *testing.T) {
	res := New().Render("| a | b |\n|---|---|\n| 1 | 2 |\n")
	assert.Contains(t, res.HTML, "<table>")
}

func TestRender_RawHTMLOmitted(t *testing.T) {
	res := New().Render("<script>alert(1)</script>\n\ntext")
	assert.NotContains(t, res.HTML, "<script>")
}

func TestRender_CodeBlockHeader(t *testing.T) {
	md := "Here:\n\n```go\nfunc main() {}\n```\n\nand\n\n```\nplain\n```\n"
	res := New().Render(md)

	require.Len(t, res.Blocks, 2)
	assert.Equal(t, CodeBlock{Index: 1, Language: "go", Code: "func main() {}\n"}, res.Blocks[0])
	assert.Equal(t, CodeBlock{Index: 2, Language: "code", Code: "plain\n"}, res.Blocks[1])

	assert.Equal(t, 2, strings.Count(res.HTML, `class="code-block-header"`))
	assert.Contains(t, res.HTML, `<span class="code-language">go</span>`)
	assert.Contains(t, res.HTML, `<span class="code-language">code</span>`)
	assert.Contains(t, res.HTML, `data-action="copy" data-index="1"`)
	assert.Contains(t, res.HTML, `data-action="save" data-index="2"`)
	assert.Contains(t, res.HTML, CopyLabel)
	assert.Contains(t, res.HTML, SaveLabel)
	assert.Contains(t, res.HTML, `class="chroma"`)

	plain := PlainText(res.HTML)
	assert.Contains(t, plain, "func main() {}")
	assert.NotContains(t, plain, "Copy")
	assert.NotContains(t, plain, "Save")
}

func TestRender_IndentedCodeBlock(t *testing.T) {
	res := New().Render("text\n\n    x := 1\n")
	require.Len(t, res.Blocks, 1)
	assert.Equal(t, "code", res.Blocks[0].Language)
	assert.Equal(t, "x := 1\n", res.Blocks[0].Code)
}

func TestRender_UnclosedFence(t *testing.T) {
	res := New().Render("Start\n\n```python\nprint('hi')\nx = 2")
	require.Len(t, res.Blocks, 1)
	assert.Equal(t, "python", res.Blocks[0].Language)
	assert.Equal(t, "print('hi')\nx = 2", strings.TrimRight(res.Blocks[0].Code, "\n"))
}

func TestRender_EscapesCode(t *testing.T) {
	res := New().Render("```html\n<b>bold</b>\n```\n")
	assert.NotContains(t, res.HTML, "<b>bold</b>")
	assert.Contains(t, PlainText(res.HTML), "<b>bold</b>")
}

func TestRender_IdempotentAcrossDeltas(t *testing.T) {
	full := "# Title\n\nSome *text* and `code`.\n\n```js\nconsole.log(1)\n```\n\n- a\n- b\n"
	r := New()
	want := r.Render(full)

	// Accumulate in uneven deltas; the final render must match exactly.
	var acc strings.Builder
	var last Result
	for i := 0; i < len(full); i += 7 {
		end := i + 7
		if end > len(full) {
			end = len(full)
		}
		acc.WriteString(full[i:end])
		last = r.Render(acc.String())
	}
	assert.Equal(t, want.HTML, last.HTML)
	assert.Equal(t, want.Blocks, last.Blocks)

	// And repeatedly.
	assert.Equal(t, want.HTML, r.Render(full).HTML)
}

func TestRender_EmptyInput(t *testing.T) {
	res := New().Render("")
	assert.Equal(t, "", res.HTML)
	assert.Equal(t, "", PlainText(res.HTML))
}

func TestSuggestFilename(t *testing.T) {
	tests := []struct {
		lang  string
		index int
		want  string
	}{
		{"go", 1, "go_1.go"},
		{"python", 2, "python_2.py"},
		{"code", 1, "code_1.txt"},
		{"", 3, "code_3.txt"},
		{"zzlang", 4, "zzlang_4.zzlang"},
		{"Go", 5, "go_5.go"},
		{"../zzq", 6, "zzq_6.zzq"},
		{"rust", 7, "rust_7.rs"},
	}
	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, SuggestFilename(tc.lang, tc.index))
		})
	}
}

func TestCodeBlock_Filename(t *testing.T) {
	b := CodeBlock{Index: 2, Language: "javascript"}
	assert.Equal(t, "javascript_2.js", b.Filename())
}

func TestCSS(t *testing.T) {
	css := New().CSS()
	assert.Contains(t, css, ".chroma")
	assert.Contains(t, css, ".code-block-header")
}

func TestWithStyle_UnknownFallsBack(t *testing.T) {
	r := New(WithStyle("no-such-style"))
	assert.NotNil(t, r.style)
	assert.Contains(t, r.Render("```\nx\n```").HTML, "chroma")
}

func TestPlainText_Nested(t *testing.T) {
	got := PlainText(`<div><div class="x code-block-header">skip</div><p>keep <em>this</em></p></div>`)
	assert.Equal(t, "keep this", got)
}

func TestTerminalRenderer(t *testing.T) {
	tr := NewTerminalRenderer("notty", 40)
	out := tr.Render("**bold** text")
	assert.Contains(t, out, "bold")
	assert.Contains(t, out, "text")

	tr.SetWidth(60)
	tr.SetTheme("light")
	assert.Contains(t, tr.Render("hello"), "hello")
	assert.Equal(t, "notty", ResolveStyle("NoTTY"))
}
