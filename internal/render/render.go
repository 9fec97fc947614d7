// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render converts model output (markdown) into HTML with
// syntax-highlighted code blocks, and into styled terminal text.
//
// Rendering is total and deterministic: the same markdown always produces
// byte-identical output, no matter how many streamed deltas it was built
// from. An unclosed code fence renders as a code block running to the end of
// the text, so partial responses render sensibly mid-stream.
package render

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	chromastyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	goldhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// =============================================================================
// TYPES
// =============================================================================

// DefaultLanguage labels code blocks that have no language tag.
const DefaultLanguage = "code"

// DefaultStyle is the chroma style used for HTML output.
const DefaultStyle = "monokai"

// Resting labels of the code block actions.
const (
	CopyLabel = "📋 Copy"
	SaveLabel = "💾 Save"
)

// CodeBlock is one code block of a rendered message.
type CodeBlock struct {
	Index    int    // 1-based position within the message
	Language string // fence tag, or DefaultLanguage
	Code     string // raw code, exactly as written
}

// Filename returns the suggested file name for saving the block.
func (b CodeBlock) Filename() string {
	return SuggestFilename(b.Language, b.Index)
}

// Result is the output of one render.
type Result struct {
	HTML   string
	Blocks []CodeBlock
}

// =============================================================================
// RENDERER
// =============================================================================

// Renderer turns markdown into HTML. It is safe for concurrent use.
type Renderer struct {
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithStyle selects a chroma style by name. Unknown names fall back to the default.
func WithStyle(name string) Option {
	return func(r *Renderer) {
		if s := chromastyles.Get(name); s != nil {
			r.style = s
		}
	}
}

// New creates a Renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		style:     chromastyles.Get(DefaultStyle),
		formatter: chromahtml.New(chromahtml.WithClasses(true)),
	}
	if r.style == nil {
		r.style = chromastyles.Fallback
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render converts markdown into HTML, decorating every code block.
func (r *Renderer) Render(markdown string) Result {
	cb := &codeBlockRenderer{r: r}
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			goldhtml.WithHardWraps(),
			renderer.WithNodeRenderers(util.Prioritized(cb, 100)),
		),
	)

	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		// Convert only fails on writer errors; fall back to escaped text.
		return Result{HTML: "<p>" + html.EscapeString(markdown) + "</p>\n"}
	}
	return Result{HTML: buf.String(), Blocks: cb.blocks}
}

// Highlight returns the chroma HTML for code in the given language.
func (r *Renderer) Highlight(code, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "<pre class=\"chroma\"><code>" + html.EscapeString(code) + "</code></pre>"
	}
	var buf strings.Builder
	if err := r.formatter.Format(&buf, r.style, iterator); err != nil {
		return "<pre class=\"chroma\"><code>" + html.EscapeString(code) + "</code></pre>"
	}
	return buf.String()
}

// =============================================================================
// CODE BLOCK NODE RENDERER
// =============================================================================

// codeBlockRenderer replaces goldmark's default fenced and indented code
// block output. One instance serves a single Render call.
type codeBlockRenderer struct {
	r      *Renderer
	blocks []CodeBlock
}

func (c *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, c.render)
	reg.Register(ast.KindCodeBlock, c.render)
}

func (c *codeBlockRenderer) render(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	language := ""
	if fenced, ok := node.(*ast.FencedCodeBlock); ok {
		language = string(fenced.Language(source))
	}
	if language == "" {
		language = DefaultLanguage
	}

	var code strings.Builder
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		code.Write(seg.Value(source))
	}

	block := CodeBlock{
		Index:    len(c.blocks) + 1,
		Language: language,
		Code:     code.String(),
	}
	c.blocks = append(c.blocks, block)

	highlightLang := language
	if highlightLang == DefaultLanguage {
		highlightLang = ""
	}
	writeBlock(w, block, c.r.Highlight(block.Code, highlightLang))
	return ast.WalkSkipChildren, nil
}

func writeBlock(w util.BufWriter, b CodeBlock, highlighted string) {
	lang := html.EscapeString(b.Language)
	fmt.Fprintf(w, "<div class=\"code-block\" data-index=\"%d\">\n", b.Index)
	fmt.Fprintf(w, "<div class=\"code-block-header\"><span class=\"code-language\">%s</span>", lang)
	w.WriteString("<div class=\"code-actions\">")
	fmt.Fprintf(w, "<button class=\"code-block-btn\" data-action=\"copy\" data-index=\"%d\" title=\"Copy to clipboard\">%s</button>", b.Index, CopyLabel)
	fmt.Fprintf(w, "<button class=\"code-block-btn\" data-action=\"save\" data-index=\"%d\" title=\"Save to file\">%s</button>", b.Index, SaveLabel)
	w.WriteString("</div></div>\n")
	w.WriteString(highlighted)
	w.WriteString("\n</div>\n")
}
