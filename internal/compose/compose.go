// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package compose builds the outbound prompt and the transcript display text
// for one send.
package compose

import (
	"strings"

	"github.com/jeranaias/ocrchat/internal/attachment"
)

// Message is the result of composing one send.
type Message struct {
	// Prompt is sent to the model and includes extracted attachment text.
	Prompt string
	// Display is shown in the transcript. It never contains extracted text.
	Display string
	// Image and PDF report which attachments contributed a block.
	Image bool
	PDF   bool
}

// Compose combines the typed input with the attachment texts. It returns
// ok=false when there is nothing to send.
func Compose(input string, set attachment.Set) (Message, bool) {
	input = strings.TrimSpace(input)
	imageText := set.ImageText()
	pdfText := set.PDFText()

	if input == "" && imageText == "" && pdfText == "" {
		return Message{}, false
	}

	msg := Message{
		Image: imageText != "",
		PDF:   pdfText != "",
	}

	var b strings.Builder
	b.WriteString(input)
	appendBlock(&b, attachment.KindImage, imageText)
	appendBlock(&b, attachment.KindPDF, pdfText)
	msg.Prompt = b.String()
	msg.Display = display(input, msg.Image, msg.PDF)

	return msg, true
}

// appendBlock writes "[<Label> content: <text>]", separated from earlier
// content by a blank line.
func appendBlock(b *strings.Builder, kind attachment.Kind, text string) {
	if text == "" {
		return
	}
	if b.Len() > 0 {
		b.WriteString("\n\n")
	}
	b.WriteString("[")
	b.WriteString(kind.Label())
	b.WriteString(" content: ")
	b.WriteString(text)
	b.WriteString("]")
}

func display(input string, image, pdf bool) string {
	if input != "" {
		glyphs := ""
		if image {
			glyphs += attachment.KindImage.Glyph()
		}
		if pdf {
			glyphs += attachment.KindPDF.Glyph()
		}
		if glyphs == "" {
			return input
		}
		return input + " " + glyphs
	}

	var parts []string
	if image {
		parts = append(parts, attachment.KindImage.Glyph()+" "+attachment.KindImage.Label())
	}
	if pdf {
		parts = append(parts, attachment.KindPDF.Glyph()+" "+attachment.KindPDF.Label())
	}
	return strings.Join(parts, " + ")
}
