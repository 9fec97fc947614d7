// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package compose

import (
	"strings"
	"testing"

	"github.com/jeranaias/ocrchat/internal/attachment"
	"github.com/stretchr/testify/assert"
)

func set(image, pdf string) attachment.Set {
	var s attachment.Set
	if image != "" {
		s.Image = attachment.New(attachment.KindImage, "/tmp/shot.png", image)
	}
	if pdf != "" {
		s.PDF = attachment.New(attachment.KindPDF, "/tmp/doc.pdf", pdf)
	}
	return s
}

func TestCompose(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		set         attachment.Set
		wantPrompt  string
		wantDisplay string
	}{
		{
			name:        "input only",
			input:       "What is Go?",
			wantPrompt:  "What is Go?",
			wantDisplay: "What is Go?",
		},
		{
			name:        "input is trimmed",
			input:       "  hi there \n",
			wantPrompt:  "hi there",
			wantDisplay: "hi there",
		},
		{
			name:        "input and image",
			input:       "Explain",
			set:         set("A=1", ""),
			wantPrompt:  "Explain\n\n[Image content: A=1]",
			wantDisplay: "Explain 📎",
		},
		{
			name:        "input and pdf",
			input:       "Summarize",
			set:         set("", "page one"),
			wantPrompt:  "Summarize\n\n[PDF content: page one]",
			wantDisplay: "Summarize 📄",
		},
		{
			name:        "input and both",
			input:       "Compare",
			set:         set("X", "Y"),
			wantPrompt:  "Compare\n\n[Image content: X]\n\n[PDF content: Y]",
			wantDisplay: "Compare 📎📄",
		},
		{
			name:        "image only",
			set:         set("X", ""),
			wantPrompt:  "[Image content: X]",
			wantDisplay: "📎 Image",
		},
		{
			name:        "pdf only",
			set:         set("", "Y"),
			wantPrompt:  "[PDF content: Y]",
			wantDisplay: "📄 PDF",
		},
		{
			name:        "both without input",
			set:         set("X", "Y"),
			wantPrompt:  "[Image content: X]\n\n[PDF content: Y]",
			wantDisplay: "📎 Image + 📄 PDF",
		},
		{
			name:  "attachment with empty text contributes nothing",
			input: "hello",
			set: attachment.Set{
				Image: attachment.New(attachment.KindImage, "/tmp/blank.png", ""),
			},
			wantPrompt:  "hello",
			wantDisplay: "hello",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msg, ok := Compose(tc.input, tc.set)
			assert.True(t, ok)
			assert.Equal(t, tc.wantPrompt, msg.Prompt)
			assert.Equal(t, tc.wantDisplay, msg.Display)
		})
	}
}

func TestCompose_NothingToSend(t *testing.T) {
	_, ok := Compose("   ", attachment.Set{})
	assert.False(t, ok)

	_, ok = Compose("", attachment.Set{
		PDF: attachment.New(attachment.KindPDF, "/tmp/scan.pdf", ""),
	})
	assert.False(t, ok)
}

func TestCompose_DisplayNeverContainsExtractedText(t *testing.T) {
	msg, ok := Compose("look", set("SECRET IMAGE TEXT", "SECRET PDF TEXT"))
	assert.True(t, ok)
	assert.False(t, strings.Contains(msg.Display, "SECRET"))
	assert.True(t, msg.Image)
	assert.True(t, msg.PDF)
}

func TestCompose_ClearedAttachmentIsExcluded(t *testing.T) {
	p := attachment.NewPending()
	p.Set(attachment.New(attachment.KindImage, "/tmp/a.png", "from image"))
	p.Set(attachment.New(attachment.KindPDF, "/tmp/b.pdf", "from pdf"))
	p.Clear(attachment.KindImage)

	msg, ok := Compose("q", p.Snapshot())
	assert.True(t, ok)
	assert.NotContains(t, msg.Prompt, "from image")
	assert.Equal(t, "q\n\n[PDF content: from pdf]", msg.Prompt)
}
