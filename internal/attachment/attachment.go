// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package attachment holds the files attached to the message being composed.
//
// A Pending record is owned by one chat session and passed explicitly to the
// composer; there is no package-level state. It holds at most one image and
// one PDF at a time.
package attachment

import (
	"path/filepath"
	"sync"
	"time"
)

// =============================================================================
// KIND
// =============================================================================

// Kind identifies what sort of file an attachment is.
type Kind int

const (
	KindImage Kind = iota + 1
	KindPDF
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindPDF:
		return "pdf"
	default:
		return "unknown"
	}
}

// Label returns the name used in prompt blocks and notices.
func (k Kind) Label() string {
	switch k {
	case KindImage:
		return "Image"
	case KindPDF:
		return "PDF"
	default:
		return "File"
	}
}

// Glyph returns the short indicator shown in the transcript in place of the
// extracted text.
func (k Kind) Glyph() string {
	switch k {
	case KindImage:
		return "📎"
	case KindPDF:
		return "📄"
	default:
		return "📁"
	}
}

// ParseKind maps "image"/"img" and "pdf" to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "image", "img":
		return KindImage, true
	case "pdf":
		return KindPDF, true
	default:
		return 0, false
	}
}

// =============================================================================
// ATTACHMENT
// =============================================================================

// Attachment is a selected file together with the text extracted from it.
type Attachment struct {
	Kind    Kind
	Path    string
	Name    string
	Text    string // extracted plain text, possibly empty
	AddedAt time.Time
}

// New builds an attachment for path with the given extracted text.
func New(kind Kind, path, text string) *Attachment {
	return &Attachment{
		Kind:    kind,
		Path:    path,
		Name:    filepath.Base(path),
		Text:    text,
		AddedAt: time.Now(),
	}
}

// HasText reports whether extraction produced any text.
func (a *Attachment) HasText() bool {
	return a != nil && a.Text != ""
}

// =============================================================================
// SET
// =============================================================================

// Set is an immutable view of the attachments for one outgoing message.
type Set struct {
	Image *Attachment
	PDF   *Attachment
}

// ImageText returns the extracted image text, or "" when there is none.
func (s Set) ImageText() string {
	if s.Image == nil {
		return ""
	}
	return s.Image.Text
}

// PDFText returns the extracted PDF text, or "" when there is none.
func (s Set) PDFText() string {
	if s.PDF == nil {
		return ""
	}
	return s.PDF.Text
}

// Empty reports whether no attachment is present.
func (s Set) Empty() bool {
	return s.Image == nil && s.PDF == nil
}

// Get returns the attachment of the given kind, if any.
func (s Set) Get(kind Kind) *Attachment {
	switch kind {
	case KindImage:
		return s.Image
	case KindPDF:
		return s.PDF
	default:
		return nil
	}
}

// =============================================================================
// PENDING
// =============================================================================

// Pending is the mutable attachment record of the message being composed.
// It is safe for concurrent use; extraction finishes on a worker goroutine
// while the UI reads the record.
type Pending struct {
	mu    sync.RWMutex
	image *Attachment
	pdf   *Attachment
}

// NewPending returns an empty record.
func NewPending() *Pending {
	return &Pending{}
}

// Set stores a, replacing any existing attachment of the same kind.
func (p *Pending) Set(a *Attachment) {
	if a == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	switch a.Kind {
	case KindImage:
		p.image = a
	case KindPDF:
		p.pdf = a
	}
}

// Clear removes the attachment of the given kind. It reports whether one was present.
func (p *Pending) Clear(kind Kind) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch kind {
	case KindImage:
		had := p.image != nil
		p.image = nil
		return had
	case KindPDF:
		had := p.pdf != nil
		p.pdf = nil
		return had
	}
	return false
}

// ClearAll removes every attachment.
func (p *Pending) ClearAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.image = nil
	p.pdf = nil
}

// Snapshot returns the current attachments as an immutable Set.
func (p *Pending) Snapshot() Set {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Set{Image: p.image, PDF: p.pdf}
}
