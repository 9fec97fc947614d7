// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/ocrchat/internal/attachment"
)

// =============================================================================
// DOCUMENT
// =============================================================================

// Document is an opened PDF.
type Document interface {
	NumPage() int
	// PageText returns the text layer of page i (1-based), possibly empty.
	PageText(i int) (string, error)
	Close() error
}

// OpenFunc opens a PDF for reading.
type OpenFunc func(path string) (Document, error)

type ledongthucDoc struct {
	f *os.File
	r *pdf.Reader
}

// OpenPDF opens path with the ledongthuc/pdf reader.
func OpenPDF(path string) (doc Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	return &ledongthucDoc{f: f, r: r}, nil
}

func (d *ledongthucDoc) NumPage() int {
	return d.r.NumPage()
}

func (d *ledongthucDoc) PageText(i int) (text string, err error) {
	// The reader panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("page %d: %v", i, r)
		}
	}()
	p := d.r.Page(i)
	if p.V.IsNull() {
		return "", nil
	}
	return p.GetPlainText(nil)
}

func (d *ledongthucDoc) Close() error {
	return d.f.Close()
}

// =============================================================================
// EXTRACTOR
// =============================================================================

// PDFExtractor reads the text of every page, falling back to OCR for pages
// that have no text layer.
type PDFExtractor struct {
	Open   OpenFunc   // default OpenPDF
	Raster Rasterizer // nil disables the OCR fallback
	OCR    Recognizer
	Log    *logrus.Entry
}

// Extract returns the text of the whole document with pages separated by a
// blank line. It returns "" when no page yielded any text.
func (x *PDFExtractor) Extract(ctx context.Context, path string) (string, error) {
	if err := attachment.Validate(attachment.KindPDF, path); err != nil {
		return "", err
	}

	open := x.Open
	if open == nil {
		open = OpenPDF
	}
	doc, err := open(path)
	if err != nil {
		return "", &Error{Kind: attachment.KindPDF, Path: path, Op: "open", Err: err}
	}
	defer doc.Close()

	var tmpDir string
	defer func() {
		if tmpDir != "" {
			os.RemoveAll(tmpDir)
		}
	}()

	var pages []string
	n := doc.NumPage()
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return "", &Error{Kind: attachment.KindPDF, Path: path, Op: "read", Err: err}
		}

		text, err := doc.PageText(i)
		if err != nil {
			x.logf(logrus.Fields{"page": i, "error": err}, "text layer unreadable")
			text = ""
		}
		text = clean(text)

		if text == "" && x.Raster != nil && x.OCR != nil {
			if tmpDir == "" {
				tmpDir, err = os.MkdirTemp("", "ocrchat-pdf-")
				if err != nil {
					return "", &Error{Kind: attachment.KindPDF, Path: path, Op: "rasterize", Err: err}
				}
			}
			text, err = x.ocrPage(ctx, path, i, tmpDir)
			if err != nil {
				// A page that cannot be OCR'd contributes nothing.
				x.logf(logrus.Fields{"page": i, "error": err}, "page OCR failed")
				if ctx.Err() != nil {
					return "", &Error{Kind: attachment.KindPDF, Path: path, Op: "ocr", Err: ctx.Err()}
				}
				continue
			}
		}

		if text != "" {
			pages = append(pages, text)
		}
	}

	return strings.Join(pages, "\n\n"), nil
}

func (x *PDFExtractor) ocrPage(ctx context.Context, path string, page int, dir string) (string, error) {
	png, err := x.Raster.RasterizePage(ctx, path, page, dir)
	if err != nil {
		return "", err
	}
	defer os.Remove(png)

	text, err := x.OCR.Recognize(ctx, png)
	if err != nil {
		return "", err
	}
	x.logf(logrus.Fields{"page": page}, "page recognized by OCR")
	return clean(text), nil
}

func (x *PDFExtractor) logf(fields logrus.Fields, msg string) {
	if x.Log != nil {
		x.Log.WithFields(fields).Debug(msg)
	}
}
