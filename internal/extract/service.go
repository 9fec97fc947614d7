// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/jeranaias/ocrchat/internal/attachment"
)

// Options configures the external tools.
type Options struct {
	OCRLanguage   string
	PageSegMode   int
	TesseractPath string
	PdftoppmPath  string
	PDFDPI        int
}

// Service dispatches extraction by attachment kind.
type Service struct {
	Image *ImageExtractor
	PDF   *PDFExtractor
	log   *logrus.Entry
}

// NewService wires the tesseract and pdftoppm command-line tools.
func NewService(opts Options, log *logrus.Entry) *Service {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("component", "extract")

	ocr := TesseractCLI{
		Path:        opts.TesseractPath,
		Language:    opts.OCRLanguage,
		PageSegMode: opts.PageSegMode,
	}
	raster := PdftoppmCLI{Path: opts.PdftoppmPath, DPI: opts.PDFDPI}

	return &Service{
		Image: &ImageExtractor{OCR: ocr, Log: log},
		PDF:   &PDFExtractor{Raster: raster, OCR: ocr, Log: log},
		log:   log,
	}
}

// Extract validates path, extracts its text and returns the resulting
// attachment. Validation failures are *attachment.ValidationError; everything
// else is *Error.
func (s *Service) Extract(ctx context.Context, kind attachment.Kind, path string) (*attachment.Attachment, error) {
	var (
		text string
		err  error
	)
	switch kind {
	case attachment.KindImage:
		text, err = s.Image.Extract(ctx, path)
	case attachment.KindPDF:
		text, err = s.PDF.Extract(ctx, path)
	default:
		return nil, fmt.Errorf("extract: unsupported kind %v", kind)
	}
	if err != nil {
		s.log.WithFields(logrus.Fields{"kind": kind.String(), "file": path, "error": err}).Warn("extraction failed")
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"kind": kind.String(), "file": path, "chars": len(text)}).Info("attachment extracted")
	return attachment.New(kind, path, text), nil
}
