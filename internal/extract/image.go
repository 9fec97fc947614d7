// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/jeranaias/ocrchat/internal/attachment"
)

// ImageExtractor OCRs a single image.
type ImageExtractor struct {
	OCR Recognizer
	Log *logrus.Entry
}

// Extract validates path and returns its recognized text, trimmed.
func (x *ImageExtractor) Extract(ctx context.Context, path string) (string, error) {
	if err := attachment.Validate(attachment.KindImage, path); err != nil {
		return "", err
	}
	text, err := x.OCR.Recognize(ctx, path)
	if err != nil {
		return "", &Error{Kind: attachment.KindImage, Path: path, Op: "ocr", Err: err}
	}
	text = clean(text)
	if x.Log != nil {
		x.Log.WithFields(logrus.Fields{"file": path, "chars": len(text)}).Debug("image recognized")
	}
	return text, nil
}
