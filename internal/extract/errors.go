// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/jeranaias/ocrchat/internal/attachment"
)

// ErrToolMissing is returned when an external program cannot be found.
var ErrToolMissing = errors.New("extraction tool not installed")

// Error reports a failed extraction.
type Error struct {
	Kind attachment.Kind
	Path string
	Op   string // "open", "ocr", "rasterize"
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("extract %s %s: %s: %v", e.Kind, filepath.Base(e.Path), e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage returns the notice shown when extraction fails.
func (e *Error) UserMessage() string {
	if errors.Is(e.Err, ErrToolMissing) {
		return fmt.Sprintf("Cannot process %s: %v", e.Kind.Label(), e.Err)
	}
	switch e.Kind {
	case attachment.KindPDF:
		return "Failed to process PDF. The file might be corrupted or password protected."
	default:
		return "Error processing image. Please try another image."
	}
}

// IsError reports whether err is an extraction failure.
func IsError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
