// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package attachment

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ValidationError reports a file that cannot be attached as the requested kind.
type ValidationError struct {
	Kind   Kind
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("please select %s file: %s (%s)", article(e.Kind), filepath.Base(e.Path), e.Reason)
}

// IsValidationError reports whether err is a *ValidationError.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func article(k Kind) string {
	if k == KindImage {
		return "an image"
	}
	return "a PDF"
}

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// sniffLen is how much of a file http.DetectContentType looks at.
const sniffLen = 512

// Validate checks that path exists and holds the kind of file requested.
// It performs no extraction.
func Validate(kind Kind, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &ValidationError{Kind: kind, Path: path, Reason: "file not found"}
	}
	if info.IsDir() {
		return &ValidationError{Kind: kind, Path: path, Reason: "is a directory"}
	}

	f, err := os.Open(path)
	if err != nil {
		return &ValidationError{Kind: kind, Path: path, Reason: "cannot open file"}
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return &ValidationError{Kind: kind, Path: path, Reason: "cannot read file"}
	}
	head = head[:n]
	sniffed := http.DetectContentType(head)
	ext := strings.ToLower(filepath.Ext(path))

	switch kind {
	case KindImage:
		if !strings.HasPrefix(sniffed, "image/") && !imageExtensions[ext] {
			return &ValidationError{Kind: kind, Path: path, Reason: "not an image (" + sniffed + ")"}
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return &ValidationError{Kind: kind, Path: path, Reason: "cannot read file"}
		}
		if _, _, err := image.DecodeConfig(f); err != nil {
			return &ValidationError{Kind: kind, Path: path, Reason: "unreadable image data"}
		}
	case KindPDF:
		if sniffed != "application/pdf" && ext != ".pdf" {
			return &ValidationError{Kind: kind, Path: path, Reason: "not a PDF (" + sniffed + ")"}
		}
	default:
		return &ValidationError{Kind: kind, Path: path, Reason: "unsupported attachment kind"}
	}
	return nil
}
