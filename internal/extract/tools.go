// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// =============================================================================
// INTERFACES
// =============================================================================

// Recognizer reads the text in an image file.
type Recognizer interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// Rasterizer renders one page (1-based) of a PDF to a PNG inside dir and
// returns the PNG's path.
type Rasterizer interface {
	RasterizePage(ctx context.Context, pdfPath string, page int, dir string) (string, error)
}

// =============================================================================
// TESSERACT
// =============================================================================

const (
	// DefaultOCRLanguage is the tesseract language pack used when none is configured.
	DefaultOCRLanguage = "eng"
	// DefaultPageSegMode treats the page as a single uniform block of text.
	DefaultPageSegMode = 6
	// DefaultPDFDPI matches a 2x render of a 72 dpi page.
	DefaultPDFDPI = 144
)

// TesseractCLI runs the tesseract binary.
type TesseractCLI struct {
	Path        string // default "tesseract"
	Language    string
	PageSegMode int
}

// Args returns the command line used for imagePath.
func (t TesseractCLI) Args(imagePath string) []string {
	lang := t.Language
	if lang == "" {
		lang = DefaultOCRLanguage
	}
	psm := t.PageSegMode
	if psm == 0 {
		psm = DefaultPageSegMode
	}
	return []string{
		imagePath, "stdout",
		"-l", lang,
		"--psm", strconv.Itoa(psm),
		"-c", "preserve_interword_spaces=1",
	}
}

// Recognize implements Recognizer.
func (t TesseractCLI) Recognize(ctx context.Context, imagePath string) (string, error) {
	out, err := run(ctx, binary(t.Path, "tesseract"), t.Args(imagePath)...)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// =============================================================================
// PDFTOPPM
// =============================================================================

// PdftoppmCLI runs poppler's pdftoppm.
type PdftoppmCLI struct {
	Path string // default "pdftoppm"
	DPI  int
}

// Args returns the command line that renders page into outPrefix.png.
func (p PdftoppmCLI) Args(pdfPath string, page int, outPrefix string) []string {
	dpi := p.DPI
	if dpi <= 0 {
		dpi = DefaultPDFDPI
	}
	n := strconv.Itoa(page)
	return []string{
		"-f", n, "-l", n,
		"-r", strconv.Itoa(dpi),
		"-png", "-singlefile",
		pdfPath, outPrefix,
	}
}

// RasterizePage implements Rasterizer.
func (p PdftoppmCLI) RasterizePage(ctx context.Context, pdfPath string, page int, dir string) (string, error) {
	prefix := filepath.Join(dir, fmt.Sprintf("page-%d", page))
	if _, err := run(ctx, binary(p.Path, "pdftoppm"), p.Args(pdfPath, page, prefix)...); err != nil {
		return "", err
	}
	out := prefix + ".png"
	if _, err := os.Stat(out); err != nil {
		return "", fmt.Errorf("pdftoppm produced no image for page %d: %w", page, err)
	}
	return out, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func binary(configured, fallback string) string {
	if configured != "" {
		return configured
	}
	return fallback
}

// run executes name and returns its stdout. Stderr is folded into the error.
func run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrToolMissing, name)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
	}
	return stdout.Bytes(), nil
}
