// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/ocrchat/internal/attachment"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeOCR struct {
	mu    sync.Mutex
	text  map[string]string // by base name
	err   error
	calls []string
}

func (f *fakeOCR) Recognize(_ context.Context, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, filepath.Base(path))
	if f.err != nil {
		return "", f.err
	}
	return f.text[filepath.Base(path)], nil
}

type fakeRaster struct {
	pages []int
	fail  map[int]bool
}

func (f *fakeRaster) RasterizePage(_ context.Context, _ string, page int, dir string) (string, error) {
	f.pages = append(f.pages, page)
	if f.fail[page] {
		return "", errors.New("render failed")
	}
	out := filepath.Join(dir, "page-"+string(rune('0'+page))+".png")
	return out, os.WriteFile(out, []byte("png"), 0o600)
}

type fakeDoc struct {
	pages  []string
	errs   map[int]error
	closed bool
}

func (d *fakeDoc) NumPage() int { return len(d.pages) }

func (d *fakeDoc) PageText(i int) (string, error) {
	if err := d.errs[i]; err != nil {
		return "", err
	}
	return d.pages[i-1], nil
}

func (d *fakeDoc) Close() error {
	d.closed = true
	return nil
}

func openFake(doc *fakeDoc) OpenFunc {
	return func(string) (Document, error) { return doc, nil }
}

func tempPDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n"), 0o600))
	return path
}

func tempPNG(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scan.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, 2, 2))))
	return path
}

// =============================================================================
// PDF
// =============================================================================

func TestPDFExtractor_TextLayer(t *testing.T) {
	doc := &fakeDoc{pages: []string{"  first page \n", "second page"}}
	ocr := &fakeOCR{}
	x := &PDFExtractor{Open: openFake(doc), Raster: &fakeRaster{}, OCR: ocr}

	text, err := x.Extract(context.Background(), tempPDF(t))
	require.NoError(t, err)
	assert.Equal(t, "first page\n\nsecond page", text)
	assert.Empty(t, ocr.calls, "pages with a text layer are not OCR'd")
	assert.True(t, doc.closed)
}

func TestPDFExtractor_PerPageOCRFallback(t *testing.T) {
	doc := &fakeDoc{pages: []string{"typed", "", "  "}}
	raster := &fakeRaster{}
	ocr := &fakeOCR{text: map[string]string{
		"page-2.png": "scanned two\n",
		"page-3.png": "scanned three",
	}}
	x := &PDFExtractor{Open: openFake(doc), Raster: raster, OCR: ocr}

	text, err := x.Extract(context.Background(), tempPDF(t))
	require.NoError(t, err)
	assert.Equal(t, "typed\n\nscanned two\n\nscanned three", text)
	assert.Equal(t, []int{2, 3}, raster.pages)
}

func TestPDFExtractor_FailedPageIsSkipped(t *testing.T) {
	doc := &fakeDoc{
		pages: []string{"", "kept", ""},
		errs:  map[int]error{3: errors.New("bad content stream")},
	}
	raster := &fakeRaster{fail: map[int]bool{1: true}}
	ocr := &fakeOCR{}
	x := &PDFExtractor{Open: openFake(doc), Raster: raster, OCR: ocr}

	text, err := x.Extract(context.Background(), tempPDF(t))
	require.NoError(t, err)
	assert.Equal(t, "kept", text)
}

func TestPDFExtractor_NothingFound(t *testing.T) {
	doc := &fakeDoc{pages: []string{"", ""}}
	x := &PDFExtractor{Open: openFake(doc), Raster: &fakeRaster{}, OCR: &fakeOCR{}}

	text, err := x.Extract(context.Background(), tempPDF(t))
	require.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestPDFExtractor_OpenFailure(t *testing.T) {
	x := &PDFExtractor{Open: func(string) (Document, error) {
		return nil, errors.New("encrypted")
	}}

	_, err := x.Extract(context.Background(), tempPDF(t))
	require.Error(t, err)

	var exErr *Error
	require.True(t, errors.As(err, &exErr))
	assert.Equal(t, attachment.KindPDF, exErr.Kind)
	assert.Equal(t, "Failed to process PDF. The file might be corrupted or password protected.", exErr.UserMessage())
}

func TestPDFExtractor_RealReaderRejectsGarbage(t *testing.T) {
	x := &PDFExtractor{}
	_, err := x.Extract(context.Background(), tempPDF(t))
	require.Error(t, err)
	assert.True(t, IsError(err))
}

func TestPDFExtractor_RejectsNonPDF(t *testing.T) {
	x := &PDFExtractor{Open: openFake(&fakeDoc{})}
	_, err := x.Extract(context.Background(), tempPNG(t))
	require.Error(t, err)
	assert.True(t, attachment.IsValidationError(err))
}

// =============================================================================
// IMAGE
// =============================================================================

func TestImageExtractor(t *testing.T) {
	path := tempPNG(t)
	ocr := &fakeOCR{text: map[string]string{"scan.png": "  Café menu \n\f"}}
	x := &ImageExtractor{OCR: ocr}

	text, err := x.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Café menu", text)
}

func TestImageExtractor_OCRFailure(t *testing.T) {
	x := &ImageExtractor{OCR: &fakeOCR{err: errors.New("engine crashed")}}

	_, err := x.Extract(context.Background(), tempPNG(t))
	var exErr *Error
	require.True(t, errors.As(err, &exErr))
	assert.Equal(t, "ocr", exErr.Op)
	assert.Equal(t, "Error processing image. Please try another image.", exErr.UserMessage())
}

func TestImageExtractor_RejectsPDF(t *testing.T) {
	x := &ImageExtractor{OCR: &fakeOCR{}}
	_, err := x.Extract(context.Background(), tempPDF(t))
	assert.True(t, attachment.IsValidationError(err))
}

// =============================================================================
// SERVICE / TOOLS
// =============================================================================

func TestService_Extract(t *testing.T) {
	svc := NewService(Options{}, nil)
	svc.Image.OCR = &fakeOCR{text: map[string]string{"scan.png": "hello"}}
	svc.PDF.Open = openFake(&fakeDoc{pages: []string{"pdf text"}})

	att, err := svc.Extract(context.Background(), attachment.KindImage, tempPNG(t))
	require.NoError(t, err)
	assert.Equal(t, attachment.KindImage, att.Kind)
	assert.Equal(t, "hello", att.Text)
	assert.Equal(t, "scan.png", att.Name)

	att, err = svc.Extract(context.Background(), attachment.KindPDF, tempPDF(t))
	require.NoError(t, err)
	assert.Equal(t, "pdf text", att.Text)

	_, err = svc.Extract(context.Background(), attachment.Kind(99), "x")
	assert.Error(t, err)
}

func TestTesseractArgs(t *testing.T) {
	args := TesseractCLI{}.Args("/tmp/a.png")
	assert.Equal(t, []string{
		"/tmp/a.png", "stdout", "-l", "eng", "--psm", "6", "-c", "preserve_interword_spaces=1",
	}, args)

	args = TesseractCLI{Language: "deu+eng", PageSegMode: 3}.Args("b.png")
	assert.Equal(t, "deu+eng", args[3])
	assert.Equal(t, "3", args[5])
}

func TestPdftoppmArgs(t *testing.T) {
	args := PdftoppmCLI{}.Args("in.pdf", 4, "/tmp/out/page-4")
	assert.Equal(t, []string{
		"-f", "4", "-l", "4", "-r", "144", "-png", "-singlefile", "in.pdf", "/tmp/out/page-4",
	}, args)
}

func TestMissingTool(t *testing.T) {
	ocr := TesseractCLI{Path: filepath.Join(t.TempDir(), "no-such-tesseract")}
	_, err := ocr.Recognize(context.Background(), "x.png")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrToolMissing))

	exErr := &Error{Kind: attachment.KindImage, Path: "x.png", Op: "ocr", Err: err}
	assert.Contains(t, exErr.UserMessage(), "Cannot process Image")
}
