// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package attachment

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.White)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestPending_SetClearSnapshot(t *testing.T) {
	p := NewPending()
	assert.True(t, p.Snapshot().Empty())

	p.Set(New(KindImage, "/tmp/a.png", "image text"))
	p.Set(New(KindPDF, "/tmp/b.pdf", "pdf text"))
	snap := p.Snapshot()
	assert.Equal(t, "image text", snap.ImageText())
	assert.Equal(t, "pdf text", snap.PDFText())
	assert.Equal(t, "a.png", snap.Image.Name)

	// Replacing keeps at most one of each kind.
	p.Set(New(KindImage, "/tmp/c.png", "newer"))
	assert.Equal(t, "newer", p.Snapshot().ImageText())

	assert.True(t, p.Clear(KindImage))
	assert.False(t, p.Clear(KindImage))
	assert.Equal(t, "", p.Snapshot().ImageText())
	assert.Equal(t, "pdf text", p.Snapshot().PDFText())

	// Snapshots taken earlier are unaffected.
	assert.Equal(t, "image text", snap.ImageText())

	p.ClearAll()
	assert.True(t, p.Snapshot().Empty())
}

func TestPending_ConcurrentAccess(t *testing.T) {
	p := NewPending()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			p.Set(New(KindPDF, "x.pdf", "t"))
			p.Clear(KindPDF)
		}()
		go func() {
			defer wg.Done()
			_ = p.Snapshot().PDFText()
		}()
	}
	wg.Wait()
}

func TestKind(t *testing.T) {
	assert.Equal(t, "📎", KindImage.Glyph())
	assert.Equal(t, "📄", KindPDF.Glyph())
	assert.Equal(t, "PDF", KindPDF.Label())

	k, ok := ParseKind("img")
	assert.True(t, ok)
	assert.Equal(t, KindImage, k)
	_, ok = ParseKind("zip")
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()

	pngPath := filepath.Join(dir, "shot.png")
	writePNG(t, pngPath)

	pdfPath := filepath.Join(dir, "doc.pdf")
	require.NoError(t, os.WriteFile(pdfPath, []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n"), 0o644))

	textPath := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(textPath, []byte("hello"), 0o644))

	fakePNG := filepath.Join(dir, "fake.png")
	require.NoError(t, os.WriteFile(fakePNG, []byte("not really an image"), 0o644))

	tests := []struct {
		name    string
		kind    Kind
		path    string
		wantErr bool
	}{
		{"png as image", KindImage, pngPath, false},
		{"pdf as pdf", KindPDF, pdfPath, false},
		{"text as image", KindImage, textPath, true},
		{"text as pdf", KindPDF, textPath, true},
		{"png as pdf", KindPDF, pngPath, true},
		{"image extension but garbage", KindImage, fakePNG, true},
		{"missing file", KindImage, filepath.Join(dir, "nope.png"), true},
		{"directory", KindPDF, dir, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.kind, tc.path)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, IsValidationError(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Kind: KindImage, Path: "/x/notes.txt", Reason: "not an image"}
	assert.Equal(t, "please select an image file: notes.txt (not an image)", err.Error())
}
