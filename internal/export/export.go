// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/ocrchat/internal/savefile"
	"github.com/jeranaias/ocrchat/internal/transcript"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter converts transcript entries to one file format.
type Exporter interface {
	Export(entries []transcript.Entry) ([]byte, error)
	// FileExtension returns the extension, e.g. ".md".
	FileExtension() string
}

// ErrEmpty is returned when there is nothing to export.
var ErrEmpty = errors.New("conversation has no messages")

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures an export.
type Options struct {
	// Title of the document. Default: "ocrchat conversation".
	Title string
	// Model is recorded in the document header when set.
	Model string
	// CSS is embedded in HTML exports, normally render.Renderer.CSS().
	CSS string
	// IncludeTimestamps adds per-entry times.
	IncludeTimestamps bool
	// Overwrite replaces an existing file.
	Overwrite bool
	// Now is the export time. Default: time.Now().
	Now time.Time
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = "ocrchat conversation"
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	return o
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ForPath picks the exporter matching the file extension.
func ForPath(path string, opts Options) (Exporter, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return NewHTMLExporter(opts), nil
	case ".md", ".markdown", "":
		return NewMarkdownExporter(opts), nil
	case ".json":
		return NewJSONExporter(opts), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q (use .html, .md or .json)", filepath.Ext(path))
	}
}

// ToFile exports entries to path. Entries still in progress are skipped.
func ToFile(entries []transcript.Entry, path string, opts Options) error {
	exp, err := ForPath(path, opts)
	if err != nil {
		return err
	}
	content, err := exp.Export(entries)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if filepath.Ext(path) == "" {
		path += exp.FileExtension()
	}
	if err := savefile.Save(path, content, savefile.Options{Overwrite: opts.Overwrite, Perm: 0o644}); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// finished drops placeholder and streaming entries.
func finished(entries []transcript.Entry) []transcript.Entry {
	out := make([]transcript.Entry, 0, len(entries))
	for _, e := range entries {
		if e.State == transcript.StateFinal || e.State == transcript.StateErrored {
			out = append(out, e)
		}
	}
	return out
}

func roleLabel(r transcript.Role) string {
	switch r {
	case transcript.RoleUser:
		return "You"
	case transcript.RoleAssistant:
		return "Assistant"
	case transcript.RoleError:
		return "Error"
	default:
		return "Unknown"
	}
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// formatShortTimestamp formats a timestamp for inline display.
func formatShortTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}
