// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/ocrchat/internal/transcript"
)

// JSONExporter writes entries as JSON.
type JSONExporter struct {
	options Options
}

type jsonDocument struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Model      string      `json:"model,omitempty"`
	ExportedAt time.Time   `json:"exported_at"`
	Entries    []jsonEntry `json:"entries"`
}

type jsonEntry struct {
	ID        int64     `json:"id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	Blocks    []string  `json:"code_blocks,omitempty"`
}

// NewJSONExporter creates a JSON exporter.
func NewJSONExporter(opts Options) *JSONExporter {
	return &JSONExporter{options: opts.withDefaults()}
}

// Export implements Exporter.
func (e *JSONExporter) Export(entries []transcript.Entry) ([]byte, error) {
	entries = finished(entries)
	if len(entries) == 0 {
		return nil, ErrEmpty
	}

	doc := jsonDocument{
		ID:         uuid.NewString(),
		Title:      e.options.Title,
		Model:      e.options.Model,
		ExportedAt: e.options.Now,
		Entries:    make([]jsonEntry, 0, len(entries)),
	}
	for _, entry := range entries {
		je := jsonEntry{
			ID:        entry.ID,
			Role:      entry.Role.String(),
			Text:      entry.Text,
			CreatedAt: entry.CreatedAt,
		}
		for _, b := range entry.Blocks {
			je.Blocks = append(je.Blocks, b.Filename())
		}
		doc.Entries = append(doc.Entries, je)
	}
	return json.MarshalIndent(doc, "", "  ")
}

// FileExtension implements Exporter.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}
