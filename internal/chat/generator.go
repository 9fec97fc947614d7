// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/jeranaias/ocrchat/internal/ollama"
)

// Stream is an open reply. Next returns io.EOF at the end.
type Stream interface {
	Next() (string, error)
	Close() error
	Stats() ollama.StreamStats
}

// Generator opens a streamed reply for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (Stream, error)
}

// OllamaGenerator adapts an Ollama client to Generator.
type OllamaGenerator struct {
	Client *ollama.Client
}

// Generate implements Generator.
func (g OllamaGenerator) Generate(ctx context.Context, prompt string) (Stream, error) {
	s, err := g.Client.GenerateStream(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return s, nil
}
