// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for a local Ollama server.
//
// The client speaks the /api/generate endpoint with streaming enabled. The
// response body is newline-delimited JSON; each line is decoded on its own
// into a Line variant and only lines carrying a "response" field produce a
// delta.
//
// # Key Types
//
//   - Client: HTTP client for the Ollama API
//   - DeltaStream: lazy, finite sequence of response deltas
//   - Line: decoded form of one stream line (DeltaLine, ControlLine,
//     ErrorLine, MalformedLine)
//   - ClientError: typed transport error
//
// # Usage
//
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{Model: "gemma2:2b"})
//	stream, err := client.GenerateStream(ctx, "Hello")
//	if err != nil {
//	    return err
//	}
//	defer stream.Close()
//	for delta, err := range stream.All() {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Print(delta)
//	}
package ollama
