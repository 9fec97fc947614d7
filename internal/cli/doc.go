// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the ocrchat command line.
//
// # Commands
//
//   - ocrchat: full-screen chat UI
//   - ask: one question, answer streamed or rendered
//   - repl: line-based chat with history
//   - extract: print the text extracted from an image or PDF
//   - models: list installed Ollama models
//   - config show|path|init|get|set
//
// Global flags --config, --model, --url and --log-level override the
// config file and environment.
package cli
