// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for ocrchat.
//
// # Configuration Precedence
//
// Configuration is loaded from (later wins):
//   - Built-in defaults
//   - ~/.ocrchat/config.toml
//   - .env in the working directory
//   - Environment variables (OCRCHAT_*)
//   - Command line flags (applied by the cli package)
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Hot reload:
//
//	config.Watch(ctx, path, func(cfg *config.Config, err error) { ... })
package config
