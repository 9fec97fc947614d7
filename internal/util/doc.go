// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small string and path helpers shared by the front ends.
//
// # Key Functions
//
// String Utilities:
//   - TruncateWidth: column-aware truncation with ellipsis
//   - TruncateMiddle: keeps the tail of file names visible
//   - PadRight: column-aware padding for tables
//
// Paths:
//   - ExpandHome, ShortenHome: "~" handling for typed and displayed paths
package util
