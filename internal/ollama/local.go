// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"net"
	"net/url"
	"strings"
)

// IsLocalURL reports whether baseURL points at this machine. Attachment text
// sent anywhere else leaves the machine, so callers warn about it.
func IsLocalURL(baseURL string) bool {
	u, err := url.Parse(baseURL)
	if err != nil {
		return false
	}
	return IsLocalhost(u.Host)
}

// IsLocalhost checks if a host, with or without a port, is a loopback name
// or address. Every IPv4 127/8 address and every IPv6 spelling of ::1 counts.
func IsLocalhost(host string) bool {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(strings.Trim(host, "[]"))

	if host == "localhost" {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return false
}
