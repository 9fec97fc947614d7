// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// THEME TESTS
// =============================================================================

func TestNewTheme(t *testing.T) {
	theme := NewTheme()
	if theme == nil {
		t.Fatal("NewTheme() returned nil")
	}

	tests := []struct {
		name  string
		style lipgloss.Style
	}{
		{"UserLabel", theme.UserLabel},
		{"AssistantLabel", theme.AssistantLabel},
		{"ErrorText", theme.ErrorText},
		{"BlockBar", theme.BlockBar},
		{"StatusBar", theme.StatusBar},
		{"Notice", theme.Notice},
		{"Confirm", theme.Confirm},
	}
	for _, tc := range tests {
		if !strings.Contains(tc.style.Render("test"), "test") {
			t.Errorf("%s style dropped its content", tc.name)
		}
	}
}

func TestThemeLayoutMode(t *testing.T) {
	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
		{200, LayoutWide},
	}

	theme := NewTheme()
	for _, tc := range tests {
		theme.SetSize(tc.width, 24)
		if got := theme.GetLayoutMode(); got != tc.want {
			t.Errorf("GetLayoutMode() at width %d = %v, want %v", tc.width, got, tc.want)
		}
	}
}

// =============================================================================
// INDICATOR TESTS
// =============================================================================

func TestRenderHelpersIncludeIndicators(t *testing.T) {
	tests := []struct {
		name      string
		got       string
		indicator string
	}{
		{"success", RenderSuccess("saved"), StatusIndicators.Success},
		{"error", RenderError("failed"), StatusIndicators.Error},
		{"warning", RenderWarning("careful"), StatusIndicators.Warning},
	}
	for _, tc := range tests {
		if !strings.Contains(tc.got, tc.indicator) {
			t.Errorf("%s: %q missing indicator %q", tc.name, tc.got, tc.indicator)
		}
	}
}
