// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared styling for the stepchat commands.
//
// Colors are disabled for non-TTY output and respect NO_COLOR and
// FORCE_COLOR.

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/stepchat/internal/model"
	"github.com/jeranaias/stepchat/internal/ui/styles"
)

func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// SHARED STYLES FOR ALL CLI COMMANDS
// =============================================================================

var (
	// TitleStyle is used for command titles and headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")). // Cyan
			MarginBottom(1)

	// LabelStyle is used for field labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")). // Light gray
			Width(32)

	// ValueStyle is used for regular values and text
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")) // Off-white

	// SuccessStyle is used for success messages and OK statuses
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")). // Green
			Bold(true)

	// ErrorStyle is used for error messages and failures
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")). // Red
			Bold(true)

	// WarningStyle is used for warnings and cautions
	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // Yellow/Orange

	// DimStyle is used for secondary information and hints
	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242")) // Dim gray

	// SeparatorStyle is used for visual separators
	SeparatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // Dark gray
)

// Role labels share the TUI palette so both front ends look alike.
var roleStyles = map[model.Role]lipgloss.Style{
	model.RoleUser:      lipgloss.NewStyle().Bold(true).Foreground(styles.UserBubbleBorder),
	model.RoleAssistant: lipgloss.NewStyle().Bold(true).Foreground(styles.Purple),
	model.RoleSystem:    lipgloss.NewStyle().Bold(true).Foreground(styles.Amber),
	model.RoleTool:      lipgloss.NewStyle().Bold(true).Foreground(styles.Emerald),
}

// =============================================================================
// HELPER FUNCTIONS FOR COMMON PATTERNS
// =============================================================================

// RenderSeparator renders a horizontal separator line of the specified width.
// Default width is 70 characters if not specified.
func RenderSeparator(width ...int) string {
	w := 70
	if len(width) > 0 && width[0] > 0 {
		w = width[0]
	}
	return RenderConditional(SeparatorStyle, strings.Repeat("-", w))
}

// RenderLabel renders a label with consistent width.
func RenderLabel(label string) string {
	if !ColorsEnabled() {
		return PlainStyle().Width(32).Render(label)
	}
	return LabelStyle.Render(label)
}

// RenderRole renders the "[role]" prefix used in line-mode output.
func RenderRole(role model.Role) string {
	label := "[" + role.DisplayName() + "]"
	style, ok := roleStyles[role]
	if !ok {
		return label
	}
	return RenderConditional(style, label)
}

// =============================================================================
// TTY-AWARE STYLING HELPERS
// =============================================================================

// RenderConditional renders text with style if colors are enabled,
// otherwise returns the text unmodified.
func RenderConditional(style lipgloss.Style, text string) string {
	if !ColorsEnabled() {
		return text
	}
	return style.Render(text)
}

// PlainStyle returns an unstyled lipgloss.Style.
func PlainStyle() lipgloss.Style {
	return lipgloss.NewStyle()
}
