// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/stepchat/internal/model"
)

// Theme names accepted by NewThemeNamed.
const (
	ThemeAuto  = "auto"
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// APPLICATION CONTAINER STYLES
	// ==========================================================================

	App lipgloss.Style

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header            lipgloss.Style
	HeaderTitle       lipgloss.Style
	HeaderSubtitle    lipgloss.Style
	StateConnected    lipgloss.Style
	StateConnecting   lipgloss.Style
	StateDisconnected lipgloss.Style

	// ==========================================================================
	// MESSAGE STYLES
	// ==========================================================================

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	SystemLabel    lipgloss.Style
	ToolLabel      lipgloss.Style
	Timestamp      lipgloss.Style

	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	SystemBubble    lipgloss.Style
	ToolBubble      lipgloss.Style
	CodeBlock       lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputPlaceholder lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
	ErrorText    lipgloss.Style
	Spinner      lipgloss.Style
}

// NewTheme creates a new theme following the terminal background.
func NewTheme() *Theme {
	return NewThemeNamed(ThemeAuto)
}

// NewThemeNamed creates a theme for "dark", "light" or "auto". Forcing dark
// or light also sets the lipgloss background so adaptive colors agree.
// Unknown names behave like "auto".
func NewThemeNamed(name string) *Theme {
	colorProfile := termenv.ColorProfile()

	var isDark bool
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ThemeDark:
		isDark = true
		lipgloss.SetHasDarkBackground(true)
	case ThemeLight:
		isDark = false
		lipgloss.SetHasDarkBackground(false)
	default:
		isDark = termenv.HasDarkBackground()
	}

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}

	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	t.App = lipgloss.NewStyle()

	// Header
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.HeaderSubtitle = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.StateConnected = lipgloss.NewStyle().
		Foreground(Emerald).
		Bold(true)

	t.StateConnecting = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)

	t.StateDisconnected = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	// Role labels
	t.UserLabel = lipgloss.NewStyle().Bold(true).Foreground(UserBubbleBorder)
	t.AssistantLabel = lipgloss.NewStyle().Bold(true).Foreground(Purple)
	t.SystemLabel = lipgloss.NewStyle().Bold(true).Foreground(Amber)
	t.ToolLabel = lipgloss.NewStyle().Bold(true).Foreground(Emerald)
	t.Timestamp = lipgloss.NewStyle().Foreground(TextMuted)

	// Message bodies
	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(UserBubbleBorder).
		BorderLeft(true).
		PaddingLeft(1)

	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(AssistantBubbleFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(AssistantBubbleBorder).
		BorderLeft(true).
		PaddingLeft(1)

	t.SystemBubble = lipgloss.NewStyle().
		Foreground(SystemBubbleFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(SystemBubbleBorder).
		BorderLeft(true).
		PaddingLeft(1)

	t.ToolBubble = lipgloss.NewStyle().
		Foreground(ToolBubbleFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Emerald).
		BorderLeft(true).
		PaddingLeft(1)

	// Highlighted code already carries its colors
	t.CodeBlock = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	// Input area
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.InputPlaceholder = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.ErrorText = lipgloss.NewStyle().
		Foreground(Rose)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Amber)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// RoleLabel returns the label style for a message role.
func (t *Theme) RoleLabel(role model.Role) lipgloss.Style {
	switch role {
	case model.RoleUser:
		return t.UserLabel
	case model.RoleAssistant:
		return t.AssistantLabel
	case model.RoleSystem:
		return t.SystemLabel
	default:
		return t.ToolLabel
	}
}

// MessageStyle returns the body style for a message. Code messages use the
// code block frame whatever their role.
func (t *Theme) MessageStyle(role model.Role, kind model.Kind) lipgloss.Style {
	if kind == model.KindCode {
		return t.CodeBlock
	}
	switch role {
	case model.RoleUser:
		return t.UserBubble
	case model.RoleAssistant:
		return t.AssistantBubble
	case model.RoleSystem:
		return t.SystemBubble
	default:
		return t.ToolBubble
	}
}

// StateStyle returns the header style for a connection state name
// ("connected", "connecting", anything else).
func (t *Theme) StateStyle(state string) lipgloss.Style {
	switch state {
	case "connected":
		return t.StateConnected
	case "connecting":
		return t.StateConnecting
	default:
		return t.StateDisconnected
	}
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}
