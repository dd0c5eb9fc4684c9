// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the stepchat TUI.

# Color System (colors.go)

All colors use Lip Gloss AdaptiveColor so they follow the terminal
background. Each message role has its own accent:

	user      - blue
	assistant - purple
	system    - amber
	tool      - emerald

# Theme System (theme.go)

	theme := styles.NewThemeNamed(cfg.UI.Theme)
	body := theme.MessageStyle(msg.Role, msg.Kind).Render(msg.RenderedContent)

# Spinners (spinner.go)

SpinnerConfig values convert to bubbles spinners with Bubble().
*/
package styles
