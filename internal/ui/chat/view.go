// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/stepchat/internal/model"
	"github.com/jeranaias/stepchat/internal/transport"
	"github.com/jeranaias/stepchat/internal/util"
)

// =============================================================================
// MAIN VIEW
// =============================================================================

func (m Model) renderChat() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	body := m.viewport.View()
	if m.showHelp {
		body = lipgloss.NewStyle().
			Width(m.viewport.Width).
			Height(m.viewport.Height).
			MaxHeight(m.viewport.Height).
			Render(m.renderHelp())
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderInput(),
		m.renderStatusBar(),
	)
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("stepchat")
	backend := m.theme.HeaderSubtitle.Render(m.cfg.Server.BaseURL)

	state := m.theme.StateStyle(m.state.String()).Render(m.state.String())
	if m.state == transport.StateConnecting {
		state = m.spinner.View() + " " + state
	}

	content := title + " | " + backend + " | " + state

	// Overlong headers wrap; MaxHeight keeps the first line.
	return m.theme.Header.Width(m.width).MaxHeight(headerHeight).Render(content)
}

// =============================================================================
// MESSAGES
// =============================================================================

// renderMessages lays out every visible message of the conversation.
func (m *Model) renderMessages() string {
	msgs := m.ctrl.Conversation().Messages()

	width := max(m.viewport.Width-1, minInputWidth)
	parts := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Role == model.RoleSystem && !m.showSystem {
			continue
		}
		if msg.IsEmpty() {
			continue
		}
		parts = append(parts, m.renderMessage(msg, width))
	}

	if len(parts) == 0 {
		return m.renderEmptyState()
	}
	return strings.Join(parts, "\n\n")
}

// renderMessage renders one message as a label line above its body.
func (m *Model) renderMessage(msg model.DisplayMessage, width int) string {
	label := m.theme.RoleLabel(msg.Role).Render(msg.Role.DisplayName())
	if !msg.CreatedAt.IsZero() {
		label += " " + m.theme.Timestamp.Render(msg.CreatedAt.Format("15:04:05"))
	}

	body := strings.TrimRight(m.content(msg), "\n")
	style := m.theme.MessageStyle(msg.Role, msg.Kind)
	if msg.Kind == model.KindCode {
		// Highlighted lines keep their own layout; only clip them.
		style = style.MaxWidth(width)
	} else {
		style = style.Width(max(width-style.GetHorizontalBorderSize(), 1))
	}

	return label + "\n" + style.Render(body)
}

func (m Model) renderEmptyState() string {
	lines := []string{
		m.theme.HeaderTitle.Render("No steps yet."),
		"",
		m.theme.ShortcutDesc.Render("Waiting for the agent at " + m.cfg.Server.BaseURL),
		m.theme.ShortcutDesc.Render("Type a message and press Enter, or /help for commands."),
	}
	return strings.Join(lines, "\n")
}

// =============================================================================
// INPUT
// =============================================================================

func (m Model) renderInput() string {
	return m.theme.InputContainer.Width(m.width).Render(m.input.View())
}

// =============================================================================
// STATUS BAR
// =============================================================================

func (m Model) renderStatusBar() string {
	var content string
	switch {
	case m.status != "" && m.statusErr:
		content = m.theme.ErrorText.Render(util.TruncateWidth(util.FirstLine(m.status), max(m.width-4, 1)))
	case m.status != "":
		text := util.TruncateWidth(util.FirstLine(m.status), max(m.width-6, 1))
		if m.busy != "" {
			text = m.spinner.View() + " " + text
		}
		content = text
	default:
		content = m.renderShortcuts()
	}

	return m.theme.StatusBar.Width(m.width).MaxHeight(statusBarHeight).Render(content)
}

func (m Model) renderShortcuts() string {
	var parts []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		parts = append(parts, m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}

// =============================================================================
// HELP OVERLAY
// =============================================================================

func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(m.theme.HeaderTitle.Render("Keys"))
	b.WriteString("\n")
	for _, group := range m.keys.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			fmt.Fprintf(&b, "  %s  %s\n",
				m.theme.ShortcutKey.Width(10).Render(h.Key),
				m.theme.ShortcutDesc.Render(h.Desc))
		}
	}

	b.WriteString("\n")
	b.WriteString(m.theme.HeaderTitle.Render("Commands"))
	b.WriteString("\n")
	for _, c := range Commands {
		usage := c.Name
		if c.Args != "" {
			usage += " " + c.Args
		}
		fmt.Fprintf(&b, "  %s  %s\n",
			m.theme.ShortcutKey.Width(34).Render(usage),
			m.theme.ShortcutDesc.Render(c.Description))
	}

	b.WriteString("\n")
	b.WriteString(m.theme.ShortcutDesc.Render("Press F1, Esc or Enter to close."))
	return b.String()
}
