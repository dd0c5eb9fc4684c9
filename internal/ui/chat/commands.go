// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// Command describes one slash command for the help overlay.
type Command struct {
	Name        string
	Args        string
	Description string
}

// Commands lists the slash commands the view understands.
var Commands = []Command{
	{Name: "/export", Args: "html|md|json|ipynb [dir]", Description: "Export the conversation"},
	{Name: "/reset", Description: "Reset the backend session"},
	{Name: "/system", Args: "[on|off]", Description: "Show or hide system messages"},
	{Name: "/help", Description: "Show keys and commands"},
	{Name: "/quit", Description: "Exit"},
}

// parseCommand splits a slash command line into its lower-cased name and
// arguments.
func parseCommand(line string) (string, []string) {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return "", nil
	}
	return strings.ToLower(fields[0]), fields[1:]
}

func (m Model) handleCommand(line string) (tea.Model, tea.Cmd) {
	name, args := parseCommand(line)

	switch name {
	case "/export", "/e":
		if len(args) == 0 {
			m.setError("usage: /export html|md|json|ipynb [dir]")
			return m, nil
		}
		dir := ""
		if len(args) > 1 {
			dir = args[1]
		}
		return m.startExport(args[0], dir)

	case "/reset", "/r":
		return m.startReset()

	case "/system":
		show := !m.showSystem
		if len(args) > 0 {
			switch strings.ToLower(args[0]) {
			case "on", "true", "yes":
				show = true
			case "off", "false", "no":
				show = false
			default:
				m.setError("usage: /system on|off")
				return m, nil
			}
		}
		m.showSystem = show
		m.ctrl.SetShowSystem(show)
		if show {
			m.setStatus("system messages shown")
		} else {
			m.setStatus("system messages hidden")
		}
		m.updateViewport()
		return m, nil

	case "/help", "/h", "/?":
		m.showHelp = true
		return m, nil

	case "/quit", "/q", "/exit":
		return m, tea.Quit

	default:
		m.setError("unknown command " + name + " (try /help)")
		return m, nil
	}
}
