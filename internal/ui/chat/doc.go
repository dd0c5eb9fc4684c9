// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the chat view of the stepchat TUI.

The view is a Bubble Tea model over a controller.Controller. The controller
owns the conversation and renders every step; the view only lays the
rendered messages out, reads the input line and forwards it.

# Key Components

## Model (model.go)

Model holds the viewport, the text input, the connection state shown in the
header and the renderer used to restyle messages after a config reload.

## Bridge (bridge.go)

Bind registers controller and transport hooks that forward appends, errors
and state changes into a running tea.Program as messages.

## Commands (commands.go)

Lines starting with "/" are handled locally:

	/export html|md|json|ipynb [dir]
	/reset
	/system on|off
	/help
	/quit

# Usage

	m := chat.New(ctrl, cfg, log)
	p := tea.NewProgram(m, tea.WithAltScreen())
	chat.Bind(p.Send, ctrl, tr)
	ctrl.Start()
	_, err := p.Run()
*/
package chat
