// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/stepchat/internal/config"
	"github.com/jeranaias/stepchat/internal/controller"
	"github.com/jeranaias/stepchat/internal/model"
	"github.com/jeranaias/stepchat/internal/transport"
)

// StateNotifier reports connection state changes.
type StateNotifier interface {
	OnStateChange(fn func(transport.State))
}

// Bind forwards controller appends and errors, and transport state changes,
// to send. Pass (*tea.Program).Send. states may be nil.
func Bind(send func(tea.Msg), ctrl *controller.Controller, states StateNotifier) {
	ctrl.OnAppend(func(msg model.DisplayMessage) {
		send(AppendMsg{Message: msg})
	})
	ctrl.OnError(func(err error) {
		send(ErrorMsg{Err: err})
	})
	if states != nil {
		states.OnStateChange(func(s transport.State) {
			send(StateMsg{State: s})
		})
	}
}

// ReloadFunc returns a config watcher callback that forwards reloads to
// send.
func ReloadFunc(send func(tea.Msg)) func(*config.Config) {
	return func(cfg *config.Config) {
		send(ConfigReloadedMsg{Config: cfg})
	}
}
