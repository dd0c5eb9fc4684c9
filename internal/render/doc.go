// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns backend steps into display messages.
//
// Classification is evaluated in order:
//
//  1. system steps are markdown and become an info message
//  2. assistant steps carrying an interpreter tool call become a code message,
//     one highlighted line per source line
//  3. everything else is shown verbatim as text
//
// The renderer targets one output format. FormatHTML produces sanitised HTML
// with lines joined by <br/>; FormatTerminal produces ANSI output for the TUI
// and the REPL.
//
//	r := render.New(render.Options{Format: render.FormatHTML})
//	msg := r.Render(ev)
package render
