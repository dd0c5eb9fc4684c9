// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// listen.go - Step logging command.
//
// Command: listen [flags]
// Short:   Log every step of the stream until interrupted
// Aliases: watch
//
// Examples:
//   stepchat listen
//   stepchat listen --notebook session.ipynb
//   stepchat listen --render
//
// Flags:
//   --notebook FILE   Record steps into a Jupyter notebook
//   --render          Also print rendered steps to stdout
//   --reset           Reset the backend session before listening

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jeranaias/stepchat/internal/config"
	"github.com/jeranaias/stepchat/internal/export"
	"github.com/jeranaias/stepchat/internal/logging"
	"github.com/jeranaias/stepchat/internal/model"
	"github.com/jeranaias/stepchat/internal/render"
	"github.com/jeranaias/stepchat/internal/transport"
)

// HandleListen connects to the step stream and logs every step until ctx
// is cancelled. With --reset the backend session is reset first; a failed
// reset is logged and listening starts anyway.
func HandleListen(ctx context.Context, args Args) error {
	cfg, _, err := LoadConfig(args)
	if err != nil {
		return err
	}
	log, closeLog, err := SetupLogger(cfg, args, "")
	if err != nil {
		return &ConfigError{Err: err}
	}
	defer closeLog()

	tr, err := newTransport(cfg, log)
	if err != nil {
		return err
	}

	stepLog := logging.Component(log, "steps")
	renderer := render.New(cfg.RenderOptions(render.FormatTerminal, logging.Component(log, "render")))

	var notebook *export.Notebook
	if args.Notebook != "" {
		notebook = export.NewNotebook(args.Notebook, renderer, logging.Component(log, "notebook"))
		stepLog.Info().Str("path", notebook.Path()).Msg("recording notebook")
	}

	onEvent := func(ev model.ChatEvent) {
		LogStep(stepLog, ev)
		if notebook != nil {
			if err := notebook.Record(ev); err != nil {
				stepLog.Error().Err(err).Msg("notebook write failed")
			}
		}
		if args.Render {
			PrintMessage(os.Stdout, renderer.Render(ev))
		}
	}
	onError := func(err error) {
		stepLog.Warn().Err(err).Msg("stream error")
	}

	sub := tr.Subscribe(onEvent, onError, nil)
	defer sub.Unsubscribe()

	if args.ResetFirst {
		resetSession(ctx, tr, cfg, stepLog)
	}

	stepLog.Info().Str("url", tr.Endpoints().Stream).Msg("listening")
	tr.Connect()

	<-ctx.Done()
	stepLog.Info().Msg("stopping")
	return tr.Close()
}

func resetSession(ctx context.Context, tr *transport.Transport, cfg *config.Config, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, cfg.TransportConfig().RequestTimeout)
	defer cancel()

	body, err := tr.ResetSession(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("reset failed")
		return
	}
	log.Info().Str("response", strings.TrimSpace(string(body))).Msg("session reset")
}

// =============================================================================
// STEP FORMATTING
// =============================================================================

// LogStep writes one info line per part of ev.
func LogStep(log zerolog.Logger, ev model.ChatEvent) {
	for _, line := range FormatStep(ev) {
		log.Info().Str("role", ev.Role.String()).Msg(line)
	}
}

// FormatStep renders ev as log lines:
//
//	role: content
//	assistant: name(
//	    key="value"
//	)
//	TOOL[name]: output
//
// Tool results never produce a "role: content" line.
func FormatStep(ev model.ChatEvent) []string {
	var lines []string

	if ev.Content != "" && ev.Role != model.RoleTool {
		lines = append(lines, fmt.Sprintf("%s: %s", ev.Role, ev.Content))
	}

	switch ev.Role {
	case model.RoleAssistant:
		for _, call := range ev.ToolCalls {
			lines = append(lines, formatToolCall(ev.Role, call.Function))
		}
	case model.RoleTool:
		lines = append(lines, fmt.Sprintf("TOOL[%s]: %s", ev.Name, ev.Content))
	}

	return lines
}

func formatToolCall(role model.Role, fn model.FunctionCall) string {
	kwargs, err := FormatKwargs(fn.Arguments)
	if err != nil {
		return fmt.Sprintf("%s: %s(%s)", role, fn.Name, fn.Arguments)
	}
	if kwargs == "" {
		return fmt.Sprintf("%s: %s()", role, fn.Name)
	}
	return fmt.Sprintf("%s: %s(\n%s\n)", role, fn.Name, kwargs)
}

// FormatKwargs formats a JSON object of call arguments one per line as
// "    key=value", keeping the key order of the object. Single-line strings
// are quoted; multi-line strings become an indented fenced block; other
// values are compact JSON.
func FormatKwargs(arguments string) (string, error) {
	if strings.TrimSpace(arguments) == "" {
		return "", nil
	}

	dec := json.NewDecoder(strings.NewReader(arguments))
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return "", fmt.Errorf("arguments are not a JSON object")
	}

	var parts []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return "", err
		}
		key, ok := keyTok.(string)
		if !ok {
			return "", fmt.Errorf("unexpected key %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return "", err
		}
		parts = append(parts, "    "+key+"="+formatValue(raw))
	}
	if _, err := dec.Token(); err != nil {
		return "", err
	}
	if _, err := dec.Token(); err != io.EOF {
		return "", fmt.Errorf("trailing data after arguments")
	}

	return strings.Join(parts, "\n"), nil
}

func formatValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if !strings.Contains(s, "\n") {
			return strconv.Quote(s)
		}
		lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
		var b strings.Builder
		b.WriteString("```")
		for _, line := range lines {
			b.WriteString("\n        ")
			b.WriteString(line)
		}
		b.WriteString("\n    ```")
		return b.String()
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return string(raw)
	}
	return compact.String()
}

// =============================================================================
// RENDERED OUTPUT
// =============================================================================

// PrintMessage writes a rendered message under its role label.
func PrintMessage(w io.Writer, msg model.DisplayMessage) {
	if msg.IsEmpty() {
		return
	}
	content := strings.TrimRight(msg.RenderedContent, "\n")
	if content == "" {
		content = msg.Source
	}
	fmt.Fprintf(w, "%s\n%s\n\n", RenderRole(msg.Role), content)
}
