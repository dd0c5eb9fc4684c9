// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jeranaias/stepchat/internal/model"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultInterpreterTool is the tool name whose calls are shown as code.
	DefaultInterpreterTool = "python"

	// DefaultInterpreterArgument is the argument field holding the source.
	DefaultInterpreterArgument = "code"

	// DefaultLanguage is the lexer used for interpreter code.
	DefaultLanguage = "python"

	// DefaultCodeStyle is the chroma style for code.
	DefaultCodeStyle = "monokai"

	// DefaultWrapWidth is the glamour word-wrap width.
	DefaultWrapWidth = 80
)

// =============================================================================
// RENDERER
// =============================================================================

// Options configures a Renderer. Zero values take the defaults above.
type Options struct {
	Format              Format
	Policy              ToolPolicy
	InterpreterTool     string
	InterpreterArgument string
	Language            string
	CodeStyle           string
	// MarkdownStyle is a glamour style name or "auto". Terminal format only.
	MarkdownStyle string
	WrapWidth     int
	Logger        zerolog.Logger
}

func (o *Options) fillDefaults() {
	if o.Format == "" {
		o.Format = FormatHTML
	}
	if o.Policy == "" {
		o.Policy = KeepLast
	}
	if o.InterpreterTool == "" {
		o.InterpreterTool = DefaultInterpreterTool
	}
	if o.InterpreterArgument == "" {
		o.InterpreterArgument = DefaultInterpreterArgument
	}
	if o.Language == "" {
		o.Language = DefaultLanguage
	}
	if o.CodeStyle == "" {
		o.CodeStyle = DefaultCodeStyle
	}
	if o.MarkdownStyle == "" {
		o.MarkdownStyle = "auto"
	}
	if o.WrapWidth <= 0 {
		o.WrapWidth = DefaultWrapWidth
	}
}

// Renderer classifies chat events and renders them for one output format.
// It is safe for concurrent use.
type Renderer struct {
	opts     Options
	code     *highlighter
	markdown markdownRenderer
	log      zerolog.Logger
}

// New creates a Renderer. A terminal markdown renderer that cannot be built
// degrades to showing the markdown source.
func New(opts Options) *Renderer {
	opts.fillDefaults()

	r := &Renderer{
		opts: opts,
		code: newHighlighter(opts.Language, opts.CodeStyle, opts.Format),
		log:  opts.Logger,
	}

	switch opts.Format {
	case FormatTerminal:
		tm, err := newTermMarkdown(opts.MarkdownStyle, opts.WrapWidth)
		if err != nil {
			r.log.Warn().Err(err).Str("style", opts.MarkdownStyle).Msg("markdown renderer unavailable, showing source")
		} else {
			r.markdown = tm
		}
	default:
		r.markdown = newHTMLMarkdown()
	}
	return r
}

// Format returns the output format this renderer targets.
func (r *Renderer) Format() Format {
	return r.opts.Format
}

// Options returns the effective options.
func (r *Renderer) Options() Options {
	return r.opts
}

// Render classifies ev and produces its display message. It never fails:
// anything that cannot be rendered specially is shown as text.
func (r *Renderer) Render(ev model.ChatEvent) model.DisplayMessage {
	if ev.Role == model.RoleSystem {
		return model.NewDisplayMessage(ev.Role, model.KindInfo, r.renderMarkdown(ev.Content), ev.Content)
	}

	if ev.Role == model.RoleAssistant && ev.HasToolCalls() {
		if blocks := r.extractCode(ev.ToolCalls); len(blocks) > 0 {
			code := r.opts.Policy.combine(blocks)
			return model.NewDisplayMessage(ev.Role, model.KindCode, r.code.highlightBlock(code), code)
		}
	}

	return model.NewDisplayMessage(ev.Role, model.KindText, ev.Content, ev.Content)
}

// Restyle re-renders msg from its Source into this renderer's format. The
// ID, role, kind and timestamp are kept.
func (r *Renderer) Restyle(msg model.DisplayMessage) model.DisplayMessage {
	out := msg
	switch msg.Kind {
	case model.KindInfo:
		out.RenderedContent = r.renderMarkdown(msg.Source)
	case model.KindCode:
		out.RenderedContent = r.code.highlightBlock(msg.Source)
	default:
		out.RenderedContent = msg.Source
	}
	return out
}

// HighlightCode highlights code line by line in this renderer's format.
func (r *Renderer) HighlightCode(code string) string {
	return r.code.highlightBlock(code)
}

// ExtractCode returns the source of every interpreter call in calls, in
// order. Calls with unusable arguments are skipped.
func (r *Renderer) ExtractCode(calls []model.ToolCall) []string {
	return r.extractCode(calls)
}

// =============================================================================
// HELPERS
// =============================================================================

func (r *Renderer) renderMarkdown(src string) string {
	if r.markdown == nil {
		return src
	}
	out, err := r.markdown.render(src)
	if err != nil {
		r.log.Warn().Err(err).Msg("markdown render failed, showing source")
		return src
	}
	return out
}

func (r *Renderer) extractCode(calls []model.ToolCall) []string {
	var blocks []string
	for i, call := range calls {
		if call.Function.Name != r.opts.InterpreterTool {
			continue
		}
		code, err := argumentString(call.Function.Arguments, r.opts.InterpreterArgument)
		if err != nil {
			r.log.Warn().
				Err(err).
				Int("index", i).
				Str("tool", call.Function.Name).
				Msg("skipping tool call")
			continue
		}
		blocks = append(blocks, code)
	}
	return blocks
}

// argumentString decodes a JSON arguments object and returns one string
// field from it.
func argumentString(arguments, field string) (string, error) {
	var args map[string]json.RawMessage
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("malformed arguments: %w", err)
	}
	raw, ok := args[field]
	if !ok {
		return "", fmt.Errorf("arguments have no %q field", field)
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", fmt.Errorf("argument %q is not a string: %w", field, err)
	}
	return value, nil
}
