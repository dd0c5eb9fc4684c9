// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
)

// =============================================================================
// SYNTAX HIGHLIGHTING (Chroma-based)
// =============================================================================

// lineBreak matches every line terminator the backend may send.
var lineBreak = regexp.MustCompile(`\r\n|\n|\r`)

// splitLines splits code on \r\n, \n and \r.
func splitLines(code string) []string {
	return lineBreak.Split(code, -1)
}

// highlighter highlights single lines of one language in one style.
type highlighter struct {
	lexer     chroma.Lexer
	style     *chroma.Style
	formatter chroma.Formatter
	separator string
}

func newHighlighter(language, styleName string, format Format) *highlighter {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get(styleName)
	if style == nil {
		style = chromaStyles.Fallback
	}

	h := &highlighter{lexer: lexer, style: style}
	switch format {
	case FormatTerminal:
		h.formatter = formatters.Get("terminal256")
		if h.formatter == nil {
			h.formatter = formatters.Fallback
		}
		h.separator = "\n"
	default:
		h.formatter = chromahtml.New(
			chromahtml.WithClasses(false),
			chromahtml.PreventSurroundingPre(true),
		)
		h.separator = "<br/>"
	}
	return h
}

// highlightBlock highlights every line of code independently and joins the
// results with the format's line break.
func (h *highlighter) highlightBlock(code string) string {
	lines := splitLines(code)
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = h.highlightLine(line)
	}
	return strings.Join(out, h.separator)
}

// highlightLine highlights one line. It falls back to the escaped plain line
// if chroma fails.
func (h *highlighter) highlightLine(line string) string {
	iterator, err := h.lexer.Tokenise(nil, line)
	if err != nil {
		return h.plain(line)
	}

	// Lexers may append a newline; the separator is the only line break.
	tokens := trimTrailingNewline(iterator.Tokens())

	var buf strings.Builder
	if err := h.formatter.Format(&buf, h.style, chroma.Literator(tokens...)); err != nil {
		return h.plain(line)
	}
	return buf.String()
}

func (h *highlighter) plain(line string) string {
	if h.separator == "<br/>" {
		return htmlEscaper.Replace(line)
	}
	return line
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&#34;",
	"'", "&#39;",
)

func trimTrailingNewline(tokens []chroma.Token) []chroma.Token {
	for len(tokens) > 0 {
		last := &tokens[len(tokens)-1]
		trimmed := strings.TrimRight(last.Value, "\r\n")
		if trimmed != "" {
			last.Value = trimmed
			return tokens
		}
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}
