// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"fmt"
	"strings"
)

// =============================================================================
// OUTPUT FORMAT
// =============================================================================

// Format selects what RenderedContent is written for.
type Format string

const (
	// FormatHTML renders markdown to sanitised HTML and code to inline-styled
	// spans joined by <br/>.
	FormatHTML Format = "html"

	// FormatTerminal renders markdown with glamour and code with ANSI colours
	// joined by newlines.
	FormatTerminal Format = "terminal"
)

// ParseFormat converts a config value to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "html":
		return FormatHTML, nil
	case "terminal", "term", "ansi":
		return FormatTerminal, nil
	}
	return "", fmt.Errorf("unknown render format %q", s)
}

// =============================================================================
// TOOL POLICY
// =============================================================================

// ToolPolicy decides what happens when one step carries several interpreter
// calls.
type ToolPolicy string

const (
	// KeepLast shows only the code of the last matching call.
	KeepLast ToolPolicy = "keep-last"

	// KeepAll shows every matching call in order, separated by an empty line.
	KeepAll ToolPolicy = "keep-all"
)

// ParseToolPolicy converts a config value to a ToolPolicy. Empty means
// KeepLast.
func ParseToolPolicy(s string) (ToolPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "keep-last", "last":
		return KeepLast, nil
	case "keep-all", "all":
		return KeepAll, nil
	}
	return "", fmt.Errorf("unknown tool policy %q (want keep-last or keep-all)", s)
}

// combine applies the policy to the extracted code blocks.
func (p ToolPolicy) combine(blocks []string) string {
	if len(blocks) == 0 {
		return ""
	}
	if p == KeepAll {
		return strings.Join(blocks, "\n\n")
	}
	return blocks[len(blocks)-1]
}
