// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"bytes"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/microcosm-cc/bluemonday"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer converts markdown source for one output format.
type markdownRenderer interface {
	render(src string) (string, error)
}

// htmlMarkdown renders GitHub-flavoured markdown to sanitised HTML.
type htmlMarkdown struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func newHTMLMarkdown() *htmlMarkdown {
	return &htmlMarkdown{
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy: bluemonday.UGCPolicy(),
	}
}

func (h *htmlMarkdown) render(src string) (string, error) {
	var buf bytes.Buffer
	if err := h.md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	out := h.policy.SanitizeBytes(buf.Bytes())
	return strings.TrimRight(string(out), "\n"), nil
}

// termMarkdown renders markdown for a terminal with glamour.
type termMarkdown struct {
	mu sync.Mutex
	tr *glamour.TermRenderer
}

func newTermMarkdown(style string, wrap int) (*termMarkdown, error) {
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(resolveMarkdownStyle(style)),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return nil, err
	}
	return &termMarkdown{tr: tr}, nil
}

func (t *termMarkdown) render(src string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	out, err := t.tr.Render(src)
	if err != nil {
		return "", err
	}
	return strings.Trim(out, "\n"), nil
}

// resolveMarkdownStyle maps "auto" to a concrete glamour style using the
// terminal's colour profile and background.
func resolveMarkdownStyle(style string) string {
	if style != "" && style != "auto" {
		return style
	}
	if termenv.EnvColorProfile() == termenv.Ascii {
		return "notty"
	}
	if termenv.HasDarkBackground() {
		return "dark"
	}
	return "light"
}
