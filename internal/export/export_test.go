// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/stepchat/internal/model"
	"github.com/jeranaias/stepchat/internal/render"
)

// sampleConversation renders a short session through a terminal renderer,
// the way the TUI builds it.
func sampleConversation(t *testing.T) *model.Conversation {
	t.Helper()
	r := render.New(render.Options{Format: render.FormatTerminal, MarkdownStyle: "notty"})

	conv := model.NewConversation()
	conv.Append(model.NewLocalUserMessage("Plot a sine wave"))
	conv.Append(r.Render(model.ChatEvent{Role: model.RoleSystem, Content: "# Working\nUsing **python**"}))
	conv.Append(r.Render(model.ChatEvent{
		Role: model.RoleAssistant,
		ToolCalls: []model.ToolCall{{Function: model.FunctionCall{
			Name: "python", Arguments: `{"code":"import math\nprint(math.sin(1))"}`,
		}}},
	}))
	conv.Append(r.Render(model.ChatEvent{Role: model.RoleTool, Content: "0.8414709848078965"}))
	conv.Append(r.Render(model.ChatEvent{Role: model.RoleAssistant, Content: "Done <3"}))
	return conv
}

// =============================================================================
// TRANSCRIPT TESTS
// =============================================================================

func TestNewTranscript_TitleFromFirstUserMessage(t *testing.T) {
	tr := NewTranscript(sampleConversation(t), "http://localhost:8000")
	require.NotNil(t, tr)
	assert.Equal(t, "Plot a sine wave", tr.Title)
	assert.Len(t, tr.Messages, 5)
	assert.Nil(t, NewTranscript(nil, ""))
}

func TestExporters_RejectEmptyTranscript(t *testing.T) {
	empty := NewTranscript(model.NewConversation(), "")
	for _, format := range Formats {
		exp, err := ExporterFor(format, nil)
		require.NoError(t, err)
		_, err = exp.Export(empty)
		assert.Error(t, err, format)
	}
}

// =============================================================================
// HTML TESTS
// =============================================================================

func TestHTMLExporter_RerendersTerminalMessages(t *testing.T) {
	out, err := NewHTMLExporter(nil).Export(NewTranscript(sampleConversation(t), "http://localhost:8000"))
	require.NoError(t, err)
	page := string(out)

	assert.Contains(t, page, "<h1>Working</h1>")
	assert.Contains(t, page, "<strong>python</strong>")
	assert.Contains(t, page, "<br/>")
	assert.Contains(t, page, "class=\"code-block\"")
	assert.NotContains(t, page, "\x1b[")
	// Plain text is escaped.
	assert.Contains(t, page, "Done &lt;3")
	assert.Contains(t, page, "dark-theme")
}

func TestHTMLExporter_EscapesTitle(t *testing.T) {
	conv := model.NewConversation()
	conv.Append(model.NewLocalUserMessage("<script>alert('x')</script>"))

	out, err := NewHTMLExporter(nil).Export(NewTranscript(conv, ""))
	require.NoError(t, err)
	assert.NotContains(t, string(out), "<script>alert")
	assert.Contains(t, string(out), "&lt;script&gt;")
}

func TestHTMLExporter_LightTheme(t *testing.T) {
	opts := DefaultOptions()
	opts.Theme = "light"
	out, err := NewHTMLExporter(opts).Export(NewTranscript(sampleConversation(t), ""))
	require.NoError(t, err)
	assert.Contains(t, string(out), `<body class="light-theme">`)
}

// =============================================================================
// MARKDOWN TESTS
// =============================================================================

func TestMarkdownExporter(t *testing.T) {
	out, err := NewMarkdownExporter(nil).Export(NewTranscript(sampleConversation(t), "http://localhost:8000"))
	require.NoError(t, err)
	doc := string(out)

	assert.True(t, strings.HasPrefix(doc, "---\n"))
	assert.Contains(t, doc, "generator: stepchat")
	assert.Contains(t, doc, "backend: \"http://localhost:8000\"")
	assert.Contains(t, doc, "```python\nimport math\nprint(math.sin(1))\n```")
	assert.Contains(t, doc, "# Working\nUsing **python**")
	assert.Contains(t, doc, "### [Tool]")
	assert.NotContains(t, doc, "\x1b[")
}

func TestEscapeYAML_NewlineInjection(t *testing.T) {
	got := escapeYAML("Test\nInjection: malicious")
	assert.Equal(t, `"Test\nInjection: malicious"`, got)
	assert.Equal(t, "plain", escapeYAML("plain"))
}

// =============================================================================
// JSON TESTS
// =============================================================================

func TestJSONExporter_KeepsSource(t *testing.T) {
	out, err := NewJSONExporter(nil).Export(NewTranscript(sampleConversation(t), ""))
	require.NoError(t, err)

	var decoded Transcript
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.Len(t, decoded.Messages, 5)
	assert.Equal(t, model.KindCode, decoded.Messages[2].Kind)
	assert.Equal(t, "import math\nprint(math.sin(1))", decoded.Messages[2].Source)
}

// =============================================================================
// FILE TESTS
// =============================================================================

func TestExportConversation_WritesFile(t *testing.T) {
	opts := DefaultOptions()
	opts.OutputDir = filepath.Join(t.TempDir(), "exports")

	path, err := ExportConversation(sampleConversation(t), "", "md", opts)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "stepchat_Plot_a_sine_wave_"))
	assert.Equal(t, ".md", filepath.Ext(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Plot a sine wave")
}

func TestExporterFor_Unknown(t *testing.T) {
	_, err := ExporterFor("pdf", nil)
	assert.ErrorContains(t, err, "unsupported export format")
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a-b-c_d", sanitizeFilename("a/b:c d"))
	assert.Equal(t, "conversation", sanitizeFilename(""))
	assert.Len(t, []rune(sanitizeFilename(strings.Repeat("x", 80))), 50)
}

// =============================================================================
// NOTEBOOK TESTS
// =============================================================================

func readNotebook(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var nb map[string]any
	require.NoError(t, json.Unmarshal(data, &nb))
	return nb
}

func TestNotebook_RecordsSteps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steps.ipynb")
	nb := NewNotebook(path, render.New(render.Options{}), zerolog.Nop())

	require.NoError(t, nb.Record(model.ChatEvent{Role: model.RoleUser, Content: "compute"}))
	require.NoError(t, nb.Record(model.ChatEvent{
		Role:    model.RoleAssistant,
		Content: "running code",
		ToolCalls: []model.ToolCall{
			{Function: model.FunctionCall{Name: "python", Arguments: `{"code":"print(6*7)"}`}},
			{Function: model.FunctionCall{Name: "search", Arguments: `{"q":"x"}`}},
			{Function: model.FunctionCall{Name: "python", Arguments: `not json`}},
		},
	}))
	require.NoError(t, nb.Record(model.ChatEvent{Role: model.RoleTool, Content: " 42\n", Name: "python"}))

	doc := readNotebook(t, path)
	assert.Equal(t, float64(4), doc["nbformat"])

	cells := doc["cells"].([]any)
	require.Len(t, cells, 3)

	first := cells[0].(map[string]any)
	assert.Equal(t, "markdown", first["cell_type"])
	assert.Equal(t, "**user**: compute", first["source"])
	assert.NotContains(t, first, "outputs")

	assert.Equal(t, "**assistant**: running code", cells[1].(map[string]any)["source"])

	code := cells[2].(map[string]any)
	assert.Equal(t, "code", code["cell_type"])
	assert.Equal(t, "print(6*7)", code["source"])
	outputs := code["outputs"].([]any)
	require.Len(t, outputs, 1)
	out := outputs[0].(map[string]any)
	assert.Equal(t, "execute_result", out["output_type"])
	assert.Equal(t, "42", out["data"].(map[string]any)["text/plain"])
}

func TestNotebook_ToolOutputWithoutCodeCell(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steps.ipynb")
	nb := NewNotebook(path, render.New(render.Options{}), zerolog.Nop())

	require.NoError(t, nb.Record(model.ChatEvent{Role: model.RoleTool, Content: "orphan"}))

	cells := readNotebook(t, path)["cells"].([]any)
	require.Len(t, cells, 1)
	assert.Equal(t, "**tool**: orphan", cells[0].(map[string]any)["source"])
}

func TestNotebookExporter(t *testing.T) {
	out, err := NewNotebookExporter(nil).Export(NewTranscript(sampleConversation(t), ""))
	require.NoError(t, err)

	var nb map[string]any
	require.NoError(t, json.Unmarshal(out, &nb))
	cells := nb["cells"].([]any)

	// user, system, code (with the tool output attached), assistant
	require.Len(t, cells, 4)
	code := cells[2].(map[string]any)
	assert.Equal(t, "code", code["cell_type"])
	assert.Len(t, code["outputs"].([]any), 1)
}
