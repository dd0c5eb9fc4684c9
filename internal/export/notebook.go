// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jeranaias/stepchat/internal/model"
	"github.com/jeranaias/stepchat/internal/render"
	"github.com/jeranaias/stepchat/internal/util"
)

// =============================================================================
// NOTEBOOK DOCUMENT (nbformat v4)
// =============================================================================

type notebookDoc struct {
	Cells         []*notebookCell  `json:"cells"`
	Metadata      notebookMetadata `json:"metadata"`
	NBFormat      int              `json:"nbformat"`
	NBFormatMinor int              `json:"nbformat_minor"`
}

type notebookMetadata struct {
	KernelSpec   map[string]string `json:"kernelspec,omitempty"`
	LanguageInfo map[string]string `json:"language_info,omitempty"`
}

type notebookCell struct {
	CellType       string
	ID             string
	Metadata       map[string]any
	Source         string
	ExecutionCount *int
	Outputs        []*notebookOutput
}

type cellHeader struct {
	CellType string         `json:"cell_type"`
	ID       string         `json:"id"`
	Metadata map[string]any `json:"metadata"`
	Source   string         `json:"source"`
}

// MarshalJSON writes execution_count and outputs on code cells only; the
// schema requires both there (null and [] when empty) and forbids them on
// markdown cells.
func (c *notebookCell) MarshalJSON() ([]byte, error) {
	header := cellHeader{CellType: c.CellType, ID: c.ID, Metadata: c.Metadata, Source: c.Source}
	if c.CellType != "code" {
		return json.Marshal(header)
	}
	outputs := c.Outputs
	if outputs == nil {
		outputs = []*notebookOutput{}
	}
	return json.Marshal(struct {
		cellHeader
		ExecutionCount *int              `json:"execution_count"`
		Outputs        []*notebookOutput `json:"outputs"`
	}{header, c.ExecutionCount, outputs})
}

type notebookOutput struct {
	OutputType     string            `json:"output_type"`
	ExecutionCount int               `json:"execution_count"`
	Data           map[string]string `json:"data"`
	Metadata       map[string]any    `json:"metadata"`
}

// notebookBuilder accumulates cells the way steps arrive: content becomes a
// markdown cell, interpreter code a code cell, tool output an execute_result.
type notebookBuilder struct {
	doc      notebookDoc
	language string
}

func newNotebookBuilder(language string) *notebookBuilder {
	if language == "" {
		language = render.DefaultLanguage
	}
	return &notebookBuilder{
		language: language,
		doc: notebookDoc{
			Cells: []*notebookCell{},
			Metadata: notebookMetadata{
				KernelSpec:   map[string]string{"name": language, "language": language, "display_name": language},
				LanguageInfo: map[string]string{"name": language},
			},
			NBFormat:      4,
			NBFormatMinor: 5,
		},
	}
}

func newCellID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func (b *notebookBuilder) addMarkdown(role model.Role, content string) {
	b.doc.Cells = append(b.doc.Cells, &notebookCell{
		CellType: "markdown",
		ID:       newCellID(),
		Metadata: map[string]any{},
		Source:   fmt.Sprintf("**%s**: %s", role, content),
	})
}

func (b *notebookBuilder) addCode(source string) {
	b.doc.Cells = append(b.doc.Cells, &notebookCell{
		CellType: "code",
		ID:       newCellID(),
		Metadata: map[string]any{},
		Source:   source,
		Outputs:  []*notebookOutput{},
	})
}

// addOutput attaches output to the most recent code cell. With no code cell
// yet, the output is kept as a markdown cell instead.
func (b *notebookBuilder) addOutput(output string) {
	output = strings.TrimSpace(output)
	for i := len(b.doc.Cells) - 1; i >= 0; i-- {
		cell := b.doc.Cells[i]
		if cell.CellType != "code" {
			continue
		}
		one := 1
		cell.ExecutionCount = &one
		cell.Outputs = append(cell.Outputs, &notebookOutput{
			OutputType:     "execute_result",
			ExecutionCount: 1,
			Data:           map[string]string{"text/plain": output},
			Metadata:       map[string]any{},
		})
		return
	}
	b.addMarkdown(model.RoleTool, output)
}

func (b *notebookBuilder) bytes() ([]byte, error) {
	data, err := json.MarshalIndent(b.doc, "", " ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// =============================================================================
// NOTEBOOK RECORDER
// =============================================================================

// Notebook records raw steps into a Jupyter notebook file, rewriting the
// file after every step.
type Notebook struct {
	mu       sync.Mutex
	path     string
	builder  *notebookBuilder
	renderer *render.Renderer
	log      zerolog.Logger
}

// NewNotebook creates a recorder writing to path. The renderer decides which
// tool calls are interpreter code; its output format is irrelevant.
func NewNotebook(path string, r *render.Renderer, log zerolog.Logger) *Notebook {
	return &Notebook{
		path:     path,
		builder:  newNotebookBuilder(r.Options().Language),
		renderer: r,
		log:      log,
	}
}

// Path returns the notebook file path.
func (n *Notebook) Path() string {
	return n.path
}

// Record adds ev to the notebook and rewrites the file.
func (n *Notebook) Record(ev model.ChatEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if ev.Content != "" && ev.Role != model.RoleTool {
		n.builder.addMarkdown(ev.Role, ev.Content)
	}

	switch ev.Role {
	case model.RoleAssistant:
		for _, code := range n.renderer.ExtractCode(ev.ToolCalls) {
			n.builder.addCode(code)
		}
	case model.RoleTool:
		n.builder.addOutput(ev.Content)
	}

	return n.write()
}

func (n *Notebook) write() error {
	data, err := n.builder.bytes()
	if err != nil {
		return fmt.Errorf("encode notebook: %w", err)
	}
	if err := util.AtomicWriteFile(n.path, data, 0644); err != nil {
		return fmt.Errorf("write notebook: %w", err)
	}
	n.log.Debug().Str("path", n.path).Int("cells", len(n.builder.doc.Cells)).Msg("notebook written")
	return nil
}

// =============================================================================
// NOTEBOOK EXPORTER
// =============================================================================

// NotebookExporter exports a transcript as a Jupyter notebook. Code messages
// become code cells, tool messages their outputs, and everything else
// markdown cells.
type NotebookExporter struct {
	options *Options
}

// NewNotebookExporter creates a new notebook exporter.
func NewNotebookExporter(opts *Options) *NotebookExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &NotebookExporter{options: opts}
}

// Export converts a transcript to nbformat v4 JSON.
func (e *NotebookExporter) Export(tr *Transcript) ([]byte, error) {
	if err := tr.validate(); err != nil {
		return nil, err
	}

	b := newNotebookBuilder(e.options.Render.Language)
	for _, msg := range tr.Messages {
		switch {
		case msg.Kind == model.KindCode:
			b.addCode(msg.Source)
		case msg.Role == model.RoleTool:
			b.addOutput(msg.Source)
		case msg.Source != "":
			b.addMarkdown(msg.Role, msg.Source)
		}
	}
	return b.bytes()
}

// FileExtension returns the file extension for notebooks.
func (e *NotebookExporter) FileExtension() string {
	return ".ipynb"
}

// MimeType returns the MIME type for notebooks.
func (e *NotebookExporter) MimeType() string {
	return "application/x-ipynb+json"
}
