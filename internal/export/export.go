// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/stepchat/internal/model"
	"github.com/jeranaias/stepchat/internal/render"
	"github.com/jeranaias/stepchat/internal/util"
)

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is a snapshot of a conversation ready for export.
type Transcript struct {
	Title     string                 `json:"title"`
	Backend   string                 `json:"backend,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	Messages  []model.DisplayMessage `json:"messages"`
}

// NewTranscript snapshots conv. The title defaults to the first line of the
// first user message.
func NewTranscript(conv *model.Conversation, backend string) *Transcript {
	if conv == nil {
		return nil
	}
	msgs := conv.Messages()
	return &Transcript{
		Title:     titleFor(msgs),
		Backend:   backend,
		CreatedAt: conv.CreatedAt(),
		Messages:  msgs,
	}
}

func titleFor(msgs []model.DisplayMessage) string {
	for _, m := range msgs {
		if m.Role == model.RoleUser && m.Source != "" {
			return util.TruncateRunes(util.FirstLine(m.Source), 60)
		}
	}
	return "Conversation"
}

func (t *Transcript) validate() error {
	if t == nil {
		return fmt.Errorf("transcript is nil")
	}
	if len(t.Messages) == 0 {
		return fmt.Errorf("transcript has no messages")
	}
	if t.CreatedAt.IsZero() {
		return fmt.Errorf("transcript has invalid creation timestamp")
	}
	return nil
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter converts a transcript to one file format.
type Exporter interface {
	// Export converts a transcript to the target format and returns the content.
	Export(tr *Transcript) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".md", ".html").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is the directory where files will be saved.
	// Default: current working directory
	OutputDir string

	// OpenAfterExport opens the file in the default application.
	OpenAfterExport bool

	// IncludeMetadata includes a metadata header (backend, dates, counts).
	IncludeMetadata bool

	// IncludeTimestamps includes per-message timestamps.
	IncludeTimestamps bool

	// Theme for HTML export ("light" or "dark").
	// Default: "dark"
	Theme string

	// Render configures how HTML and notebook exports re-render messages
	// and recognise interpreter calls. Format is forced per exporter.
	Render render.Options

	Logger zerolog.Logger
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeMetadata:   true,
		IncludeTimestamps: true,
		Theme:             "dark",
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// Formats lists the names accepted by ExporterFor.
var Formats = []string{"html", "md", "json", "ipynb"}

// ExporterFor returns the exporter for a format name.
func ExporterFor(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "markdown", "md":
		return NewMarkdownExporter(opts), nil
	case "html", "htm":
		return NewHTMLExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	case "ipynb", "notebook":
		return NewNotebookExporter(opts), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

// ExportToFile exports a transcript using exporter and writes it atomically
// under opts.OutputDir. Returns the output file path.
func ExportToFile(tr *Transcript, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(tr)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("stepchat_%s_%s%s",
		sanitizeFilename(tr.Title),
		timestamp,
		exporter.FileExtension(),
	)

	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	outputPath := filepath.Join(dir, filename)
	if err := util.AtomicWriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	if opts.OpenAfterExport {
		if err := openFile(outputPath); err != nil {
			// The file was still written.
			opts.Logger.Warn().Err(err).Str("path", outputPath).Msg("could not open export")
		}
	}

	return outputPath, nil
}

// ExportConversation snapshots conv and exports it in the named format.
func ExportConversation(conv *model.Conversation, backend, format string, opts *Options) (string, error) {
	tr := NewTranscript(conv, backend)
	if tr == nil {
		return "", fmt.Errorf("conversation is nil")
	}
	exporter, err := ExporterFor(format, opts)
	if err != nil {
		return "", err
	}
	return ExportToFile(tr, exporter, opts)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	maxLen := 50
	runes := []rune(s)
	if len(runes) > maxLen {
		s = string(runes[:maxLen])
	}

	// Replace problematic characters (Windows and Unix)
	replacer := map[rune]rune{
		'/':  '-',
		'\\': '-',
		':':  '-',
		'*':  '-',
		'?':  '-',
		'"':  '-',
		'<':  '-',
		'>':  '-',
		'|':  '-',
		' ':  '_',
		'\t': '_',
		'\n': '_',
		'\r': '_',
	}

	result := []rune{}
	for _, r := range s {
		if replacement, found := replacer[r]; found {
			result = append(result, replacement)
		} else if r < 32 || r == 127 {
			result = append(result, '-')
		} else {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "conversation"
	}

	return string(result)
}

// openFile opens a file in the default application for the OS.
func openFile(path string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", `""`, path)
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux":
		cmd = exec.Command("xdg-open", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

// roleLabel returns the bracketed label used by the text exporters.
func roleLabel(role model.Role) string {
	if role == "" {
		return "Unknown"
	}
	return "[" + role.DisplayName() + "]"
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// formatShortTimestamp formats a timestamp for inline display.
func formatShortTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}
