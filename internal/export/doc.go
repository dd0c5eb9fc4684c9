// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes stepchat conversations to files.
//
// # Key Types
//
//   - Transcript: a snapshot of the conversation being exported
//   - Exporter: converts a transcript to one format
//   - Options: export configuration options
//   - Notebook: records raw steps into a Jupyter notebook as they arrive
//
// # Supported Formats
//
//   - HTML: standalone page, messages re-rendered as HTML
//   - Markdown: human-readable, code in fenced blocks
//   - JSON: the transcript with rendered content and sources
//   - ipynb: Jupyter notebook, interpreter code as code cells
//
// # Usage
//
//	path, err := export.ExportConversation(conv, backendURL, "html", opts)
//
// Recording a live notebook:
//
//	nb := export.NewNotebook("steps.ipynb", renderer, log)
//	tr.Subscribe(func(ev model.ChatEvent) { _ = nb.Record(ev) }, nil, nil)
package export
