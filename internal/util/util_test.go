// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"testing"
)

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFile_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exports", "deep", "steps.ipynb")

	if err := AtomicWriteFile(path, []byte("{}"), 0644); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(content) != "{}" {
		t.Errorf("Content mismatch: got %q", content)
	}
}

func TestAtomicWriteFile_OverwritesAndLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "transcript.md")

	if err := AtomicWriteFile(path, []byte("first"), 0644); err != nil {
		t.Fatalf("First write failed: %v", err)
	}
	if err := AtomicWriteFile(path, []byte("second"), 0600); err != nil {
		t.Fatalf("Second write failed: %v", err)
	}

	content, _ := os.ReadFile(path)
	if string(content) != "second" {
		t.Errorf("Expected overwritten content, got %q", content)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the target file, found %d entries", len(entries))
	}
}

// =============================================================================
// STRING TESTS
// =============================================================================

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"hello", 3, "hel"},
		{"hello", 0, ""},
		{"日本語のテキスト", 5, "日本..."},
	}

	for _, tt := range tests {
		if got := TruncateRunes(tt.in, tt.max); got != tt.want {
			t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestTruncateWidth_WideCharacters(t *testing.T) {
	// Each CJK character is two columns wide.
	got := TruncateWidth("日本語テキスト", 7)
	if StringWidth(got) > 7 {
		t.Errorf("TruncateWidth exceeded width: %q is %d columns", got, StringWidth(got))
	}
	if TruncateWidth("short", 10) != "short" {
		t.Error("TruncateWidth should not touch strings that fit")
	}
}

func TestFirstLine(t *testing.T) {
	if got := FirstLine("  first\nsecond\n"); got != "first" {
		t.Errorf("FirstLine = %q", got)
	}
	if got := FirstLine("only"); got != "only" {
		t.Errorf("FirstLine = %q", got)
	}
}

func TestNormalizeInput(t *testing.T) {
	// "e" followed by a combining acute accent composes to a single rune.
	decomposed := "café"
	if got := NormalizeInput(decomposed); got != "café" {
		t.Errorf("NormalizeInput did not compose: %q", got)
	}

	if got := NormalizeInput("  hi\x00 there\x07\n"); got != "hi there" {
		t.Errorf("NormalizeInput did not strip controls: %q", got)
	}

	if got := NormalizeInput("line one\nline two"); got != "line one\nline two" {
		t.Errorf("NormalizeInput should keep newlines: %q", got)
	}
}
