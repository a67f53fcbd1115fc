// Package document holds the text model that backs the editor.
//
// Positions follow the Language Server Protocol: lines are 0-based and
// columns count UTF-16 code units.
package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	lsp "github.com/sourcegraph/go-lsp"
)

// Document is an in-memory text document.
type Document struct {
	URI        lsp.DocumentURI
	LanguageID string
	Version    int

	text  string
	lines []int // byte offset of each line start
}

// New creates a document from text.
func New(uri lsp.DocumentURI, languageID, text string) *Document {
	d := &Document{URI: uri, LanguageID: languageID, Version: 1}
	d.setText(text)
	return d
}

// Load reads a document from disk. The language ID is derived from the
// file extension.
func Load(path string) (*Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return New(URIFromPath(abs), LanguageIDForPath(abs), string(data)), nil
}

// URIFromPath converts an absolute file path to a file:// URI.
func URIFromPath(path string) lsp.DocumentURI {
	return lsp.DocumentURI("file://" + filepath.ToSlash(path))
}

// Text returns the whole content.
func (d *Document) Text() string {
	return d.text
}

// SetText replaces the content and bumps the version.
func (d *Document) SetText(text string) {
	d.setText(text)
	d.Version++
}

func (d *Document) setText(text string) {
	d.text = text
	d.lines = d.lines[:0]
	d.lines = append(d.lines, 0)
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			d.lines = append(d.lines, i+1)
		}
	}
}

// LineCount returns the number of lines. A trailing newline starts an
// empty last line.
func (d *Document) LineCount() int {
	return len(d.lines)
}

// Line returns the content of line n without its line terminator.
func (d *Document) Line(n int) string {
	if n < 0 || n >= len(d.lines) {
		return ""
	}
	start, end := d.lineBounds(n)
	return d.text[start:end]
}

// lineBounds returns the byte range of line n, excluding "\n" and a
// preceding "\r".
func (d *Document) lineBounds(n int) (int, int) {
	start := d.lines[n]
	end := len(d.text)
	if n+1 < len(d.lines) {
		end = d.lines[n+1] - 1
	}
	if end > start && d.text[end-1] == '\r' {
		end--
	}
	return start, end
}

// Offset converts a position to a byte offset. Positions past the end of a
// line clamp to the line end; lines past the end of the document clamp to
// the document end.
func (d *Document) Offset(pos lsp.Position) int {
	if pos.Line < 0 {
		return 0
	}
	if pos.Line >= len(d.lines) {
		return len(d.text)
	}
	start, end := d.lineBounds(pos.Line)
	return start + utf16ToByteOffset(d.text[start:end], pos.Character)
}

// Position converts a byte offset to a position.
func (d *Document) Position(offset int) lsp.Position {
	if offset <= 0 {
		return lsp.Position{}
	}
	if offset > len(d.text) {
		offset = len(d.text)
	}
	line := 0
	for line+1 < len(d.lines) && d.lines[line+1] <= offset {
		line++
	}
	start, end := d.lineBounds(line)
	if offset > end {
		offset = end
	}
	return lsp.Position{Line: line, Character: utf16Len(d.text[start:offset])}
}

// TextRange returns the text spanned by r. A reversed range is normalized.
func (d *Document) TextRange(r lsp.Range) string {
	start, end := d.Offset(r.Start), d.Offset(r.End)
	if end < start {
		start, end = end, start
	}
	return d.text[start:end]
}

// LanguageIDForPath maps a file extension to an LSP language identifier.
func LanguageIDForPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if id, ok := languageIDs[ext]; ok {
		return id
	}
	return "plaintext"
}

var languageIDs = map[string]string{
	".c":    "c",
	".cc":   "cpp",
	".cpp":  "cpp",
	".css":  "css",
	".go":   "go",
	".h":    "c",
	".hpp":  "cpp",
	".html": "html",
	".java": "java",
	".js":   "javascript",
	".json": "json",
	".jsx":  "javascriptreact",
	".lua":  "lua",
	".md":   "markdown",
	".py":   "python",
	".qml":  "qml",
	".rb":   "ruby",
	".rs":   "rust",
	".sh":   "shellscript",
	".ts":   "typescript",
	".tsx":  "typescriptreact",
	".yaml": "yaml",
	".yml":  "yaml",
	".elv":  "elvish",
}

// utf16ToByteOffset converts a UTF-16 column within line to a byte offset.
func utf16ToByteOffset(line string, col int) int {
	if col <= 0 {
		return 0
	}
	units := 0
	for i, r := range line {
		if units >= col {
			return i
		}
		units += utf16.RuneLen(r)
	}
	return len(line)
}

func utf16Len(s string) int {
	n := 0
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}
