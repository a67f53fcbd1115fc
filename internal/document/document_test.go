package document

import (
	"os"
	"path/filepath"
	"testing"

	lsp "github.com/sourcegraph/go-lsp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pos(line, char int) lsp.Position {
	return lsp.Position{Line: line, Character: char}
}

func TestNew_LineIndex(t *testing.T) {
	d := New("file:///x.go", "go", "package x\n\nfunc f() {}\n")
	assert.Equal(t, 4, d.LineCount())
	assert.Equal(t, "package x", d.Line(0))
	assert.Equal(t, "", d.Line(1))
	assert.Equal(t, "func f() {}", d.Line(2))
	assert.Equal(t, "", d.Line(3))
	assert.Equal(t, "", d.Line(10))
}

func TestLine_StripsCarriageReturn(t *testing.T) {
	d := New("file:///x.txt", "plaintext", "a\r\nb")
	assert.Equal(t, "a", d.Line(0))
	assert.Equal(t, "b", d.Line(1))
}

func TestOffset_Clamps(t *testing.T) {
	d := New("file:///x.txt", "plaintext", "abc\nde")
	assert.Equal(t, 0, d.Offset(pos(0, 0)))
	assert.Equal(t, 2, d.Offset(pos(0, 2)))
	assert.Equal(t, 3, d.Offset(pos(0, 99)), "column past line end clamps to line end")
	assert.Equal(t, 5, d.Offset(pos(1, 1)))
	assert.Equal(t, 6, d.Offset(pos(7, 0)), "line past end clamps to document end")
	assert.Equal(t, 0, d.Offset(pos(-1, 3)))
}

func TestOffset_UTF16Columns(t *testing.T) {
	// "é" is one UTF-16 unit and two bytes; "😀" is two units and four bytes.
	d := New("file:///x.txt", "plaintext", "é😀x")
	assert.Equal(t, 2, d.Offset(pos(0, 1)))
	assert.Equal(t, 6, d.Offset(pos(0, 3)))
	assert.Equal(t, 7, d.Offset(pos(0, 4)))
}

func TestPosition_RoundTrip(t *testing.T) {
	d := New("file:///x.txt", "plaintext", "é😀x\nsecond")
	for _, p := range []lsp.Position{pos(0, 0), pos(0, 1), pos(0, 3), pos(0, 4), pos(1, 0), pos(1, 6)} {
		assert.Equal(t, p, d.Position(d.Offset(p)))
	}
	assert.Equal(t, pos(1, 6), d.Position(1000))
	assert.Equal(t, pos(0, 0), d.Position(-4))
}

func TestTextRange(t *testing.T) {
	d := New("file:///x.go", "go", "foo\n\tbar  baz")
	assert.Equal(t, "foo\n\tbar  baz", d.TextRange(lsp.Range{Start: pos(0, 0), End: pos(1, 9)}))
	assert.Equal(t, "bar", d.TextRange(lsp.Range{Start: pos(1, 1), End: pos(1, 4)}))
	assert.Equal(t, "bar", d.TextRange(lsp.Range{Start: pos(1, 4), End: pos(1, 1)}), "reversed range is normalized")
}

func TestSetText_BumpsVersion(t *testing.T) {
	d := New("file:///x.txt", "plaintext", "one")
	require.Equal(t, 1, d.Version)
	d.SetText("one\ntwo")
	assert.Equal(t, 2, d.Version)
	assert.Equal(t, "two", d.Line(1))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n"), 0o600))

	d, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "go", d.LanguageID)
	assert.Equal(t, URIFromPath(path), d.URI)
	assert.Equal(t, "package main\n", d.Text())
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.go"))
	assert.Error(t, err)
}

func TestLanguageIDForPath(t *testing.T) {
	assert.Equal(t, "go", LanguageIDForPath("/a/b.go"))
	assert.Equal(t, "typescript", LanguageIDForPath("x.TS"))
	assert.Equal(t, "plaintext", LanguageIDForPath("README"))
}
