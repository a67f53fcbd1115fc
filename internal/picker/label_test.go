package picker

import (
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
)

func TestLabel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "return a + b", "return a + b"},
		{"sgr", "x := \x1b[31m1\x1b[0m", "x := 1"},
		{"osc hyperlink", "\x1b]8;;https://example.com\x07link\x1b]8;;\x07", "link"},
		{"charset", "\x1b(Bhi", "hi"},
		{"line breaks", "if ok {\n\treturn\n}", "if ok {  return }"},
		{"control chars", "a\x00b\x7fc", "a b c"},
		{"invalid utf8", "a\xffb", "a�b"},
		{"invalid run", "\x80\x81ok", "�ok"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Label(tt.input))
		})
	}
}

func TestFitLabel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		width int
		want  string
	}{
		{"fits exactly", "abcde", 5, "abcde"},
		{"fits with room", "abc", 10, "abc"},
		{"keeps both ends", "abcdefghij", 7, "abc…hij"},
		{"odd room favours head", "abcdefghij", 6, "abc…ij"},
		{"width 3", "abcdef", 3, "a…f"},
		{"width 2", "abcdef", 2, "ab"},
		{"width 0", "abcdef", 0, ""},
		{"empty", "", 5, ""},
		{"range text", "func f() {  return x }", 13, "func f…rn x }"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fitLabel(tt.input, tt.width))
		})
	}
}

func TestFitLabel_Wide(t *testing.T) {
	// Each of these is two cells wide; a cluster is never split and the
	// result never exceeds the width.
	tests := []struct {
		input string
		width int
		want  string
	}{
		{"你好世界", 7, "你…界"},
		{"你好世界", 8, "你好世界"},
		{"你好", 5, "你好"},
		{"\U0001f600 hi there", 6, "\U0001f600 …re"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := fitLabel(tt.input, tt.width)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, runewidth.StringWidth(got), tt.width)
		})
	}
}

func TestExpandTabs(t *testing.T) {
	assert.Equal(t, "    x", expandTabs("\tx"))
	assert.Equal(t, "no tabs", expandTabs("no tabs"))
	assert.Equal(t, "        ", expandTabs("\t\t"))
}

func TestFitWidth(t *testing.T) {
	assert.Equal(t, "abc", fitWidth("abc", 5))
	assert.Equal(t, "ab", fitWidth("abc", 2))
	assert.Equal(t, "", fitWidth("abc", -1))
	assert.Equal(t, "你", fitWidth("你好", 3))
}
