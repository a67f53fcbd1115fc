package picker

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// ellipsis joins the kept head and tail of a label that is too wide.
const ellipsis = "…"

// tabWidth is the number of columns a tab expands to in the preview.
const tabWidth = 4

// Label makes range text safe to print on one row. Source files can carry
// escape sequences and broken encodings, and neither may reach the terminal.
func Label(s string) string {
	s = ansi.Strip(strings.ToValidUTF8(s, "\uFFFD"))
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return ' '
		}
		return r
	}, s)
}

// fitLabel cuts a label to width cells by dropping its middle. Both ends of
// a range (say "func f() {" and "}") say more than the body does.
func fitLabel(s string, width int) string {
	if width <= 0 {
		return ""
	}
	sw := ansi.StringWidth(s)
	if sw <= width {
		return s
	}
	if width < 3 {
		return ansi.Truncate(s, width, "")
	}

	room := width - ansi.StringWidth(ellipsis)
	headW, tailW := (room+1)/2, room/2
	head := ansi.Truncate(s, headW, "")

	// TruncateLeft keeps a wide cluster that straddles the cut, so drop
	// one more cell until the tail fits.
	cut := sw - tailW
	tail := ansi.TruncateLeft(s, cut, "")
	for ansi.StringWidth(tail) > tailW {
		cut++
		tail = ansi.TruncateLeft(s, cut, "")
	}
	return head + ellipsis + tail
}

// expandTabs replaces tabs with spaces so preview columns line up.
func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

// fitWidth returns the longest prefix of s that fits in width columns.
// Preview segments are cut rune by rune so the highlighted span starts
// exactly where the selection does.
func fitWidth(s string, width int) string {
	w := 0
	for i, r := range s {
		w += runewidth.RuneWidth(r)
		if w > width {
			return s[:i]
		}
	}
	return s
}
