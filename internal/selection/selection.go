// Package selection flattens selection range chains into pickable items.
package selection

import (
	"regexp"

	lsp "github.com/sourcegraph/go-lsp"

	"github.com/runger/smartpick/internal/langserver"
)

// MaxDepth caps how many links Flatten follows. Real chains are bounded by
// document nesting depth and stay far below this.
const MaxDepth = 4096

// Item is one candidate selection.
type Item struct {
	Range       lsp.Range
	DisplayText string
}

// TextSource extracts the current text of a range.
type TextSource interface {
	Text(r lsp.Range) string
}

// Flatten walks chain from innermost to outermost and returns one item per
// link. Display text is read from src at call time. A nil chain yields an
// empty slice; a cyclic chain stops at the first revisited link.
func Flatten(chain *langserver.SelectionRange, src TextSource) []Item {
	items := []Item{}
	seen := make(map[*langserver.SelectionRange]struct{})
	for n := chain; n != nil && len(items) < MaxDepth; n = n.Parent {
		if _, ok := seen[n]; ok {
			break
		}
		seen[n] = struct{}{}
		items = append(items, Item{
			Range:       n.Range,
			DisplayText: CollapseWhitespace(src.Text(n.Range)),
		})
	}
	return items
}

// RE2's \s is ASCII only; the class adds vertical tab, the Unicode space
// separators (NBSP, U+3000 and friends), BOM and the line/paragraph separators.
var whitespaceRE = regexp.MustCompile(`[\s\v\p{Zs}\x{FEFF}\x{2028}\x{2029}]+`)

// CollapseWhitespace replaces every run of whitespace with a single space.
// Leading and trailing runs are collapsed too, not trimmed.
func CollapseWhitespace(s string) string {
	return whitespaceRE.ReplaceAllString(s, " ")
}
