package selection

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	lsp "github.com/sourcegraph/go-lsp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/smartpick/internal/document"
	"github.com/runger/smartpick/internal/langserver"
)

func rng(sl, sc, el, ec int) lsp.Range {
	return lsp.Range{
		Start: lsp.Position{Line: sl, Character: sc},
		End:   lsp.Position{Line: el, Character: ec},
	}
}

// chain builds a chain whose first element is the innermost range.
func chain(ranges ...lsp.Range) *langserver.SelectionRange {
	var parent *langserver.SelectionRange
	for i := len(ranges) - 1; i >= 0; i-- {
		parent = &langserver.SelectionRange{Range: ranges[i], Parent: parent}
	}
	return parent
}

const source = "func f() {\n\treturn a + b\n}\n"

func TestFlatten_InnermostFirst(t *testing.T) {
	doc := document.New("file:///f.go", "go", source)
	ranges := []lsp.Range{
		rng(1, 8, 1, 9),  // a
		rng(1, 8, 1, 13), // a + b
		rng(1, 1, 1, 13), // return a + b
		rng(0, 10, 2, 0), // block body
		rng(0, 0, 2, 1),  // func
		rng(0, 0, 3, 0),  // document
	}
	got := Flatten(chain(ranges...), liveSource{doc})

	want := []Item{
		{Range: ranges[0], DisplayText: "a"},
		{Range: ranges[1], DisplayText: "a + b"},
		{Range: ranges[2], DisplayText: "return a + b"},
		{Range: ranges[3], DisplayText: " return a + b "},
		{Range: ranges[4], DisplayText: "func f() { return a + b }"},
		{Range: ranges[5], DisplayText: "func f() { return a + b } "},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Flatten() mismatch (-want +got):\n%s", diff)
	}
}

func TestFlatten_SingleNode(t *testing.T) {
	doc := document.New("file:///f.go", "go", source)
	got := Flatten(chain(rng(0, 0, 0, 4)), liveSource{doc})
	require.Len(t, got, 1)
	assert.Equal(t, "func", got[0].DisplayText)
}

func TestFlatten_NilChain(t *testing.T) {
	got := Flatten(nil, liveSource{document.New("file:///f.go", "go", source)})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFlatten_KeepsDuplicates(t *testing.T) {
	doc := document.New("file:///f.go", "go", source)
	got := Flatten(chain(rng(0, 0, 0, 4), rng(0, 0, 0, 4), rng(0, 0, 0, 8)), liveSource{doc})
	require.Len(t, got, 3)
	assert.Equal(t, got[0], got[1])
}

func TestFlatten_CyclicChainTerminates(t *testing.T) {
	doc := document.New("file:///f.go", "go", source)
	inner := &langserver.SelectionRange{Range: rng(0, 0, 0, 4)}
	outer := &langserver.SelectionRange{Range: rng(0, 0, 0, 8), Parent: inner}
	inner.Parent = outer

	got := Flatten(inner, liveSource{doc})
	require.Len(t, got, 2)
	assert.Equal(t, "func", got[0].DisplayText)
	assert.Equal(t, "func f()", got[1].DisplayText)
}

func TestFlatten_DepthCap(t *testing.T) {
	doc := document.New("file:///f.go", "go", source)
	ranges := make([]lsp.Range, MaxDepth+10)
	for i := range ranges {
		ranges[i] = rng(0, 0, 0, 1)
	}
	assert.Len(t, Flatten(chain(ranges...), liveSource{doc}), MaxDepth)
}

// liveSource returns whatever text the document holds when asked.
type liveSource struct{ doc *document.Document }

func (s liveSource) Text(r lsp.Range) string { return s.doc.TextRange(r) }

func TestFlatten_ReadsCurrentText(t *testing.T) {
	doc := document.New("file:///f.go", "go", "old text")
	c := chain(rng(0, 0, 0, 3))
	doc.SetText("new text")
	got := Flatten(c, liveSource{doc})
	assert.Equal(t, "new", got[0].DisplayText)
}

func TestCollapseWhitespace(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"foo\n\tbar  baz", "foo bar baz"},
		{"single", "single"},
		{"  lead and trail\n", " lead and trail "},
		{"a\r\n\r\nb", "a b"},
		{"", ""},
		{"a\v\vb", "a b"},
		{"a\f b", "a b"},
		{"a\u00a0\u00a0b", "a b"},
		{"a\u3000b", "a b"},
		{"a\u2003\u200ab", "a b"},
		{"a\u2028\u2029b", "a b"},
		{"\ufeffa", " a"},
		{"a\u1680b", "a b"},
		{"a\u200bb", "a\u200bb"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CollapseWhitespace(tt.in), "input %q", tt.in)
	}
}
