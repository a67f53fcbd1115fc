package editor

import (
	"context"
	"testing"

	lsp "github.com/sourcegraph/go-lsp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/smartpick/internal/document"
)

func pos(line, char int) lsp.Position {
	return lsp.Position{Line: line, Character: char}
}

func newTestBuffer() *Buffer {
	doc := document.New("file:///x.go", "go", "func f() {\n\treturn 1\n}\n")
	return NewBuffer(doc, Cursor(pos(1, 8)))
}

func TestSelection_Range(t *testing.T) {
	forward := Selection{Anchor: pos(0, 1), Active: pos(1, 0)}
	backward := Selection{Anchor: pos(1, 0), Active: pos(0, 1)}
	want := lsp.Range{Start: pos(0, 1), End: pos(1, 0)}
	assert.Equal(t, want, forward.Range())
	assert.Equal(t, want, backward.Range())
	assert.False(t, forward.Equal(backward))
	assert.Equal(t, "0:1-1:0", forward.String())
}

func TestFromRange(t *testing.T) {
	r := lsp.Range{Start: pos(1, 1), End: pos(1, 9)}
	sel := FromRange(r)
	assert.Equal(t, pos(1, 1), sel.Anchor)
	assert.Equal(t, pos(1, 9), sel.Active)
}

func TestBuffer_SetAndSoftUndo(t *testing.T) {
	ctx := context.Background()
	b := newTestBuffer()
	initial := b.Selection()

	a := FromRange(lsp.Range{Start: pos(1, 8), End: pos(1, 9)})
	c := FromRange(lsp.Range{Start: pos(1, 1), End: pos(1, 9)})

	require.NoError(t, b.SetSelection(ctx, a))
	require.NoError(t, b.SetSelection(ctx, c))
	assert.Equal(t, 2, b.HistoryLen())

	require.NoError(t, b.SoftUndo(ctx))
	assert.Equal(t, a, b.Selection())
	require.NoError(t, b.SoftUndo(ctx))
	assert.Equal(t, initial, b.Selection())

	// Empty history is a no-op.
	require.NoError(t, b.SoftUndo(ctx))
	assert.Equal(t, initial, b.Selection())
}

func TestBuffer_SetSameSelectionIsNoop(t *testing.T) {
	b := newTestBuffer()
	require.NoError(t, b.SetSelection(context.Background(), b.Selection()))
	assert.Equal(t, 0, b.HistoryLen())
}

func TestBuffer_SoftUndoLeavesContent(t *testing.T) {
	ctx := context.Background()
	b := newTestBuffer()
	before := b.Document().Text()
	require.NoError(t, b.SetSelection(ctx, Cursor(pos(0, 0))))
	require.NoError(t, b.SoftUndo(ctx))
	assert.Equal(t, before, b.Document().Text())
}

func TestBuffer_Listeners(t *testing.T) {
	ctx := context.Background()
	b := newTestBuffer()
	var seen []Selection
	b.OnSelectionChange(func(s Selection) { seen = append(seen, s) })

	next := Cursor(pos(0, 0))
	require.NoError(t, b.SetSelection(ctx, next))
	require.NoError(t, b.SetSelection(ctx, next))
	require.NoError(t, b.SoftUndo(ctx))

	require.Len(t, seen, 2)
	assert.Equal(t, next, seen[0])
	assert.Equal(t, Cursor(pos(1, 8)), seen[1])
}

func TestBuffer_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := newTestBuffer()
	assert.ErrorIs(t, b.SetSelection(ctx, Cursor(pos(0, 0))), context.Canceled)
	assert.ErrorIs(t, b.SoftUndo(ctx), context.Canceled)
	assert.Equal(t, 0, b.HistoryLen())
}

func TestBuffer_Text(t *testing.T) {
	b := newTestBuffer()
	assert.Equal(t, "return 1", b.Text(lsp.Range{Start: pos(1, 1), End: pos(1, 9)}))
}
