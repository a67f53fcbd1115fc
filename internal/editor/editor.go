// Package editor provides the editor collaborator the picker drives: a live
// selection over a document plus a soft undo that reverts programmatic
// selection changes without touching content.
package editor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	lsp "github.com/sourcegraph/go-lsp"

	"github.com/runger/smartpick/internal/document"
)

// Selection is an editor selection. Anchor is where the selection started,
// Active is where the cursor is; Anchor may come after Active.
type Selection struct {
	Anchor lsp.Position
	Active lsp.Position
}

// Cursor returns an empty selection at p.
func Cursor(p lsp.Position) Selection {
	return Selection{Anchor: p, Active: p}
}

// FromRange returns a selection anchored at r.Start with the cursor at r.End.
func FromRange(r lsp.Range) Selection {
	return Selection{Anchor: r.Start, Active: r.End}
}

// Equal reports whether both ends match.
func (s Selection) Equal(o Selection) bool {
	return s.Anchor == o.Anchor && s.Active == o.Active
}

// Range returns the selection in document order.
func (s Selection) Range() lsp.Range {
	if comparePos(s.Active, s.Anchor) < 0 {
		return lsp.Range{Start: s.Active, End: s.Anchor}
	}
	return lsp.Range{Start: s.Anchor, End: s.Active}
}

func (s Selection) String() string {
	return fmt.Sprintf("%d:%d-%d:%d", s.Anchor.Line, s.Anchor.Character, s.Active.Line, s.Active.Character)
}

func comparePos(a, b lsp.Position) int {
	switch {
	case a.Line != b.Line:
		return a.Line - b.Line
	default:
		return a.Character - b.Character
	}
}

// Editor is what the picker needs from a host editor.
type Editor interface {
	Document() *document.Document
	Selection() Selection
	// SetSelection replaces the live selection.
	SetSelection(ctx context.Context, sel Selection) error
	// SoftUndo reverts the most recent programmatic selection change.
	SoftUndo(ctx context.Context) error
	// Text returns the current document text spanned by r.
	Text(r lsp.Range) string
}

// Buffer is an in-memory Editor with a selection history.
type Buffer struct {
	mu        sync.Mutex
	doc       *document.Document
	sel       Selection
	history   []Selection
	listeners []func(Selection)
	logger    *slog.Logger
}

// Option configures a Buffer.
type Option func(*Buffer)

// WithLogger sets the logger used for selection changes.
func WithLogger(l *slog.Logger) Option {
	return func(b *Buffer) { b.logger = l }
}

// NewBuffer creates an editor over doc with the given initial selection.
func NewBuffer(doc *document.Document, sel Selection, opts ...Option) *Buffer {
	b := &Buffer{doc: doc, sel: sel, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Document implements Editor.
func (b *Buffer) Document() *document.Document {
	return b.doc
}

// Selection implements Editor.
func (b *Buffer) Selection() Selection {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sel
}

// SetSelection implements Editor. Setting the current selection again is a
// no-op and leaves the history alone.
func (b *Buffer) SetSelection(ctx context.Context, sel Selection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	if b.sel.Equal(sel) {
		b.mu.Unlock()
		return nil
	}
	b.history = append(b.history, b.sel)
	b.sel = sel
	listeners := b.listeners
	b.mu.Unlock()

	b.logger.Debug("selection set", "selection", sel.String())
	notify(listeners, sel)
	return nil
}

// SoftUndo implements Editor. With no history it does nothing.
func (b *Buffer) SoftUndo(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	if len(b.history) == 0 {
		b.mu.Unlock()
		return nil
	}
	last := len(b.history) - 1
	b.sel = b.history[last]
	b.history = b.history[:last]
	sel := b.sel
	listeners := b.listeners
	b.mu.Unlock()

	b.logger.Debug("selection undone", "selection", sel.String())
	notify(listeners, sel)
	return nil
}

// Text implements Editor.
func (b *Buffer) Text(r lsp.Range) string {
	return b.doc.TextRange(r)
}

// HistoryLen returns the depth of the selection history.
func (b *Buffer) HistoryLen() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.history)
}

// OnSelectionChange registers fn to be called after every selection change.
func (b *Buffer) OnSelectionChange(fn func(Selection)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, fn)
}

func notify(listeners []func(Selection), sel Selection) {
	for _, fn := range listeners {
		fn(sel)
	}
}
