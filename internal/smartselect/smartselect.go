// Package smartselect wires the pick command: it asks a provider for the
// selection range chain at the cursor and opens the picker over it.
package smartselect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	lsp "github.com/sourcegraph/go-lsp"

	"github.com/runger/smartpick/internal/editor"
	"github.com/runger/smartpick/internal/langserver"
	"github.com/runger/smartpick/internal/picker"
	"github.com/runger/smartpick/internal/selection"
)

// PickCommandID is the name the pick command is registered under.
const PickCommandID = "smart-select-picker.pick"

// OpenFunc opens a picker session. picker.Open and (*picker.Guard).Open
// both fit once a UI is bound.
type OpenFunc func(ctx context.Context, ed editor.Editor, items []selection.Item) (*picker.Session, error)

// Pick is the pick command.
type Pick struct {
	// ActiveEditor returns the focused editor or nil.
	ActiveEditor func() editor.Editor
	Provider     langserver.Provider
	Open         OpenFunc
	Logger       *slog.Logger
}

// Run executes the command. It returns a nil session without error when
// there is nothing to pick from: no editor, no ranges, or a picker already
// open. Provider errors are returned as is.
func (p *Pick) Run(ctx context.Context) (*picker.Session, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if p.ActiveEditor == nil {
		return nil, nil
	}
	ed := p.ActiveEditor()
	if ed == nil {
		logger.Debug("no active editor")
		return nil, nil
	}

	doc := ed.Document()
	cursor := ed.Selection().Active
	chains, err := p.Provider.SelectionRanges(ctx, doc, []lsp.Position{cursor})
	if err != nil {
		return nil, fmt.Errorf("failed to get selection ranges: %w", err)
	}
	if len(chains) == 0 {
		logger.Debug("no selection ranges", "uri", doc.URI, "line", cursor.Line, "character", cursor.Character)
		return nil, nil
	}

	items := selection.Flatten(&chains[0], ed)
	if len(items) == 0 {
		return nil, nil
	}
	logger.Debug("selection ranges collected", "uri", doc.URI, "items", len(items))

	s, err := p.Open(ctx, ed, items)
	if errors.Is(err, picker.ErrSessionActive) {
		logger.Debug("picker already open; ignoring trigger")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Command is anything the registry can execute.
type Command interface {
	Run(ctx context.Context) (*picker.Session, error)
}

// Registry maps command IDs to commands. It is built once at startup.
type Registry struct {
	commands map[string]Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds cmd under id. Registering an ID twice is an error.
func (r *Registry) Register(id string, cmd Command) error {
	if _, ok := r.commands[id]; ok {
		return fmt.Errorf("command %q already registered", id)
	}
	r.commands[id] = cmd
	return nil
}

// Execute runs the command registered under id.
func (r *Registry) Execute(ctx context.Context, id string) (*picker.Session, error) {
	cmd, ok := r.commands[id]
	if !ok {
		return nil, fmt.Errorf("command %q not found", id)
	}
	return cmd.Run(ctx)
}
