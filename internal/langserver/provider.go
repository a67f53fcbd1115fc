// Package langserver supplies selection range chains, either from a language
// server over LSP or from a chain an editor integration already computed.
package langserver

import (
	"context"
	"errors"

	lsp "github.com/sourcegraph/go-lsp"

	"github.com/runger/smartpick/internal/document"
)

var (
	// ErrNoServer is returned when no language server command is available.
	ErrNoServer = errors.New("no language server configured")

	// ErrServerClosed is returned for requests on a closed client.
	ErrServerClosed = errors.New("language server connection closed")
)

// Provider is the interface for sources of selection ranges.
type Provider interface {
	// SelectionRanges returns one chain per requested position, innermost
	// range first. An empty result is not an error.
	SelectionRanges(ctx context.Context, doc *document.Document, positions []lsp.Position) ([]SelectionRange, error)
}
