package langserver

import (
	"encoding/json"

	lsp "github.com/sourcegraph/go-lsp"
)

// Protocol pieces that go-lsp predates (LSP 3.15+).

// SelectionRange is one link of a selection range chain. Parent, when
// present, contains Range.
type SelectionRange struct {
	Range  lsp.Range       `json:"range"`
	Parent *SelectionRange `json:"parent,omitempty"`
}

// SelectionRangeParams are the parameters of textDocument/selectionRange.
type SelectionRangeParams struct {
	TextDocument lsp.TextDocumentIdentifier `json:"textDocument"`
	Positions    []lsp.Position             `json:"positions"`
}

// SelectionRangeClientCapabilities advertises selection range support.
type SelectionRangeClientCapabilities struct {
	DynamicRegistration bool `json:"dynamicRegistration,omitempty"`
}

type textDocumentClientCapabilities struct {
	SelectionRange  *SelectionRangeClientCapabilities `json:"selectionRange,omitempty"`
	Synchronization *struct {
		DidSave bool `json:"didSave,omitempty"`
	} `json:"synchronization,omitempty"`
}

type clientCapabilities struct {
	TextDocument textDocumentClientCapabilities `json:"textDocument"`
}

type clientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

type initializeParams struct {
	ProcessID    int                `json:"processId"`
	RootURI      lsp.DocumentURI    `json:"rootUri,omitempty"`
	ClientInfo   clientInfo         `json:"clientInfo"`
	Capabilities clientCapabilities `json:"capabilities"`
}

type serverCapabilities struct {
	SelectionRangeProvider json.RawMessage `json:"selectionRangeProvider,omitempty"`
}

type initializeResult struct {
	Capabilities serverCapabilities `json:"capabilities"`
}

// supportsSelectionRange reports whether the provider capability is true
// or an options object.
func (c serverCapabilities) supportsSelectionRange() bool {
	switch string(c.SelectionRangeProvider) {
	case "", "null", "false":
		return false
	}
	return true
}

type configurationParams struct {
	Items []json.RawMessage `json:"items"`
}
