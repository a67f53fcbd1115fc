package langserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	lsp "github.com/sourcegraph/go-lsp"

	"github.com/runger/smartpick/internal/document"
)

// Static serves a selection range chain computed elsewhere, typically by the
// editor that invoked smartpick. The source holds LSP wire JSON: either an
// array of SelectionRange or a single one.
type Static struct {
	Path  string    // File to read; "-" reads Stdin
	Stdin io.Reader // Used when Path is "-"
}

// SelectionRanges implements Provider. The positions are ignored: the chain
// was already computed for the cursor.
func (s Static) SelectionRanges(ctx context.Context, _ *document.Document, _ []lsp.Position) ([]SelectionRange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.read()
	if err != nil {
		return nil, err
	}
	return ParseSelectionRanges(data)
}

func (s Static) read() ([]byte, error) {
	if s.Path == "-" {
		r := s.Stdin
		if r == nil {
			r = os.Stdin
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read ranges from stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ranges file: %w", err)
	}
	return data, nil
}

// ParseSelectionRanges decodes an array of chains or a single chain. Empty
// input and JSON null decode to no chains.
func ParseSelectionRanges(data []byte) ([]SelectionRange, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	if data[0] == '{' {
		var one SelectionRange
		if err := json.Unmarshal(data, &one); err != nil {
			return nil, fmt.Errorf("failed to parse selection range: %w", err)
		}
		return []SelectionRange{one}, nil
	}
	var many []SelectionRange
	if err := json.Unmarshal(data, &many); err != nil {
		return nil, fmt.Errorf("failed to parse selection ranges: %w", err)
	}
	return many, nil
}
