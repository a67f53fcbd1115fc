package langserver

import (
	"os"
	"path/filepath"

	lsp "github.com/sourcegraph/go-lsp"

	"github.com/runger/smartpick/internal/document"
)

// FindRoot walks up from the directory of path looking for any of markers
// (for example "go.mod" or ".git") and returns that directory as a URI. If
// nothing matches, the file's own directory is used.
func FindRoot(path string, markers []string) lsp.DocumentURI {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	start := filepath.Dir(abs)
	for dir := start; ; {
		for _, m := range markers {
			if _, err := os.Stat(filepath.Join(dir, m)); err == nil {
				return document.URIFromPath(dir)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return document.URIFromPath(start)
}
