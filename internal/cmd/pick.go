package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	lsp "github.com/sourcegraph/go-lsp"
	"github.com/spf13/cobra"

	"github.com/runger/smartpick/internal/config"
	"github.com/runger/smartpick/internal/document"
	"github.com/runger/smartpick/internal/editor"
	"github.com/runger/smartpick/internal/langserver"
	"github.com/runger/smartpick/internal/logging"
	"github.com/runger/smartpick/internal/picker"
	"github.com/runger/smartpick/internal/selection"
	"github.com/runger/smartpick/internal/smartselect"
)

var (
	pickCursor string
	pickAnchor string
	pickRanges string
	pickServer string
	pickOutput string
)

// defaultRootMarkers is used when the server entry has none.
var defaultRootMarkers = []string{".git"}

var pickCmd = &cobra.Command{
	Use:   "pick FILE --cursor LINE:COL",
	Short: "Pick a selection range around the cursor",
	Long: `Pick one of the syntactic ranges enclosing the cursor.

Positions are 1-based; columns count UTF-16 code units like LSP does.
The ranges come from the language server configured for the file's
extension, from --server, or from a JSON array of LSP SelectionRange
objects given with --ranges (use - for stdin).

The picker draws on /dev/tty (or SMARTPICK_TTY). Moving through the list
previews each range as the selection; enter prints it, esc restores the
original selection.

Exit status: 0 accepted, 1 cancelled, 2 nothing to pick or no terminal.

Examples:
  smartpick pick main.go --cursor 12:8
  smartpick pick main.go --cursor 12:8 --anchor 12:4 --output json
  cat ranges.json | smartpick pick main.go --cursor 12:8 --ranges -`,
	Args: cobra.ExactArgs(1),
	RunE: runPick,
}

func init() {
	pickCmd.Flags().StringVar(&pickCursor, "cursor", "", "cursor position LINE:COL (1-based)")
	pickCmd.Flags().StringVar(&pickAnchor, "anchor", "", "selection anchor LINE:COL (defaults to the cursor)")
	pickCmd.Flags().StringVar(&pickRanges, "ranges", "", "read the selection range chain from FILE, or - for stdin")
	pickCmd.Flags().StringVar(&pickServer, "server", "", "language server command line (overrides the configured one)")
	pickCmd.Flags().StringVarP(&pickOutput, "output", "o", "", "result format: plain, json, or text")
	_ = pickCmd.MarkFlagRequired("cursor")
}

func runPick(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	file := args[0]

	cfg, err := config.Load()
	if err != nil {
		return exitWith(ExitFallback, fmt.Errorf("failed to load config: %w", err))
	}

	output := cfg.Picker.Output
	if pickOutput != "" {
		output = pickOutput
	}
	if !validOutput(output) {
		return exitWith(ExitFallback, fmt.Errorf("--output must be plain, json, or text (got %q)", output))
	}

	sel, err := parseSelection(pickCursor, pickAnchor)
	if err != nil {
		return exitWith(ExitFallback, err)
	}

	paths := config.DefaultPaths()
	logger, logCloser, err := logging.Open(cfg.Log.File, paths.LogFile(), cfg.Log.Level)
	if err != nil {
		return exitWith(ExitFallback, err)
	}
	defer logCloser.Close()

	if err := checkTERM(); err != nil {
		return exitWith(ExitFallback, err)
	}
	tty, err := openTTY(cfg.Picker.TTY)
	if err != nil {
		return exitWith(ExitFallback, err)
	}
	defer tty.Close()
	if err := checkTermWidth(tty); err != nil {
		return exitWith(ExitFallback, err)
	}

	if cfg.Picker.SingleFlight {
		if err := os.MkdirAll(paths.CacheDir, 0755); err != nil {
			return exitWith(ExitFallback, fmt.Errorf("failed to create cache directory: %w", err))
		}
		fd, err := acquireLock(paths.LockFile())
		if errors.Is(err, errLocked) {
			logger.Debug("picker already open; ignoring", "lock", paths.LockFile())
			return exitWith(ExitFallback, nil)
		}
		if err != nil {
			return exitWith(ExitFallback, err)
		}
		defer releaseLock(fd)
	}

	doc, err := document.Load(file)
	if err != nil {
		return exitWith(ExitFallback, err)
	}
	buf := editor.NewBuffer(doc, sel, editor.WithLogger(logger))

	provider, err := openProvider(ctx, cfg, file, cmd.InOrStdin(), logger)
	if err != nil {
		return exitWith(ExitFallback, err)
	}
	if c, ok := provider.(io.Closer); ok {
		defer func() {
			if err := c.Close(); err != nil {
				logger.Warn("language server shutdown failed", "error", err)
			}
		}()
	}

	// stdout may be a pipe; take the color profile from the terminal.
	lipgloss.SetColorProfile(termenv.NewOutput(tty).ColorProfile())

	ui := picker.NewTerminalUI(ctx, tty, tty, buf, logger,
		picker.WithPlaceholder(cfg.Picker.Placeholder),
		picker.WithAutoActivate(cfg.Picker.AutoActivateFirst),
		picker.WithPreviewLines(cfg.Picker.PreviewLines),
	)
	buf.OnSelectionChange(ui.SelectionChanged)

	res, err := pickSession(ctx, buf, provider, ui, logger)
	if err != nil {
		return exitWith(ExitFallback, err)
	}

	switch res {
	case picker.Accepted:
		return writeResult(cmd.OutOrStdout(), output, buf)
	case picker.Cancelled:
		return exitWith(ExitCancelled, nil)
	default:
		return exitWith(ExitFallback, nil)
	}
}

// pickSession runs the pick command against ed and blocks until the picker
// is gone. It reports Unresolved when there was nothing to pick from.
func pickSession(ctx context.Context, ed editor.Editor, provider langserver.Provider, ui picker.UI, logger *slog.Logger) (picker.Resolution, error) {
	guard := &picker.Guard{}
	registry := smartselect.NewRegistry()
	err := registry.Register(smartselect.PickCommandID, &smartselect.Pick{
		ActiveEditor: func() editor.Editor { return ed },
		Provider:     provider,
		Open: func(ctx context.Context, ed editor.Editor, items []selection.Item) (*picker.Session, error) {
			return guard.Open(ctx, ed, items, ui, picker.WithLogger(logger))
		},
		Logger: logger,
	})
	if err != nil {
		return picker.Unresolved, err
	}

	sess, err := registry.Execute(ctx, smartselect.PickCommandID)
	if err != nil {
		return picker.Unresolved, err
	}
	if sess == nil {
		return picker.Unresolved, nil
	}

	<-sess.Done()
	if w, ok := ui.(interface{ Wait() error }); ok {
		if err := w.Wait(); err != nil {
			logger.Warn("picker exited with error", "session", sess.ID(), "error", err)
		}
	}
	return sess.Resolution(), nil
}

// openProvider picks the selection range source for file.
func openProvider(ctx context.Context, cfg *config.Config, file string, stdin io.Reader, logger *slog.Logger) (langserver.Provider, error) {
	if pickRanges != "" {
		return langserver.Static{Path: pickRanges, Stdin: stdin}, nil
	}

	command := pickServer
	markers := defaultRootMarkers
	if s, ok := cfg.ServerFor(file); ok {
		if command == "" {
			command = s.Command
		}
		if len(s.RootMarkers) > 0 {
			markers = s.RootMarkers
		}
	}
	if command == "" {
		return nil, fmt.Errorf("%s: %w", file, langserver.ErrNoServer)
	}

	return langserver.Start(ctx, command, io.Discard,
		langserver.WithTimeout(time.Duration(cfg.Provider.TimeoutMs)*time.Millisecond),
		langserver.WithLogger(logger),
		langserver.WithClientInfo("smartpick", Version),
		langserver.WithRoot(langserver.FindRoot(file, markers)),
	)
}

// parseSelection builds the starting selection from the --cursor and
// --anchor flags.
func parseSelection(cursor, anchor string) (editor.Selection, error) {
	active, err := parsePosition(cursor)
	if err != nil {
		return editor.Selection{}, fmt.Errorf("--cursor: %w", err)
	}
	if anchor == "" {
		return editor.Cursor(active), nil
	}
	start, err := parsePosition(anchor)
	if err != nil {
		return editor.Selection{}, fmt.Errorf("--anchor: %w", err)
	}
	return editor.Selection{Anchor: start, Active: active}, nil
}

// parsePosition parses a 1-based "LINE:COL" or "LINE" into an LSP position.
func parsePosition(s string) (lsp.Position, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return lsp.Position{}, errors.New("position is required")
	}
	lineStr, colStr, hasCol := strings.Cut(s, ":")
	line, err := strconv.Atoi(lineStr)
	if err != nil || line < 1 {
		return lsp.Position{}, fmt.Errorf("invalid line %q", lineStr)
	}
	col := 1
	if hasCol {
		col, err = strconv.Atoi(colStr)
		if err != nil || col < 1 {
			return lsp.Position{}, fmt.Errorf("invalid column %q", colStr)
		}
	}
	return lsp.Position{Line: line - 1, Character: col - 1}, nil
}

func formatPosition(p lsp.Position) string {
	return fmt.Sprintf("%d:%d", p.Line+1, p.Character+1)
}

func validOutput(format string) bool {
	switch format {
	case config.OutputPlain, config.OutputJSON, config.OutputText:
		return true
	}
	return false
}

// pickResult is the --output json shape. Positions are 0-based LSP
// positions so editors can use them directly.
type pickResult struct {
	Anchor lsp.Position `json:"anchor"`
	Active lsp.Position `json:"active"`
	Range  lsp.Range    `json:"range"`
	Text   string       `json:"text"`
}

// writeResult prints the accepted selection of ed.
func writeResult(out io.Writer, format string, ed editor.Editor) error {
	sel := ed.Selection()
	switch format {
	case config.OutputJSON:
		enc := json.NewEncoder(out)
		return enc.Encode(pickResult{
			Anchor: sel.Anchor,
			Active: sel.Active,
			Range:  sel.Range(),
			Text:   ed.Text(sel.Range()),
		})
	case config.OutputText:
		_, err := io.WriteString(out, ed.Text(sel.Range()))
		return err
	default:
		_, err := fmt.Fprintf(out, "%s-%s\n", formatPosition(sel.Anchor), formatPosition(sel.Active))
		return err
	}
}
