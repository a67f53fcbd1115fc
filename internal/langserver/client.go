package langserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/google/shlex"
	lsp "github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"

	"github.com/runger/smartpick/internal/document"
)

// defaultTimeout bounds each request when no timeout is configured.
const defaultTimeout = 5 * time.Second

// shutdownTimeout bounds the shutdown handshake on Close.
const shutdownTimeout = time.Second

var errMethodNotFound = &jsonrpc2.Error{
	Code: jsonrpc2.CodeMethodNotFound, Message: "method not found"}

// Client is a minimal LSP client that only knows how to ask for selection
// ranges.
type Client struct {
	conn    *jsonrpc2.Conn
	cmd     *exec.Cmd
	logger  *slog.Logger
	timeout time.Duration
	name    string
	version string
	root    lsp.DocumentURI

	mu          sync.Mutex
	initialized bool
	supported   bool
	opened      map[lsp.DocumentURI]int // URI -> version sent
	closed      bool
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithClientInfo sets the name and version sent in initialize.
func WithClientInfo(name, version string) ClientOption {
	return func(c *Client) {
		c.name = name
		c.version = version
	}
}

// WithRoot sets the workspace root sent in initialize. By default the
// directory holding the first document is used.
func WithRoot(uri lsp.DocumentURI) ClientOption {
	return func(c *Client) { c.root = uri }
}

// Start launches the language server described by command, a shell-like
// command line such as "gopls serve", and connects to it over stdio.
func Start(ctx context.Context, command string, stderr io.Writer, opts ...ClientOption) (*Client, error) {
	args, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("failed to parse server command %q: %w", command, err)
	}
	if len(args) == 0 {
		return nil, ErrNoServer
	}

	cmd := exec.Command(args[0], args[1:]...) //nolint:gosec // G204: command comes from user config
	cmd.Stderr = stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open server stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open server stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", args[0], err)
	}

	c := NewClient(ctx, transport{in: stdout, out: stdin}, opts...)
	c.cmd = cmd
	c.logger.Debug("language server started", "command", command, "pid", cmd.Process.Pid)
	return c, nil
}

// NewClient speaks LSP over an already-connected stream.
func NewClient(ctx context.Context, rwc io.ReadWriteCloser, opts ...ClientOption) *Client {
	c := &Client{
		logger:  slog.New(slog.DiscardHandler),
		timeout: defaultTimeout,
		name:    "smartpick",
		opened:  make(map[lsp.DocumentURI]int),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.conn = jsonrpc2.NewConn(ctx,
		jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{}),
		jsonrpc2.HandlerWithError(c.handle))
	return c
}

// transport joins the server's stdout and stdin into one stream.
type transport struct {
	in  io.ReadCloser
	out io.WriteCloser
}

func (t transport) Read(p []byte) (int, error)  { return t.in.Read(p) }
func (t transport) Write(p []byte) (int, error) { return t.out.Write(p) }

func (t transport) Close() error {
	if err := t.out.Close(); err != nil {
		t.in.Close()
		return err
	}
	return t.in.Close()
}

// handle answers server-to-client traffic. Only the requests servers block
// on get a real answer.
func (c *Client) handle(_ context.Context, _ *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
	switch req.Method {
	case "window/logMessage", "window/showMessage", "$/progress", "textDocument/publishDiagnostics":
		if req.Params != nil {
			c.logger.Debug("server notification", "method", req.Method, "params", string(*req.Params))
		}
		return nil, nil
	case "workspace/configuration":
		var params configurationParams
		if req.Params != nil {
			if err := json.Unmarshal(*req.Params, &params); err != nil {
				return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
			}
		}
		return make([]any, len(params.Items)), nil
	case "client/registerCapability", "client/unregisterCapability", "window/workDoneProgress/create":
		return nil, nil
	}
	if req.Notif {
		return nil, nil
	}
	return nil, errMethodNotFound
}

// Initialize performs the initialize handshake. It is called implicitly by
// SelectionRanges.
func (c *Client) Initialize(ctx context.Context, rootURI lsp.DocumentURI) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initializeLocked(ctx, rootURI)
}

func (c *Client) initializeLocked(ctx context.Context, rootURI lsp.DocumentURI) error {
	if c.closed {
		return ErrServerClosed
	}
	if c.initialized {
		return nil
	}

	params := initializeParams{
		ProcessID:  os.Getpid(),
		RootURI:    rootURI,
		ClientInfo: clientInfo{Name: c.name, Version: c.version},
		Capabilities: clientCapabilities{
			TextDocument: textDocumentClientCapabilities{
				SelectionRange: &SelectionRangeClientCapabilities{},
			},
		},
	}
	var result initializeResult
	if err := c.call(ctx, "initialize", params, &result); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	if err := c.conn.Notify(ctx, "initialized", struct{}{}); err != nil {
		return fmt.Errorf("initialized: %w", err)
	}
	c.initialized = true
	c.supported = result.Capabilities.supportsSelectionRange()
	if !c.supported {
		c.logger.Warn("server does not advertise selectionRangeProvider; asking anyway")
	}
	return nil
}

// syncLocked sends didOpen the first time a document is seen and a full
// didChange when its version moved.
func (c *Client) syncLocked(ctx context.Context, doc *document.Document) error {
	sent, ok := c.opened[doc.URI]
	switch {
	case !ok:
		err := c.conn.Notify(ctx, "textDocument/didOpen", lsp.DidOpenTextDocumentParams{
			TextDocument: lsp.TextDocumentItem{
				URI:        doc.URI,
				LanguageID: doc.LanguageID,
				Version:    doc.Version,
				Text:       doc.Text(),
			},
		})
		if err != nil {
			return fmt.Errorf("didOpen: %w", err)
		}
	case sent != doc.Version:
		err := c.conn.Notify(ctx, "textDocument/didChange", lsp.DidChangeTextDocumentParams{
			TextDocument: lsp.VersionedTextDocumentIdentifier{
				TextDocumentIdentifier: lsp.TextDocumentIdentifier{URI: doc.URI},
				Version:                doc.Version,
			},
			ContentChanges: []lsp.TextDocumentContentChangeEvent{{Text: doc.Text()}},
		})
		if err != nil {
			return fmt.Errorf("didChange: %w", err)
		}
	default:
		return nil
	}
	c.opened[doc.URI] = doc.Version
	return nil
}

// SelectionRanges implements Provider.
func (c *Client) SelectionRanges(ctx context.Context, doc *document.Document, positions []lsp.Position) ([]SelectionRange, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	root := c.root
	if root == "" {
		root = rootURIFor(doc)
	}
	if err := c.initializeLocked(ctx, root); err != nil {
		return nil, err
	}
	if err := c.syncLocked(ctx, doc); err != nil {
		return nil, err
	}

	params := SelectionRangeParams{
		TextDocument: lsp.TextDocumentIdentifier{URI: doc.URI},
		Positions:    positions,
	}
	var ranges []SelectionRange
	if err := c.call(ctx, "textDocument/selectionRange", params, &ranges); err != nil {
		return nil, fmt.Errorf("selectionRange: %w", err)
	}
	c.logger.Debug("selection ranges received", "uri", doc.URI, "chains", len(ranges))
	return ranges, nil
}

func (c *Client) call(ctx context.Context, method string, params, result any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	err := c.conn.Call(ctx, method, params, result)
	if errors.Is(err, jsonrpc2.ErrClosed) {
		return ErrServerClosed
	}
	return err
}

// Close shuts the server down and releases the connection. It is safe to
// call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	initialized := c.initialized
	c.mu.Unlock()

	if initialized {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := c.conn.Call(ctx, "shutdown", nil, nil); err != nil {
			c.logger.Debug("shutdown failed", "error", err)
		}
		_ = c.conn.Notify(ctx, "exit", nil)
		cancel()
	}
	err := c.conn.Close()
	if errors.Is(err, jsonrpc2.ErrClosed) {
		err = nil
	}

	if c.cmd != nil {
		done := make(chan error, 1)
		go func() { done <- c.cmd.Wait() }()
		select {
		case <-done:
		case <-time.After(shutdownTimeout):
			_ = c.cmd.Process.Kill()
			<-done
		}
	}
	return err
}

// rootURIFor picks the directory holding the document as the workspace root.
func rootURIFor(doc *document.Document) lsp.DocumentURI {
	uri := string(doc.URI)
	for i := len(uri) - 1; i >= 0; i-- {
		if uri[i] == '/' {
			return lsp.DocumentURI(uri[:i])
		}
	}
	return ""
}
