package picker

import (
	"context"
	"io"
	"log/slog"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/runger/smartpick/internal/editor"
)

// TerminalUI shows the list as a full-screen Bubble Tea program. It
// implements UI.
type TerminalUI struct {
	ctx     context.Context
	in      io.Reader
	out     io.Writer
	preview Previewer
	opts    []ModelOption
	logger  *slog.Logger

	mu      sync.Mutex
	program *tea.Program
	final   Model
	err     error
	done    chan struct{}

	disposeOnce sync.Once
}

// NewTerminalUI creates a UI that reads keys from in and draws to out,
// usually both /dev/tty. preview may be nil.
func NewTerminalUI(ctx context.Context, in io.Reader, out io.Writer, preview Previewer, logger *slog.Logger, opts ...ModelOption) *TerminalUI {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &TerminalUI{
		ctx:     ctx,
		in:      in,
		out:     out,
		preview: preview,
		opts:    opts,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// Show implements UI. The program runs in the background; when it exits for
// any reason a hidden event is sent to sink.
func (u *TerminalUI) Show(entries []Entry, sink EventSink) error {
	model := NewModel(u.ctx, entries, sink, u.preview, u.opts...)
	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithInput(u.in),
		tea.WithOutput(u.out),
		tea.WithContext(u.ctx),
	)

	u.mu.Lock()
	u.program = p
	u.mu.Unlock()

	go func() {
		defer close(u.done)
		final, err := p.Run()
		if err != nil {
			u.logger.Error("picker program failed", "error", err)
		}
		u.mu.Lock()
		if m, ok := final.(Model); ok {
			u.final = m
		}
		u.err = err
		u.mu.Unlock()

		if derr := sink.Dispatch(context.WithoutCancel(u.ctx), Event{Kind: EventHidden}); derr != nil {
			u.logger.Warn("restore after hide failed", "error", derr)
		}
	}()
	return nil
}

// SelectionChanged asks the program to redraw the preview. It is meant as an
// editor.Buffer change listener and never blocks, since the change may come
// from inside the program's own Update.
func (u *TerminalUI) SelectionChanged(editor.Selection) {
	u.mu.Lock()
	p := u.program
	u.mu.Unlock()
	if p == nil {
		return
	}
	go p.Send(selectionMsg{})
}

// Dispose implements UI. It asks the program to quit without waiting.
func (u *TerminalUI) Dispose() {
	u.disposeOnce.Do(func() {
		u.mu.Lock()
		p := u.program
		u.mu.Unlock()
		if p != nil {
			// Quit blocks until the event loop reads it, and Dispose may be
			// called from inside that loop.
			go p.Quit()
		}
	})
}

// Wait blocks until the program has exited and the terminal is restored.
// It returns the program's error, if any.
func (u *TerminalUI) Wait() error {
	u.mu.Lock()
	started := u.program != nil
	u.mu.Unlock()
	if !started {
		return nil
	}
	<-u.done
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.err
}

// FinalModel returns the model as it was when the program exited.
func (u *TerminalUI) FinalModel() Model {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.final
}
