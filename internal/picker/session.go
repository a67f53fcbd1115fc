package picker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/runger/smartpick/internal/editor"
	"github.com/runger/smartpick/internal/selection"
)

// ErrSessionActive is returned by Guard.Open while another session is open.
var ErrSessionActive = errors.New("a picker session is already open")

// Resolution is how a session ended. It only ever moves away from
// Unresolved, once.
type Resolution int

const (
	Unresolved Resolution = iota
	Accepted
	Cancelled
)

func (r Resolution) String() string {
	switch r {
	case Unresolved:
		return "unresolved"
	case Accepted:
		return "accepted"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("Resolution(%d)", int(r))
	}
}

// EventKind identifies a UI event.
type EventKind int

const (
	EventActiveChanged EventKind = iota + 1 // highlighted entry changed
	EventAccepted                           // user confirmed
	EventHidden                             // UI went away
)

func (k EventKind) String() string {
	switch k {
	case EventActiveChanged:
		return "active-changed"
	case EventAccepted:
		return "accepted"
	case EventHidden:
		return "hidden"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is delivered by the UI to its EventSink. Entry is nil when no entry
// is active.
type Event struct {
	Kind  EventKind
	Entry *Entry
}

// Entry is one row of the list UI: a label plus the index of the item it
// stands for.
type Entry struct {
	Label string
	Index int
}

// EventSink receives UI events.
type EventSink interface {
	Dispatch(ctx context.Context, ev Event) error
}

// UI is the transient list surface a session owns.
type UI interface {
	// Show renders entries in order with no entry active and starts
	// delivering events to sink.
	Show(entries []Entry, sink EventSink) error
	// Dispose releases the UI. It must be safe to call more than once.
	Dispose()
}

type handlerFunc func(ctx context.Context, ev Event) error

// Session is one run of the picker, from Open to accept or cancel.
type Session struct {
	id      string
	editor  editor.Editor
	items   []selection.Item
	initial editor.Selection
	ui      UI
	logger  *slog.Logger
	onClose func()

	mu         sync.Mutex // serializes handlers
	resolution Resolution
	handlers   map[EventKind]handlerFunc

	releaseOnce sync.Once
	done        chan struct{}
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// withOnClose registers a hook run once when the UI is released.
func withOnClose(fn func()) Option {
	return func(s *Session) { s.onClose = fn }
}

// Open captures the editor's selection, shows items in ui and returns the
// live session. Items keep their order; nothing is sorted or deduplicated.
func Open(ctx context.Context, ed editor.Editor, items []selection.Item, ui UI, opts ...Option) (*Session, error) {
	s := &Session{
		id:      uuid.NewString(),
		editor:  ed,
		items:   items,
		initial: ed.Selection(),
		ui:      ui,
		logger:  slog.New(slog.DiscardHandler),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session", s.id)
	s.handlers = map[EventKind]handlerFunc{
		EventActiveChanged: s.onActiveChanged,
		EventAccepted:      s.onAccepted,
		EventHidden:        s.onHidden,
	}

	entries := make([]Entry, len(items))
	for i, item := range items {
		entries[i] = Entry{Label: item.DisplayText, Index: i}
	}

	s.logger.Info("session opened", "items", len(items), "initial", s.initial.String())
	if err := ui.Show(entries, s); err != nil {
		s.release()
		return nil, fmt.Errorf("failed to show picker: %w", err)
	}
	return s, nil
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string {
	return s.id
}

// InitialSelection returns the selection captured at Open.
func (s *Session) InitialSelection() editor.Selection {
	return s.initial
}

// Items returns the items shown by the session.
func (s *Session) Items() []selection.Item {
	return s.items
}

// Resolution returns the current resolution.
func (s *Session) Resolution() Resolution {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolution
}

// Done is closed once the UI has been released, by resolution or Close.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close releases the UI if it is still held. It does not resolve the
// session and is safe to call any number of times.
func (s *Session) Close() error {
	s.release()
	return nil
}

// Dispatch implements EventSink. Handlers run one at a time.
func (s *Session) Dispatch(ctx context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.handlers[ev.Kind]
	if !ok {
		return fmt.Errorf("unknown picker event %v", ev.Kind)
	}
	return h(ctx, ev)
}

func (s *Session) onActiveChanged(ctx context.Context, ev Event) error {
	if s.resolution != Unresolved {
		return nil
	}
	if err := s.maybeSoftUndo(ctx); err != nil {
		return err
	}

	target := s.initial
	if ev.Entry != nil {
		if ev.Entry.Index < 0 || ev.Entry.Index >= len(s.items) {
			return fmt.Errorf("picker entry %d out of range (%d items)", ev.Entry.Index, len(s.items))
		}
		target = editor.FromRange(s.items[ev.Entry.Index].Range)
	}
	s.logger.Debug("preview", "selection", target.String())
	return s.editor.SetSelection(ctx, target)
}

func (s *Session) onAccepted(_ context.Context, _ Event) error {
	if s.resolution != Unresolved {
		return nil
	}
	s.resolution = Accepted
	s.logger.Info("session accepted", "selection", s.editor.Selection().String())
	s.release()
	return nil
}

func (s *Session) onHidden(ctx context.Context, _ Event) error {
	if s.resolution != Unresolved {
		return nil
	}
	s.resolution = Cancelled
	err := s.maybeSoftUndo(ctx)
	s.logger.Info("session cancelled", "selection", s.editor.Selection().String())
	s.release()
	return err
}

// maybeSoftUndo reverts the last preview if the selection moved away from
// where the session started.
func (s *Session) maybeSoftUndo(ctx context.Context) error {
	if s.editor.Selection().Equal(s.initial) {
		return nil
	}
	if err := s.editor.SoftUndo(ctx); err != nil {
		return fmt.Errorf("failed to restore selection: %w", err)
	}
	return nil
}

func (s *Session) release() {
	s.releaseOnce.Do(func() {
		s.ui.Dispose()
		if s.onClose != nil {
			s.onClose()
		}
		close(s.done)
	})
}

// Guard allows at most one open session at a time.
type Guard struct {
	mu   sync.Mutex
	busy bool
}

// Open is like the package-level Open but returns ErrSessionActive while a
// session opened through g is still holding its UI.
func (g *Guard) Open(ctx context.Context, ed editor.Editor, items []selection.Item, ui UI, opts ...Option) (*Session, error) {
	g.mu.Lock()
	if g.busy {
		g.mu.Unlock()
		return nil, ErrSessionActive
	}
	g.busy = true
	g.mu.Unlock()

	free := func() {
		g.mu.Lock()
		g.busy = false
		g.mu.Unlock()
	}
	s, err := Open(ctx, ed, items, ui, append(opts, withOnClose(free))...)
	if err != nil {
		free()
		return nil, err
	}
	return s, nil
}
