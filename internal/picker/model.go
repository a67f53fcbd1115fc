package picker

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	lsp "github.com/sourcegraph/go-lsp"

	"github.com/runger/smartpick/internal/document"
	"github.com/runger/smartpick/internal/editor"
)

// defaultPreviewLines is the number of document lines shown below the list.
const defaultPreviewLines = 6

// pageSize is how far PgUp/PgDown move the cursor.
const pageSize = 10

// noEntry marks "no active entry" in lastActive.
const noEntry = -1

// modelState represents the current state of the picker's state machine.
type modelState int

const (
	stateOpen      modelState = iota // Waiting for input
	stateAccepted                    // User pressed Enter
	stateDismissed                   // User pressed Esc / Ctrl+C
)

// initMsg is sent by Init() so the host default (first entry active) is
// applied through Update.
type initMsg struct{}

// selectionMsg tells the model the editor selection moved, so the preview
// is redrawn even when no key was pressed.
type selectionMsg struct{}

// Previewer is the read-only view of the editor the model renders.
type Previewer interface {
	Document() *document.Document
	Selection() editor.Selection
}

// Model is the Bubble Tea model for the selection list.
type Model struct {
	state   modelState
	ctx     context.Context
	entries []Entry
	visible []int // Indices into entries matching the query
	cursor  int   // Index into visible; -1 when nothing is active
	sink    EventSink
	preview Previewer
	input   textinput.Model
	err     error

	// lastActive is the entry index last reported to the sink, noEntry for
	// none, or -2 before the first report.
	lastActive int

	autoActivate bool
	previewLines int

	width  int // Terminal width
	height int // Terminal height
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithPlaceholder sets the filter input placeholder.
func WithPlaceholder(s string) ModelOption {
	return func(m *Model) { m.input.Placeholder = s }
}

// WithAutoActivate controls whether the first entry becomes active after the
// first render. Without it nothing is active until the user navigates.
func WithAutoActivate(on bool) ModelOption {
	return func(m *Model) { m.autoActivate = on }
}

// WithPreviewLines sets the height of the document preview. Zero hides it.
func WithPreviewLines(n int) ModelOption {
	return func(m *Model) {
		if n >= 0 {
			m.previewLines = n
		}
	}
}

// NewModel creates a list model over entries that reports to sink. preview
// may be nil.
func NewModel(ctx context.Context, entries []Entry, sink EventSink, preview Previewer, opts ...ModelOption) Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "Selection"
	ti.Focus()

	m := Model{
		state:        stateOpen,
		ctx:          ctx,
		entries:      entries,
		cursor:       -1,
		sink:         sink,
		preview:      preview,
		input:        ti,
		lastActive:   -2,
		autoActivate: true,
		previewLines: defaultPreviewLines,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.visible = m.filter("")
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, func() tea.Msg { return initMsg{} })
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case selectionMsg:
		return m, nil

	case initMsg:
		if m.autoActivate && len(m.visible) > 0 {
			m.cursor = 0
		}
		m.report()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.state != stateOpen {
		return m, nil
	}

	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.state = stateDismissed
		m.dispatch(Event{Kind: EventHidden})
		return m, tea.Quit

	case tea.KeyEnter:
		m.state = stateAccepted
		m.dispatch(Event{Kind: EventAccepted})
		return m, tea.Quit

	case tea.KeyUp, tea.KeyCtrlP:
		m.move(-1)
		return m, nil

	case tea.KeyDown, tea.KeyCtrlN:
		m.move(1)
		return m, nil

	case tea.KeyPgUp:
		m.move(-pageSize)
		return m, nil

	case tea.KeyPgDown:
		m.move(pageSize)
		return m, nil

	case tea.KeyHome:
		m.moveTo(0)
		return m, nil

	case tea.KeyEnd:
		m.moveTo(len(m.visible) - 1)
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.refilter()
	}
	return m, cmd
}

// move shifts the cursor by delta, clamped to the visible entries. With no
// active entry any movement lands on the first one.
func (m *Model) move(delta int) {
	if len(m.visible) == 0 {
		return
	}
	if m.cursor < 0 {
		m.moveTo(0)
		return
	}
	m.moveTo(m.cursor + delta)
}

func (m *Model) moveTo(i int) {
	if len(m.visible) == 0 {
		return
	}
	if i < 0 {
		i = 0
	}
	if i >= len(m.visible) {
		i = len(m.visible) - 1
	}
	m.cursor = i
	m.report()
}

// refilter applies the query. The active entry stays active if it still
// matches; otherwise the first match becomes active, or none.
func (m *Model) refilter() {
	active := m.activeIndex()
	m.visible = m.filter(m.input.Value())
	m.cursor = -1
	for i, idx := range m.visible {
		if idx == active {
			m.cursor = i
			break
		}
	}
	if m.cursor < 0 && len(m.visible) > 0 && (m.autoActivate || active != noEntry) {
		m.cursor = 0
	}
	m.report()
}

// filter returns the indices of entries whose label contains query,
// ignoring case, in their original order.
func (m Model) filter(query string) []int {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]int, 0, len(m.entries))
	for i, e := range m.entries {
		if q == "" || strings.Contains(strings.ToLower(e.Label), q) {
			out = append(out, i)
		}
	}
	return out
}

// activeIndex returns the entry index under the cursor or noEntry.
func (m Model) activeIndex() int {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return noEntry
	}
	return m.visible[m.cursor]
}

// report tells the sink about a change of the active entry.
func (m *Model) report() {
	active := m.activeIndex()
	if active == m.lastActive {
		return
	}
	m.lastActive = active
	ev := Event{Kind: EventActiveChanged}
	if active != noEntry {
		e := m.entries[active]
		ev.Entry = &e
	}
	m.dispatch(ev)
}

func (m *Model) dispatch(ev Event) {
	if m.sink == nil {
		return
	}
	if err := m.sink.Dispatch(m.ctx, ev); err != nil {
		m.err = err
	}
}

// Accepted reports whether the model ended with Enter.
func (m Model) Accepted() bool {
	return m.state == stateAccepted
}

// Err returns the last error reported by the sink.
func (m Model) Err() error {
	return m.err
}

// Active returns the active entry, if any.
func (m Model) Active() (Entry, bool) {
	idx := m.activeIndex()
	if idx == noEntry {
		return Entry{}, false
	}
	return m.entries[idx], true
}

// listHeight returns the number of visible list rows.
func (m Model) listHeight() int {
	// 1 row for the query line, 1 for the status line, 1 separator
	const chrome = 3
	previewRows := 0
	if m.preview != nil && m.previewLines > 0 {
		previewRows = m.previewLines + 1
	}
	h := m.height - chrome - previewRows
	if h < 1 {
		h = 10 // Sensible default before first WindowSizeMsg
	}
	return h
}

// --- View rendering ---

var (
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	normalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	queryStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	rangeStyle    = lipgloss.NewStyle().Reverse(true)
	gutterStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(queryStyle.Render("> ") + m.input.View())
	b.WriteRune('\n')

	b.WriteString(m.viewList())
	b.WriteRune('\n')

	b.WriteString(m.viewStatus())

	if m.preview != nil && m.previewLines > 0 {
		b.WriteRune('\n')
		b.WriteString(m.viewPreview())
	}
	return b.String()
}

// viewList renders the visible entries, scrolled so the cursor stays in view.
func (m Model) viewList() string {
	if len(m.visible) == 0 {
		return dimStyle.Render("No matches")
	}

	height := m.listHeight()
	start := 0
	if m.cursor >= height {
		start = m.cursor - height + 1
	}
	end := start + height
	if end > len(m.visible) {
		end = len(m.visible)
	}

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		display := Label(m.entries[m.visible[i]].Label)
		if m.width > 4 {
			display = fitLabel(display, m.width-4)
		}
		if i == m.cursor {
			lines = append(lines, selectedStyle.Render("> "+display))
		} else {
			lines = append(lines, normalStyle.Render("  "+display))
		}
	}
	return strings.Join(lines, "\n")
}

// viewStatus renders the match counter or the last error.
func (m Model) viewStatus() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %s", m.err))
	}
	pos := 0
	if m.cursor >= 0 {
		pos = m.cursor + 1
	}
	return dimStyle.Render(fmt.Sprintf("%d/%d", pos, len(m.visible)))
}

// viewPreview renders document lines around the live selection with the
// selected span highlighted.
func (m Model) viewPreview() string {
	doc := m.preview.Document()
	sel := m.preview.Selection().Range()
	selStart, selEnd := doc.Offset(sel.Start), doc.Offset(sel.End)

	first := sel.Start.Line - 1
	if first+m.previewLines > doc.LineCount() {
		first = doc.LineCount() - m.previewLines
	}
	if first < 0 {
		first = 0
	}
	last := first + m.previewLines
	if last > doc.LineCount() {
		last = doc.LineCount()
	}

	gutterWidth := len(fmt.Sprint(last))
	width := m.width - gutterWidth - 1
	if m.width <= 0 {
		width = 80
	}

	lines := make([]string, 0, last-first+1)
	lines = append(lines, gutterStyle.Render(strings.Repeat("─", max(width+gutterWidth+1, 1))))
	for n := first; n < last; n++ {
		lineStart := doc.Offset(lsp.Position{Line: n})
		text := doc.Line(n)
		a := clamp(selStart-lineStart, 0, len(text))
		z := clamp(selEnd-lineStart, 0, len(text))
		gutter := gutterStyle.Render(fmt.Sprintf("%*d ", gutterWidth, n+1))
		lines = append(lines, gutter+renderSegments(width, text[:a], text[a:z], text[z:]))
	}
	return strings.Join(lines, "\n")
}

// renderSegments draws a line split into before/selected/after, cut to width
// display columns.
func renderSegments(width int, before, selected, after string) string {
	var b strings.Builder
	budget := width
	for i, seg := range []string{before, selected, after} {
		seg = fitWidth(Label(expandTabs(seg)), budget)
		budget -= runewidth.StringWidth(seg)
		if i == 1 && seg != "" {
			b.WriteString(rangeStyle.Render(seg))
			continue
		}
		b.WriteString(seg)
	}
	return b.String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
