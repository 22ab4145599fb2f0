// Package ui implements the terminal formatter: a text input on the left, the
// formatted and foldable output on the right, status lines above and key hints
// below. All page logic lives in formatpage; this package owns the widgets,
// timers and key handling.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/textarea"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/jvx/internal/config"
	"github.com/oakwood-commons/jvx/internal/formatpage"
	"github.com/oakwood-commons/jvx/internal/formatter"
)

// Pane identifies which half of the screen has focus.
type Pane int

const (
	PaneInput Pane = iota
	PaneOutput
)

const (
	defaultWidth  = 100
	defaultHeight = 30
	// chrome is the number of rows outside the panes: status, pane titles
	// and footer.
	chrome = 3
)

// Options configures the formatter screen.
type Options struct {
	Locale           formatter.Locale
	MaxChars         int
	Debounce         time.Duration
	TransientStatus  time.Duration
	ClipboardTimeout time.Duration
	CollapseLevels   []int
	Theme            config.ThemeConfig
	NoColor          bool
	Clipboard        formatpage.Clipboard
	InitialInput     string
}

func (o Options) withDefaults() Options {
	if o.Locale.Tag == "" {
		o.Locale = formatter.English
	}
	if o.Debounce <= 0 {
		o.Debounce = formatpage.DebounceDelay
	}
	if o.TransientStatus <= 0 {
		o.TransientStatus = formatpage.TransientStatusDuration
	}
	if o.ClipboardTimeout <= 0 {
		o.ClipboardTimeout = formatpage.ClipboardTimeout
	}
	if o.Clipboard == nil {
		o.Clipboard = SystemClipboard{}
	}
	return o
}

type (
	// settleMsg fires when the debounce timer for one input change ends.
	settleMsg struct{ ticket formatpage.Ticket }
	// refreshMsg asks for the output lines to be rebuilt after a fold action.
	// Only the latest generation is applied.
	refreshMsg struct{ gen int }
	copiedMsg  struct {
		seq int
		ok  bool
	}
	clearTransientMsg struct{ seq int }
)

// Model is the bubbletea model of the formatter screen.
type Model struct {
	opts   Options
	page   *formatpage.Controller
	input  textarea.Model
	styles Styles

	focus         Pane
	width, height int

	snap   formatpage.Snapshot
	lines  []formatter.Line
	gen    int
	cursor int
	offset int
	// anchor is the container the cursor should follow across a rebuild.
	anchor *formatter.Node

	copySeq int
}

// NewModel builds the screen. InitialInput is formatted immediately.
func NewModel(opts Options) *Model {
	opts = opts.withDefaults()

	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.Placeholder = opts.Locale.WaitingForInput
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.MaxWidth = 0

	m := &Model{
		opts: opts,
		page: formatpage.New(formatpage.Options{
			Locale:    opts.Locale,
			MaxChars:  opts.MaxChars,
			Clipboard: opts.Clipboard,
		}),
		input:  ta,
		styles: NewStyles(opts.Theme, opts.NoColor),
		width:  defaultWidth,
		height: defaultHeight,
	}
	if opts.InitialInput != "" {
		m.input.SetValue(opts.InitialInput)
		m.page.SetInput(opts.InitialInput)
		m.page.FormatNow()
	}
	m.layout()
	m.rebuild()
	return m
}

// Init focuses the input.
func (m *Model) Init() tea.Cmd {
	return m.input.Focus()
}

// Update handles one message.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.clampCursor()
		return m, nil

	case settleMsg:
		if m.page.Settle(msg.ticket) {
			m.resetOutput()
		}
		return m, nil

	case refreshMsg:
		if msg.gen == m.gen {
			m.rebuild()
		}
		return m, nil

	case copiedMsg:
		if msg.seq != m.copySeq {
			return m, nil
		}
		m.snap = m.page.Snapshot()
		seq := msg.seq
		return m, tea.Tick(m.opts.TransientStatus, func(time.Time) tea.Msg {
			return clearTransientMsg{seq: seq}
		})

	case clearTransientMsg:
		if msg.seq == m.copySeq {
			m.page.ClearTransient()
			m.snap = m.page.Snapshot()
		}
		return m, nil

	case tea.KeyPressMsg:
		action, level := ActionFor(msg.String(), m.focus == PaneOutput)
		if action != ActionNone {
			return m.apply(action, level)
		}
		if m.focus == PaneOutput {
			return m, nil
		}
	}

	if m.focus != PaneInput {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if value := m.input.Value(); value != m.snap.Input {
		ticket := m.page.SetInput(value)
		m.snap.Input = value
		return m, tea.Batch(cmd, tea.Tick(m.opts.Debounce, func(time.Time) tea.Msg {
			return settleMsg{ticket: ticket}
		}))
	}
	return m, cmd
}

func (m *Model) apply(action Action, level int) (tea.Model, tea.Cmd) {
	switch action {
	case ActionQuit:
		return m, tea.Quit
	case ActionSwitchPane:
		if m.focus == PaneInput {
			m.focus = PaneOutput
			m.input.Blur()
			return m, nil
		}
		m.focus = PaneInput
		return m, m.input.Focus()
	case ActionFormatNow:
		m.page.SetInput(m.input.Value())
		m.page.FormatNow()
		m.resetOutput()
	case ActionClear:
		m.page.Clear()
		m.input.Reset()
		m.resetOutput()
	case ActionCopy:
		m.copySeq++
		seq, page, timeout := m.copySeq, m.page, m.opts.ClipboardTimeout
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			return copiedMsg{seq: seq, ok: page.Copy(ctx)}
		}
	case ActionMinify:
		if m.page.Minify() {
			m.resetOutput()
		} else {
			m.snap = m.page.Snapshot()
		}
	case ActionExpandAll:
		m.page.ExpandAll()
		return m, m.refresh(m.cursorNode())
	case ActionCollapseAll:
		m.page.CollapseAll()
		return m, m.refresh(nil)
	case ActionCollapseLevel:
		if !m.levelAllowed(level) {
			return m, nil
		}
		m.page.CollapseToLevel(level)
		return m, m.refresh(m.cursorNode())
	case ActionToggle:
		n := m.cursorNode()
		if n == nil {
			return m, nil
		}
		if err := m.page.Toggle(n.ID); err != nil {
			return m, nil
		}
		return m, m.refresh(n)
	case ActionUp:
		m.moveCursor(-1)
	case ActionDown:
		m.moveCursor(1)
	case ActionPageUp:
		m.moveCursor(-m.bodyHeight())
	case ActionPageDown:
		m.moveCursor(m.bodyHeight())
	case ActionTop:
		m.moveCursor(-len(m.lines))
	case ActionBottom:
		m.moveCursor(len(m.lines))
	}
	return m, nil
}

func (m *Model) levelAllowed(level int) bool {
	if len(m.opts.CollapseLevels) == 0 {
		return true
	}
	for _, l := range m.opts.CollapseLevels {
		if l == level {
			return true
		}
	}
	return false
}

// refresh schedules a rebuild of the output lines. Repeated fold actions
// within one frame collapse into a single rebuild.
func (m *Model) refresh(anchor *formatter.Node) tea.Cmd {
	m.gen++
	m.anchor = anchor
	gen := m.gen
	return func() tea.Msg { return refreshMsg{gen: gen} }
}

func (m *Model) resetOutput() {
	m.cursor, m.offset, m.anchor = 0, 0, nil
	m.rebuild()
}

func (m *Model) rebuild() {
	m.snap = m.page.Snapshot()
	if m.snap.Tree != nil {
		m.lines = m.snap.Tree.Lines()
	} else {
		m.lines = plainLines(m.snap.Output)
	}
	if m.anchor != nil {
		for i, l := range m.lines {
			if l.Toggle == m.anchor {
				m.cursor = i
				break
			}
		}
		m.anchor = nil
	}
	m.clampCursor()
}

func plainLines(text string) []formatter.Line {
	parts := strings.Split(text, "\n")
	lines := make([]formatter.Line, len(parts))
	for i, p := range parts {
		lines[i] = formatter.Line{Number: i + 1, Segments: []formatter.Segment{{Text: p}}}
	}
	return lines
}

func (m *Model) cursorNode() *formatter.Node {
	if m.cursor < 0 || m.cursor >= len(m.lines) {
		return nil
	}
	return m.lines[m.cursor].Toggle
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.lines) {
		m.cursor = len(m.lines) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	h := m.bodyHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m *Model) bodyHeight() int {
	if h := m.height - chrome; h > 1 {
		return h
	}
	return 1
}

func (m *Model) inputWidth() int {
	w := m.width * 2 / 5
	if w < 10 {
		w = 10
	}
	return w
}

func (m *Model) outputWidth() int {
	if w := m.width - m.inputWidth() - 1; w > 0 {
		return w
	}
	return 1
}

func (m *Model) layout() {
	m.input.SetWidth(m.inputWidth())
	m.input.SetHeight(m.bodyHeight())
}

// Focus reports the focused pane.
func (m *Model) Focus() Pane { return m.focus }

// Snapshot returns the page state as last drawn.
func (m *Model) Snapshot() formatpage.Snapshot { return m.snap }

// Cursor returns the output line under the cursor, 0-based.
func (m *Model) Cursor() int { return m.cursor }

// View draws the screen.
func (m *Model) View() tea.View {
	v := tea.NewView(m.Render())
	v.AltScreen = true
	return v
}

// Render draws the screen as a string.
func (m *Model) Render() string {
	inW, outW, bodyH := m.inputWidth(), m.outputWidth(), m.bodyHeight()

	titles := lipgloss.JoinHorizontal(lipgloss.Top,
		m.paneTitle(" input", inW, m.focus == PaneInput),
		" ",
		m.paneTitle(" output", outW, m.focus == PaneOutput),
	)

	inputPane := lipgloss.NewStyle().Width(inW).Height(bodyH).MaxHeight(bodyH).Render(m.input.View())
	sep := m.styles.Separator.Render(strings.TrimSuffix(strings.Repeat("│\n", bodyH), "\n"))
	body := lipgloss.JoinHorizontal(lipgloss.Top, inputPane, sep, m.renderOutput(outW, bodyH))

	return strings.Join([]string{m.renderStatus(), titles, body, m.renderFooter()}, "\n")
}

func (m *Model) paneTitle(title string, width int, active bool) string {
	title = runewidth.FillRight(runewidth.Truncate(title, width, ""), width)
	if active {
		return m.styles.PaneTitleActive.Render(title)
	}
	return m.styles.PaneTitle.Render(title)
}

func (m *Model) renderStatus() string {
	left := m.styles.Status.Render(m.snap.InputStatus)
	style := m.styles.Status
	switch {
	case m.snap.Transient:
		style = m.styles.StatusTransient
	case m.snap.Status.IsError():
		style = m.styles.StatusError
	}
	right := style.Render(m.snap.OutputStatus)
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m *Model) renderOutput(width, height int) string {
	gutterW := len(fmt.Sprint(len(m.lines)))
	textW := width - gutterW - 3
	if textW < 1 {
		textW = 1
	}

	rows := make([]string, 0, height)
	for i := m.offset; i < len(m.lines) && len(rows) < height; i++ {
		line := m.lines[i]
		num := fmt.Sprintf("%*d ", gutterW, line.Number)
		if i == m.cursor && m.focus == PaneOutput {
			num = m.styles.GutterCursor.Render(num)
		} else {
			num = m.styles.Gutter.Render(num)
		}
		rows = append(rows, num+m.toggleMarker(line)+" "+m.renderSegments(line.Segments, textW))
	}
	for len(rows) < height {
		rows = append(rows, "")
	}
	return strings.Join(rows, "\n")
}

func (m *Model) toggleMarker(line formatter.Line) string {
	switch {
	case line.Toggle == nil:
		return " "
	case line.Toggle.Collapsed:
		return m.styles.Toggle.Render("▸")
	default:
		return m.styles.Toggle.Render("▾")
	}
}

func (m *Model) renderSegments(segs []formatter.Segment, width int) string {
	var sb strings.Builder
	used := 0
	for _, s := range segs {
		if used >= width {
			break
		}
		text := s.Text
		if w := runewidth.StringWidth(text); used+w > width {
			text = runewidth.Truncate(text, width-used, "…")
		}
		used += runewidth.StringWidth(text)
		style := m.styles.forClass(s.Class)
		if m.snap.OutputError {
			style = m.styles.Error
		}
		sb.WriteString(style.Render(text))
	}
	return sb.String()
}

func (m *Model) renderFooter() string {
	l := m.opts.Locale
	hints := []struct{ key, label string }{
		{"tab", "input/output"},
		{"ctrl+s", l.FormatNow},
		{"ctrl+l", l.Clear},
		{"ctrl+y", l.Copy},
	}
	if m.focus == PaneOutput {
		hints = append(hints,
			struct{ key, label string }{"m", l.Minify},
			struct{ key, label string }{"e", l.ExpandAll},
			struct{ key, label string }{"c", l.CollapseAll},
		)
		for _, level := range m.opts.CollapseLevels {
			hints = append(hints, struct{ key, label string }{fmt.Sprint(level), fmt.Sprintf(l.CollapseLevel, level)})
		}
		hints = append(hints, struct{ key, label string }{"q", "quit"})
	}
	parts := make([]string, len(hints))
	for i, h := range hints {
		parts[i] = m.styles.FooterKey.Render(h.key) + " " + m.styles.FooterLabel.Render(h.label)
	}
	return ansi.Truncate(strings.Join(parts, "  "), m.width, "")
}
