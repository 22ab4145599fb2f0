// Package formatpage is the controller behind the standalone formatter: a
// text input, a formatted output pane, status lines and bulk fold actions.
// Front ends (the terminal UI and the web page) own the widgets and timers and
// drive this controller.
package formatpage

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/oakwood-commons/jvx/internal/formatter"
	"github.com/oakwood-commons/jvx/pkg/jsonvalue"
	"github.com/oakwood-commons/jvx/pkg/loader"
)

const (
	// DebounceDelay is how long input must be idle before it is formatted.
	DebounceDelay = 300 * time.Millisecond
	// TransientStatusDuration is how long a copy status replaces the output
	// status line.
	TransientStatusDuration = 1200 * time.Millisecond
	// ClipboardTimeout bounds a single clipboard write.
	ClipboardTimeout = 2 * time.Second
)

// Status is the state of the output pane.
type Status int

const (
	StatusEmpty Status = iota
	StatusOK
	StatusTooLarge
	StatusInvalid
)

func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusOK:
		return "ok"
	case StatusTooLarge:
		return "too-large"
	case StatusInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// IsError reports whether the output pane shows an error.
func (s Status) IsError() bool { return s == StatusTooLarge || s == StatusInvalid }

// Clipboard receives copied output.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// ClipboardFunc adapts a function to Clipboard.
type ClipboardFunc func(ctx context.Context, text string) error

// WriteText calls f.
func (f ClipboardFunc) WriteText(ctx context.Context, text string) error { return f(ctx, text) }

// Ticket identifies one input change; only the latest one formats.
type Ticket uint64

// Options configures a Controller.
type Options struct {
	Locale    formatter.Locale
	MaxChars  int
	IDPrefix  string
	Clipboard Clipboard
}

// Snapshot is everything a front end needs to draw the page.
type Snapshot struct {
	Input        string
	Status       Status
	InputStatus  string
	OutputStatus string
	// Output is the text shown in the output pane: the visible tree text, the
	// minified text, or a status message.
	Output      string
	OutputError bool
	Minified    bool
	// Tree is set while the output is a foldable tree.
	Tree *formatter.Tree
	// Transient is set while OutputStatus shows a short-lived copy status.
	Transient bool
	// CopyText is what Copy writes: the canonical or minified text, empty
	// when there is nothing to copy.
	CopyText string
}

// LineCount is the number of lines the output pane shows.
func (s Snapshot) LineCount() int {
	if s.Tree != nil {
		return s.Tree.LineCount()
	}
	return strings.Count(s.Output, "\n") + 1
}

// Controller holds the formatter page state. Methods are safe for concurrent
// use.
type Controller struct {
	opts Options

	mu            sync.Mutex
	input         string
	latest        Ticket
	status        Status
	message       string
	tree          *formatter.Tree
	lastFormatted string
	minifiedText  string
	outputStatus  string
	transient     string
}

// New returns a controller in the empty state.
func New(opts Options) *Controller {
	if opts.Locale.Tag == "" {
		opts.Locale = formatter.English
	}
	if opts.IDPrefix == "" {
		opts.IDPrefix = "f"
	}
	c := &Controller{opts: opts}
	c.format()
	return c
}

// SetInput replaces the input text and returns the ticket for this change.
// Nothing is formatted until Settle or FormatNow.
func (c *Controller) SetInput(text string) Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.input = text
	c.latest++
	return c.latest
}

// Settle formats the input if t is still the latest ticket. Stale tickets
// are ignored and reported as false.
func (c *Controller) Settle(t Ticket) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t != c.latest {
		return false
	}
	c.format()
	return true
}

// FormatNow formats the current input immediately.
func (c *Controller) FormatNow() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest++
	c.format()
}

// Clear empties the input and output.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.input = ""
	c.latest++
	c.format()
}

func (c *Controller) format() {
	l := c.opts.Locale
	c.tree, c.lastFormatted, c.minifiedText, c.transient = nil, "", "", ""

	res := loader.Load(c.input, c.opts.MaxChars)
	switch res.Status {
	case loader.StatusOK:
		c.status = StatusOK
		c.tree = formatter.NewTree(res.Value, formatter.WithIDPrefix(c.opts.IDPrefix), formatter.WithLocale(l))
		c.lastFormatted = jsonvalue.Indent(res.Value, formatter.IndentUnit)
		c.message = ""
		c.outputStatus = fmt.Sprintf(l.OutputLengthFmt, utf8.RuneCountInString(c.lastFormatted))
	case loader.StatusEmpty:
		c.status = StatusEmpty
		c.message = l.WaitingForInput
		c.outputStatus = l.NoOutput
	case loader.StatusTooLarge:
		c.status = StatusTooLarge
		c.message = fmt.Sprintf(l.TooLargeFmt, res.Length)
		c.outputStatus = l.SizeLimitExceeded
	case loader.StatusShapeRejected:
		c.status = StatusInvalid
		c.message = l.NotJSONShape
		c.outputStatus = l.InvalidJSON
	default:
		c.status = StatusInvalid
		c.message = fmt.Sprintf(l.ParseFailedFmt, res.Message)
		c.outputStatus = l.InvalidJSON
	}
}

// Copy writes the last formatted text (pretty or minified) to the
// clipboard. It does nothing when there is no output or the output is an
// error. A clipboard failure only changes the status line. It reports
// whether the text reached the clipboard.
func (c *Controller) Copy(ctx context.Context) bool {
	c.mu.Lock()
	text := c.copyText()
	cb := c.opts.Clipboard
	c.mu.Unlock()
	if text == "" {
		return false
	}

	err := fmt.Errorf("no clipboard configured")
	if cb != nil {
		cctx, cancel := context.WithTimeout(ctx, ClipboardTimeout)
		err = cb.WriteText(cctx, text)
		cancel()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.transient = c.opts.Locale.CopyFailed
		return false
	}
	c.transient = c.opts.Locale.Copied
	return true
}

func (c *Controller) copyText() string {
	if c.status.IsError() {
		return ""
	}
	if c.minifiedText != "" {
		return c.minifiedText
	}
	return c.lastFormatted
}

// ClearTransient drops a copy status so the regular output status shows
// again. Front ends call it TransientStatusDuration after Copy.
func (c *Controller) ClearTransient() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transient = ""
}

// Minify replaces the output with the compact serialization of the last
// formatted text. It does nothing when there is no output or the output is an
// error, and leaves the output untouched if the text no longer parses.
func (c *Controller) Minify() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	text := c.copyText()
	if text == "" {
		return false
	}
	v, err := jsonvalue.Parse(text)
	if err != nil {
		c.outputStatus = c.opts.Locale.MinifyFailed
		return false
	}
	c.minifiedText = jsonvalue.Marshal(v)
	c.tree = nil
	c.outputStatus = fmt.Sprintf(c.opts.Locale.OutputLengthFmt, utf8.RuneCountInString(c.minifiedText)) +
		c.opts.Locale.MinifiedSuffix
	return true
}

// ExpandAll expands every container of the current tree.
func (c *Controller) ExpandAll() {
	c.withTree(func(t *formatter.Tree) { t.ExpandAll() })
}

// CollapseAll collapses every container of the current tree.
func (c *Controller) CollapseAll() {
	c.withTree(func(t *formatter.Tree) { t.CollapseAll() })
}

// CollapseToLevel expands everything, then collapses containers at or below
// the given depth.
func (c *Controller) CollapseToLevel(level int) {
	c.withTree(func(t *formatter.Tree) { t.CollapseToLevel(level) })
}

// Toggle flips one container of the current tree.
func (c *Controller) Toggle(id string) error {
	var err error
	c.withTree(func(t *formatter.Tree) { err = t.Toggle(id) })
	return err
}

func (c *Controller) withTree(fn func(*formatter.Tree)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tree != nil {
		fn(c.tree)
	}
}

// Snapshot returns the current page state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	l := c.opts.Locale

	s := Snapshot{
		Input:        c.input,
		Status:       c.status,
		OutputStatus: c.outputStatus,
		OutputError:  c.status.IsError(),
		Minified:     c.minifiedText != "",
		Tree:         c.tree,
		CopyText:     c.copyText(),
	}
	if n := utf8.RuneCountInString(c.input); n == 0 {
		s.InputStatus = l.NoInput
	} else {
		s.InputStatus = fmt.Sprintf(l.InputLengthFmt, n)
	}
	switch {
	case c.tree != nil:
		s.Output = c.tree.VisibleText()
	case c.minifiedText != "":
		s.Output = c.minifiedText
	default:
		s.Output = c.message
	}
	if c.transient != "" {
		s.OutputStatus = c.transient
		s.Transient = true
	}
	return s
}
