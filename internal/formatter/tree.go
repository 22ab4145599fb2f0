package formatter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/oakwood-commons/jvx/pkg/jsonvalue"
)

// IndentUnit is the indentation emitted per nesting level.
const IndentUnit = "  "

// ErrUnknownTarget is returned when a toggle ID does not belong to the tree.
var ErrUnknownTarget = errors.New("unknown toggle target")

// Node is one rendered value. Non-empty containers carry an ID and can be
// collapsed; every other node is a leaf of the rendering.
type Node struct {
	ID        string
	Key       string
	HasKey    bool
	Value     jsonvalue.Value
	Level     int
	Collapsed bool
	Children  []*Node
	Parent    *Node
}

// Toggleable reports whether the node has a collapse control.
func (n *Node) Toggleable() bool { return n.ID != "" }

// Count is the number of elements or members of a container.
func (n *Node) Count() int { return n.Value.Len() }

// TreeOption configures NewTree.
type TreeOption func(*Tree)

// WithIDPrefix sets the prefix of generated toggle IDs. Trees rendered into
// the same page need distinct prefixes.
func WithIDPrefix(prefix string) TreeOption {
	return func(t *Tree) { t.prefix = prefix }
}

// WithLocale selects the language of collapsed summaries.
func WithLocale(l Locale) TreeOption {
	return func(t *Tree) { t.locale = l }
}

// Tree owns the nodes of one render pass and their collapse state. A Tree is
// not safe for concurrent use; each front end owns its own.
type Tree struct {
	root       *Node
	containers []*Node
	byID       map[string]*Node
	prefix     string
	locale     Locale

	lines      int
	dirty      bool
	recomputed int
}

// NewTree builds the render tree for v with everything expanded. Toggle IDs
// are assigned in pre-order.
func NewTree(v jsonvalue.Value, opts ...TreeOption) *Tree {
	t := &Tree{
		byID:   make(map[string]*Node),
		prefix: "n",
		locale: English,
		dirty:  true,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.root = t.build(v, "", false, 0, nil)
	return t
}

func (t *Tree) build(v jsonvalue.Value, key string, hasKey bool, level int, parent *Node) *Node {
	n := &Node{Key: key, HasKey: hasKey, Value: v, Level: level, Parent: parent}
	if !v.IsContainer() || v.Len() == 0 {
		return n
	}
	n.ID = t.prefix + strconv.Itoa(len(t.containers))
	t.containers = append(t.containers, n)
	t.byID[n.ID] = n

	n.Children = make([]*Node, v.Len())
	for i := range n.Children {
		if v.Kind() == jsonvalue.Array {
			n.Children[i] = t.build(v.Elem(i), "", false, level+1, n)
			continue
		}
		m := v.Member(i)
		n.Children[i] = t.build(m.Value, m.Key, true, level+1, n)
	}
	return n
}

// Root returns the node for the whole document.
func (t *Tree) Root() *Node { return t.root }

// Locale returns the locale used for collapsed summaries.
func (t *Tree) Locale() Locale { return t.locale }

// Node looks up a toggleable node by ID.
func (t *Tree) Node(id string) (*Node, bool) {
	n, ok := t.byID[id]
	return n, ok
}

// Containers returns every toggleable node in pre-order.
func (t *Tree) Containers() []*Node { return t.containers }

// Toggle flips the collapse state of the container with the given ID.
func (t *Tree) Toggle(id string) error {
	n, ok := t.byID[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTarget, id)
	}
	t.setCollapsed(n, !n.Collapsed)
	return nil
}

// SetCollapsed sets the collapse state of the container with the given ID.
func (t *Tree) SetCollapsed(id string, collapsed bool) error {
	n, ok := t.byID[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTarget, id)
	}
	t.setCollapsed(n, collapsed)
	return nil
}

func (t *Tree) setCollapsed(n *Node, collapsed bool) {
	if n.Collapsed != collapsed {
		n.Collapsed = collapsed
		t.dirty = true
	}
}

// ExpandAll expands every container.
func (t *Tree) ExpandAll() {
	for _, n := range t.containers {
		t.setCollapsed(n, false)
	}
}

// CollapseAll collapses every container.
func (t *Tree) CollapseAll() {
	for _, n := range t.containers {
		t.setCollapsed(n, true)
	}
}

// CollapseToLevel expands everything, then collapses each container whose
// level is at least level. Level 0 is the root.
func (t *Tree) CollapseToLevel(level int) {
	for _, n := range t.containers {
		t.setCollapsed(n, n.Level >= level)
	}
}

// LineCount is the number of lines in the visible text. It is recomputed at
// most once per read after any number of state changes.
func (t *Tree) LineCount() int {
	if t.dirty {
		t.lines = countNewlines(t.root) + 1
		t.dirty = false
		t.recomputed++
	}
	return t.lines
}

// Recomputations reports how many times LineCount had to walk the tree.
func (t *Tree) Recomputations() int { return t.recomputed }

func countNewlines(n *Node) int {
	if !n.Toggleable() || n.Collapsed {
		return 0
	}
	total := len(n.Children) + 1
	for _, c := range n.Children {
		total += countNewlines(c)
	}
	return total
}

// VisibleText returns the text a reader sees: the two-space serialization
// with collapsed containers replaced by their one-line summary.
func (t *Tree) VisibleText() string {
	var sb strings.Builder
	t.walk(t.root, func(s Segment) {
		sb.WriteString(s.Text)
	})
	return sb.String()
}

// Placeholder returns the collapsed summary for n.
func (t *Tree) Placeholder(n *Node) string {
	return t.locale.Placeholder(n.Value.Kind() == jsonvalue.Object, n.Count())
}

// walk emits the visible segments of n in document order.
func (t *Tree) walk(n *Node, emit func(Segment)) {
	v := n.Value
	switch v.Kind() {
	case jsonvalue.Null:
		emit(Segment{Class: ClassNull, Text: "null"})
	case jsonvalue.Bool:
		emit(Segment{Class: ClassBoolean, Text: strconv.FormatBool(v.Bool())})
	case jsonvalue.Number:
		emit(Segment{Class: ClassNumber, Text: jsonvalue.FormatNumber(v.Float())})
	case jsonvalue.String:
		emit(Segment{Class: ClassString, Text: jsonvalue.Quote(v.Str())})
	case jsonvalue.Array, jsonvalue.Object:
		open, closing := brackets(v.Kind())
		if !n.Toggleable() {
			emit(Segment{Class: ClassPunct, Text: open + closing})
			return
		}
		emit(Segment{Class: ClassToggle, Node: n})
		emit(Segment{Class: ClassPunct, Text: open})
		if n.Collapsed {
			emit(Segment{Class: ClassPlaceholder, Text: t.Placeholder(n)})
			emit(Segment{Class: ClassPunct, Text: closing})
			return
		}
		for i, c := range n.Children {
			if i > 0 {
				emit(Segment{Class: ClassPunct, Text: ","})
			}
			emitBreak(emit, n.Level+1)
			if c.HasKey {
				emit(Segment{Class: ClassKey, Text: jsonvalue.Quote(c.Key)})
				emit(Segment{Class: ClassPunct, Text: ": "})
			}
			t.walk(c, emit)
		}
		emitBreak(emit, n.Level)
		emit(Segment{Class: ClassPunct, Text: closing})
	}
}

func emitBreak(emit func(Segment), level int) {
	emit(Segment{Class: ClassNewline, Text: "\n"})
	if level > 0 {
		emit(Segment{Class: ClassIndent, Text: strings.Repeat(IndentUnit, level), Level: level})
	}
}

func brackets(k jsonvalue.Kind) (string, string) {
	if k == jsonvalue.Object {
		return "{", "}"
	}
	return "[", "]"
}
