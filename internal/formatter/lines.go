package formatter

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/amterp/color"
)

// Class tags a piece of rendered text with its role.
type Class string

const (
	ClassKey         Class = "key"
	ClassString      Class = "string"
	ClassNumber      Class = "number"
	ClassBoolean     Class = "boolean"
	ClassNull        Class = "null"
	ClassPunct       Class = "punct"
	ClassIndent      Class = "indent"
	ClassPlaceholder Class = "placeholder"
	ClassToggle      Class = "toggle" // zero width, marks the control of Node
	ClassNewline     Class = "newline"
)

// Segment is a run of visible text with a single class.
type Segment struct {
	Class Class
	Text  string
	Level int   // nesting level, for ClassIndent
	Node  *Node // container, for ClassToggle
}

// Line is one visible line of the rendering.
type Line struct {
	Number   int // 1-based
	Segments []Segment
	// Toggle is the container whose control sits on this line, if any.
	Toggle *Node
}

// Text returns the plain text of the line.
func (l Line) Text() string {
	var sb strings.Builder
	for _, s := range l.Segments {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// Lines flattens the visible rendering into lines. A line holds at most one
// toggle because every expanded container breaks the line after its opening
// bracket.
func (t *Tree) Lines() []Line {
	lines := make([]Line, 0, t.LineCount())
	cur := Line{Number: 1}
	t.walk(t.root, func(s Segment) {
		switch s.Class {
		case ClassNewline:
			lines = append(lines, cur)
			cur = Line{Number: len(lines) + 1}
		case ClassToggle:
			cur.Toggle = s.Node
		default:
			cur.Segments = append(cur.Segments, s)
		}
	})
	return append(lines, cur)
}

// Palette maps classes to terminal colours. A nil entry prints uncoloured.
type Palette struct {
	Key         *color.Color
	String      *color.Color
	Number      *color.Color
	Boolean     *color.Color
	Null        *color.Color
	Punct       *color.Color
	Placeholder *color.Color
	Gutter      *color.Color
}

// DefaultPalette follows the viewer page's token colours.
func DefaultPalette() Palette {
	return Palette{
		Key:         color.New(color.FgRed),
		String:      color.New(color.FgGreen),
		Number:      color.New(color.FgBlue),
		Boolean:     color.New(color.FgMagenta),
		Null:        color.New(color.FgMagenta),
		Placeholder: color.New(color.Faint, color.Italic),
		Gutter:      color.New(color.FgHiBlack),
	}
}

func (p Palette) forClass(c Class) *color.Color {
	switch c {
	case ClassKey:
		return p.Key
	case ClassString:
		return p.String
	case ClassNumber:
		return p.Number
	case ClassBoolean:
		return p.Boolean
	case ClassNull:
		return p.Null
	case ClassPunct:
		return p.Punct
	case ClassPlaceholder:
		return p.Placeholder
	default:
		return nil
	}
}

// ANSIOptions controls WriteANSI.
type ANSIOptions struct {
	Palette     Palette
	LineNumbers bool
}

// WriteANSI writes the visible rendering with terminal colours.
func (t *Tree) WriteANSI(w io.Writer, opts ANSIOptions) error {
	bw := bufio.NewWriter(w)
	lines := t.Lines()
	width := len(fmt.Sprint(len(lines)))
	for i, line := range lines {
		if i > 0 {
			bw.WriteByte('\n')
		}
		if opts.LineNumbers {
			bw.WriteString(paint(opts.Palette.Gutter, fmt.Sprintf("%*d ", width, line.Number)))
		}
		for _, s := range line.Segments {
			bw.WriteString(paint(opts.Palette.forClass(s.Class), s.Text))
		}
	}
	bw.WriteByte('\n')
	return bw.Flush()
}

func paint(c *color.Color, s string) string {
	if c == nil || s == "" {
		return s
	}
	return c.Sprint(s)
}
