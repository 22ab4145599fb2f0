package formatter

import (
	"bufio"
	"html"
	"io"
	"strconv"
	"strings"

	"github.com/oakwood-commons/jvx/pkg/jsonvalue"
)

// WriteHTML writes the tree as markup for a <pre> element. Every container
// carries both its content region and its summary region; the collapsed one
// is hidden by class, so the text a browser shows equals VisibleText.
//
// Markup per container, with id being the node ID:
//
//	<span class="tg" data-target="id" data-level="L"></span>[
//	<span class="content" id="id-c">...</span>
//	<span class="placeholder" id="id-p">... N items</span>]
func (t *Tree) WriteHTML(w io.Writer) error {
	hw := &htmlWriter{w: bufio.NewWriter(w), tree: t}
	hw.node(t.root)
	return hw.w.Flush()
}

type htmlWriter struct {
	w    *bufio.Writer
	tree *Tree
}

func (h *htmlWriter) token(class Class, text string) {
	h.w.WriteString(`<span class="`)
	h.w.WriteString(string(class))
	h.w.WriteString(`">`)
	h.w.WriteString(html.EscapeString(text))
	h.w.WriteString(`</span>`)
}

// lineBreak writes a newline followed by one guide span per indent level.
func (h *htmlWriter) lineBreak(level int) {
	h.w.WriteByte('\n')
	for i := 0; i < level; i++ {
		h.w.WriteString(`<span class="ig">`)
		h.w.WriteString(IndentUnit)
		h.w.WriteString(`</span>`)
	}
}

func (h *htmlWriter) node(n *Node) {
	v := n.Value
	switch v.Kind() {
	case jsonvalue.Null:
		h.token(ClassNull, "null")
	case jsonvalue.Bool:
		h.token(ClassBoolean, strconv.FormatBool(v.Bool()))
	case jsonvalue.Number:
		h.token(ClassNumber, jsonvalue.FormatNumber(v.Float()))
	case jsonvalue.String:
		h.token(ClassString, jsonvalue.Quote(v.Str()))
	case jsonvalue.Array, jsonvalue.Object:
		h.container(n)
	}
}

func (h *htmlWriter) container(n *Node) {
	open, closing := brackets(n.Value.Kind())
	if !n.Toggleable() {
		h.w.WriteString(open + closing)
		return
	}

	toggleClass, contentClass, placeholderClass, expanded := "tg", "content", "placeholder", "true"
	if n.Collapsed {
		toggleClass += " collapsed"
		contentClass += " collapsed"
		placeholderClass += " show"
		expanded = "false"
	}
	h.w.WriteString(`<span class="` + toggleClass + `" data-target="` + n.ID +
		`" data-level="` + strconv.Itoa(n.Level) + `" role="button" aria-expanded="` + expanded + `"></span>`)
	h.w.WriteString(open)

	h.w.WriteString(`<span class="` + contentClass + `" id="` + n.ID + `-c">`)
	for i, c := range n.Children {
		if i > 0 {
			h.w.WriteByte(',')
		}
		h.lineBreak(n.Level + 1)
		if c.HasKey {
			h.token(ClassKey, jsonvalue.Quote(c.Key))
			h.w.WriteString(": ")
		}
		h.node(c)
	}
	h.lineBreak(n.Level)
	h.w.WriteString(`</span>`)

	h.w.WriteString(`<span class="` + placeholderClass + `" id="` + n.ID + `-p">`)
	h.w.WriteString(html.EscapeString(h.tree.Placeholder(n)))
	h.w.WriteString(`</span>`)
	h.w.WriteString(closing)
}

// HTMLString is WriteHTML into a string.
func (t *Tree) HTMLString() string {
	var sb strings.Builder
	_ = t.WriteHTML(&sb)
	return sb.String()
}
