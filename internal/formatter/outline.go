package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xlab/treeprint"

	"github.com/oakwood-commons/jvx/pkg/jsonvalue"
)

const defaultMaxArrayInline = 3

// OutlineOptions controls outline output.
type OutlineOptions struct {
	// MaxDepth limits outline depth (0 = unlimited).
	MaxDepth int
	// MaxArrayInline is the most scalar elements shown inline (default 3).
	MaxArrayInline int
	// MaxStringLen truncates long strings; 0 or negative means no truncation.
	MaxStringLen int
	// Locale words the summaries of long scalar arrays.
	Locale Locale
}

// FormatAsOutline renders v as an ASCII branch diagram: containers become
// branches labelled by key or index and scalars are leaves. Member order is
// the document order.
func FormatAsOutline(v jsonvalue.Value, opts OutlineOptions) string {
	if opts.MaxArrayInline == 0 {
		opts.MaxArrayInline = defaultMaxArrayInline
	}
	if opts.Locale.Tag == "" {
		opts.Locale = English
	}
	tree := treeprint.New()
	switch {
	case !v.IsContainer():
		tree.AddNode(outlineScalar(v, opts))
	default:
		addChildren(tree, v, opts, 0)
	}
	return tree.String()
}

func addChildren(branch treeprint.Tree, v jsonvalue.Value, opts OutlineOptions, depth int) {
	for i := 0; i < v.Len(); i++ {
		if v.Kind() == jsonvalue.Array {
			addOutlineNode(branch, "["+strconv.Itoa(i)+"]", v.Elem(i), opts, depth)
			continue
		}
		m := v.Member(i)
		addOutlineNode(branch, m.Key, m.Value, opts, depth)
	}
}

func addOutlineNode(branch treeprint.Tree, label string, v jsonvalue.Value, opts OutlineOptions, depth int) {
	if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
		branch.AddNode(label + ": ...")
		return
	}
	switch {
	case !v.IsContainer():
		branch.AddNode(label + ": " + outlineScalar(v, opts))
	case v.Len() == 0:
		open, closing := brackets(v.Kind())
		branch.AddNode(label + ": " + open + closing)
	case v.Kind() == jsonvalue.Array && isScalarArray(v):
		if v.Len() <= opts.MaxArrayInline {
			branch.AddNode(label + ": " + inlineArray(v, opts))
		} else {
			branch.AddNode(label + ": [" + opts.Locale.Placeholder(false, v.Len()) + "]")
		}
	default:
		addChildren(branch.AddBranch(label), v, opts, depth+1)
	}
}

func isScalarArray(v jsonvalue.Value) bool {
	for i := 0; i < v.Len(); i++ {
		if v.Elem(i).IsContainer() {
			return false
		}
	}
	return true
}

func inlineArray(v jsonvalue.Value, opts OutlineOptions) string {
	parts := make([]string, v.Len())
	for i := range parts {
		parts[i] = outlineScalar(v.Elem(i), opts)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// outlineScalar prints strings unquoted, truncated to MaxStringLen.
func outlineScalar(v jsonvalue.Value, opts OutlineOptions) string {
	switch v.Kind() {
	case jsonvalue.String:
		s := v.Str()
		if opts.MaxStringLen <= 0 || len([]rune(s)) <= opts.MaxStringLen {
			return s
		}
		if opts.MaxStringLen <= 3 {
			return "..."
		}
		return string([]rune(s)[:opts.MaxStringLen-3]) + "..."
	case jsonvalue.Number:
		return jsonvalue.FormatNumber(v.Float())
	case jsonvalue.Bool:
		return strconv.FormatBool(v.Bool())
	case jsonvalue.Null:
		return "null"
	default:
		return fmt.Sprintf("<%s>", v.Kind())
	}
}
