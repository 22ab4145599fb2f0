package formatter

import (
	"bufio"
	"fmt"
	"html"
	"io"
)

// PlainOptions configures NewPlainView.
type PlainOptions struct {
	Locale Locale
	// Oversize marks text above the hard ceiling; it is shown raw with a
	// size-exceeded notice instead of the folding upgrade.
	Oversize bool
	// UpgradeURL, when set, is linked from the "enable folding" control.
	UpgradeURL string
	// IDPrefix namespaces element IDs; defaults to "plain".
	IDPrefix string
}

// PlainView renders text without token markup or collapse controls, so its
// construction cost stays linear in the input size.
type PlainView struct {
	text string
	opts PlainOptions
}

// NewPlainView prepares a plain rendering of text.
func NewPlainView(text string, opts PlainOptions) *PlainView {
	if opts.Locale.Tag == "" {
		opts.Locale = English
	}
	if opts.IDPrefix == "" {
		opts.IDPrefix = "plain"
	}
	return &PlainView{text: text, opts: opts}
}

// Text returns the text shown by the view.
func (p *PlainView) Text() string { return p.text }

// Oversize reports whether the view shows unparsed text above the ceiling.
func (p *PlainView) Oversize() bool { return p.opts.Oversize }

// SizeIndicator is the one-line human-readable size, e.g. "approx. 2.3 MB".
func (p *PlainView) SizeIndicator() string {
	return p.opts.Locale.Approx(int64(len(p.text)))
}

// Notice is the banner shown above the text.
func (p *PlainView) Notice() string {
	if p.opts.Oversize {
		return fmt.Sprintf(p.opts.Locale.OversizeNotice, p.SizeIndicator())
	}
	return fmt.Sprintf(p.opts.Locale.LargeNotice, p.SizeIndicator())
}

// LineCount is the number of lines in the text.
func (p *PlainView) LineCount() int {
	n := 1
	for i := 0; i < len(p.text); i++ {
		if p.text[i] == '\n' {
			n++
		}
	}
	return n
}

// WriteHTML writes the toolbar and the escaped text region. The controls are
// wired by data-action attributes in the page script.
func (p *PlainView) WriteHTML(w io.Writer) error {
	l := p.opts.Locale
	id := p.opts.IDPrefix
	bw := bufio.NewWriter(w)

	bw.WriteString(`<div class="plain-view" data-oversize="` + fmt.Sprint(p.opts.Oversize) + `">`)
	bw.WriteString(`<div class="toolbar">`)
	bw.WriteString(`<span class="notice">` + html.EscapeString(p.Notice()) + `</span>`)
	for _, b := range []struct{ action, label string }{
		{"copy", l.Copy},
		{"select-all", l.SelectAll},
		{"scroll-top", l.ScrollTop},
		{"scroll-bottom", l.ScrollBottom},
	} {
		bw.WriteString(`<button type="button" data-action="` + b.action + `" data-target="` + id +
			`-text">` + html.EscapeString(b.label) + `</button>`)
	}
	if !p.opts.Oversize && p.opts.UpgradeURL != "" {
		bw.WriteString(`<a class="upgrade" href="` + html.EscapeString(p.opts.UpgradeURL) + `">` +
			html.EscapeString(l.EnableFolding) + `</a>`)
	}
	bw.WriteString(`</div>`)
	bw.WriteString(`<pre class="plain" id="` + id + `-text" tabindex="0">`)
	bw.WriteString(html.EscapeString(p.text))
	bw.WriteString(`</pre></div>`)
	return bw.Flush()
}
