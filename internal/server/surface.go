package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/oakwood-commons/jvx/internal/config"
	"github.com/oakwood-commons/jvx/internal/formatter"
	"github.com/oakwood-commons/jvx/internal/viewer"
)

// errNotFlushable is returned by Paint when the response cannot be flushed.
var errNotFlushable = errors.New("response writer cannot flush")

// PageSurface writes a viewer page into an HTTP response. Nothing reaches the
// client before Paint, so a pipeline that aborts early leaves the response
// untouched and the caller can pass the original through.
type PageSurface struct {
	w     http.ResponseWriter
	bw    *bufio.Writer
	pages *template.Template

	Title    string
	Locale   formatter.Locale
	Theme    config.ThemeConfig
	Original []byte
	// Live adds the live reload hook to the page.
	Live bool
	// Levels are the collapse-to-level buttons of the toolbar.
	Levels          []int
	TransientMillis int64

	// Cache and CacheKey, when both set, reuse rendered tree markup.
	Cache    *renderCache
	CacheKey string

	hide      bool
	marked    bool
	committed bool
	closed    bool
	size      string
}

var _ viewer.Surface = (*PageSurface)(nil)

func newPageSurface(w http.ResponseWriter, pages *template.Template) *PageSurface {
	return &PageSurface{w: w, bw: bufio.NewWriterSize(w, 32*1024), pages: pages, Locale: formatter.English}
}

// ProcessedMarker reports whether this response already carries a viewer.
func (s *PageSurface) ProcessedMarker() bool { return s.marked }

// SetProcessedMarker makes the page root carry the processed attribute.
func (s *PageSurface) SetProcessedMarker() { s.marked = true }

// InjectHideStyle adds the style that keeps original content out of sight
// until a view is mounted.
func (s *PageSurface) InjectHideStyle() { s.hide = true }

// RemoveHideStyle drops the hide style, in the page when it was already sent.
func (s *PageSurface) RemoveHideStyle() {
	if s.hide && s.committed && !s.closed {
		s.bw.WriteString(`<script>(function(){var s=document.getElementById("jvx-hide");if(s)s.remove();})();</script>` + "\n")
		s.bw.Flush()
	}
	s.hide = false
}

// ShowLoading records the loading view; Paint sends it.
func (s *PageSurface) ShowLoading(size string) { s.size = size }

// Committed reports whether any part of the page was sent.
func (s *PageSurface) Committed() bool { return s.committed }

type preludeData struct {
	Lang    string
	Title   string
	Theme   config.ThemeConfig
	Hide    bool
	Live    bool
	Loading string
	Size    string
}

// Paint sends the page head and the loading view and flushes them.
func (s *PageSurface) Paint(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	flusher, ok := s.w.(http.Flusher)
	if !ok {
		return errNotFlushable
	}

	h := s.w.Header()
	h.Del("Content-Length")
	h.Del("Content-Encoding")
	h.Del("ETag")
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Cache-Control", "no-store")
	h.Set("X-Content-Type-Options", "nosniff")
	s.w.WriteHeader(http.StatusOK)
	s.committed = true

	err := s.pages.ExecuteTemplate(s.bw, "prelude", preludeData{
		Lang:    s.Locale.Tag,
		Title:   s.Title,
		Theme:   s.Theme,
		Hide:    s.hide,
		Live:    s.Live,
		Loading: s.Locale.Loading,
		Size:    s.size,
	})
	if err != nil {
		return fmt.Errorf("writing page head: %w", err)
	}
	if err := s.bw.Flush(); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

type level struct {
	Level int
	Label string
}

type toolbarData struct {
	Locale          formatter.Locale
	Levels          []level
	Size            string
	TransientMillis int64
}

// Mount sends the view and removes the loading indicator.
func (s *PageSurface) Mount(v viewer.View) error {
	if !s.committed {
		return errors.New("mount before paint")
	}
	switch v.Kind {
	case viewer.ViewPlain:
		if err := v.Plain.WriteHTML(s.bw); err != nil {
			return err
		}
	default:
		levels := make([]level, len(s.Levels))
		for i, l := range s.Levels {
			levels[i] = level{Level: l, Label: fmt.Sprintf(v.Locale.CollapseLevel, l)}
		}
		if err := s.pages.ExecuteTemplate(s.bw, "toolbar", toolbarData{
			Locale:          v.Locale,
			Levels:          levels,
			Size:            s.size,
			TransientMillis: s.TransientMillis,
		}); err != nil {
			return fmt.Errorf("writing toolbar: %w", err)
		}
		s.bw.WriteString(`<div class="jvx-body"><pre class="jvx-gutter" id="jvx-root-gutter" aria-hidden="true">`)
		s.bw.WriteString(gutterText(v.Tree.LineCount()))
		s.bw.WriteString(`</pre><pre class="jvx-tree" id="jvx-root">`)
		s.bw.WriteString(s.treeHTML(v.Tree))
		s.bw.WriteString("</pre></div>\n")
		s.bw.WriteString(`<script type="application/json" id="jvx-root-copy">`)
		s.bw.WriteString(string(copyPayload(v.Text)))
		s.bw.WriteString("</script>\n")
	}
	s.bw.WriteString(`<script src="/__jvx/assets/viewer.js"></script>` + "\n")
	s.removeLoading()
	return s.bw.Flush()
}

// gutterText numbers lines 1 to n, one per line.
func gutterText(n int) string {
	var sb strings.Builder
	for i := 1; i <= n; i++ {
		if i > 1 {
			sb.WriteByte('\n')
		}
		sb.WriteString(strconv.Itoa(i))
	}
	return sb.String()
}

// copyPayload encodes text as a JSON string for a script data block. The
// encoder escapes <, > and &, so the block cannot be closed early.
func copyPayload(text string) template.JS {
	b, err := json.Marshal(text)
	if err != nil {
		return `""`
	}
	return template.JS(b) //nolint:gosec // JSON string with HTML-significant runes escaped
}

func (s *PageSurface) treeHTML(t *formatter.Tree) string {
	if s.Cache == nil || s.CacheKey == "" {
		return t.HTMLString()
	}
	if cached, ok := s.Cache.get(s.CacheKey); ok {
		return cached
	}
	out := t.HTMLString()
	s.Cache.set(s.CacheKey, out)
	return out
}

// Restore sends the original text the way a browser shows a raw document.
// Before Paint there is nothing to undo.
func (s *PageSurface) Restore() error {
	if !s.committed {
		return nil
	}
	s.bw.WriteString(`<pre id="jvx-original">`)
	s.bw.WriteString(html.EscapeString(string(s.Original)))
	s.bw.WriteString("</pre>\n")
	s.removeLoading()
	return s.bw.Flush()
}

func (s *PageSurface) removeLoading() {
	s.bw.WriteString(`<script>(function(){var l=document.getElementById("jvx-loading");if(l)l.remove();})();</script>` + "\n")
}

// Close ends the page. It is a no-op when nothing was sent.
func (s *PageSurface) Close() error {
	if !s.committed || s.closed {
		return nil
	}
	s.closed = true
	s.bw.WriteString("</body>\n</html>\n")
	return s.bw.Flush()
}
