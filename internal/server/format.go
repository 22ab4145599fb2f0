package server

import (
	"encoding/json"
	"fmt"
	"html"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/oakwood-commons/jvx/internal/config"
	"github.com/oakwood-commons/jvx/internal/formatpage"
	"github.com/oakwood-commons/jvx/internal/formatter"
	"github.com/oakwood-commons/jvx/pkg/logger"
)

// partialHeader asks the formatter page for a JSON update instead of a page.
const partialHeader = "X-Jvx-Partial"

type formatPageData struct {
	Lang            string
	Theme           config.ThemeConfig
	Locale          formatter.Locale
	Snap            formatpage.Snapshot
	Output          template.HTML
	Gutter          string
	Copy            template.JS
	Levels          []level
	DebounceMillis  int64
	TransientMillis int64
}

type formatUpdate struct {
	InputStatus  string `json:"inputStatus"`
	OutputStatus string `json:"outputStatus"`
	OutputHTML   string `json:"outputHTML"`
	CopyText     string `json:"copyText"`
	Error        bool   `json:"error"`
	Minified     bool   `json:"minified"`
}

// handleFormat serves the standalone formatter. Each request formats the
// submitted input at once and then applies the requested action; the page
// script debounces typing and posts partial updates.
func (s *Server) handleFormat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxReadBytes()+64*1024)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	cfg := s.opts.Config
	ctrl := formatpage.New(formatpage.Options{
		Locale:   s.locale,
		MaxChars: s.limits.Ceiling(),
		IDPrefix: "f",
	})
	input := r.FormValue("input")
	action := r.FormValue("action")
	if action == "clear" {
		input = ""
	}
	ctrl.SetInput(input)
	ctrl.FormatNow()
	s.applyFormatAction(ctrl, action)
	snap := ctrl.Snapshot()
	output := outputHTML(snap)

	if r.Header.Get(partialHeader) == "1" {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		err := json.NewEncoder(w).Encode(formatUpdate{
			InputStatus:  snap.InputStatus,
			OutputStatus: snap.OutputStatus,
			OutputHTML:   string(output),
			CopyText:     snap.CopyText,
			Error:        snap.OutputError,
			Minified:     snap.Minified,
		})
		if err != nil {
			logger.FromContext(r.Context()).V(1).Info("writing format update", "error", err.Error())
		}
		return
	}

	levels := make([]level, len(cfg.Formatter.CollapseLevels))
	for i, l := range cfg.Formatter.CollapseLevels {
		levels[i] = level{Level: l, Label: fmt.Sprintf(s.locale.CollapseLevel, l)}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := s.pages.ExecuteTemplate(w, "format", formatPageData{
		Lang:            s.locale.Tag,
		Theme:           s.opts.Theme,
		Locale:          s.locale,
		Snap:            snap,
		Output:          output,
		Gutter:          gutterText(snap.LineCount()),
		Copy:            copyPayload(snap.CopyText),
		Levels:          levels,
		DebounceMillis:  config.DurationOr(cfg.Formatter.Debounce, formatpage.DebounceDelay).Milliseconds(),
		TransientMillis: config.DurationOr(cfg.Formatter.TransientStatus, formatpage.TransientStatusDuration).Milliseconds(),
	})
	if err != nil {
		logger.FromContext(r.Context()).Error(err, "rendering format page")
	}
}

func (s *Server) applyFormatAction(ctrl *formatpage.Controller, action string) {
	switch {
	case action == "minify":
		ctrl.Minify()
	case action == "expand":
		ctrl.ExpandAll()
	case action == "collapse":
		ctrl.CollapseAll()
	case strings.HasPrefix(action, "level-"):
		n, err := strconv.Atoi(strings.TrimPrefix(action, "level-"))
		if err != nil || n < 0 {
			return
		}
		ctrl.CollapseToLevel(n)
	}
}

// outputHTML is the tree markup while the output is a tree, else the escaped
// output text.
func outputHTML(snap formatpage.Snapshot) template.HTML {
	if snap.Tree != nil {
		return template.HTML(snap.Tree.HTMLString()) //nolint:gosec // markup is escaped by the tree writer
	}
	return template.HTML(html.EscapeString(snap.Output)) //nolint:gosec // escaped above
}
