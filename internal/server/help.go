package server

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/oakwood-commons/jvx/pkg/logger"
)

// helpMarkdown is the help page source followed by the expression function
// reference when an evaluator is configured.
func (s *Server) helpMarkdown() string {
	src, err := assetsFS.ReadFile("assets/help.md")
	if err != nil {
		return "# jvx\n"
	}
	var sb strings.Builder
	sb.Write(src)
	if s.opts.Evaluator == nil {
		sb.WriteString("\nExpressions are disabled.\n")
		return sb.String()
	}
	sb.WriteString("\n")
	for _, doc := range s.opts.Evaluator.FunctionDocs() {
		sb.WriteString("- `" + doc + "`\n")
	}
	return sb.String()
}

func renderMarkdown(src string) template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock)
	doc := p.Parse([]byte(src))
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank})
	return template.HTML(markdown.Render(doc, renderer)) //nolint:gosec // rendered from embedded markdown
}

func (s *Server) handleHelp(w http.ResponseWriter, r *http.Request) {
	s.helpOnce.Do(func() { s.help = renderMarkdown(s.helpMarkdown()) })
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := s.pages.ExecuteTemplate(w, "help", struct {
		Lang string
		Body template.HTML
	}{Lang: s.locale.Tag, Body: s.help})
	if err != nil {
		logger.FromContext(r.Context()).Error(err, "rendering help page")
	}
}
