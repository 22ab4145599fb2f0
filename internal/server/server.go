// Package server puts the viewer in front of real HTTP traffic. It proxies an
// upstream (or serves files) and replaces JSON documents requested by
// top-level navigations with a viewer page. It also hosts the formatter page,
// the help page and live reload events.
package server

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/jvx/internal/cel"
	"github.com/oakwood-commons/jvx/internal/config"
	"github.com/oakwood-commons/jvx/internal/formatpage"
	"github.com/oakwood-commons/jvx/internal/formatter"
	"github.com/oakwood-commons/jvx/internal/hint"
	"github.com/oakwood-commons/jvx/internal/limiter"
	"github.com/oakwood-commons/jvx/internal/sniffer"
	"github.com/oakwood-commons/jvx/internal/viewer"
	"github.com/oakwood-commons/jvx/pkg/jsonvalue"
	"github.com/oakwood-commons/jvx/pkg/logger"
)

const (
	// PathPrefix is reserved for jvx's own pages.
	PathPrefix = "/__jvx/"

	shutdownTimeout = 5 * time.Second
)

var (
	// ErrNoBackend is returned by New without an upstream, root or file.
	ErrNoBackend = errors.New("one of upstream, root directory or file is required")

	//go:embed assets
	assetsFS embed.FS

	errIntercepted = errors.New("response intercepted by viewer")
)

// Options configures a Server. Exactly one of Upstream, Root and File is set.
type Options struct {
	Config config.Config
	Theme  config.ThemeConfig

	// Upstream is proxied.
	Upstream *url.URL
	// Root is served as a directory tree.
	Root string
	// File is served at every path and watched for changes.
	File string

	// Transport reaches Upstream; nil uses http.DefaultTransport.
	Transport http.RoundTripper
	// Evaluator runs the expression query parameter; nil disables it.
	Evaluator *cel.Evaluator
	Logger    logr.Logger
}

// Server is the jvx HTTP front end.
type Server struct {
	opts   Options
	lgr    logr.Logger
	limits limiter.Config
	locale formatter.Locale
	policy hint.Policy
	pages  *template.Template
	assets fs.FS
	cache  *renderCache
	events *broker
	proxy  *httputil.ReverseProxy

	helpOnce sync.Once
	help     template.HTML
}

// New validates opts and builds the server.
func New(opts Options) (*Server, error) {
	backends := 0
	for _, set := range []bool{opts.Upstream != nil, opts.Root != "", opts.File != ""} {
		if set {
			backends++
		}
	}
	if backends != 1 {
		return nil, ErrNoBackend
	}

	pages, err := template.ParseFS(assetsFS, "assets/pages.html")
	if err != nil {
		return nil, fmt.Errorf("parsing page templates: %w", err)
	}
	assets, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		return nil, err
	}

	cc := opts.Config.Server.Cache
	var maxCost, counters int64
	if cc.MaxCost != nil {
		maxCost = *cc.MaxCost
	}
	if cc.NumCounters != nil {
		counters = *cc.NumCounters
	}
	cache, err := newRenderCache(maxCost, counters)
	if err != nil {
		return nil, err
	}

	lgr := opts.Logger
	if lgr.GetSink() == nil {
		lgr = *logger.GetNoopLogger()
	}
	s := &Server{
		opts:   opts,
		lgr:    lgr,
		limits: opts.Config.Limiter(),
		locale: opts.Config.Locale(),
		policy: opts.Config.HintPolicy(),
		pages:  pages,
		assets: assets,
		cache:  cache,
		events: newBroker(),
	}
	if opts.Upstream != nil {
		s.proxy = s.newProxy(opts.Upstream)
	}
	return s, nil
}

// Close releases the render cache.
func (s *Server) Close() { s.cache.close() }

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(PathPrefix+"assets/", http.StripPrefix(PathPrefix+"assets/", http.FileServer(http.FS(s.assets))))
	mux.HandleFunc(PathPrefix+"format", s.handleFormat)
	mux.HandleFunc(PathPrefix+"help", s.handleHelp)
	if s.opts.File != "" {
		mux.Handle(PathPrefix+"events", s.events)
	}
	mux.HandleFunc("/", s.serveBackend)
	return withLogger(s.lgr, withRecovery(mux))
}

// Serve runs the server on ln until ctx ends, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.opts.File != "" {
		if err := watchFile(logger.WithLogger(ctx, &s.lgr), s.opts.File, s.events); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: config.DurationOr(s.opts.Config.Server.ReadHeaderTimeout, 10*time.Second),
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) serveBackend(w http.ResponseWriter, r *http.Request) {
	switch {
	case s.proxy != nil:
		s.serveProxy(w, r)
	case s.opts.File != "":
		s.serveFile(w, r, s.opts.File)
	default:
		s.serveRoot(w, r)
	}
}

// page is the viewer state of one response.
type page struct {
	surface *PageSurface
	ctrl    *viewer.Controller
	expr    string
	force   bool
}

func (s *Server) newPage(w http.ResponseWriter, r *http.Request) *page {
	cfg := s.opts.Config
	surface := newPageSurface(w, s.pages)
	surface.Title = r.URL.Path
	surface.Locale = s.locale
	surface.Theme = s.opts.Theme
	surface.Live = s.opts.File != ""
	surface.Levels = cfg.Formatter.CollapseLevels
	surface.TransientMillis = config.DurationOr(cfg.Formatter.TransientStatus, formatpage.TransientStatusDuration).Milliseconds()
	surface.Cache = s.cache

	q := r.URL.Query()
	p := &page{
		surface: surface,
		expr:    strings.TrimSpace(q.Get(cfg.Viewer.ExprParam)),
		force:   q.Get(cfg.Viewer.FoldParam) == "1",
	}
	p.ctrl = viewer.New(surface, viewer.Options{
		Limits:          s.limits,
		Locale:          s.locale,
		ForceStructured: p.force,
		UpgradeURL:      upgradeURL(r.URL, cfg.Viewer.FoldParam),
		IDPrefix:        cfg.Viewer.IDPrefix,
		Transform:       s.transform(p.expr),
	})
	return p
}

// transform compiles the query expression. A bad expression fails the
// pipeline, which restores the page.
func (s *Server) transform(expr string) viewer.Transform {
	if expr == "" || s.opts.Evaluator == nil {
		return nil
	}
	t, err := s.opts.Evaluator.Transform(expr)
	if err != nil {
		return func(context.Context, jsonvalue.Value) (jsonvalue.Value, error) { return jsonvalue.Value{}, err }
	}
	return t
}

func upgradeURL(u *url.URL, foldParam string) string {
	if foldParam == "" {
		return ""
	}
	up := *u
	q := up.Query()
	q.Set(foldParam, "1")
	up.RawQuery = q.Encode()
	return up.RequestURI()
}

// attach hands doc to the controller and keys the render cache on it.
func (s *Server) attach(p *page, doc sniffer.Document) {
	p.surface.Original = doc.Body
	p.surface.CacheKey = renderKey(s.locale.Tag, s.opts.Config.Viewer.IDPrefix, p.expr, string(doc.Body))
	p.ctrl.Attach(doc)
}

// deliverHint sends h to the page from its own goroutine, racing Start.
func (s *Server) deliverHint(ctx context.Context, p *page, h hint.Hint) {
	go func() {
		if err := hint.Deliver(ctx, p.ctrl, h, s.policy); err != nil && !errors.Is(err, context.Canceled) {
			logger.FromContext(ctx).V(1).Info("content type hint not delivered", "url", h.URL, "error", err.Error())
		}
	}()
}

// finish runs the pipeline and waits for it to end, whichever trigger ran
// it, so nothing writes to the response after the handler returns. A
// cancelled request fails Paint, which still ends the pipeline. When the
// viewer never claimed the response, passthrough writes the original.
func (s *Server) finish(ctx context.Context, p *page, passthrough func()) {
	lgr := logger.FromContext(ctx)
	if err := p.ctrl.Start(ctx); err != nil && !errors.Is(err, viewer.ErrAlreadyProcessed) {
		lgr.Error(err, "viewer pipeline failed")
	}
	<-p.ctrl.Done()
	if ctx.Err() != nil {
		return
	}
	if !p.surface.Committed() {
		passthrough()
		return
	}
	if err := p.surface.Close(); err != nil {
		lgr.V(1).Info("closing viewer page", "error", err.Error())
	}
	lgr.V(1).Info("viewer page served", "state", p.ctrl.State().String())
}

// isTopLevel reports whether r is a navigation of the whole browser window.
// Frames, embeds and script fetches are not.
func isTopLevel(r *http.Request) bool {
	switch r.Header.Get("Sec-Fetch-Dest") {
	case "document":
		return true
	case "":
		return strings.Contains(r.Header.Get("Accept"), "text/html")
	default:
		return false
	}
}

// maxReadBytes bounds how much of a body is buffered: enough for a
// document at the character ceiling in any UTF-8 encoding.
func (s *Server) maxReadBytes() int64 {
	return int64(s.limits.Ceiling())*4 + 1
}

// readCandidate reads up to limit bytes. When the body is longer, the
// returned reader replays everything and full is false.
func readCandidate(body io.ReadCloser, limit int64) (data []byte, rest io.ReadCloser, full bool, err error) {
	data, err = io.ReadAll(io.LimitReader(body, limit))
	if err != nil {
		return nil, nil, false, err
	}
	if int64(len(data)) < limit {
		return data, nil, true, nil
	}
	return nil, struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(data), body), body}, false, nil
}

func withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.FromContext(r.Context()).Error(fmt.Errorf("panic: %v", rec), "handler panicked", "path", r.URL.Path)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func withLogger(lgr logr.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqLgr := lgr.WithValues("method", r.Method, "path", r.URL.Path)
		start := time.Now()
		next.ServeHTTP(w, r.WithContext(logger.WithLogger(r.Context(), &reqLgr)))
		reqLgr.V(1).Info("request served", "duration", time.Since(start).String())
	})
}
