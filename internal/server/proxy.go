package server

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"

	"github.com/oakwood-commons/jvx/internal/hint"
	"github.com/oakwood-commons/jvx/internal/sniffer"
	"github.com/oakwood-commons/jvx/pkg/logger"
)

type interceptKey struct{}

func withIntercept(ctx context.Context, ic *intercept) context.Context {
	return context.WithValue(ctx, interceptKey{}, ic)
}

func interceptFrom(ctx context.Context) (*intercept, bool) {
	ic, ok := ctx.Value(interceptKey{}).(*intercept)
	return ic, ok
}

// intercept carries one proxied response from ModifyResponse to the error
// handler, which owns the client connection.
type intercept struct {
	page *page
	resp *http.Response
	body []byte
}

func (s *Server) newProxy(target *url.URL) *httputil.ReverseProxy {
	cfg := s.opts.Config.Viewer
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			q := pr.Out.URL.Query()
			if q.Has(cfg.FoldParam) || q.Has(cfg.ExprParam) {
				q.Del(cfg.FoldParam)
				q.Del(cfg.ExprParam)
				pr.Out.URL.RawQuery = q.Encode()
			}
			// Let the transport negotiate compression so bodies arrive decoded.
			pr.Out.Header.Del("Accept-Encoding")
		},
		Transport:      s.opts.Transport,
		ModifyResponse: s.modifyResponse,
		ErrorHandler:   s.proxyError,
		FlushInterval:  -1,
	}
}

func (s *Server) serveProxy(w http.ResponseWriter, r *http.Request) {
	ic := &intercept{page: s.newPage(w, r)}
	s.proxy.ServeHTTP(w, r.WithContext(withIntercept(r.Context(), ic)))
}

// modifyResponse observes response headers. A JSON content type becomes a
// hint for the page; a candidate body is buffered and taken over by
// returning errIntercepted.
func (s *Server) modifyResponse(resp *http.Response) error {
	req := resp.Request
	ic, ok := interceptFrom(req.Context())
	if !ok || !s.interceptable(resp) {
		return nil
	}

	ctx := req.Context()
	if h, ok := hint.FromResponse(resp); ok {
		// The page has no document yet: early deliveries are refused and
		// retried.
		s.deliverHint(ctx, ic.page, h)
	}

	body, rest, full, err := readCandidate(resp.Body, s.maxReadBytes())
	if err != nil {
		return err
	}
	if !full {
		logger.FromContext(ctx).V(1).Info("response too large to view, passing through")
		resp.Body = rest
		return nil
	}
	resp.Body.Close()

	ic.resp, ic.body = resp, body
	s.attach(ic.page, sniffer.Document{
		URL:         req.URL.String(),
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		TopLevel:    isTopLevel(req),
	})
	return errIntercepted
}

// interceptable filters responses the viewer could possibly replace.
func (s *Server) interceptable(resp *http.Response) bool {
	req := resp.Request
	if req.Method != http.MethodGet || resp.StatusCode != http.StatusOK || !isTopLevel(req) {
		return false
	}
	if ce := resp.Header.Get("Content-Encoding"); ce != "" && ce != "identity" {
		return false
	}
	return viewableMediaType(resp.Header.Get("Content-Type"))
}

// viewableMediaType accepts JSON types, text and HTML, and a missing type.
func viewableMediaType(contentType string) bool {
	if strings.TrimSpace(contentType) == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return sniffer.IsJSONMediaType(mt) || strings.HasPrefix(mt, "text/")
}

func (s *Server) proxyError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errIntercepted) {
		if ic, ok := interceptFrom(r.Context()); ok {
			s.finish(r.Context(), ic.page, func() { writeOriginal(w, ic.resp, ic.body) })
			return
		}
	}
	logger.FromContext(r.Context()).Error(err, "proxy error")
	w.WriteHeader(http.StatusBadGateway)
}

func writeOriginal(w http.ResponseWriter, resp *http.Response, body []byte) {
	h := w.Header()
	for k, vs := range resp.Header {
		h[k] = append([]string(nil), vs...)
	}
	h.Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(resp.StatusCode)
	w.Write(body)
}
