package server

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/oakwood-commons/jvx/internal/hint"
	"github.com/oakwood-commons/jvx/internal/sniffer"
	"github.com/oakwood-commons/jvx/pkg/logger"
)

// serveRoot serves files below Root. Directories get the standard listing;
// dot files are not served.
func (s *Server) serveRoot(w http.ResponseWriter, r *http.Request) {
	name := path.Clean("/" + r.URL.Path)
	if isHidden(name) {
		http.NotFound(w, r)
		return
	}
	full := filepath.Join(s.opts.Root, filepath.FromSlash(name))
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		http.FileServer(http.Dir(s.opts.Root)).ServeHTTP(w, r)
		return
	}
	s.serveFile(w, r, full)
}

// serveFile runs the viewer over one file. Anything but a top-level GET is
// served as is.
func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, name string) {
	f, err := os.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		logger.FromContext(r.Context()).Error(err, "opening file", "file", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if r.Method != http.MethodGet || !viewableMediaType(contentType) || info.Size() >= s.maxReadBytes() {
		http.ServeContent(w, r, info.Name(), info.ModTime(), f)
		return
	}

	body, err := io.ReadAll(f)
	if err != nil {
		logger.FromContext(r.Context()).Error(err, "reading file", "file", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}

	p := s.newPage(w, r)
	url := r.URL.String()
	if sniffer.IsJSONMediaType(contentType) {
		s.deliverHint(r.Context(), p, hint.Hint{ContentType: contentType, URL: url})
	}
	s.attach(p, sniffer.Document{
		URL:         url,
		ContentType: contentType,
		Body:        body,
		TopLevel:    isTopLevel(r),
	})
	s.finish(r.Context(), p, func() {
		w.Header().Set("Content-Type", contentType)
		http.ServeContent(w, r, info.Name(), info.ModTime(), bytes.NewReader(body))
	})
}

// isHidden reports paths with a dot-prefixed element.
func isHidden(name string) bool {
	for _, part := range strings.Split(filepath.ToSlash(name), "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}
