package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/jvx/internal/cel"
	"github.com/oakwood-commons/jvx/internal/server"
	"github.com/oakwood-commons/jvx/internal/ui"
	"github.com/oakwood-commons/jvx/pkg/logger"
)

type serveOptions struct {
	addr     string
	upstream string
	root     string
	file     string
	theme    string
	open     bool
}

func newServeCmd(a *app) *cobra.Command {
	var o serveOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve JSON through the browser viewer",
		Long: `Serve runs an HTTP front end that replaces JSON documents opened in a
browser tab with the viewer. Exactly one backend is required: an upstream
to proxy, a directory, or a single file (reloaded in the browser when it
changes).

Append ?jvx-fold=1 to force the foldable view for large documents, and
?jvx-expr=<CEL> to view the result of an expression over the document.`,
		Example: `  jvx serve --upstream http://localhost:8080
  jvx serve --root ./testdata --addr :9000
  jvx serve --file sample.json --open`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runServe(cmd, o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.addr, "addr", "", "listen address (default from config)")
	f.StringVar(&o.upstream, "upstream", "", "base URL to proxy")
	f.StringVar(&o.root, "root", "", "directory to serve")
	f.StringVar(&o.file, "file", "", "single file to serve at every path, with live reload")
	f.StringVar(&o.theme, "theme", "", "theme name (default from config)")
	f.BoolVar(&o.open, "open", false, "open the served URL in the default browser")
	cmd.MarkFlagsMutuallyExclusive("upstream", "root", "file")
	cmd.MarkFlagsOneRequired("upstream", "root", "file")
	return cmd
}

func (a *app) runServe(cmd *cobra.Command, o serveOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	lgr := logger.FromContext(ctx)

	theme, err := a.cfg.SelectTheme(o.theme)
	if err != nil {
		return err
	}
	eval, err := cel.NewEvaluator()
	if err != nil {
		return err
	}
	opts := server.Options{
		Config:    a.cfg,
		Theme:     theme,
		Root:      o.root,
		File:      o.file,
		Evaluator: eval,
		Logger:    *lgr,
	}
	if o.upstream != "" {
		u, err := url.Parse(o.upstream)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid --upstream %q: expected an absolute URL", o.upstream)
		}
		opts.Upstream = u
	}
	if o.root != "" {
		if st, err := os.Stat(o.root); err != nil || !st.IsDir() {
			return fmt.Errorf("--root %q is not a directory", o.root)
		}
	}
	if o.file != "" {
		if _, err := os.Stat(o.file); err != nil {
			return fmt.Errorf("--file: %w", err)
		}
	}

	srv, err := server.New(opts)
	if err != nil {
		return err
	}
	defer srv.Close()

	addr := o.addr
	if addr == "" {
		addr = a.cfg.Server.Addr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	base := "http://" + ln.Addr().String() + "/"
	a.progress(cmd, "jvx serving on %s (formatter at %sformat)", base, base+server.PathPrefix[1:])
	lgr.Info("listening", "addr", ln.Addr().String(), "upstream", o.upstream, "root", o.root, "file", o.file)

	if o.open {
		if err := ui.OpenURL(base); err != nil {
			lgr.Info("could not open browser", "error", err.Error())
		}
	}

	err = srv.Serve(ctx, ln)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
