package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/jvx/internal/cel"
	"github.com/oakwood-commons/jvx/internal/formatter"
	"github.com/oakwood-commons/jvx/internal/sniffer"
	"github.com/oakwood-commons/jvx/internal/viewer"
	"github.com/oakwood-commons/jvx/pkg/jsonvalue"
	"github.com/oakwood-commons/jvx/pkg/logger"
)

type viewOptions struct {
	expression  string
	outline     bool
	depth       int
	lineNumbers bool
	theme       string
}

func newViewCmd(a *app) *cobra.Command {
	var o viewOptions
	cmd := &cobra.Command{
		Use:   "view [file|-]",
		Short: "Render a JSON document in the terminal",
		Long: `View runs the viewer pipeline over a file or stdin and prints the result
with syntax colouring. Input that is not JSON is printed unchanged, so view
is safe to use as a pager filter.`,
		Example: `  jvx view testdata/sample.json
  cat sample.json | jvx view -e '_.items.map(i, i.name)'
  jvx view --outline sample.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "-"
			if len(args) == 1 {
				name = args[0]
			}
			return a.runView(cmd, name, o)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.expression, "expression", "e", "", "CEL expression using '_' as the document root")
	f.BoolVar(&o.outline, "outline", false, "print a branch diagram instead of JSON")
	f.IntVar(&o.depth, "depth", 0, "outline depth limit (0 = unlimited)")
	f.BoolVarP(&o.lineNumbers, "line-numbers", "n", false, "prefix lines with their number")
	f.StringVar(&o.theme, "theme", "", "theme name (default from config)")
	return cmd
}

func (a *app) runView(cmd *cobra.Command, name string, o viewOptions) error {
	ctx := cmd.Context()
	lgr := logger.FromContext(ctx)
	limits := a.cfg.Limiter()

	in, contentType, err := openViewInput(cmd.InOrStdin(), name)
	if err != nil {
		return err
	}
	defer in.Close()

	out := cmd.OutOrStdout()
	limit := int64(limits.Ceiling())*4 + 1
	body, err := io.ReadAll(io.LimitReader(in, limit))
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if int64(len(body)) == limit {
		// Beyond anything the viewer would parse: stream it like cat.
		lgr.V(1).Info("input too large to view, passing through", "limit", limit)
		_, err := io.Copy(out, io.MultiReader(bytes.NewReader(body), in))
		return err
	}

	surface := &viewer.TerminalSurface{
		Out:      out,
		Original: body,
		Outline:  o.outline,
		OutlineOptions: formatter.OutlineOptions{
			MaxDepth: o.depth,
		},
		ANSI: formatter.ANSIOptions{LineNumbers: o.lineNumbers},
	}
	if !a.run.IsQuiet {
		surface.Status = cmd.ErrOrStderr()
	}
	if a.colorEnabled(out) {
		theme, err := a.cfg.SelectTheme(o.theme)
		if err != nil {
			return err
		}
		if surface.ANSI.Palette, err = theme.Palette(); err != nil {
			return err
		}
	}

	var transformErr error
	opts := viewer.Options{
		Limits:          limits,
		Locale:          a.cfg.Locale(),
		ForceStructured: true,
		IDPrefix:        a.cfg.Viewer.IDPrefix,
	}
	if o.expression != "" {
		eval, err := cel.NewEvaluator()
		if err != nil {
			return err
		}
		transform, err := eval.Transform(o.expression)
		if err != nil {
			return fmt.Errorf("invalid expression: %w", err)
		}
		opts.Transform = func(ctx context.Context, v jsonvalue.Value) (jsonvalue.Value, error) {
			res, err := transform(ctx, v)
			transformErr = err
			return res, err
		}
	}

	ctrl := viewer.New(surface, opts)
	ctrl.Attach(sniffer.Document{
		URL:         name,
		ContentType: contentType,
		Body:        body,
		TopLevel:    true,
	})
	if err := ctrl.Start(ctx); err != nil {
		return err
	}

	state := ctrl.State()
	lgr.V(1).Info("view finished", "state", state.String())
	switch {
	case transformErr != nil:
		return fmt.Errorf("evaluating expression: %w", transformErr)
	case state == viewer.StateAborted:
		// Not JSON: behave like cat.
		_, err := out.Write(body)
		return err
	case state == viewer.StateRenderedError:
		return errors.New("input is not valid JSON")
	}
	return nil
}

// openViewInput opens name, or stdin for "-". The content type comes from
// the file extension.
func openViewInput(stdin io.Reader, name string) (io.ReadCloser, string, error) {
	if name == "-" {
		return io.NopCloser(stdin), "", nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, "", err
	}
	return f, mime.TypeByExtension(filepath.Ext(name)), nil
}
