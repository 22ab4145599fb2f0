package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/oakwood-commons/jvx/internal/config"
	"github.com/oakwood-commons/jvx/internal/formatpage"
	"github.com/oakwood-commons/jvx/internal/ui"
)

type fmtOptions struct {
	theme    string
	snapshot bool
	width    int
	height   int
}

func newFmtCmd(a *app) *cobra.Command {
	var o fmtOptions
	cmd := &cobra.Command{
		Use:   "fmt [file]",
		Short: "Open the interactive JSON formatter",
		Long: `Fmt opens a two-pane formatter: type or paste JSON on the left and browse
the folded output on the right. Tab switches panes; in the output pane
enter toggles, e/c expand or collapse everything, 1-9 collapse to a level,
m minifies and y copies.

When stdout is not a terminal a single frame is printed instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runFmt(cmd, args, o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.theme, "theme", "", "theme name (default from config)")
	f.BoolVar(&o.snapshot, "snapshot", false, "print one frame and exit")
	f.IntVar(&o.width, "width", 0, "frame width for --snapshot (default terminal width or 100)")
	f.IntVar(&o.height, "height", 0, "frame height for --snapshot (default terminal height or 30)")
	return cmd
}

func (a *app) runFmt(cmd *cobra.Command, args []string, o fmtOptions) error {
	theme, err := a.cfg.SelectTheme(o.theme)
	if err != nil {
		return err
	}
	fc := a.cfg.Formatter
	opts := ui.Options{
		Locale:           a.cfg.Locale(),
		MaxChars:         a.cfg.Limiter().Ceiling(),
		Debounce:         config.DurationOr(fc.Debounce, formatpage.DebounceDelay),
		TransientStatus:  config.DurationOr(fc.TransientStatus, formatpage.TransientStatusDuration),
		ClipboardTimeout: config.DurationOr(fc.ClipboardTimeout, formatpage.ClipboardTimeout),
		CollapseLevels:   fc.CollapseLevels,
		Theme:            theme,
		Clipboard:        ui.SystemClipboard{},
	}
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		opts.InitialInput = string(data)
	}

	out := cmd.OutOrStdout()
	if o.snapshot || !a.isTerminal(out) {
		opts.NoColor = !a.colorEnabled(out)
		w, h := o.width, o.height
		if f, ok := out.(*os.File); ok && (w <= 0 || h <= 0) {
			if tw, th, err := term.GetSize(int(f.Fd())); err == nil {
				if w <= 0 {
					w = tw
				}
				if h <= 0 {
					h = th
				}
			}
		}
		_, err := fmt.Fprintln(out, ui.RenderSnapshot(opts, w, h))
		return err
	}
	opts.NoColor = a.run.NoColor
	return ui.Run(cmd.Context(), opts)
}
