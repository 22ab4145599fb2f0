// Package cmd wires the jvx command line.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/oakwood-commons/jvx/internal/config"
	"github.com/oakwood-commons/jvx/internal/formatter"
	"github.com/oakwood-commons/jvx/pkg/logger"
	"github.com/oakwood-commons/jvx/pkg/settings"
)

// app is the state shared by every command of one invocation. It is filled
// by the root PersistentPreRunE.
type app struct {
	run      *settings.Run
	logLevel string
	cfg      config.Config
	// isTerminal reports whether a writer is an interactive terminal.
	isTerminal func(w io.Writer) bool
}

func newApp() *app {
	return &app{run: settings.NewCliParams(), isTerminal: writerIsTerminal}
}

func writerIsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// colorEnabled reports whether output to w should carry colour.
func (a *app) colorEnabled(w io.Writer) bool {
	if a.run.NoColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return a.isTerminal(w)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   settings.CliBinaryName,
		Short: "View and format JSON in the browser and the terminal",
		Long: `jvx replaces raw JSON documents with a foldable, highlighted view.

Run "jvx serve" in front of an API (or a directory) and open it in a browser,
"jvx view" to render a document in the terminal, or "jvx fmt" for an
interactive formatter.`,
		Example: `  jvx serve --upstream http://localhost:8080 --open
  jvx serve --file testdata/sample.json
  curl -s https://api.example.com/items | jvx view -e '_.items[0]'
  jvx fmt`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.preRun,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.run.ConfigFile, "config-file", "", "path to a YAML config file (default $XDG_CONFIG_HOME/jvx/config.yaml)")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug|info|warn|error or a verbosity number (default from config)")
	pf.StringVar(&a.run.LogFormat, "log-format", "", "log format: json|console (default from config)")
	pf.StringVar(&a.run.Locale, "locale", "", "viewer language: "+strings.Join(formatter.LocaleTags(), "|")+" (default from config)")
	pf.BoolVar(&a.run.NoColor, "no-color", false, "disable colour output")
	pf.BoolVarP(&a.run.IsQuiet, "quiet", "q", false, "suppress progress messages")

	root.AddCommand(
		newServeCmd(a),
		newViewCmd(a),
		newFmtCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

// preRun loads the config, applies flag overrides and installs the logger and
// settings in the command context.
func (a *app) preRun(cmd *cobra.Command, _ []string) error {
	path := config.ResolvePath(a.run.ConfigFile)
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	flags := cmd.Flags()
	if changed(flags, "locale") {
		cfg.Viewer.Locale = a.run.Locale
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.run.Locale = cfg.Viewer.Locale
	a.run.ConfigFile = path

	levelName := cfg.Log.Level
	if changed(flags, "log-level") {
		levelName = a.logLevel
	}
	level, err := logger.ParseLevel(levelName)
	if err != nil {
		return err
	}
	a.run.MinLogLevel = level
	if !changed(flags, "log-format") {
		a.run.LogFormat = cfg.Log.Format
	}
	a.cfg = cfg

	lgr := logger.Setup(logger.Options{Level: level, Format: a.run.LogFormat, Out: cmd.ErrOrStderr()})
	lgr = logger.WithValues(lgr, "command", cmd.Name())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = settings.IntoContext(logger.WithLogger(ctx, lgr), a.run)
	cmd.SetContext(ctx)
	lgr.V(1).Info("config loaded", "path", path)
	return nil
}

// changed reports whether the named flag was set on the command line.
func changed(fs *pflag.FlagSet, name string) bool {
	f := fs.Lookup(name)
	return f != nil && f.Changed
}

// progress prints a status line to stderr unless --quiet is set.
func (a *app) progress(cmd *cobra.Command, format string, args ...any) {
	if a.run.IsQuiet {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
}

// Execute runs the command line.
func Execute() error {
	return ExecuteContext(context.Background(), os.Args[1:])
}

// ExecuteContext runs the command line with args.
func ExecuteContext(ctx context.Context, args []string) error {
	root := newRootCmd(newApp())
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
