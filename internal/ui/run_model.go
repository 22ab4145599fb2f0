package ui

import (
	"context"
	"os"

	tea "charm.land/bubbletea/v2"
	"golang.org/x/term"

	"github.com/oakwood-commons/jvx/pkg/logger"
)

// Run starts the formatter screen and blocks until the user quits or ctx ends.
// Extra ProgramOptions (e.g., custom IO) are passed to tea.NewProgram.
func Run(ctx context.Context, opts Options, progOpts ...tea.ProgramOption) error {
	m := NewModel(opts)
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 && h > 0 {
		m.width, m.height = w, h
		m.layout()
	}

	all := append([]tea.ProgramOption{tea.WithContext(ctx)}, progOpts...)
	p := tea.NewProgram(m, all...)
	logger.FromContext(ctx).V(1).Info("starting formatter", "width", m.width, "height", m.height)
	_, err := p.Run()
	return err
}

// RenderSnapshot formats opts.InitialInput and returns a single frame of the
// screen, for output that is not a terminal.
func RenderSnapshot(opts Options, width, height int) string {
	m := NewModel(opts)
	if width > 0 {
		m.width = width
	}
	if height > 0 {
		m.height = height
	}
	m.layout()
	m.clampCursor()
	return m.Render()
}
