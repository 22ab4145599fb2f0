package viewer

import (
	"context"
	"fmt"
	"io"

	"github.com/oakwood-commons/jvx/internal/formatter"
)

// TerminalSurface renders to a terminal or pipe. Restore writes the original
// bytes through unchanged, so a pipeline that rejects its input behaves like
// cat.
type TerminalSurface struct {
	Out      io.Writer
	Status   io.Writer // loading and notice lines; nil discards them
	Original []byte
	ANSI     formatter.ANSIOptions

	// Outline prints structured views as a branch diagram instead of JSON.
	Outline        bool
	OutlineOptions formatter.OutlineOptions

	marked bool
}

var _ Surface = (*TerminalSurface)(nil)

func (s *TerminalSurface) status(format string, args ...any) {
	if s.Status != nil {
		fmt.Fprintf(s.Status, format+"\n", args...)
	}
}

// ProcessedMarker reports whether SetProcessedMarker was called.
func (s *TerminalSurface) ProcessedMarker() bool { return s.marked }

// SetProcessedMarker records that output was claimed.
func (s *TerminalSurface) SetProcessedMarker() { s.marked = true }

// InjectHideStyle is a no-op: nothing is on screen yet.
func (s *TerminalSurface) InjectHideStyle() {}

// RemoveHideStyle is a no-op.
func (s *TerminalSurface) RemoveHideStyle() {}

// ShowLoading prints a progress line to Status.
func (s *TerminalSurface) ShowLoading(size string) {
	s.status("formatting JSON (%s)...", size)
}

// Paint has nothing to flush.
func (s *TerminalSurface) Paint(context.Context) error { return nil }

// Mount writes the view.
func (s *TerminalSurface) Mount(v View) error {
	switch {
	case v.Kind == ViewPlain:
		s.status("%s", v.Plain.Notice())
		_, err := io.WriteString(s.Out, v.Plain.Text()+"\n")
		return err
	case s.Outline:
		opts := s.OutlineOptions
		opts.Locale = v.Locale
		_, err := io.WriteString(s.Out, formatter.FormatAsOutline(v.Value, opts))
		return err
	default:
		return v.Tree.WriteANSI(s.Out, s.ANSI)
	}
}

// Restore writes the original input unchanged.
func (s *TerminalSurface) Restore() error {
	_, err := s.Out.Write(s.Original)
	return err
}
