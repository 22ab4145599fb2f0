package viewer

import (
	"context"

	"github.com/oakwood-commons/jvx/internal/formatter"
	"github.com/oakwood-commons/jvx/pkg/jsonvalue"
)

// Surface is the page the controller replaces. Implementations decide what
// "page" means: an HTTP response being written or a terminal.
//
// The controller calls these in a fixed order: InjectHideStyle, then either
// RemoveHideStyle (rejected) or ShowLoading, SetProcessedMarker, Paint, then
// Mount or Restore, and finally RemoveHideStyle.
type Surface interface {
	// ProcessedMarker reports whether the page already carries a viewer.
	ProcessedMarker() bool
	SetProcessedMarker()
	InjectHideStyle()
	RemoveHideStyle()
	// ShowLoading replaces the page body with a loading indicator.
	ShowLoading(size string)
	// Paint commits everything shown so far before parsing starts.
	Paint(ctx context.Context) error
	Mount(v View) error
	// Restore puts the original page back.
	Restore() error
}

// ViewKind says which renderer produced a View.
type ViewKind int

const (
	ViewStructured ViewKind = iota
	ViewPlain
)

func (k ViewKind) String() string {
	if k == ViewPlain {
		return "plain"
	}
	return "structured"
}

// View is what gets mounted.
type View struct {
	Kind  ViewKind
	Tree  *formatter.Tree      // ViewStructured
	Plain *formatter.PlainView // ViewPlain
	// Value is the parsed document; zero for oversize plain views.
	Value jsonvalue.Value
	// Text is the canonical two-space serialization, or the raw text when the
	// payload was never parsed.
	Text   string
	Locale formatter.Locale
}
