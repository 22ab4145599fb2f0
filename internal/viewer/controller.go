// Package viewer runs the per-page pipeline that replaces a raw JSON document
// with an interactive view: sniff, show a loading view, parse, then mount a
// structured or plain view, or put the original page back.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/jvx/internal/formatter"
	"github.com/oakwood-commons/jvx/internal/hint"
	"github.com/oakwood-commons/jvx/internal/limiter"
	"github.com/oakwood-commons/jvx/internal/sniffer"
	"github.com/oakwood-commons/jvx/pkg/jsonvalue"
	"github.com/oakwood-commons/jvx/pkg/loader"
	"github.com/oakwood-commons/jvx/pkg/logger"
)

var (
	// ErrAlreadyProcessed is returned when a pipeline already ran, or is
	// running, for the page.
	ErrAlreadyProcessed = errors.New("page already processed")
	// ErrNotAttached is returned by Start before Attach.
	ErrNotAttached = errors.New("no document attached")
)

// Transform rewrites a parsed document before it is rendered.
type Transform func(ctx context.Context, v jsonvalue.Value) (jsonvalue.Value, error)

// Options configures a Controller.
type Options struct {
	Limits limiter.Config
	Locale formatter.Locale
	// ForceStructured renders the tree view even above the structured
	// threshold, as requested by the "enable folding" control.
	ForceStructured bool
	// UpgradeURL is where the "enable folding" control points.
	UpgradeURL string
	// IDPrefix namespaces toggle IDs in the rendered tree.
	IDPrefix  string
	Transform Transform
}

// Controller owns the pipeline of one page instance. It is safe for
// concurrent use; whichever trigger arrives first runs the pipeline and every
// later trigger is a no-op.
type Controller struct {
	surface Surface
	opts    Options

	mu       sync.Mutex
	state    State
	doc      *sniffer.Document
	seenURLs map[string]struct{}
	done     chan struct{}
}

// New returns an idle controller for surface.
func New(surface Surface, opts Options) *Controller {
	if opts.Locale.Tag == "" {
		opts.Locale = formatter.English
	}
	return &Controller{
		surface:  surface,
		opts:     opts,
		seenURLs: make(map[string]struct{}),
		done:     make(chan struct{}),
	}
}

// Attach hands the loaded document to the controller. Hints that arrive
// before Attach are refused with hint.ErrNotReady.
func (c *Controller) Attach(doc sniffer.Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := doc
	c.doc = &d
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Done is closed once the pipeline reaches a terminal state.
func (c *Controller) Done() <-chan struct{} { return c.done }

// Start runs the pipeline for the attached document.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.doc == nil {
		c.mu.Unlock()
		return ErrNotAttached
	}
	doc := *c.doc
	c.mu.Unlock()
	return c.run(ctx, doc, "")
}

// Receive handles a content type hint. A URL is acted on at most once, and
// nothing happens once the page was processed.
func (c *Controller) Receive(ctx context.Context, h hint.Hint) error {
	c.mu.Lock()
	if c.doc == nil {
		c.mu.Unlock()
		return hint.ErrNotReady
	}
	if _, seen := c.seenURLs[h.URL]; seen {
		c.mu.Unlock()
		logger.FromContext(ctx).V(1).Info("hint for already seen URL skipped", "url", h.URL)
		return nil
	}
	c.seenURLs[h.URL] = struct{}{}
	doc := *c.doc
	c.mu.Unlock()

	err := c.run(ctx, doc, h.ContentType)
	if errors.Is(err, ErrAlreadyProcessed) {
		return nil
	}
	return err
}

// claim moves idle to sniffing. Only one caller ever succeeds.
func (c *Controller) claim() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return false
	}
	c.state = StateSniffing
	return true
}

func (c *Controller) transition(lgr logr.Logger, to State) {
	c.mu.Lock()
	from := c.state
	c.state = to
	c.mu.Unlock()
	lgr.V(1).Info("viewer state changed", "from", from.String(), "to", to.String())
	if to.Terminal() {
		close(c.done)
	}
}

func (c *Controller) run(ctx context.Context, doc sniffer.Document, hintedType string) error {
	if !c.claim() {
		return ErrAlreadyProcessed
	}
	lgr := logger.FromContext(ctx).WithValues("url", doc.URL)

	if !doc.TopLevel {
		c.transition(lgr, StateAborted)
		return nil
	}
	if c.surface.ProcessedMarker() {
		c.transition(lgr, StateAborted)
		return ErrAlreadyProcessed
	}

	if hintedType != "" && sniffer.IsJSONMediaType(hintedType) {
		doc.ContentType = hintedType
	}
	sniffed := sniffer.Sniff(doc)
	if !sniffed.IsJSON() {
		lgr.V(1).Info("document is not JSON", "contentType", doc.ContentType)
		c.transition(lgr, StateAborted)
		return nil
	}

	c.surface.InjectHideStyle()
	check := loader.Precheck(sniffed.Candidate, c.opts.Limits.Ceiling())
	if check.Status == loader.StatusEmpty || !loader.HasContainerShape(check.Text) {
		lgr.V(1).Info("candidate rejected before parsing", "verdict", sniffed.Verdict.String(), "status", check.Status.String())
		c.surface.RemoveHideStyle()
		c.transition(lgr, StateAborted)
		return nil
	}

	c.surface.ShowLoading(c.opts.Locale.Approx(int64(len(check.Text))))
	c.surface.SetProcessedMarker()
	c.transition(lgr, StateLoadingShown)
	if err := c.surface.Paint(ctx); err != nil {
		// Nothing more can reach the page.
		lgr.Error(err, "painting loading view")
		c.surface.RemoveHideStyle()
		c.transition(lgr, StateRenderedError)
		return fmt.Errorf("painting loading view: %w", err)
	}

	c.transition(lgr, StateParsing)
	final, err := c.render(ctx, lgr, sniffed.Candidate)
	c.surface.RemoveHideStyle()
	c.transition(lgr, final)
	return err
}

// render parses the candidate and mounts a view, returning the terminal state.
func (c *Controller) render(ctx context.Context, lgr logr.Logger, candidate string) (State, error) {
	res, tier := c.opts.Limits.Load(candidate, lgr)
	switch res.Status {
	case loader.StatusOK:
	case loader.StatusTooLarge:
		view := View{
			Kind:   ViewPlain,
			Text:   res.Text,
			Locale: c.opts.Locale,
			Plain: formatter.NewPlainView(res.Text, formatter.PlainOptions{
				Locale:   c.opts.Locale,
				Oversize: true,
			}),
		}
		return c.mount(lgr, view, StateRenderedPlain)
	default:
		lgr.V(1).Info("parse failed, restoring page", "error", res.Message)
		return c.restore(lgr)
	}

	v := res.Value
	if c.opts.Transform != nil {
		var err error
		if v, err = c.opts.Transform(ctx, v); err != nil {
			lgr.Info("transform failed, restoring page", "error", err.Error())
			return c.restore(lgr)
		}
	}

	text := jsonvalue.Indent(v, formatter.IndentUnit)
	if tier == limiter.TierPlain && !c.opts.ForceStructured {
		view := View{
			Kind:   ViewPlain,
			Value:  v,
			Text:   text,
			Locale: c.opts.Locale,
			Plain: formatter.NewPlainView(text, formatter.PlainOptions{
				Locale:     c.opts.Locale,
				UpgradeURL: c.opts.UpgradeURL,
			}),
		}
		return c.mount(lgr, view, StateRenderedPlain)
	}

	prefix := c.opts.IDPrefix
	if prefix == "" {
		prefix = "n"
	}
	view := View{
		Kind:   ViewStructured,
		Value:  v,
		Text:   text,
		Locale: c.opts.Locale,
		Tree:   formatter.NewTree(v, formatter.WithIDPrefix(prefix), formatter.WithLocale(c.opts.Locale)),
	}
	return c.mount(lgr, view, StateRenderedStructured)
}

func (c *Controller) mount(lgr logr.Logger, v View, success State) (State, error) {
	if err := c.surface.Mount(v); err != nil {
		lgr.Error(err, "mounting view", "kind", v.Kind.String())
		if _, rerr := c.restore(lgr); rerr != nil {
			return StateRenderedError, errors.Join(err, rerr)
		}
		return StateRenderedError, fmt.Errorf("mounting %s view: %w", v.Kind, err)
	}
	return success, nil
}

func (c *Controller) restore(lgr logr.Logger) (State, error) {
	if err := c.surface.Restore(); err != nil {
		lgr.Error(err, "restoring original page")
		return StateRenderedError, fmt.Errorf("restoring page: %w", err)
	}
	return StateRenderedError, nil
}
