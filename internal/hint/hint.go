// Package hint carries the "this response looks like JSON" signal from the
// component that sees response headers to the per-page controller, which may
// not be ready to receive it yet.
package hint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/oakwood-commons/jvx/internal/sniffer"
	"github.com/oakwood-commons/jvx/pkg/logger"
)

var (
	// ErrNotReady is returned by a Receiver that cannot take hints yet.
	// Deliver retries on it.
	ErrNotReady = errors.New("receiver not ready")
	// ErrDropped is returned by Deliver once every retry failed.
	ErrDropped = errors.New("hint dropped")
)

// Hint says a response declared a JSON content type.
type Hint struct {
	ContentType string
	URL         string
}

// Receiver accepts hints.
type Receiver interface {
	Receive(ctx context.Context, h Hint) error
}

// ReceiverFunc adapts a function to Receiver.
type ReceiverFunc func(ctx context.Context, h Hint) error

// Receive calls f.
func (f ReceiverFunc) Receive(ctx context.Context, h Hint) error { return f(ctx, h) }

// Policy bounds redelivery.
type Policy struct {
	// Retries is the number of redeliveries after the first attempt.
	Retries int
	// Backoff is multiplied by the retry number: 1x, 2x, 3x...
	Backoff time.Duration
	// Sleep waits between attempts; nil uses a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy retries three times, 200ms apart times the retry number.
func DefaultPolicy() Policy {
	return Policy{Retries: 3, Backoff: 200 * time.Millisecond}
}

// FromResponse builds a hint when resp declares a JSON media type.
func FromResponse(resp *http.Response) (Hint, bool) {
	ct := resp.Header.Get("Content-Type")
	if !sniffer.IsJSONMediaType(ct) {
		return Hint{}, false
	}
	h := Hint{ContentType: ct}
	if resp.Request != nil && resp.Request.URL != nil {
		h.URL = resp.Request.URL.String()
	}
	return h, true
}

// Deliver hands h to r, retrying while r reports ErrNotReady. Other errors
// end delivery immediately. After the last retry it returns ErrDropped.
func Deliver(ctx context.Context, r Receiver, h Hint, p Policy) error {
	lgr := logger.FromContext(ctx).WithValues("url", h.URL)
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	for attempt := 0; ; attempt++ {
		err := r.Receive(ctx, h)
		switch {
		case err == nil:
			return nil
		case !errors.Is(err, ErrNotReady):
			return err
		case attempt >= p.Retries:
			lgr.V(1).Info("dropping content type hint", "attempts", attempt+1)
			return fmt.Errorf("%w after %d attempts: %w", ErrDropped, attempt+1, err)
		}

		wait := p.Backoff * time.Duration(attempt+1)
		lgr.V(1).Info("receiver not ready, retrying hint", "attempt", attempt+1, "wait", wait.String())
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
