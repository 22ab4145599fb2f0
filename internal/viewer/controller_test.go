package viewer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/jvx/internal/formatter"
	"github.com/oakwood-commons/jvx/internal/hint"
	"github.com/oakwood-commons/jvx/internal/limiter"
	"github.com/oakwood-commons/jvx/internal/sniffer"
	"github.com/oakwood-commons/jvx/pkg/jsonvalue"
)

// fakeSurface records every call in order.
type fakeSurface struct {
	mu        sync.Mutex
	calls     []string
	marked    bool
	mounted   []View
	mountErr  error
	paintErr  error
	hideStyle bool
}

func (f *fakeSurface) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeSurface) ProcessedMarker() bool { return f.marked }
func (f *fakeSurface) SetProcessedMarker() {
	f.record("marker")
	f.marked = true
}
func (f *fakeSurface) InjectHideStyle() {
	f.record("hide")
	f.hideStyle = true
}
func (f *fakeSurface) RemoveHideStyle() {
	f.record("unhide")
	f.hideStyle = false
}
func (f *fakeSurface) ShowLoading(size string) { f.record("loading " + size) }
func (f *fakeSurface) Paint(context.Context) error {
	f.record("paint")
	return f.paintErr
}
func (f *fakeSurface) Mount(v View) error {
	f.record("mount " + v.Kind.String())
	if f.mountErr != nil {
		return f.mountErr
	}
	f.mounted = append(f.mounted, v)
	return nil
}
func (f *fakeSurface) Restore() error {
	f.record("restore")
	return nil
}

func jsonDoc(body string) sniffer.Document {
	return sniffer.Document{URL: "http://example.test/data", ContentType: "application/json", Body: []byte(body), TopLevel: true}
}

func TestController_StructuredView(t *testing.T) {
	s := &fakeSurface{}
	c := New(s, Options{})
	c.Attach(jsonDoc(`{"a":[1,2,3]}`))

	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, StateRenderedStructured, c.State())
	assert.Equal(t, []string{"hide", "loading approx. 13 B", "marker", "paint", "mount structured", "unhide"}, s.calls)
	assert.False(t, s.hideStyle)

	require.Len(t, s.mounted, 1)
	v := s.mounted[0]
	assert.Equal(t, "{\n  \"a\": [\n    1,\n    2,\n    3\n  ]\n}", v.Text)
	assert.Equal(t, v.Text, v.Tree.VisibleText())

	select {
	case <-c.Done():
	default:
		t.Fatal("Done not closed after terminal state")
	}
}

func TestController_IsIdempotent(t *testing.T) {
	s := &fakeSurface{}
	c := New(s, Options{})
	c.Attach(jsonDoc(`[1]`))

	require.NoError(t, c.Start(context.Background()))
	calls := len(s.calls)

	err := c.Start(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
	require.NoError(t, c.Receive(context.Background(), hint.Hint{URL: "http://example.test/late", ContentType: "application/json"}))

	assert.Len(t, s.mounted, 1)
	assert.Equal(t, calls, len(s.calls))
	assert.Equal(t, StateRenderedStructured, c.State())
}

func TestController_ConcurrentTriggersRunOnePipeline(t *testing.T) {
	s := &fakeSurface{}
	c := New(s, Options{})
	c.Attach(jsonDoc(`{"k":"v"}`))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = c.Start(context.Background())
		}()
		go func(i int) {
			defer wg.Done()
			_ = c.Receive(context.Background(), hint.Hint{URL: "http://example.test/" + string(rune('a'+i))})
		}(i)
	}
	wg.Wait()
	<-c.Done()

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Len(t, s.mounted, 1)
}

func TestController_NonJSONLeavesSurfaceUntouched(t *testing.T) {
	s := &fakeSurface{}
	c := New(s, Options{})
	c.Attach(sniffer.Document{
		ContentType: "text/html",
		Body:        []byte("<html><body><h1>Title</h1><pre>{}</pre><p>more</p></body></html>"),
		TopLevel:    true,
	})

	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, StateAborted, c.State())
	assert.Empty(t, s.calls)
	assert.False(t, s.hideStyle)
}

func TestController_FramedDocumentIsSkipped(t *testing.T) {
	s := &fakeSurface{}
	c := New(s, Options{})
	doc := jsonDoc(`{}`)
	doc.TopLevel = false
	c.Attach(doc)

	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, StateAborted, c.State())
	assert.Empty(t, s.calls)
}

func TestController_ShapeRejectedRemovesHideStyle(t *testing.T) {
	s := &fakeSurface{}
	c := New(s, Options{})
	c.Attach(jsonDoc(`"just a string"`))

	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, StateAborted, c.State())
	assert.Equal(t, []string{"hide", "unhide"}, s.calls)
	assert.False(t, s.hideStyle)
}

func TestController_ParseFailureRestoresPage(t *testing.T) {
	s := &fakeSurface{}
	c := New(s, Options{})
	c.Attach(jsonDoc(`{a:1}`))

	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, StateRenderedError, c.State())
	assert.Equal(t, []string{"hide", "loading approx. 5 B", "marker", "paint", "restore", "unhide"}, s.calls)
	assert.Empty(t, s.mounted)
}

func TestController_OversizeShowsPlainView(t *testing.T) {
	s := &fakeSurface{}
	c := New(s, Options{Limits: limiter.Config{MaxChars: 16, StructuredChars: 8}})
	body := `[` + strings.Repeat("1,", 10) + `1]`
	c.Attach(jsonDoc(body))

	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, StateRenderedPlain, c.State())
	require.Len(t, s.mounted, 1)
	v := s.mounted[0]
	assert.Equal(t, ViewPlain, v.Kind)
	assert.True(t, v.Plain.Oversize())
	assert.Equal(t, body, v.Plain.Text())
}

func TestController_LargeDocumentOffersFolding(t *testing.T) {
	limits := limiter.Config{MaxChars: 64, StructuredChars: 8}
	body := `{"key":"some value"}`

	s := &fakeSurface{}
	c := New(s, Options{Limits: limits, UpgradeURL: "/data?jvx-fold=1"})
	c.Attach(jsonDoc(body))
	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, StateRenderedPlain, c.State())
	require.Len(t, s.mounted, 1)
	assert.False(t, s.mounted[0].Plain.Oversize())
	assert.Equal(t, "{\n  \"key\": \"some value\"\n}", s.mounted[0].Plain.Text())

	forced := &fakeSurface{}
	c = New(forced, Options{Limits: limits, ForceStructured: true})
	c.Attach(jsonDoc(body))
	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, StateRenderedStructured, c.State())
}

func TestController_ReceiveBeforeAttachIsNotReady(t *testing.T) {
	c := New(&fakeSurface{}, Options{})
	err := c.Receive(context.Background(), hint.Hint{URL: "u"})
	assert.ErrorIs(t, err, hint.ErrNotReady)
	assert.ErrorIs(t, c.Start(context.Background()), ErrNotAttached)
	assert.Equal(t, StateIdle, c.State())
}

func TestController_HintSupersedesDeclaredType(t *testing.T) {
	s := &fakeSurface{}
	c := New(s, Options{})
	c.Attach(sniffer.Document{URL: "u", ContentType: "application/octet-stream", Body: []byte(`{"x":1}`), TopLevel: true})

	require.NoError(t, c.Receive(context.Background(), hint.Hint{URL: "u", ContentType: "application/json"}))
	assert.Equal(t, StateRenderedStructured, c.State())
}

func TestController_HintDeliveryRetriesUntilAttached(t *testing.T) {
	s := &fakeSurface{}
	c := New(s, Options{})
	attempts := 0
	p := hint.DefaultPolicy()
	p.Sleep = func(context.Context, time.Duration) error {
		attempts++
		if attempts == 2 {
			c.Attach(jsonDoc(`[true]`))
		}
		return nil
	}

	require.NoError(t, hint.Deliver(context.Background(), c, hint.Hint{URL: "u", ContentType: "application/json"}, p))
	assert.Equal(t, StateRenderedStructured, c.State())
}

func TestController_AlreadyMarkedSurface(t *testing.T) {
	s := &fakeSurface{marked: true}
	c := New(s, Options{})
	c.Attach(jsonDoc(`{}`))
	assert.ErrorIs(t, c.Start(context.Background()), ErrAlreadyProcessed)
	assert.Equal(t, StateAborted, c.State())
	assert.Empty(t, s.calls)
}

func TestController_MountFailureRestores(t *testing.T) {
	s := &fakeSurface{mountErr: errors.New("broken pipe")}
	c := New(s, Options{})
	c.Attach(jsonDoc(`{}`))
	err := c.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateRenderedError, c.State())
	assert.Contains(t, s.calls, "restore")
}

func TestController_TransformFailureRestores(t *testing.T) {
	s := &fakeSurface{}
	c := New(s, Options{Transform: func(context.Context, jsonvalue.Value) (jsonvalue.Value, error) {
		return jsonvalue.Value{}, errors.New("bad expression")
	}})
	c.Attach(jsonDoc(`{}`))
	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, StateRenderedError, c.State())
}

func TestTerminalSurface(t *testing.T) {
	t.Run("structured", func(t *testing.T) {
		var out, status bytes.Buffer
		s := &TerminalSurface{Out: &out, Status: &status}
		c := New(s, Options{})
		c.Attach(jsonDoc(`{"a":1}`))
		require.NoError(t, c.Start(context.Background()))
		assert.Equal(t, "{\n  \"a\": 1\n}\n", out.String())
		assert.Contains(t, status.String(), "approx. 7 B")
	})

	t.Run("restore passes input through", func(t *testing.T) {
		var out bytes.Buffer
		s := &TerminalSurface{Out: &out, Original: []byte(`{a:1}`)}
		c := New(s, Options{})
		c.Attach(jsonDoc(`{a:1}`))
		require.NoError(t, c.Start(context.Background()))
		assert.Equal(t, `{a:1}`, out.String())
	})

	t.Run("outline", func(t *testing.T) {
		var out bytes.Buffer
		s := &TerminalSurface{Out: &out, Outline: true}
		c := New(s, Options{Locale: formatter.Chinese})
		c.Attach(jsonDoc(`{"ids":[1,2,3,4,5]}`))
		require.NoError(t, c.Start(context.Background()))
		assert.Contains(t, out.String(), "ids: [... 5 项]")
	})
}

func TestStatePredicates(t *testing.T) {
	assert.False(t, StateParsing.Terminal())
	assert.True(t, StateAborted.Terminal())
	assert.True(t, StateRenderedPlain.Rendered())
	assert.False(t, StateRenderedError.Rendered())
	assert.True(t, StateParsing.FormattingStarted())
	assert.False(t, StateAborted.FormattingStarted())
	assert.Equal(t, "loading-shown", StateLoadingShown.String())
}
