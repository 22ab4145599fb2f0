package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"syscall"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetReturnsSameInstance(t *testing.T) {
	l1 := Get(0)
	l2 := Get(-1)
	require.NotNil(t, l1)
	assert.Same(t, l1, l2)
}

func TestSetupReturnsNoopWhenGlobalIsNil(t *testing.T) {
	Get(0)
	orig := globalLogrLogger
	globalLogrLogger = nil
	defer func() { globalLogrLogger = orig }()

	assert.Same(t, &defaultNoopLogger, Setup(Options{}))
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	lgr := New(Options{Out: &buf})
	lgr.Info("viewer state changed", "from", "idle", "to", "sniffing")
	lgr.V(1).Info("hidden at info level")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "viewer state changed", entry[MessageKey])
	assert.Equal(t, "sniffing", entry["to"])
	assert.Contains(t, entry, TimeStampKey)
	assert.Contains(t, entry, VersionKey)
}

func TestNew_ConsoleDebug(t *testing.T) {
	var buf bytes.Buffer
	lgr := New(Options{Out: &buf, Format: FormatConsole, Level: -1})
	lgr.V(1).Info("hint delivered", "url", "http://example.test")

	out := buf.String()
	assert.Contains(t, out, "DEBUG")
	assert.Contains(t, out, "hint delivered")
	assert.Contains(t, out, `"url": "http://example.test"`)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    int8
		wantErr bool
	}{
		{in: "", want: 0},
		{in: "info", want: 0},
		{in: "DEBUG", want: -1},
		{in: "warn", want: 1},
		{in: "error", want: 2},
		{in: "3", want: -3},
		{in: "loud", wantErr: true},
		{in: "-2", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWithLogger(t *testing.T) {
	lgr := Get(0)
	ctx := WithLogger(context.Background(), lgr)
	assert.Same(t, lgr, FromContext(ctx))
	assert.Equal(t, ctx, WithLogger(ctx, lgr), "same logger keeps the context")

	other := logr.Discard()
	replaced := WithLogger(ctx, &other)
	assert.Same(t, &other, FromContext(replaced))
}

func TestFromContextFallbacks(t *testing.T) {
	global := Get(0)
	assert.Same(t, global, FromContext(context.Background()))

	orig := globalLogrLogger
	globalLogrLogger = nil
	defer func() { globalLogrLogger = orig }()
	assert.Same(t, &defaultNoopLogger, FromContext(context.Background()))
}

func TestSyncWithoutLogger(t *testing.T) {
	orig := globalZapLogger
	globalZapLogger = nil
	defer func() { globalZapLogger = orig }()
	assert.NotPanics(t, Sync)
}

func TestIsIgnorableSyncError(t *testing.T) {
	assert.True(t, isIgnorableSyncError(syscall.ENOTTY))
	assert.True(t, isIgnorableSyncError(errors.New("sync /dev/stderr: The handle is invalid.")))
	assert.False(t, isIgnorableSyncError(errors.New("disk full")))
}

func TestWithValues(t *testing.T) {
	lgr := GetNoopLogger()
	got := WithValues(lgr, "url", "u")
	require.NotNil(t, got)
	assert.NotSame(t, lgr, got)
	assert.Panics(t, func() { WithValues(nil, "k", "v") })
}
