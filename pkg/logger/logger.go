// Package logger wires a zap core behind a logr.Logger and carries it through
// contexts. Components log with logr; V(1) maps to zap's debug level.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/oakwood-commons/jvx/pkg/settings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type loggerContextKey struct{}

const (
	CommitKey    = "commit"
	VersionKey   = "version"
	BuildTimeKey = "build_time"
	GoVersionKey = "go_version"
	TimeStampKey = "timestamp"
	MessageKey   = "message"
)

// Output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Options selects the level, encoding and sink of a logger.
type Options struct {
	// Level is a zapcore level: -1 debug, 0 info, 1 warn, 2 error. Lower
	// values enable more logr V levels.
	Level  int8
	Format string
	// Out defaults to stderr.
	Out io.Writer
}

var (
	once sync.Once

	// globalZapLogger is kept for Sync.
	globalZapLogger  *zap.Logger
	globalLogrLogger *logr.Logger

	defaultNoopLogger logr.Logger = logr.Discard()
)

// Setup builds the process-wide logger. Only the first call has an effect.
func Setup(opts Options) *logr.Logger {
	once.Do(func() {
		globalZapLogger = newZap(opts)
		gl := zapr.NewLogger(globalZapLogger)
		globalLogrLogger = &gl
	})
	if globalLogrLogger == nil {
		return &defaultNoopLogger
	}
	return globalLogrLogger
}

// Get is Setup with JSON output to stderr.
func Get(logLevel int8) *logr.Logger {
	return Setup(Options{Level: logLevel})
}

// New returns a standalone logger that is not installed globally.
func New(opts Options) logr.Logger {
	return zapr.NewLogger(newZap(opts))
}

func newZap(opts Options) *zap.Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.TimeKey = TimeStampKey
	encoderCfg.MessageKey = MessageKey

	var encoder zapcore.Encoder
	if opts.Format == FormatConsole {
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	goVersion := "unknown"
	if bi, ok := debug.ReadBuildInfo(); ok {
		goVersion = bi.GoVersion
	}
	core := zapcore.NewCore(
		encoder,
		zapcore.Lock(zapcore.AddSync(out)),
		zap.NewAtomicLevelAt(zapcore.Level(opts.Level)),
	).With([]zapcore.Field{
		zap.String(CommitKey, settings.VersionInformation.Commit),
		zap.String(VersionKey, settings.VersionInformation.BuildVersion),
		zap.String(BuildTimeKey, settings.VersionInformation.BuildTime),
		zap.String(GoVersionKey, goVersion),
	})

	return zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zap.ErrorLevel),
		zap.WithFatalHook(zapcore.WriteThenPanic),
	)
}

// ParseLevel accepts debug, info, warn, error or a number, and returns the
// zapcore level for Options.Level. Numbers name logr verbosity, so "2"
// enables V(2) and becomes level -2.
func ParseLevel(s string) (int8, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return 0, nil
	case "debug":
		return -1, nil
	case "warn", "warning":
		return 1, nil
	case "error":
		return 2, nil
	}
	n, err := strconv.ParseInt(s, 10, 8)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid log level %q: valid values are debug, info, warn, error or a verbosity >= 0", s)
	}
	return int8(-n), nil
}

// WithLogger returns ctx carrying log. A context that already carries the
// same logger is returned unchanged.
func WithLogger(ctx context.Context, log *logr.Logger) context.Context {
	if lp, ok := ctx.Value(loggerContextKey{}).(*logr.Logger); ok && lp == log {
		return ctx
	}
	return context.WithValue(ctx, loggerContextKey{}, log)
}

// FromContext returns the logger in ctx, else the global logger, else a
// no-op logger.
func FromContext(ctx context.Context) *logr.Logger {
	if log, ok := ctx.Value(loggerContextKey{}).(*logr.Logger); ok {
		return log
	}
	if globalLogrLogger != nil {
		return globalLogrLogger
	}
	return &defaultNoopLogger
}

// Sync flushes buffered entries. Call it before exit.
func Sync() {
	if globalZapLogger == nil {
		return
	}
	if err := globalZapLogger.Sync(); err != nil && !isIgnorableSyncError(err) {
		fmt.Fprintf(os.Stderr, "WARNING: failed to sync zap logger: %v\n", err)
	}
}

// isIgnorableSyncError matches the errors Sync returns for pipes and TTYs.
// Windows consoles wrap ERROR_INVALID_HANDLE in *os.PathError, hence the
// string match.
func isIgnorableSyncError(err error) bool {
	if errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.EIO) || errors.Is(err, syscall.EBADF) {
		return true
	}
	return strings.Contains(err.Error(), "The handle is invalid")
}

// GetNoopLogger returns a logger that discards everything.
func GetNoopLogger() *logr.Logger {
	return &defaultNoopLogger
}

// WithValues returns a copy of lgr with extra key/value pairs.
func WithValues(lgr *logr.Logger, keysAndValues ...any) *logr.Logger {
	nlgr := lgr.WithValues(keysAndValues...)
	return &nlgr
}
