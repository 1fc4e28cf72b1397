// Package log is the structured logger shared by every carbridge component.
// It wraps zap behind a small key/value interface and exposes the same core
// as a logr.Logger for libraries that log through klog.
package log

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"k8s.io/klog/v2"
)

// Logger is the logging interface handed to components.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	// Error logs at error level; a nil err is omitted from the entry.
	Error(err error, msg string, keysAndValues ...any)

	// WithName appends name to the logger name, joined by ".".
	WithName(name string) Logger
	WithValues(keysAndValues ...any) Logger

	// Logr returns a logr.Logger backed by the same core.
	Logr() logr.Logger

	Sync() error
}

var _ Logger = (*logger)(nil)

type logger struct {
	z *zap.Logger
}

// NewLogger builds a Logger from opts. Invalid options fall back to info
// level; call Options.Validate first to reject them.
func NewLogger(opts *Options) Logger {
	if opts == nil {
		opts = NewOptions()
	}
	return &logger{z: build(opts)}
}

func build(opts *Options) *zap.Logger {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeDuration = zapcore.MillisDurationEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	if opts.Format == FormatConsole && opts.EnableColor {
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	paths := opts.OutputPaths
	if len(paths) == 0 {
		paths = []string{"stdout"}
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         opts.Format,
		EncoderConfig:    enc,
		DisableCaller:    opts.DisableCaller,
		OutputPaths:      paths,
		ErrorOutputPaths: []string{"stderr"},
	}

	// Skip the logger methods so the caller field points at component code.
	z, err := cfg.Build(zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		panic(fmt.Sprintf("failed to build zap logger: %v", err))
	}
	if opts.Name != "" {
		z = z.Named(opts.Name)
	}
	return z
}

func (l *logger) Debug(msg string, keysAndValues ...any) {
	l.z.Debug(msg, toFields(keysAndValues)...)
}

func (l *logger) Info(msg string, keysAndValues ...any) {
	l.z.Info(msg, toFields(keysAndValues)...)
}

func (l *logger) Warn(msg string, keysAndValues ...any) {
	l.z.Warn(msg, toFields(keysAndValues)...)
}

func (l *logger) Error(err error, msg string, keysAndValues ...any) {
	fields := toFields(keysAndValues)
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	l.z.Error(msg, fields...)
}

func (l *logger) WithName(name string) Logger {
	return &logger{z: l.z.Named(name)}
}

func (l *logger) WithValues(keysAndValues ...any) Logger {
	return &logger{z: l.z.With(toFields(keysAndValues)...)}
}

func (l *logger) Logr() logr.Logger {
	return zapr.NewLogger(l.z)
}

func (l *logger) Sync() error {
	return l.z.Sync()
}

var (
	once sync.Once

	// std serves loggers handed out to components; top serves the package
	// level functions below, which add one frame.
	std Logger = NewNopLogger()
	top Logger = std
)

// Init installs the process logger and routes klog output into it.
// Only the first call has an effect. Loggers obtained before Init stay no-op,
// so components resolve their named logger after Init.
func Init(opts *Options) {
	once.Do(func() {
		if opts == nil {
			opts = NewOptions()
		}
		z := build(opts)
		std = &logger{z: z}
		top = &logger{z: z.WithOptions(zap.AddCallerSkip(1))}
		payloadPreview.Store(int64(opts.PayloadPreview))
		klog.SetLogger(std.Logr().WithName("klog"))
	})
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() Logger {
	return &logger{z: zap.NewNop()}
}

// Std returns the process logger.
func Std() Logger { return std }

func Debug(msg string, keysAndValues ...any)            { top.Debug(msg, keysAndValues...) }
func Info(msg string, keysAndValues ...any)             { top.Info(msg, keysAndValues...) }
func Warn(msg string, keysAndValues ...any)             { top.Warn(msg, keysAndValues...) }
func Error(err error, msg string, keysAndValues ...any) { top.Error(err, msg, keysAndValues...) }
func WithName(name string) Logger                       { return std.WithName(name) }
func WithValues(keysAndValues ...any) Logger            { return std.WithValues(keysAndValues...) }
func Sync() error                                       { return std.Sync() }

type contextKey struct{}

// NewContext returns a copy of ctx carrying l.
func NewContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the logger stored by NewContext, or the process logger.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(contextKey{}).(Logger); ok {
		return l
	}
	return std
}
