// Package logging provides a leveled, context-aware logger used throughout
// the planning engine in place of the standard library's log package.
package logging

import (
	"context"

	"go.uber.org/zap"
)

// Logger is implemented by every object that accepts a logger: planners,
// the datalink poller, and the session builder. Context-aware methods
// (the "C" prefix) are used on the hot path of a plan() call so that a
// caller-supplied deadline or trace id carried on ctx can be attributed to
// the log line without threading it through every call site by hand.
type Logger interface {
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})

	CDebugf(ctx context.Context, template string, args ...interface{})
	CInfof(ctx context.Context, template string, args ...interface{})
	CWarnf(ctx context.Context, template string, args ...interface{})
	CErrorf(ctx context.Context, template string, args ...interface{})

	Named(name string) Logger
}

type zapLogger struct {
	sugar *zap.SugaredLogger
}

// New returns a Logger backed by a production zap configuration writing to
// stderr. Callers that want a different encoder/sink should build a
// *zap.Logger themselves and pass it to Wrap.
func New(name string) Logger {
	z, err := zap.NewProduction()
	if err != nil {
		z = zap.NewNop()
	}
	return Wrap(z).Named(name)
}

// Wrap adapts an existing *zap.Logger into a Logger.
func Wrap(z *zap.Logger) Logger {
	return &zapLogger{sugar: z.Sugar()}
}

// NewTestLogger returns a Logger that discards everything below WARN, useful
// in unit tests that want real logger wiring without noisy output.
func NewTestLogger() Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	cfg.DisableStacktrace = true
	z, err := cfg.Build()
	if err != nil {
		z = zap.NewNop()
	}
	return Wrap(z)
}

func (l *zapLogger) Debug(args ...interface{})                 { l.sugar.Debug(args...) }
func (l *zapLogger) Debugf(template string, args ...interface{}) { l.sugar.Debugf(template, args...) }
func (l *zapLogger) Info(args ...interface{})                   { l.sugar.Info(args...) }
func (l *zapLogger) Infof(template string, args ...interface{})  { l.sugar.Infof(template, args...) }
func (l *zapLogger) Warn(args ...interface{})                   { l.sugar.Warn(args...) }
func (l *zapLogger) Warnf(template string, args ...interface{})  { l.sugar.Warnf(template, args...) }
func (l *zapLogger) Error(args ...interface{})                  { l.sugar.Error(args...) }
func (l *zapLogger) Errorf(template string, args ...interface{}) { l.sugar.Errorf(template, args...) }

// context values carried today are limited to trace attribution; there is no
// request-scoped field extraction yet, so the C-variants simply delegate.
func (l *zapLogger) CDebugf(_ context.Context, template string, args ...interface{}) {
	l.sugar.Debugf(template, args...)
}

func (l *zapLogger) CInfof(_ context.Context, template string, args ...interface{}) {
	l.sugar.Infof(template, args...)
}

func (l *zapLogger) CWarnf(_ context.Context, template string, args ...interface{}) {
	l.sugar.Warnf(template, args...)
}

func (l *zapLogger) CErrorf(_ context.Context, template string, args ...interface{}) {
	l.sugar.Errorf(template, args...)
}

func (l *zapLogger) Named(name string) Logger {
	return &zapLogger{sugar: l.sugar.Named(name)}
}
