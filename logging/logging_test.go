package logging

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.viam.com/test"
)

func TestNewTestLoggerImplementsLogger(t *testing.T) {
	var l Logger = NewTestLogger()
	l.Debug("quiet")
	l.Infof("quiet %d", 1)
}

func TestNamedReturnsDistinctLoggerPreservingInterface(t *testing.T) {
	base := NewTestLogger()
	named := base.Named("planning.search.astar")
	test.That(t, named, test.ShouldNotBeNil)
	named.Warnf("inflation weight %v below MinWeight", 0.5)
}

func TestContextVariantsDoNotPanicWithoutContextValues(t *testing.T) {
	l := NewTestLogger()
	ctx := context.Background()
	l.CDebugf(ctx, "no trace id on this context")
	l.CInfof(ctx, "still fine")
	l.CWarnf(ctx, "still fine")
	l.CErrorf(ctx, "still fine")
}

func TestWrapAdaptsExistingZapLogger(t *testing.T) {
	z := zap.NewNop()
	l := Wrap(z)
	test.That(t, l, test.ShouldNotBeNil)
	l.Info("discarded by the nop core")
}
