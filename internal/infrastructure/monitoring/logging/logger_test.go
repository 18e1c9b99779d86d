package logging

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"

	"github.com/turtacn/carverdict/pkg/errors"
)

func newTestLogger(t *testing.T) (*zapLogger, *zaptest.Buffer) {
	t.Helper()
	buf := &zaptest.Buffer{}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	level := zap.NewAtomicLevelAt(zapcore.DebugLevel)
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), buf, level)
	return &zapLogger{z: zap.New(core), level: &level}, buf
}

func TestNewLogger_Formats(t *testing.T) {
	for _, format := range []string{"json", "console", ""} {
		l, err := NewLogger(LogConfig{Level: LevelInfo, Format: format, OutputPaths: []string{"stdout"}})
		require.NoError(t, err, format)
		assert.NotNil(t, l)
		_, ok := l.(LevelSetter)
		assert.True(t, ok)
	}
}

func TestNewLogger_EmptyOutputPaths(t *testing.T) {
	l, err := NewLogger(LogConfig{OutputPaths: []string{}})
	require.Error(t, err)
	assert.Nil(t, l)
	assert.True(t, errors.IsCode(err, errors.CodeConfigInvalid))
}

func TestNewLogger_UnopenablePath(t *testing.T) {
	_, err := NewLogger(LogConfig{OutputPaths: []string{"/nonexistent-dir/sub/out.log"}})
	assert.Error(t, err)
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Debug("msg")
	l.Info("msg")
	l.Warn("msg")
	l.Error("msg")
	l.Fatal("msg")
	assert.Equal(t, l, l.With(String("k", "v")))
	assert.Equal(t, l, l.Named("x"))
	assert.Equal(t, l, l.WithContext(context.Background()))
	assert.Equal(t, l, l.WithError(stderrors.New("err")))
	assert.NoError(t, l.Sync())
}

func TestZapLogger_Levels(t *testing.T) {
	l, buf := newTestLogger(t)
	l.Debug("debug msg")
	l.Info("info msg")
	l.Warn("warn msg")
	l.Error("error msg")

	out := buf.String()
	for _, lvl := range []string{"debug", "info", "warn", "error"} {
		assert.Contains(t, out, lvl+" msg")
		assert.Contains(t, out, `"level":"`+lvl+`"`)
	}
}

func TestZapLogger_FieldTypes(t *testing.T) {
	l, buf := newTestLogger(t)
	l.Info("msg",
		String("s", "v"),
		Int("i", 7),
		Int64("i64", 8),
		Float64("f", 7.5),
		Bool("b", true),
		Duration("d", time.Second),
		Any("a", []string{"x"}),
		Err(stderrors.New("boom")),
	)
	out := buf.String()
	assert.Contains(t, out, `"s":"v"`)
	assert.Contains(t, out, `"i":7`)
	assert.Contains(t, out, `"i64":8`)
	assert.Contains(t, out, `"f":7.5`)
	assert.Contains(t, out, `"b":true`)
	assert.Contains(t, out, `"a":["x"]`)
	assert.Contains(t, out, `"error":"boom"`)
}

func TestZapLogger_WithAndNamed(t *testing.T) {
	l, buf := newTestLogger(t)
	l.With(String("foo", "bar")).Named("engine").Info("msg")
	assert.Contains(t, buf.String(), `"foo":"bar"`)
	assert.Contains(t, buf.String(), `"logger":"engine"`)
}

func TestZapLogger_WithContext(t *testing.T) {
	l, buf := newTestLogger(t)
	ctx := WithRequestID(context.Background(), "req-123")
	l.WithContext(ctx).Info("msg")
	assert.Contains(t, buf.String(), `"request_id":"req-123"`)

	buf.Reset()
	l.WithContext(context.Background()).Info("plain")
	assert.NotContains(t, buf.String(), "request_id")
}

func TestZapLogger_WithError(t *testing.T) {
	l, buf := newTestLogger(t)
	l.WithError(errors.New(errors.CodeInvalidMileage, "mileage must be non-negative")).Error("msg")
	assert.Contains(t, buf.String(), `"error_code":"VEH_003"`)
	assert.Contains(t, buf.String(), `"error":"[VEH_003] mileage must be non-negative"`)

	buf.Reset()
	l.WithError(stderrors.New("std error")).Error("msg")
	assert.Contains(t, buf.String(), `"error":"std error"`)
	assert.NotContains(t, buf.String(), "error_code")

	buf.Reset()
	l.WithError(nil).Info("msg")
	assert.NotContains(t, buf.String(), `"error"`)
}

func TestZapLogger_SetLevel(t *testing.T) {
	l, buf := newTestLogger(t)
	child := l.Named("child")

	l.SetLevel(LevelWarn)
	child.Info("hidden")
	child.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestDefault(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	l, _ := newTestLogger(t)
	SetDefault(l)
	assert.Equal(t, Logger(l), Default())

	SetDefault(nil)
	assert.Equal(t, Logger(l), Default())
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel(" DEBUG ")
	require.NoError(t, err)
	assert.Equal(t, LevelDebug, lvl)
	assert.Equal(t, "debug", lvl.String())

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}

func TestLogOperationDuration(t *testing.T) {
	l, buf := newTestLogger(t)
	LogOperationDuration(l, "assess", time.Now())
	assert.Contains(t, buf.String(), "operation completed")
	assert.Contains(t, buf.String(), `"operation":"assess"`)
	assert.Contains(t, buf.String(), FieldDurationMS)

	buf.Reset()
	LogOperationDuration(l, "assess", time.Now().Add(-2*time.Second))
	assert.Contains(t, buf.String(), "slow operation")
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestRequestIDFromContext_Empty(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(context.Background()))
}

func TestField_String(t *testing.T) {
	assert.Equal(t, "k=v", String("k", "v").String())
}
