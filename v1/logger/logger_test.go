package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger(tracing bool) (*LoggerClient, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewWithZap(zap.New(core), tracing), logs
}

func spanContext(t *testing.T) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestLoggerFieldsAndError(t *testing.T) {
	log, logs := newObservedLogger(false)

	log.Error("publish failed", errors.New("boom"), map[string]interface{}{"queue": "main_queue"})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	assert.Equal(t, "publish failed", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "main_queue", fields["queue"])
	assert.Equal(t, "boom", fields["error"])
}

func TestLoggerWithContextAddsTraceIDs(t *testing.T) {
	log, logs := newObservedLogger(true)

	log.InfoWithContext(spanContext(t), "processing batch", nil, map[string]interface{}{"size": 10})

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", fields["span_id"])
	assert.EqualValues(t, 10, fields["size"])
}

func TestLoggerWithContextTracingDisabled(t *testing.T) {
	log, logs := newObservedLogger(false)

	log.WarnWithContext(spanContext(t), "reconnecting", nil)

	fields := logs.All()[0].ContextMap()
	assert.NotContains(t, fields, "trace_id")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel(Debug))
	assert.Equal(t, zapcore.WarnLevel, parseLevel(Warning))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel(Error))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("production"))
	assert.Equal(t, zapcore.DebugLevel, parseLevel("development"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("WARN"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
}
