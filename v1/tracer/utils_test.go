package tracer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestCarrierRoundTrip(t *testing.T) {
	tr, err := NewClient(Config{ServiceName: "order-worker-test", AppEnv: "test"})
	require.NoError(t, err)
	defer func() { _ = tr.Shutdown(context.Background()) }()

	ctx, span := tr.StartSpan(context.Background(), "publish")
	defer span.End()

	carrier := tr.GetCarrier(ctx)
	require.Contains(t, carrier, "traceparent")

	restored := tr.SetCarrierOnContext(context.Background(), carrier)
	assert.Equal(t,
		trace.SpanContextFromContext(ctx).TraceID(),
		trace.SpanContextFromContext(restored).TraceID(),
	)
}

func TestRecordErrorAndAttributesDoNotPanic(t *testing.T) {
	tr, err := NewClient(Config{ServiceName: "order-worker-test"})
	require.NoError(t, err)

	_, span := tr.StartSpan(context.Background(), "process")
	tr.SetAttributes(span, map[string]interface{}{
		"queue":       "main_queue",
		"retry_count": 2,
		"size":        int64(10),
		"ratio":       0.5,
		"redelivered": true,
		"other":       []string{"a"},
	})
	tr.RecordErrorOnSpan(span, errors.New("handler failed"))
	span.End()
}

func TestShutdownNilTracer(t *testing.T) {
	var tr *Tracer
	assert.NoError(t, tr.Shutdown(context.Background()))
}
