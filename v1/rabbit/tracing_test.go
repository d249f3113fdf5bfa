package rabbit

import (
	"context"
	"errors"
	"testing"

	"github.com/Aleph-Alpha/orderqueue/v1/tracer"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

const (
	testTraceID     = "4bf92f3577b34da6a3ce929d0e0e4736"
	testTraceparent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
)

var _ Tracer = (*tracer.Tracer)(nil)

func newTestTracer(t *testing.T) *tracer.Tracer {
	t.Helper()
	tr, err := tracer.NewClient(tracer.Config{ServiceName: "order-worker-test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Shutdown(context.Background()) })
	return tr
}

func sampledContext(t *testing.T) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex(testTraceID)
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	return trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))
}

func TestPublishInjectsTraceContext(t *testing.T) {
	p, broker := connectedPublisher(t, testConfig())
	p.manager.SetTracer(newTestTracer(t))

	require.NoError(t, p.Publish(sampledContext(t), QueueMain, []byte("x")))

	msg := broker.last().ch.publishedTo(QueueMain)[0]
	assert.Equal(t, testTraceparent, msg.Headers["traceparent"])
}

func TestPublishWithoutTracerAddsNoTraceHeaders(t *testing.T) {
	p, broker := connectedPublisher(t, testConfig())

	require.NoError(t, p.Publish(sampledContext(t), QueueMain, []byte("x")))

	msg := broker.last().ch.publishedTo(QueueMain)[0]
	assert.NotContains(t, msg.Headers, "traceparent")
}

func TestConsumeSpanContinuesTrace(t *testing.T) {
	m := NewConnectionManager(testConfig(), nil)
	m.SetTracer(newTestTracer(t))

	env := &Envelope{MessageID: "m-1", Headers: amqp.Table{"traceparent": []byte(testTraceparent)}}
	ctx, span := m.startConsumeSpan(context.Background(), QueueMain, env)

	sc := trace.SpanContextFromContext(ctx)
	assert.Equal(t, testTraceID, sc.TraceID().String())
	assert.NotEqual(t, "00f067aa0ba902b7", sc.SpanID().String(), "consumer span is a child")
	assert.True(t, span.IsRecording())

	m.endSpan(span, OutcomeRetry, errors.New("db down"))
	assert.False(t, span.IsRecording())
}

func TestConsumeSpanWithoutTracer(t *testing.T) {
	m := NewConnectionManager(testConfig(), nil)
	parent := sampledContext(t)

	ctx, span := m.startConsumeSpan(parent, QueueMain, &Envelope{})
	assert.Equal(t, parent, ctx)
	assert.False(t, span.IsRecording())
	m.endSpan(span, OutcomeSuccess, nil)
}
