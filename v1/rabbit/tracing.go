package rabbit

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the tracing the manager applies to published and consumed
// messages. *tracer.Tracer from orderqueue/v1/tracer implements it.
type Tracer interface {
	StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span)
	SetAttributes(span trace.Span, attrs map[string]interface{})
	RecordErrorOnSpan(span trace.Span, err error)
	GetCarrier(ctx context.Context) map[string]string
	SetCarrierOnContext(ctx context.Context, carrier map[string]string) context.Context
}

// SetTracer installs the tracer used by the manager and everything built on it.
// Without one, messages carry no trace headers and no spans are started.
func (m *ConnectionManager) SetTracer(t Tracer) {
	m.tracer = t
}

// injectTrace writes the trace context of ctx into headers.
func (m *ConnectionManager) injectTrace(ctx context.Context, headers amqp.Table) {
	if m.tracer == nil {
		return
	}
	for k, v := range m.tracer.GetCarrier(ctx) {
		headers[k] = v
	}
}

// startConsumeSpan starts a consumer span that continues the trace carried
// in the message headers.
func (m *ConnectionManager) startConsumeSpan(ctx context.Context, queue string, env *Envelope) (context.Context, trace.Span) {
	if m.tracer == nil {
		return ctx, trace.SpanFromContext(context.Background())
	}

	ctx = m.tracer.SetCarrierOnContext(ctx, headerCarrier(env.Headers))
	ctx, span := m.tracer.StartSpan(ctx, "rabbit.consume "+queue, trace.WithSpanKind(trace.SpanKindConsumer))
	m.tracer.SetAttributes(span, map[string]interface{}{
		"messaging.system":               "rabbitmq",
		"messaging.destination.name":     queue,
		"messaging.message.id":           env.MessageID,
		"messaging.rabbitmq.retry_count": env.RetryCount,
	})
	return ctx, span
}

func (m *ConnectionManager) endSpan(span trace.Span, outcome Outcome, err error) {
	if m.tracer != nil {
		m.tracer.SetAttributes(span, map[string]interface{}{"messaging.outcome": outcome.String()})
		if err != nil {
			m.tracer.RecordErrorOnSpan(span, err)
		}
	}
	span.End()
}

// headerCarrier returns the string-valued headers, the only ones that can
// hold trace context.
func headerCarrier(headers amqp.Table) map[string]string {
	carrier := make(map[string]string, len(headers))
	for k, v := range headers {
		switch val := v.(type) {
		case string:
			carrier[k] = val
		case []byte:
			carrier[k] = string(val)
		}
	}
	return carrier
}
