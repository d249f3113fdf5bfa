// Package tracer wraps OpenTelemetry tracing for the order worker.
//
// It installs a global tracer provider and the W3C trace-context propagator so
// that spans started while handling an HTTP request follow the order through
// RabbitMQ headers into the batch consumer. Export is optional and uses OTLP
// over HTTP.
package tracer
