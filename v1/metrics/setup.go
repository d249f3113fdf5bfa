package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the worker's Prometheus collectors and the server that
// exposes them.
type Metrics struct {
	// Server serves the registry on /metrics.
	Server *http.Server

	// Registry is private to this process; nothing registers with the
	// prometheus default registry.
	Registry *prometheus.Registry

	// registerer adds the constant service label.
	registerer prometheus.Registerer
	namespace  string

	// http
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	// queue
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	batchSize         *prometheus.HistogramVec
}

// NewMetrics registers the HTTP and queue collectors, plus the Go, process
// and build-info collectors when EnableDefaultCollectors is set, each
// labelled service=<ServiceName>. The returned server is not started.
//
// Example:
//
//	m := metrics.NewMetrics(metrics.Config{
//	    Address:                 ":9090",
//	    ServiceName:             "order-worker",
//	    EnableDefaultCollectors: true,
//	})
//	go m.Server.ListenAndServe()
func NewMetrics(cfg Config) *Metrics {
	registry := prometheus.NewRegistry()

	wrappedRegistry := prometheus.WrapRegistererWith(
		prometheus.Labels{"service": cfg.ServiceName},
		registry,
	)

	m := &Metrics{
		Registry:   registry,
		registerer: wrappedRegistry,
		namespace:  cfg.Namespace,
	}

	m.requestsTotal = createCounterVec(cfg.Namespace, "requests_total", "Total number of processed HTTP requests", []string{"endpoint", "status"})
	m.requestDuration = createHistogramVec(cfg.Namespace, "request_duration_seconds", "Duration of HTTP requests in seconds", []string{"endpoint"}, prometheus.DefBuckets)
	m.operationsTotal = createCounterVec(cfg.Namespace, "queue_operations_total", "Total number of queue operations by outcome", []string{"component", "operation", "resource", "status"})
	m.operationDuration = createHistogramVec(cfg.Namespace, "queue_operation_duration_seconds", "Duration of queue operations in seconds", []string{"component", "operation"}, prometheus.DefBuckets)
	m.batchSize = createHistogramVec(cfg.Namespace, "queue_batch_size", "Number of messages per processed batch", []string{"resource"}, prometheus.LinearBuckets(1, 5, 10))

	wrappedRegistry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.operationsTotal,
		m.operationDuration,
		m.batchSize,
	)

	if cfg.EnableDefaultCollectors {
		wrappedRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
	}

	address := cfg.Address
	if address == "" {
		address = DefaultMetricsAddress
	}

	m.Server = &http.Server{
		Addr:    address,
		Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	return m
}
