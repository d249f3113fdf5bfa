package metrics

import "github.com/Aleph-Alpha/orderqueue/v1/observability"

const (
	statusSuccess = "success"
	statusError   = "error"
)

// ObserveOperation implements observability.Observer. Every event increments
// queue_operations_total; operations with a duration also feed the histogram.
// The "batch" operation records its Size in queue_batch_size.
func (m *Metrics) ObserveOperation(op observability.OperationContext) {
	status := statusSuccess
	if op.Error != nil {
		status = statusError
	}
	m.operationsTotal.WithLabelValues(op.Component, op.Operation, op.Resource, status).Inc()

	if op.Duration > 0 {
		m.operationDuration.WithLabelValues(op.Component, op.Operation).Observe(op.Duration.Seconds())
	}
	if op.Operation == "batch" {
		m.batchSize.WithLabelValues(op.Resource).Observe(float64(op.Size))
	}
}
