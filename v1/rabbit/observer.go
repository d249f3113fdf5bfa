package rabbit

import (
	"time"

	"github.com/Aleph-Alpha/orderqueue/v1/observability"
)

// observeOperation notifies the observer about an operation if one is configured.
// This is used internally to track connect, publish and consume operations for metrics.
func (m *ConnectionManager) observeOperation(operation, resource, subResource string, duration time.Duration, err error, size int64) {
	if m.observer != nil {
		m.observer.ObserveOperation(observability.OperationContext{
			Component:   "rabbit",
			Operation:   operation,
			Resource:    resource,
			SubResource: subResource,
			Duration:    duration,
			Error:       err,
			Size:        size,
			Metadata:    nil,
		})
	}
}

// SetObserver installs the observer used by the manager and everything built on it.
func (m *ConnectionManager) SetObserver(observer observability.Observer) {
	m.observer = observer
}
