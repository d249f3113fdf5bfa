// Package observability defines the hook components use to report operations
// to metrics or tracing backends without depending on them directly.
package observability

import "time"

// OperationContext describes a single observed operation.
type OperationContext struct {
	// Component is the reporting package, e.g. "rabbit".
	Component string

	// Operation is what happened, e.g. "produce", "consume", "retry", "dead_letter".
	Operation string

	// Resource is the primary target, usually a queue or exchange name.
	Resource string

	// SubResource is an optional secondary target such as a routing key.
	SubResource string

	Duration time.Duration
	Error    error

	// Size is the payload size in bytes, or the item count for batch operations.
	Size int64

	Metadata map[string]string
}

// Observer receives operation events. Implementations must be safe for concurrent use.
type Observer interface {
	ObserveOperation(ctx OperationContext)
}
