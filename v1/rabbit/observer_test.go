package rabbit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Aleph-Alpha/orderqueue/v1/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestObserver is a mock observer for testing
type TestObserver struct {
	mu         sync.Mutex
	operations []observability.OperationContext
}

func (t *TestObserver) ObserveOperation(ctx observability.OperationContext) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.operations = append(t.operations, ctx)
}

func (t *TestObserver) GetOperations() []observability.OperationContext {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]observability.OperationContext{}, t.operations...)
}

func (t *TestObserver) byOperation(name string) []observability.OperationContext {
	var out []observability.OperationContext
	for _, op := range t.GetOperations() {
		if op.Operation == name {
			out = append(out, op)
		}
	}
	return out
}

// TestObserverHelperMethod tests the observeOperation helper method
func TestObserverHelperMethod(t *testing.T) {
	testObserver := &TestObserver{}
	m := NewConnectionManager(testConfig(), nil)
	m.SetObserver(testObserver)

	m.observeOperation("produce", QueueMain, "", 100*time.Millisecond, nil, 1024)

	ops := testObserver.GetOperations()
	require.Len(t, ops, 1)

	op := ops[0]
	assert.Equal(t, "rabbit", op.Component)
	assert.Equal(t, "produce", op.Operation)
	assert.Equal(t, QueueMain, op.Resource)
	assert.Equal(t, int64(1024), op.Size)
	assert.Equal(t, 100*time.Millisecond, op.Duration)
}

// TestObserverNilObserver tests that operations work without an observer
func TestObserverNilObserver(t *testing.T) {
	m := NewConnectionManager(testConfig(), nil)

	assert.NotPanics(t, func() {
		m.observeOperation("produce", QueueMain, "", time.Millisecond, nil, 1)
	})
}

func TestObserverSeesPublishAndConsume(t *testing.T) {
	testObserver := &TestObserver{}
	f := startConsumer(t, 2, 3)
	f.manager.SetObserver(testObserver)
	f.handler.fail["bad"] = errors.New("nope")

	p := NewPublisher(f.manager, nil)
	require.NoError(t, p.Publish(context.Background(), QueueMain, []byte("hello")))

	f.push(1, "good", nil)
	f.push(2, "bad", nil)
	require.Eventually(t, func() bool { return f.settledCount() == 2 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return len(testObserver.byOperation("batch")) == 1 }, time.Second, 5*time.Millisecond)

	produce := testObserver.byOperation("produce")
	require.Len(t, produce, 1)
	assert.Equal(t, QueueMain, produce[0].Resource)
	assert.Equal(t, int64(5), produce[0].Size)

	consume := testObserver.byOperation("consume")
	require.Len(t, consume, 2)
	assert.NoError(t, consume[0].Error)
	assert.Error(t, consume[1].Error)

	retry := testObserver.byOperation("retry")
	require.Len(t, retry, 1)
	assert.Equal(t, QueueRetry, retry[0].Resource)
	assert.Equal(t, QueueMain, retry[0].SubResource)

	batch := testObserver.byOperation("batch")
	assert.Equal(t, int64(2), batch[0].Size)
}
