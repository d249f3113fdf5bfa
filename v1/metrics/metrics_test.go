package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Aleph-Alpha/orderqueue/v1/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics() *Metrics {
	return NewMetrics(Config{Address: ":0", ServiceName: "order-worker-test"})
}

func TestObserveOperationCountsByStatus(t *testing.T) {
	m := newTestMetrics()

	m.ObserveOperation(observability.OperationContext{Component: "rabbit", Operation: "produce", Resource: "main_queue", Duration: 5 * time.Millisecond})
	m.ObserveOperation(observability.OperationContext{Component: "rabbit", Operation: "produce", Resource: "main_queue"})
	m.ObserveOperation(observability.OperationContext{Component: "rabbit", Operation: "produce", Resource: "main_queue", Error: errors.New("closed")})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("rabbit", "produce", "main_queue", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("rabbit", "produce", "main_queue", "error")))
}

func TestObserveBatchRecordsSize(t *testing.T) {
	m := newTestMetrics()

	m.ObserveOperation(observability.OperationContext{Component: "rabbit", Operation: "batch", Resource: "main_queue", Size: 10, Duration: time.Second})

	assert.Equal(t, 1, testutil.CollectAndCount(m.batchSize))
}

func TestMetricsHandlerExposesServiceLabel(t *testing.T) {
	m := newTestMetrics()
	m.IncrementRequests("/orders", "201")

	rec := httptest.NewRecorder()
	m.Server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `requests_total{endpoint="/orders",service="order-worker-test",status="201"} 1`), body)
}

func TestCreateCounterUsesNamespace(t *testing.T) {
	m := NewMetrics(Config{Namespace: "orders", ServiceName: "svc"})
	counter := m.CreateCounter("emails_sent_total", "Sent emails", []string{"kind"})
	counter.WithLabelValues("cashback").Inc()

	count, err := testutil.GatherAndCount(m.Registry, "orders_emails_sent_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
