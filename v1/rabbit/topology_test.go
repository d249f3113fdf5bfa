package rabbit

import (
	"math"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeclareTopology(t *testing.T) {
	ch := newFakeChannel()

	require.NoError(t, DeclareTopology(ch, Topology{RetryTTL: 10 * time.Second}))

	assert.Equal(t, amqp.ExchangeDirect, ch.exchanges[ExchangeDLX])

	require.Contains(t, ch.queues, QueueMain)
	assert.Equal(t, amqp.Table{
		"x-dead-letter-exchange":    "dlx_exchange",
		"x-dead-letter-routing-key": "retry",
	}, ch.queues[QueueMain])

	require.Contains(t, ch.queues, QueueRetry)
	assert.Equal(t, amqp.Table{
		"x-message-ttl":             int32(10000),
		"x-dead-letter-exchange":    "dlx_exchange",
		"x-dead-letter-routing-key": "main",
	}, ch.queues[QueueRetry])

	require.Contains(t, ch.queues, QueueDeadLetter)
	assert.Empty(t, ch.queues[QueueDeadLetter])

	assert.Equal(t, map[string]int{
		"dlx_exchange|retry|retry_queue": 1,
		"dlx_exchange|main|main_queue":   1,
		"dlx_exchange|dlq|dlq":           1,
	}, ch.bindings)
}

func TestDeclareTopologyIsIdempotent(t *testing.T) {
	ch := newFakeChannel()
	topology := Topology{RetryTTL: 10 * time.Second}

	require.NoError(t, DeclareTopology(ch, topology))
	require.NoError(t, DeclareTopology(ch, topology))

	assert.Len(t, ch.queues, 3)
	assert.Len(t, ch.bindings, 3)
	assert.Equal(t, 6, ch.declares)
}

func TestDeclareTopologyConflict(t *testing.T) {
	ch := newFakeChannel()
	ch.queues[QueueRetry] = amqp.Table{"x-message-ttl": int32(60000)}

	err := DeclareTopology(ch, Topology{RetryTTL: 10 * time.Second})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTopologyConflict)
	assert.Contains(t, err.Error(), QueueRetry)
	assert.Contains(t, err.Error(), "inequivalent arg 'x-message-ttl'")
}

func TestDeclareTopologyRetryTTL(t *testing.T) {
	ch := newFakeChannel()
	require.NoError(t, DeclareTopology(ch, Topology{RetryTTL: 2500 * time.Millisecond}))
	assert.Equal(t, int32(2500), ch.queues[QueueRetry]["x-message-ttl"])

	ch = newFakeChannel()
	require.NoError(t, DeclareTopology(ch, Topology{}))
	assert.Equal(t, int32(10000), ch.queues[QueueRetry]["x-message-ttl"])

	ch = newFakeChannel()
	require.NoError(t, DeclareTopology(ch, Topology{RetryTTL: 30 * 24 * time.Hour}))
	assert.Equal(t, int32(math.MaxInt32), ch.queues[QueueRetry]["x-message-ttl"])
}

func TestNormalizeCapsRetryTTL(t *testing.T) {
	cfg := Config{Topology: Topology{RetryTTL: 365 * 24 * time.Hour}}.Normalize()
	assert.Equal(t, MaxRetryTTL, cfg.Topology.RetryTTL)

	cfg = Config{Topology: Topology{RetryTTL: time.Hour}}.Normalize()
	assert.Equal(t, time.Hour, cfg.Topology.RetryTTL)
}
