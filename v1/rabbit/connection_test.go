package rabbit

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestConnectRequiresURL(t *testing.T) {
	cfg := testConfig()
	cfg.Connection.URL = "  "
	broker := &fakeBroker{}
	m := newTestManager(t, cfg, broker)

	err := m.Connect(context.Background())

	assert.ErrorIs(t, err, ErrConfigurationError)
	assert.Equal(t, int32(0), broker.dials.Load())
}

func TestConnectDeclaresTopologyAndEnablesConfirms(t *testing.T) {
	broker := &fakeBroker{}
	m := newTestManager(t, testConfig(), broker)

	require.NoError(t, m.Connect(context.Background()))

	ch := broker.last().ch
	assert.True(t, ch.confirm)
	assert.Len(t, ch.queues, 3)
	assert.True(t, m.IsConnected())
	assert.Equal(t, int64(1), m.Connects())
}

func TestConnectIsNoOpWhenConnected(t *testing.T) {
	broker := &fakeBroker{}
	m := newTestManager(t, testConfig(), broker)

	require.NoError(t, m.Connect(context.Background()))
	require.NoError(t, m.Connect(context.Background()))

	assert.Equal(t, int32(1), broker.dials.Load())
}

func TestConnectClosesConnectionOnTopologyFailure(t *testing.T) {
	broker := &fakeBroker{prime: func(ch *fakeChannel) {
		ch.queues[QueueMain] = amqp.Table{"x-max-length": int32(5)}
	}}
	m := newTestManager(t, testConfig(), broker)

	err := m.Connect(context.Background())

	assert.ErrorIs(t, err, ErrTopologyConflict)
	assert.True(t, broker.last().IsClosed())
	assert.False(t, m.IsConnected())
}

func TestConnectChannelFailure(t *testing.T) {
	m := newTestManager(t, testConfig(), &fakeBroker{})
	m.dial = func(cfg Connection) (connection, error) {
		return &fakeConnection{channelErr: errors.New("channel limit reached")}, nil
	}

	err := m.Connect(context.Background())

	require.Error(t, err)
	assert.False(t, m.IsConnected())
}

func TestOnConnectedCallbacks(t *testing.T) {
	broker := &fakeBroker{}
	m := newTestManager(t, testConfig(), broker)

	var calls atomic.Int32
	m.OnConnected(func() { calls.Add(1) })
	m.OnConnected(func() { calls.Add(1) })

	require.NoError(t, m.Connect(context.Background()))
	assert.Equal(t, int32(2), calls.Load())
}

func TestRunReconnectsAfterChannelClose(t *testing.T) {
	broker := &fakeBroker{}
	m := newTestManager(t, testConfig(), broker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	require.Eventually(t, m.IsConnected, time.Second, 5*time.Millisecond)
	first := broker.last()

	first.ch.fail(&amqp.Error{Code: amqp.ConnectionForced, Reason: "CONNECTION_FORCED - broker forced connection closure"})

	require.Eventually(t, func() bool {
		return m.Connects() == 2 && m.IsConnected()
	}, time.Second, 5*time.Millisecond)

	second := broker.last()
	assert.NotSame(t, first, second)
	assert.True(t, first.IsClosed(), "the old connection is released")
	assert.Len(t, second.ch.queues, 3, "topology is declared again")

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunRetriesFailedConnects(t *testing.T) {
	broker := &fakeBroker{failN: 2}
	m := newTestManager(t, testConfig(), broker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	require.Eventually(t, m.IsConnected, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(3), broker.dials.Load())
}

func TestRunLogsConnectFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLog := NewMockLogger(ctrl)

	mockLog.EXPECT().ErrorWithContext(gomock.Any(), "Failed to connect to RabbitMQ, retrying", gomock.Any(), gomock.Any()).
		MinTimes(1)
	mockLog.EXPECT().InfoWithContext(gomock.Any(), "Shutting down RabbitMQ client", gomock.Any(), gomock.Any()).AnyTimes()

	cfg := testConfig()
	cfg.Connection.URL = ""
	m := NewConnectionManager(cfg, mockLog)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done
	m.Close()
}

func TestCloseStopsRunAndRejectsConnect(t *testing.T) {
	broker := &fakeBroker{}
	m := newTestManager(t, testConfig(), broker)

	done := make(chan struct{})
	go func() {
		m.Run(context.Background())
		close(done)
	}()
	require.Eventually(t, m.IsConnected, time.Second, 5*time.Millisecond)

	broker.last().ch.closeErr = errors.New("already closing")
	m.Close()
	m.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Close")
	}
	assert.False(t, m.IsConnected())
	assert.True(t, broker.last().IsClosed())
	assert.ErrorIs(t, m.Connect(context.Background()), ErrShutdown)
}

func TestWithChannelWithoutSession(t *testing.T) {
	m := newTestManager(t, testConfig(), &fakeBroker{})

	err := m.withChannel(func(AMQPChannel) error { return nil })

	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := Config{}.Normalize()

	assert.Equal(t, DefaultBatchSize, cfg.Consumer.BatchSize)
	assert.Equal(t, 0, cfg.Consumer.MaxRetries)
	assert.Equal(t, DefaultRetryTTL, cfg.Topology.RetryTTL)
	assert.Equal(t, 5*time.Second, cfg.Connection.ReconnectDelay)
	assert.Equal(t, 10*time.Second, cfg.Connection.ConnectRetryDelay)
	assert.Equal(t, 3, cfg.Publisher.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Publisher.RetryDelay)
	assert.Equal(t, "application/json", cfg.Publisher.ContentType)

	assert.Equal(t, DefaultMaxRetries, DefaultConfig().Consumer.MaxRetries)

	negative := Config{Consumer: ConsumerConfig{BatchSize: -4, MaxRetries: -1}}.Normalize()
	assert.Equal(t, DefaultBatchSize, negative.Consumer.BatchSize)
	assert.Equal(t, DefaultMaxRetries, negative.Consumer.MaxRetries)
}
