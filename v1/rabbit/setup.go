package rabbit

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Aleph-Alpha/orderqueue/v1/observability"
	amqp "github.com/rabbitmq/amqp091-go"
)

// sessionPollInterval is how often waiters check for a new session.
const sessionPollInterval = 100 * time.Millisecond

// session is one live connection with its channel. It is never mutated after
// being published; a reconnect builds a new one.
type session struct {
	conn       connection
	ch         AMQPChannel
	connClosed chan *amqp.Error
	chClosed   chan *amqp.Error
}

func (s *session) alive() bool {
	return !s.conn.IsClosed() && !s.ch.IsClosed()
}

// ConnectionManager owns the broker connection and the single channel used
// for every publish and consume operation. Run keeps it connected.
type ConnectionManager struct {
	cfg      Config
	dial     dialer
	logger   Logger
	observer observability.Observer
	tracer   Tracer

	current atomic.Pointer[session]

	// connectMu serializes Connect so there is at most one live connection.
	connectMu sync.Mutex
	// chMu serializes operations on the channel.
	chMu sync.Mutex

	cbMu        sync.Mutex
	onConnected []func()
	connects    atomic.Int64

	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// NewConnectionManager creates a manager for cfg. It does not connect; call
// Connect or Run.
//
// Example:
//
//	manager := rabbit.NewConnectionManager(cfg, log)
//	go manager.Run(ctx)
//	defer manager.Close()
func NewConnectionManager(cfg Config, logger Logger) *ConnectionManager {
	if logger == nil {
		logger = nopLogger{}
	}
	return &ConnectionManager{
		cfg:      cfg.Normalize(),
		dial:     dial,
		logger:   logger,
		shutdown: make(chan struct{}),
	}
}

// Config returns the normalized configuration.
func (m *ConnectionManager) Config() Config {
	return m.cfg
}

// OnConnected registers fn to be called after every successful connect.
func (m *ConnectionManager) OnConnected(fn func()) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.onConnected = append(m.onConnected, fn)
}

// IsConnected reports whether a live session is available.
func (m *ConnectionManager) IsConnected() bool {
	s := m.current.Load()
	return s != nil && s.alive()
}

// Connects returns the number of successful connects so far.
func (m *ConnectionManager) Connects() int64 {
	return m.connects.Load()
}

// Connect establishes the connection and channel, declares the topology and
// publishes the new session. It is a no-op when a live session exists.
func (m *ConnectionManager) Connect(ctx context.Context) error {
	m.connectMu.Lock()
	defer m.connectMu.Unlock()

	if m.isShutdown() {
		return ErrShutdown
	}
	if m.IsConnected() {
		return nil
	}
	if strings.TrimSpace(m.cfg.Connection.URL) == "" {
		return fmt.Errorf("%w: broker URL is empty", ErrConfigurationError)
	}

	start := time.Now()
	s, err := m.open()
	m.observeOperation("connect", m.cfg.Connection.Name, "", time.Since(start), err, 0)
	if err != nil {
		return err
	}

	if old := m.current.Swap(s); old != nil {
		m.closeSession(ctx, old)
	}
	m.connects.Add(1)

	m.logger.InfoWithContext(ctx, "Connected to RabbitMQ", nil, map[string]interface{}{
		"connection": m.cfg.Connection.Name,
		"connects":   m.connects.Load(),
	})

	m.cbMu.Lock()
	callbacks := append([]func(){}, m.onConnected...)
	m.cbMu.Unlock()
	for _, fn := range callbacks {
		fn()
	}
	return nil
}

func (m *ConnectionManager) open() (*session, error) {
	conn, err := m.dial(m.cfg.Connection)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	ch, err := conn.channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create channel: %w", TranslateError(err))
	}

	if err = ch.Confirm(false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", TranslateError(err))
	}

	if err = DeclareTopology(ch, m.cfg.Topology); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &session{
		conn:       conn,
		ch:         ch,
		connClosed: conn.NotifyClose(make(chan *amqp.Error, 1)),
		chClosed:   ch.NotifyClose(make(chan *amqp.Error, 1)),
	}, nil
}

// Run connects and keeps the manager connected until ctx is cancelled or
// Close is called. Broker errors are logged and never end the loop.
func (m *ConnectionManager) Run(ctx context.Context) {
	for {
		if err := m.Connect(ctx); err != nil {
			if errors.Is(err, ErrShutdown) {
				return
			}
			m.logger.ErrorWithContext(ctx, "Failed to connect to RabbitMQ, retrying", err, map[string]interface{}{
				"retry_in": m.cfg.Connection.ConnectRetryDelay.String(),
			})
			if !m.sleep(ctx, m.cfg.Connection.ConnectRetryDelay) {
				return
			}
			continue
		}

		s := m.current.Load()
		if s == nil {
			continue
		}

		var reason *amqp.Error
		select {
		case <-ctx.Done():
			return
		case <-m.shutdown:
			return
		case reason = <-s.connClosed:
		case reason = <-s.chClosed:
		}

		m.logger.WarnWithContext(ctx, "RabbitMQ connection closed, reconnecting", closeReason(reason), map[string]interface{}{
			"retry_in": m.cfg.Connection.ReconnectDelay.String(),
		})
		m.invalidate(ctx, s)

		if !m.sleep(ctx, m.cfg.Connection.ReconnectDelay) {
			return
		}
	}
}

func closeReason(reason *amqp.Error) error {
	if reason == nil {
		return ErrConnectionClosed
	}
	return reason
}

// invalidate drops s if it is still the current session.
func (m *ConnectionManager) invalidate(ctx context.Context, s *session) {
	if m.current.CompareAndSwap(s, nil) {
		m.closeSession(ctx, s)
	}
}

// Close shuts the manager down. The channel is closed before the connection;
// errors are logged and otherwise ignored.
func (m *ConnectionManager) Close() {
	m.shutdownOnce.Do(func() {
		close(m.shutdown)
	})

	ctx := context.Background()
	m.logger.InfoWithContext(ctx, "Shutting down RabbitMQ client", nil)

	if s := m.current.Swap(nil); s != nil {
		m.closeSession(ctx, s)
	}
}

func (m *ConnectionManager) closeSession(ctx context.Context, s *session) {
	if !s.ch.IsClosed() {
		if err := s.ch.Close(); err != nil {
			m.logger.WarnWithContext(ctx, "Failed to close rabbit channel", err)
		}
	}
	if !s.conn.IsClosed() {
		if err := s.conn.Close(); err != nil {
			m.logger.WarnWithContext(ctx, "Failed to close rabbit connection", err)
		}
	}
}

func (m *ConnectionManager) isShutdown() bool {
	select {
	case <-m.shutdown:
		return true
	default:
		return false
	}
}

// sleep waits for d and reports false if the wait was cut short by ctx or Close.
func (m *ConnectionManager) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	case <-m.shutdown:
		return false
	}
}

// awaitSession blocks until a live session exists.
func (m *ConnectionManager) awaitSession(ctx context.Context) (*session, error) {
	for {
		if s := m.current.Load(); s != nil && s.alive() {
			return s, nil
		}
		if !m.sleep(ctx, sessionPollInterval) {
			if m.isShutdown() {
				return nil, ErrShutdown
			}
			return nil, ctx.Err()
		}
	}
}

// exclusive runs fn while holding the channel lock.
func (m *ConnectionManager) exclusive(fn func() error) error {
	m.chMu.Lock()
	defer m.chMu.Unlock()
	return fn()
}

// withSession runs fn against the channel of s while holding the channel
// lock, provided s is still the current session.
func (m *ConnectionManager) withSession(s *session, fn func(ch AMQPChannel) error) error {
	return m.exclusive(func() error {
		if m.isShutdown() {
			return ErrShutdown
		}
		if m.current.Load() != s || s.ch.IsClosed() {
			return ErrChannelClosed
		}
		return fn(s.ch)
	})
}

// withChannel runs fn against the current channel while holding the channel lock.
func (m *ConnectionManager) withChannel(fn func(ch AMQPChannel) error) error {
	return m.exclusive(func() error {
		if m.isShutdown() {
			return ErrShutdown
		}
		s := m.current.Load()
		if s == nil {
			return ErrNotConnected
		}
		if s.ch.IsClosed() {
			return ErrChannelClosed
		}
		return fn(s.ch)
	})
}

// publish sends msg on the default exchange and waits for the broker confirm
// outside the channel lock.
func (m *ConnectionManager) publish(ctx context.Context, queue string, msg amqp.Publishing) error {
	return m.publishVia(ctx, m.withChannel, queue, msg)
}

// publishOn publishes on s only. It fails with ErrChannelClosed once s has
// been replaced by a reconnect, so a delivery is never republished through a
// session other than the one it arrived on.
func (m *ConnectionManager) publishOn(ctx context.Context, s *session, queue string, msg amqp.Publishing) error {
	return m.publishVia(ctx, func(fn func(ch AMQPChannel) error) error {
		return m.withSession(s, fn)
	}, queue, msg)
}

func (m *ConnectionManager) publishVia(ctx context.Context, via func(fn func(ch AMQPChannel) error) error, queue string, msg amqp.Publishing) error {
	var confirm *amqp.DeferredConfirmation
	err := via(func(ch AMQPChannel) error {
		var err error
		confirm, err = ch.PublishWithDeferredConfirmWithContext(ctx, "", queue, false, false, msg)
		return err
	})
	if err != nil {
		return TranslateError(err)
	}
	if confirm == nil {
		return nil
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return TranslateError(err)
	}
	if !acked {
		return ErrMessageNacked
	}
	return nil
}

// dial opens a connection to the broker. TLS is used when IsSSLEnabled is
// set, with a client certificate when UseCert is also set.
func dial(cfg Connection) (connection, error) {
	amqpCfg := amqp.Config{
		Heartbeat:  cfg.Heartbeat,
		Properties: amqp.NewConnectionProperties(),
	}
	if cfg.Name != "" {
		amqpCfg.Properties.SetClientConnectionName(cfg.Name)
	}

	if cfg.IsSSLEnabled {
		tlsConfig, err := newTLSConfig(cfg)
		if err != nil {
			return nil, err
		}
		amqpCfg.TLSClientConfig = tlsConfig
	}

	conn, err := amqp.DialConfig(cfg.URL, amqpCfg)
	if err != nil {
		return nil, err
	}
	return amqpConnection{conn}, nil
}

func newTLSConfig(cfg Connection) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		ServerName: cfg.ServerName,
		MinVersion: tls.VersionTLS12,
	}

	if cfg.CACertPath != "" {
		caCert, err := os.ReadFile(cfg.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read CA cert: %v", ErrTLSError, err)
		}
		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("%w: no certificates found in %s", ErrTLSError, cfg.CACertPath)
		}
		tlsConfig.RootCAs = caCertPool
	}

	if cfg.UseCert {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCertPath, cfg.ClientKeyPath)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to load client cert: %v", ErrTLSError, err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}
