package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends messages to named queues through a ConnectionManager.
// Transient failures are retried a bounded number of times; after that the
// message is dropped and the drop is logged.
type Publisher struct {
	manager *ConnectionManager
	cfg     PublisherConfig
	logger  Logger

	inflight sync.WaitGroup
}

// NewPublisher creates a Publisher using the publisher settings of the manager's config.
func NewPublisher(manager *ConnectionManager, logger Logger) *Publisher {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Publisher{
		manager: manager,
		cfg:     manager.Config().Publisher,
		logger:  logger,
	}
}

// Publish sends message to queue and returns once the broker confirmed it or
// every attempt failed.
//
// []byte and json.RawMessage are sent as is; any other value is JSON encoded.
// Optional header maps are merged in order, and with a Tracer installed the
// trace context of ctx is added to them.
//
// When there is no live connection, one reconnect is attempted first. The
// send is then tried up to MaxAttempts times, RetryDelay apart; an error that
// IsRetryableError rejects, such as ErrMessageTooLarge or ErrAccessDenied,
// ends the attempts early. Errors are always *PublishError.
//
// Example:
//
//	err := publisher.Publish(ctx, rabbit.QueueMain, order, map[string]interface{}{
//	    "event": "order.created",
//	})
//	if err != nil {
//	    var pubErr *rabbit.PublishError
//	    if errors.As(err, &pubErr) {
//	        log.Printf("dropped after %d attempts", pubErr.Attempts)
//	    }
//	}
func (p *Publisher) Publish(ctx context.Context, queue string, message interface{}, headers ...map[string]interface{}) error {
	msg, err := p.build(ctx, message, headers...)
	if err != nil {
		return &PublishError{Queue: queue, Err: err}
	}
	return p.send(ctx, queue, msg)
}

// PublishAsync is Publish without waiting. Only serialization errors are
// returned; send failures are logged once attempts run out. The send is not
// cancelled with ctx.
func (p *Publisher) PublishAsync(ctx context.Context, queue string, message interface{}, headers ...map[string]interface{}) error {
	msg, err := p.build(ctx, message, headers...)
	if err != nil {
		return &PublishError{Queue: queue, Err: err}
	}

	sendCtx := context.WithoutCancel(ctx)
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		_ = p.send(sendCtx, queue, msg)
	}()
	return nil
}

// Wait blocks until every PublishAsync send has finished.
func (p *Publisher) Wait() {
	p.inflight.Wait()
}

func (p *Publisher) build(ctx context.Context, message interface{}, headers ...map[string]interface{}) (amqp.Publishing, error) {
	body, err := encode(message)
	if err != nil {
		return amqp.Publishing{}, err
	}

	table := amqp.Table{}
	for _, h := range headers {
		for k, v := range h {
			table[k] = v
		}
	}
	p.manager.injectTrace(ctx, table)

	return amqp.Publishing{
		Headers:      table,
		ContentType:  p.cfg.ContentType,
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}, nil
}

func encode(message interface{}) ([]byte, error) {
	switch m := message.(type) {
	case []byte:
		return m, nil
	case json.RawMessage:
		return m, nil
	default:
		body, err := json.Marshal(message)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
		}
		return body, nil
	}
}

func (p *Publisher) send(ctx context.Context, queue string, msg amqp.Publishing) error {
	start := time.Now()
	size := int64(len(msg.Body))

	if !p.manager.IsConnected() {
		if err := p.manager.Connect(ctx); err != nil {
			p.logger.WarnWithContext(ctx, "Reconnect before publish failed", err, map[string]interface{}{
				"queue": queue,
			})
		}
	}

	var lastErr error
	attempts := 0
	for attempts < p.cfg.MaxAttempts {
		attempts++
		lastErr = p.manager.publish(ctx, queue, msg)
		if lastErr == nil {
			p.manager.observeOperation("produce", queue, "", time.Since(start), nil, size)
			return nil
		}

		p.logger.WarnWithContext(ctx, "Failed to publish message", lastErr, map[string]interface{}{
			"queue":      queue,
			"message_id": msg.MessageId,
			"attempt":    attempts,
		})

		if !IsRetryableError(lastErr) {
			break
		}
		if attempts < p.cfg.MaxAttempts && !p.manager.sleep(ctx, p.cfg.RetryDelay) {
			break
		}
	}

	p.manager.observeOperation("produce", queue, "", time.Since(start), lastErr, size)
	p.logger.ErrorWithContext(ctx, "Dropping message after failed publish attempts", lastErr, map[string]interface{}{
		"queue":      queue,
		"message_id": msg.MessageId,
		"attempts":   attempts,
	})
	return &PublishError{Queue: queue, Attempts: attempts, Err: lastErr}
}
