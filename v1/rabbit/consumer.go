package rabbit

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler processes one message. Returning nil acknowledges it; any error
// sends it through the retry policy. Wrap an error with Permanent to skip
// the retry budget.
type Handler func(ctx context.Context, msg *Envelope) error

// BatchConsumer consumes the main queue in batches and applies the retry
// policy to every message. Deliveries are pushed by the broker with a
// prefetch equal to the batch size, so at most one batch is in flight.
type BatchConsumer struct {
	manager    *ConnectionManager
	handler    Handler
	logger     Logger
	queue      string
	batchSize  int
	maxRetries int
	tag        string
	// requeueDelay is the pause before a delivery whose republish failed is
	// handed back to the broker.
	requeueDelay time.Duration
}

// NewBatchConsumer creates a consumer for the main queue using the consumer
// settings of the manager's config.
func NewBatchConsumer(manager *ConnectionManager, handler Handler, logger Logger) *BatchConsumer {
	if logger == nil {
		logger = nopLogger{}
	}
	cfg := manager.Config().Consumer
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	requeueDelay := manager.Config().Publisher.RetryDelay
	if requeueDelay <= 0 {
		requeueDelay = DefaultPublishRetryDelay
	}
	return &BatchConsumer{
		manager:      manager,
		handler:      handler,
		logger:       logger,
		queue:        QueueMain,
		batchSize:    batchSize,
		maxRetries:   cfg.MaxRetries,
		tag:          cfg.Tag,
		requeueDelay: requeueDelay,
	}
}

// BatchSize returns the effective batch size.
func (c *BatchConsumer) BatchSize() int {
	return c.batchSize
}

// Run consumes until ctx is cancelled or the manager is closed. It survives
// reconnects: when the delivery stream ends it waits for the next session
// and subscribes again.
func (c *BatchConsumer) Run(ctx context.Context) error {
	for {
		s, err := c.manager.awaitSession(ctx)
		if err != nil {
			if errors.Is(err, ErrShutdown) || ctx.Err() != nil {
				return nil
			}
			return err
		}

		deliveries, err := c.subscribe(s)
		if err != nil {
			c.logger.ErrorWithContext(ctx, "Failed to establish consumer", err, map[string]interface{}{
				"queue": c.queue,
			})
			if !c.manager.sleep(ctx, sessionPollInterval) {
				return nil
			}
			continue
		}

		c.logger.InfoWithContext(ctx, "Consuming queue", nil, map[string]interface{}{
			"queue":      c.queue,
			"batch_size": c.batchSize,
		})

		if done := c.consume(ctx, s, deliveries); done {
			return nil
		}
	}
}

func (c *BatchConsumer) subscribe(s *session) (<-chan amqp.Delivery, error) {
	var deliveries <-chan amqp.Delivery
	err := c.manager.exclusive(func() error {
		if err := s.ch.Qos(c.batchSize, 0, false); err != nil {
			return fmt.Errorf("failed to set QoS: %w", TranslateError(err))
		}
		var err error
		deliveries, err = s.ch.Consume(
			c.queue,
			c.tag,
			false, // autoAck
			false, // exclusive
			false, // noLocal
			false, // noWait
			nil,   // args
		)
		if err != nil {
			return fmt.Errorf("failed to consume %s: %w", c.queue, TranslateError(err))
		}
		return nil
	})
	return deliveries, err
}

// consume accumulates deliveries of s into batches. It reports true when the
// consumer should stop and false when the delivery stream ended.
func (c *BatchConsumer) consume(ctx context.Context, s *session, deliveries <-chan amqp.Delivery) bool {
	batch := make([]amqp.Delivery, 0, c.batchSize)
	for {
		select {
		case <-ctx.Done():
			return true
		case <-c.manager.shutdown:
			return true
		case d, ok := <-deliveries:
			if !ok {
				if len(batch) > 0 {
					c.logger.WarnWithContext(ctx, "Delivery stream closed, abandoning partial batch", ErrChannelClosed, map[string]interface{}{
						"queue":   c.queue,
						"pending": len(batch),
					})
				}
				return false
			}
			batch = append(batch, d)
			if len(batch) == c.batchSize {
				c.processBatch(ctx, s, batch)
				batch = batch[:0]
			}
		}
	}
}

// processBatch handles deliveries in order. A failed acknowledgment means the
// channel is unusable; the rest of the batch is left for redelivery.
func (c *BatchConsumer) processBatch(ctx context.Context, s *session, batch []amqp.Delivery) {
	start := time.Now()
	var batchErr error
	for i := range batch {
		if err := c.process(ctx, s, batch[i]); err != nil {
			batchErr = err
			c.logger.ErrorWithContext(ctx, "Aborting batch", err, map[string]interface{}{
				"queue":     c.queue,
				"processed": i,
				"remaining": len(batch) - i - 1,
			})
			break
		}
	}
	c.manager.observeOperation("batch", c.queue, "", time.Since(start), batchErr, int64(len(batch)))
}

// process runs the handler for one delivery and settles it. The returned
// error is non-nil only when the delivery could not be acknowledged or requeued.
func (c *BatchConsumer) process(ctx context.Context, s *session, d amqp.Delivery) error {
	env := newEnvelope(d)
	ctx, span := c.manager.startConsumeSpan(ctx, c.queue, env)

	start := time.Now()
	handlerErr := c.invoke(ctx, env)
	c.manager.observeOperation("consume", c.queue, "", time.Since(start), handlerErr, int64(len(d.Body)))

	outcome := Resolve(handlerErr, env.RetryCount, c.maxRetries)
	err := c.settle(ctx, s, d, env, outcome, handlerErr)
	c.manager.endSpan(span, outcome, firstErr(err, handlerErr))
	return err
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *BatchConsumer) invoke(ctx context.Context, env *Envelope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return c.handler(ctx, env)
}

// settle acks d or copies it to the retry or dead-letter queue. Copies go out
// on s, the session d arrived on.
func (c *BatchConsumer) settle(ctx context.Context, s *session, d amqp.Delivery, env *Envelope, outcome Outcome, handlerErr error) error {
	fields := map[string]interface{}{
		"queue":       c.queue,
		"message_id":  env.MessageID,
		"retry_count": env.RetryCount,
		"max_retries": c.maxRetries,
	}

	switch outcome {
	case OutcomeSuccess:
		return c.ack(d)

	case OutcomeRetry:
		c.logger.WarnWithContext(ctx, "Message failed, sending to retry queue", handlerErr, fields)
		start := time.Now()
		err := c.manager.publishOn(ctx, s, QueueRetry, republishing(d, RetryHeaders(d.Headers, env.RetryCount)))
		c.manager.observeOperation("retry", QueueRetry, c.queue, time.Since(start), err, int64(len(d.Body)))
		if err != nil {
			return c.requeue(ctx, d, err, fields)
		}
		return c.ack(d)

	default:
		c.logger.ErrorWithContext(ctx, "Message failed, sending to dead-letter queue", handlerErr, fields)
		start := time.Now()
		err := c.manager.publishOn(ctx, s, QueueDeadLetter, republishing(d, d.Headers))
		c.manager.observeOperation("dead_letter", QueueDeadLetter, c.queue, time.Since(start), err, int64(len(d.Body)))
		if err != nil {
			return c.requeue(ctx, d, err, fields)
		}
		return c.ack(d)
	}
}

func (c *BatchConsumer) ack(d amqp.Delivery) error {
	err := c.manager.exclusive(func() error {
		return d.Ack(false)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAckFailed, err)
	}
	return nil
}

// requeue returns the delivery to the main queue unchanged after a failed
// republish, so its retry count is not consumed. The nack waits for
// requeueDelay first.
func (c *BatchConsumer) requeue(ctx context.Context, d amqp.Delivery, cause error, fields map[string]interface{}) error {
	c.logger.WarnWithContext(ctx, "Republish failed, requeueing message", cause, fields)
	c.manager.sleep(ctx, c.requeueDelay)
	err := c.manager.exclusive(func() error {
		return d.Nack(false, true)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNackFailed, err)
	}
	return nil
}

// republishing copies d into a Publishing with the given headers. Body and
// properties are carried over unchanged.
func republishing(d amqp.Delivery, headers amqp.Table) amqp.Publishing {
	return amqp.Publishing{
		Headers:         headers,
		ContentType:     d.ContentType,
		ContentEncoding: d.ContentEncoding,
		DeliveryMode:    amqp.Persistent,
		Priority:        d.Priority,
		CorrelationId:   d.CorrelationId,
		ReplyTo:         d.ReplyTo,
		Expiration:      d.Expiration,
		MessageId:       d.MessageId,
		Timestamp:       d.Timestamp,
		Type:            d.Type,
		UserId:          d.UserId,
		AppId:           d.AppId,
		Body:            d.Body,
	}
}
