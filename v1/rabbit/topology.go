package rabbit

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DeclareTopology declares the retry graph: the dead-letter exchange, the
// main, retry and dead-letter queues, and their bindings.
//
//	main_queue --(reject/expire)--> dlx_exchange --retry--> retry_queue
//	retry_queue --(ttl expiry)----> dlx_exchange --main---> main_queue
//	dlx_exchange --dlq--> dlq
//
// Declaring the same graph twice is a no-op at the broker. A queue that exists
// with different arguments fails with an error wrapping ErrTopologyConflict.
func DeclareTopology(ch AMQPChannel, topology Topology) error {
	ttl := topology.RetryTTL
	if ttl <= 0 {
		ttl = DefaultRetryTTL
	}

	err := ch.ExchangeDeclare(
		ExchangeDLX,
		amqp.ExchangeDirect,
		true,  // Durable
		false, // AutoDelete
		false, // Internal
		false, // NoWait
		nil,   // Arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", ExchangeDLX, TranslateError(err))
	}

	queues := []struct {
		name string
		args amqp.Table
	}{
		{QueueMain, MainQueueArgs()},
		{QueueRetry, RetryQueueArgs(ttl)},
		{QueueDeadLetter, nil},
	}
	for _, q := range queues {
		_, err = ch.QueueDeclare(
			q.name,
			true,  // Durable
			false, // AutoDelete
			false, // Exclusive
			false, // NoWait
			q.args,
		)
		if err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", q.name, TranslateError(err))
		}
	}

	bindings := []struct{ queue, key string }{
		{QueueRetry, RoutingKeyRetry},
		{QueueMain, RoutingKeyMain},
		{QueueDeadLetter, RoutingKeyDeadLetter},
	}
	for _, b := range bindings {
		if err = ch.QueueBind(b.queue, b.key, ExchangeDLX, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %s to %s: %w", b.queue, b.key, TranslateError(err))
		}
	}

	return nil
}

// MainQueueArgs are the arguments main_queue is declared with.
func MainQueueArgs() amqp.Table {
	return amqp.Table{
		"x-dead-letter-exchange":    ExchangeDLX,
		"x-dead-letter-routing-key": RoutingKeyRetry,
	}
}

// RetryQueueArgs are the arguments retry_queue is declared with. The TTL is
// sent as int32 milliseconds and capped at MaxRetryTTL.
func RetryQueueArgs(ttl time.Duration) amqp.Table {
	if ttl > MaxRetryTTL {
		ttl = MaxRetryTTL
	}
	return amqp.Table{
		"x-message-ttl":             int32(ttl.Milliseconds()),
		"x-dead-letter-exchange":    ExchangeDLX,
		"x-dead-letter-routing-key": RoutingKeyMain,
	}
}
