package rabbit

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPChannel is the subset of *amqp.Channel the package uses. Every
// operation on it goes through the ConnectionManager, which serializes access.
type AMQPChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	PublishWithDeferredConfirmWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) (*amqp.DeferredConfirmation, error)
	Confirm(noWait bool) error
	NotifyClose(c chan *amqp.Error) chan *amqp.Error
	IsClosed() bool
	Close() error
}

var _ AMQPChannel = (*amqp.Channel)(nil)

// connection is the broker connection as seen by the ConnectionManager.
type connection interface {
	channel() (AMQPChannel, error)
	NotifyClose(c chan *amqp.Error) chan *amqp.Error
	IsClosed() bool
	Close() error
}

// dialer opens a connection. Replaced in tests.
type dialer func(cfg Connection) (connection, error)

type amqpConnection struct {
	*amqp.Connection
}

func (c amqpConnection) channel() (AMQPChannel, error) {
	return c.Channel()
}
