package rabbit

import (
	"context"

	"github.com/Aleph-Alpha/orderqueue/v1/observability"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"
)

// FXModule is an fx.Module that provides and runs the RabbitMQ components.
//
// The module provides:
// 1. *ConnectionManager, kept connected for the lifetime of the app
// 2. *Publisher for sending messages
// 3. *BatchConsumer, when a Handler is available in the graph
//
// and registers a lifecycle hook that runs the manager and the consumer on
// their own goroutines.
//
// Usage:
//
//	app := fx.New(
//	    rabbit.FXModule,
//	    fx.Provide(
//	        func() rabbit.Config { return loadRabbitConfig() },
//	        func(svc *orders.Service) rabbit.Handler { return svc.StatusHandler },
//	    ),
//	)
var FXModule = fx.Module("rabbit",
	fx.Provide(
		NewConnectionManagerWithDI,
		NewPublisherWithDI,
		NewBatchConsumerWithDI,
	),
	fx.Invoke(RegisterRabbitLifecycle),
)

// RabbitParams groups the dependencies needed to create the connection manager
type RabbitParams struct {
	fx.In

	Config   Config
	Logger   Logger                 `optional:"true"`
	Observer observability.Observer `optional:"true"`
	Tracer   Tracer                 `optional:"true"`
}

// NewConnectionManagerWithDI creates the connection manager from injected
// dependencies. Logger, Observer and Tracer are optional.
func NewConnectionManagerWithDI(params RabbitParams) *ConnectionManager {
	manager := NewConnectionManager(params.Config, params.Logger)
	if params.Observer != nil {
		manager.SetObserver(params.Observer)
	}
	if params.Tracer != nil {
		manager.SetTracer(params.Tracer)
	}
	return manager
}

// PublisherParams groups the dependencies needed to create a Publisher
type PublisherParams struct {
	fx.In

	Manager *ConnectionManager
	Logger  Logger `optional:"true"`
}

// NewPublisherWithDI creates a Publisher from injected dependencies.
func NewPublisherWithDI(params PublisherParams) *Publisher {
	return NewPublisher(params.Manager, params.Logger)
}

// ConsumerParams groups the dependencies needed to create a BatchConsumer
type ConsumerParams struct {
	fx.In

	Manager *ConnectionManager
	Handler Handler `optional:"true"`
	Logger  Logger  `optional:"true"`
}

// NewBatchConsumerWithDI creates the batch consumer. It returns nil when no
// Handler is provided, in which case the process only publishes.
func NewBatchConsumerWithDI(params ConsumerParams) *BatchConsumer {
	if params.Handler == nil {
		return nil
	}
	return NewBatchConsumer(params.Manager, params.Handler, params.Logger)
}

// RabbitLifecycleParams groups the dependencies needed for RabbitMQ lifecycle management
type RabbitLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Manager   *ConnectionManager
	Publisher *Publisher
	Consumer  *BatchConsumer
	Logger    Logger `optional:"true"`
}

// RegisterRabbitLifecycle registers the RabbitMQ components with the fx lifecycle system.
//
// The function:
//  1. On application start: launches the connection loop and, if present, the
//     batch consumer on an errgroup.
//  2. On application stop: cancels the consumer, waits for asynchronous
//     publishes, closes the manager and waits for both goroutines.
//
// Messages that were delivered but not yet acknowledged when the app stops
// are redelivered by the broker.
func RegisterRabbitLifecycle(params RabbitLifecycleParams) {
	log := params.Logger
	if log == nil {
		log = nopLogger{}
	}

	var (
		cancel context.CancelFunc
		group  *errgroup.Group
	)

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			var runCtx context.Context
			runCtx, cancel = context.WithCancel(context.Background())
			group, runCtx = errgroup.WithContext(runCtx)

			group.Go(func() error {
				params.Manager.Run(runCtx)
				return nil
			})

			if params.Consumer != nil {
				group.Go(func() error {
					return params.Consumer.Run(runCtx)
				})
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			params.Publisher.Wait()
			params.Manager.Close()

			done := make(chan error, 1)
			go func() {
				if group == nil {
					done <- nil
					return
				}
				done <- group.Wait()
			}()

			select {
			case err := <-done:
				if err != nil {
					log.ErrorWithContext(ctx, "RabbitMQ worker stopped with error", err)
				}
				return err
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}
