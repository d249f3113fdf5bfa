package orders

import (
	"context"
	"fmt"

	"github.com/Aleph-Alpha/orderqueue/v1/rabbit"
)

//go:generate mockgen -source=service.go -destination=mock_service.go -package=orders

// Store is the persistence the service needs. *Repository implements it.
type Store interface {
	Create(ctx context.Context, order *Order) error
	ChangeStatus(ctx context.Context, id int64, status Status) error
	Get(ctx context.Context, id int64) (*Order, error)
	List(ctx context.Context) ([]Order, error)
}

// Publisher sends messages to the broker. *rabbit.Publisher implements it.
type Publisher interface {
	Publish(ctx context.Context, queue string, message interface{}, headers ...map[string]interface{}) error
	PublishAsync(ctx context.Context, queue string, message interface{}, headers ...map[string]interface{}) error
}

// Notifier tells the customer their cashback was processed.
type Notifier interface {
	CashbackProcessed(ctx context.Context, order Order) error
}

// Logger is the logging contract of this package, satisfied by orderqueue/v1/logger.Logger.
type Logger interface {
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}

// HeaderEvent names the message kind. Only messages carrying
// EventOrderCreated change order status; everything else on main_queue is a
// generic event.
const (
	HeaderEvent       = "event"
	EventOrderCreated = "order.created"
)

var (
	_ Store     = (*Repository)(nil)
	_ Publisher = (*rabbit.Publisher)(nil)
)

// Service creates orders and hands them to the queue.
type Service struct {
	store     Store
	publisher Publisher
	notifier  Notifier
	logger    Logger
}

// NewService wires the service. notifier may be nil.
func NewService(store Store, publisher Publisher, notifier Notifier, logger Logger) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		notifier:  notifier,
		logger:    logger,
	}
}

// CreateOrder validates input, stores a pending order and publishes it to
// the main queue. The stored order is returned even when publishing fails, so
// callers can report which order was left pending.
func (s *Service) CreateOrder(ctx context.Context, input NewOrder) (*Order, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	order := &Order{
		Email:              input.Email,
		Value:              input.Value,
		PercentageCashback: input.PercentageCashback,
		Status:             StatusPending,
	}

	s.logger.InfoWithContext(ctx, "Creating order", nil, map[string]interface{}{"email": order.Email})
	if err := s.store.Create(ctx, order); err != nil {
		return nil, err
	}

	headers := map[string]interface{}{HeaderEvent: EventOrderCreated}
	if err := s.publisher.Publish(ctx, rabbit.QueueMain, order, headers); err != nil {
		s.logger.ErrorWithContext(ctx, "Failed to enqueue order", err, map[string]interface{}{"order_id": order.ID})
		return order, fmt.Errorf("enqueue order %d: %w", order.ID, err)
	}

	s.logger.InfoWithContext(ctx, "Order enqueued", nil, map[string]interface{}{"order_id": order.ID})
	return order, nil
}

// PublishEvent forwards an arbitrary event to the main queue without
// waiting for the broker.
func (s *Service) PublishEvent(ctx context.Context, event interface{}) error {
	return s.publisher.PublishAsync(ctx, rabbit.QueueMain, event)
}

// ListOrders returns every order, newest first.
func (s *Service) ListOrders(ctx context.Context) ([]Order, error) {
	return s.store.List(ctx)
}
