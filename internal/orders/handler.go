package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/Aleph-Alpha/orderqueue/v1/rabbit"
)

// orderEvent is the part of an order.created message the handler reads.
type orderEvent struct {
	ID                 int64   `json:"id"`
	Value              float64 `json:"value"`
	PercentageCashback float64 `json:"percentage_cashback"`
}

// StatusHandler is the batch consumer handler for main_queue. Messages tagged
// with the order.created event header mark their order as processed; any
// other message is a generic event and is acknowledged untouched.
//
// Undecodable orders and unknown orders are permanent failures. Orders whose
// values cannot yield a cashback are marked failed and dead-lettered. Any other
// error is returned as is and retried through retry_queue.
func (s *Service) StatusHandler(ctx context.Context, msg *rabbit.Envelope) error {
	if msg.Header(HeaderEvent) != EventOrderCreated {
		s.logger.InfoWithContext(ctx, "Received event", nil, map[string]interface{}{
			"message_id": msg.MessageID,
			"event":      msg.Header(HeaderEvent),
		})
		return nil
	}

	var event orderEvent
	if err := msg.Decode(&event); err != nil {
		return err
	}
	if event.ID == 0 {
		return rabbit.Permanent(fmt.Errorf("%w: order event without id", ErrInvalidOrder))
	}

	fields := map[string]interface{}{
		"order_id":    event.ID,
		"retry_count": msg.RetryCount,
	}

	if event.Value <= 0 || event.PercentageCashback < 0 || event.PercentageCashback > 100 {
		cause := fmt.Errorf("%w: order %d cannot yield a cashback", ErrInvalidOrder, event.ID)
		if err := s.store.ChangeStatus(ctx, event.ID, StatusFailed); err != nil && !errors.Is(err, ErrOrderNotFound) {
			return err
		}
		s.logger.WarnWithContext(ctx, "Order marked as failed", cause, fields)
		return rabbit.Permanent(cause)
	}

	if err := s.store.ChangeStatus(ctx, event.ID, StatusProcessed); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return rabbit.Permanent(err)
		}
		return err
	}
	s.logger.InfoWithContext(ctx, "Order cashback processed", nil, fields)

	s.notify(ctx, event.ID)
	return nil
}

// notify is best effort. The order is already processed when it runs, so a
// failure is logged and never retried.
func (s *Service) notify(ctx context.Context, id int64) {
	if s.notifier == nil {
		return
	}

	order, err := s.store.Get(ctx, id)
	if err == nil {
		err = s.notifier.CashbackProcessed(ctx, *order)
	}
	if err != nil {
		s.logger.WarnWithContext(ctx, "Failed to notify customer", err, map[string]interface{}{"order_id": id})
	}
}
