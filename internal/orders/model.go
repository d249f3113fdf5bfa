package orders

import (
	"errors"
	"fmt"
	"net/mail"
	"time"
)

// Status is the cashback state of an order.
type Status string

const (
	StatusPending   Status = "CASHBACK_PENDENTE"
	StatusProcessed Status = "CASHBACK_PROCESSADO"
	StatusFailed    Status = "CASHBACK_FALHOU"
)

var (
	// ErrInvalidOrder is returned when order input fails validation
	ErrInvalidOrder = errors.New("invalid order")

	// ErrOrderNotFound is returned when no order has the requested id
	ErrOrderNotFound = errors.New("order not found")
)

// Order is a stored purchase and its cashback state.
type Order struct {
	ID                 int64     `json:"id" gorm:"primaryKey"`
	Email              string    `json:"email" gorm:"not null"`
	Value              float64   `json:"value" gorm:"not null"`
	PercentageCashback float64   `json:"percentage_cashback" gorm:"not null"`
	Status             Status    `json:"status" gorm:"type:varchar(32);not null;index"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

// Cashback returns the amount owed for the order.
func (o Order) Cashback() float64 {
	return o.Value * o.PercentageCashback / 100
}

// NewOrder is the input accepted when creating an order.
type NewOrder struct {
	Email              string  `json:"email"`
	Value              float64 `json:"value"`
	PercentageCashback float64 `json:"percentage_cashback"`
}

// Validate checks the input. The returned error wraps ErrInvalidOrder.
func (n NewOrder) Validate() error {
	if _, err := mail.ParseAddress(n.Email); err != nil {
		return fmt.Errorf("%w: email %q is not valid", ErrInvalidOrder, n.Email)
	}
	if n.Value <= 0 {
		return fmt.Errorf("%w: value must be positive", ErrInvalidOrder)
	}
	if n.PercentageCashback < 0 || n.PercentageCashback > 100 {
		return fmt.Errorf("%w: percentage_cashback must be between 0 and 100", ErrInvalidOrder)
	}
	return nil
}
