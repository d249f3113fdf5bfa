package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/Aleph-Alpha/orderqueue/v1/postgres"
)

// Repository stores orders in PostgreSQL.
type Repository struct {
	db postgres.Client
}

func NewRepository(db postgres.Client) *Repository {
	return &Repository{db: db}
}

// Migrate creates or updates the orders table.
func (r *Repository) Migrate() error {
	return r.db.Migrate(&Order{})
}

// Create inserts order with its ID and timestamps filled in by the database.
func (r *Repository) Create(ctx context.Context, order *Order) error {
	if err := r.db.Create(ctx, order); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// ChangeStatus sets the status of order id. It returns ErrOrderNotFound when
// no row matched.
func (r *Repository) ChangeStatus(ctx context.Context, id int64, status Status) error {
	rows, err := r.db.UpdateWhere(ctx, &Order{}, map[string]interface{}{"status": status}, "id = ?", id)
	if err != nil {
		return fmt.Errorf("update order %d: %w", id, err)
	}
	if rows == 0 {
		return fmt.Errorf("update order %d: %w", id, ErrOrderNotFound)
	}
	return nil
}

// Get returns order id.
func (r *Repository) Get(ctx context.Context, id int64) (*Order, error) {
	var order Order
	if err := r.db.First(ctx, &order, id); err != nil {
		if errors.Is(err, postgres.ErrRecordNotFound) {
			return nil, fmt.Errorf("get order %d: %w", id, ErrOrderNotFound)
		}
		return nil, fmt.Errorf("get order %d: %w", id, err)
	}
	return &order, nil
}

// List returns every order, newest first.
func (r *Repository) List(ctx context.Context) ([]Order, error) {
	var orders []Order
	if err := r.db.FindOrdered(ctx, &orders, "created_at desc"); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}
