package postgres

import (
	"context"

	"gorm.io/gorm"
)

//go:generate mockgen -source=interface.go -destination=mock_client.go -package=postgres

// Client is the database surface used by repositories. *Postgres implements it.
type Client interface {
	Find(ctx context.Context, dest interface{}, conditions ...interface{}) error
	FindOrdered(ctx context.Context, dest interface{}, order string, conditions ...interface{}) error
	First(ctx context.Context, dest interface{}, conditions ...interface{}) error
	Create(ctx context.Context, value interface{}) error

	// UpdateWhere updates attrs on the rows of model matching condition and
	// returns the number of rows affected.
	UpdateWhere(ctx context.Context, model interface{}, attrs interface{}, condition string, args ...interface{}) (int64, error)
	Exec(ctx context.Context, sql string, values ...interface{}) (int64, error)

	// Transaction runs fn in a transaction. The transaction commits when fn
	// returns nil and rolls back otherwise.
	Transaction(ctx context.Context, fn func(tx Client) error) error

	Migrate(models ...interface{}) error
	Ping(ctx context.Context) error
	DB() *gorm.DB
}

var _ Client = (*Postgres)(nil)
