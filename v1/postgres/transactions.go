package postgres

import (
	"context"

	"gorm.io/gorm"
)

// cloneWithTx returns a Postgres bound to tx. The clone shares the logger and
// config but not the monitor loops, which keep watching the parent.
func (p *Postgres) cloneWithTx(tx *gorm.DB) *Postgres {
	clone := &Postgres{
		cfg:             p.cfg,
		logger:          p.logger,
		shutdownSignal:  p.shutdownSignal,
		retryChanSignal: p.retryChanSignal,
	}
	clone.client.Store(tx)
	return clone
}

// Transaction executes fn within a database transaction.
// If fn returns an error the transaction is rolled back; otherwise, it's committed.
//
// Example usage:
//
//	err := pg.Transaction(ctx, func(tx postgres.Client) error {
//		if err := tx.Create(ctx, order); err != nil {
//			return err
//		}
//		_, err := tx.UpdateWhere(ctx, &Order{}, map[string]interface{}{"status": "done"}, "id = ?", other)
//		return err
//	})
func (p *Postgres) Transaction(ctx context.Context, fn func(tx Client) error) error {
	db := p.DB()
	if db == nil {
		return ErrConnectionFailed
	}
	return TranslateError(db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(p.cloneWithTx(tx))
	}))
}
