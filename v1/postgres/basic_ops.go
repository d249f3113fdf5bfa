package postgres

import (
	"context"
)

// Find retrieves records matching conditions into dest.
func (p *Postgres) Find(ctx context.Context, dest interface{}, conditions ...interface{}) error {
	db := p.DB()
	if db == nil {
		return ErrConnectionFailed
	}
	return TranslateError(db.WithContext(ctx).Find(dest, conditions...).Error)
}

// FindOrdered is Find with an ORDER BY clause, e.g. "created_at desc".
func (p *Postgres) FindOrdered(ctx context.Context, dest interface{}, order string, conditions ...interface{}) error {
	db := p.DB()
	if db == nil {
		return ErrConnectionFailed
	}
	return TranslateError(db.WithContext(ctx).Order(order).Find(dest, conditions...).Error)
}

// First retrieves the first record matching conditions, ordered by primary key.
// It returns ErrRecordNotFound when nothing matches.
func (p *Postgres) First(ctx context.Context, dest interface{}, conditions ...interface{}) error {
	db := p.DB()
	if db == nil {
		return ErrConnectionFailed
	}
	return TranslateError(db.WithContext(ctx).First(dest, conditions...).Error)
}

// Create inserts value.
func (p *Postgres) Create(ctx context.Context, value interface{}) error {
	db := p.DB()
	if db == nil {
		return ErrConnectionFailed
	}
	return TranslateError(db.WithContext(ctx).Create(value).Error)
}

func (p *Postgres) UpdateWhere(ctx context.Context, model interface{}, attrs interface{}, condition string, args ...interface{}) (int64, error) {
	db := p.DB()
	if db == nil {
		return 0, ErrConnectionFailed
	}
	result := db.WithContext(ctx).Model(model).Where(condition, args...).Updates(attrs)
	return result.RowsAffected, TranslateError(result.Error)
}

// Exec runs raw SQL and returns the number of rows affected.
func (p *Postgres) Exec(ctx context.Context, sql string, values ...interface{}) (int64, error) {
	db := p.DB()
	if db == nil {
		return 0, ErrConnectionFailed
	}
	result := db.WithContext(ctx).Exec(sql, values...)
	return result.RowsAffected, TranslateError(result.Error)
}

// Migrate creates or updates the tables of models.
func (p *Postgres) Migrate(models ...interface{}) error {
	db := p.DB()
	if db == nil {
		return ErrConnectionFailed
	}
	return TranslateError(db.AutoMigrate(models...))
}
