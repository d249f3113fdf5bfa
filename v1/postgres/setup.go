package postgres

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Postgres is a wrapper around gorm.DB that provides connection monitoring,
// automatic reconnection, and standardized database operations.
//
// Concurrency: the active `*gorm.DB` pointer is stored in an atomic pointer and can be
// swapped during reconnection without blocking readers.
type Postgres struct {
	cfg             Config
	client          atomic.Pointer[gorm.DB]
	logger          Logger
	shutdownSignal  chan struct{}
	retryChanSignal chan error

	closeRetryChanOnce sync.Once
	closeShutdownOnce  sync.Once
}

// NewPostgres connects with cfg and returns the wrapper. The initial
// connection must succeed; later failures are repaired by RetryConnection.
func NewPostgres(cfg Config, logger Logger) (*Postgres, error) {
	if logger == nil {
		logger = nopLogger{}
	}

	conn, err := connectToPostgres(cfg)
	if err != nil {
		return nil, fmt.Errorf("error in connecting to postgres: %w", err)
	}
	logger.InfoWithContext(context.Background(), "Successfully connected to PostgresSQL database", nil, map[string]interface{}{
		"host":     cfg.Connection.Host,
		"database": cfg.Connection.DbName,
	})

	return newWithDB(cfg, conn, logger), nil
}

func newWithDB(cfg Config, db *gorm.DB, logger Logger) *Postgres {
	pg := &Postgres{
		cfg:             cfg,
		logger:          logger,
		shutdownSignal:  make(chan struct{}),
		retryChanSignal: make(chan error, 1),
	}
	pg.client.Store(db)
	return pg
}

// connectToPostgres opens the database with GORM and configures the pool.
// Zero pool settings fall back to 50 open, 25 idle and a one minute lifetime.
func connectToPostgres(postgresConfig Config) (*gorm.DB, error) {
	database, err := gorm.Open(
		postgres.Open(postgresConfig.Connection.DSN()),
		&gorm.Config{
			TranslateError: true,
			Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgresSQL database: %w", err)
	}

	databaseInstance, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get PostgresSQL database instance: %w", err)
	}

	maxOpen := postgresConfig.ConnectionDetails.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = 50
	}
	maxIdle := postgresConfig.ConnectionDetails.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = 25
	}
	maxLifetime := postgresConfig.ConnectionDetails.ConnMaxLifetime
	if maxLifetime == 0 {
		maxLifetime = 1 * time.Minute
	}

	databaseInstance.SetMaxOpenConns(maxOpen)
	databaseInstance.SetMaxIdleConns(maxIdle)
	databaseInstance.SetConnMaxLifetime(maxLifetime)

	return database, nil
}

// RetryConnection waits for failure signals from MonitorConnection and
// reconnects until it succeeds, then swaps the new *gorm.DB in.
func (p *Postgres) RetryConnection(ctx context.Context) {
outerLoop:
	for {
		select {
		case <-p.shutdownSignal:
			p.logger.InfoWithContext(ctx, "Stopping RetryConnection loop due to shutdown signal", nil)
			return
		case <-ctx.Done():
			return
		case cause, ok := <-p.retryChanSignal:
			if !ok {
				return
			}
			p.logger.WarnWithContext(ctx, "PostgresSQL health check failed, reconnecting", cause)
		innerLoop:
			for {
				select {
				case <-p.shutdownSignal:
					return
				case <-ctx.Done():
					return
				default:
					newConn, err := connectToPostgres(p.cfg)
					if err != nil {
						p.logger.ErrorWithContext(ctx, "PostgresSQL reconnection failed", err)
						time.Sleep(time.Second)
						continue innerLoop
					}
					select {
					case <-p.shutdownSignal:
						closeDB(newConn)
						return
					default:
					}
					if old := p.client.Swap(newConn); old != nil {
						closeDB(old)
					}
					p.logger.InfoWithContext(ctx, "Successfully reconnected to PostgresSQL database", nil)
					continue outerLoop
				}
			}
		}
	}
}

// MonitorConnection pings the database every HealthCheckInterval and signals
// RetryConnection when a ping fails.
func (p *Postgres) MonitorConnection(ctx context.Context) {
	defer p.closeRetryChanOnce.Do(func() {
		close(p.retryChanSignal)
	})

	interval := p.cfg.ConnectionDetails.HealthCheckInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.shutdownSignal:
			return
		case <-ticker.C:
			if err := p.healthCheck(); err != nil {
				select {
				case p.retryChanSignal <- err:
				default:
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// healthCheck pings the current connection with a five second timeout.
func (p *Postgres) healthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.Ping(ctx)
}

// Ping checks that the database answers.
func (p *Postgres) Ping(ctx context.Context) error {
	dbConn := p.DB()
	if dbConn == nil {
		return fmt.Errorf("database Client is not initialized")
	}

	db, err := dbConn.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance during health check: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed during health check: %w", err)
	}
	return nil
}

// DB returns the current *gorm.DB.
func (p *Postgres) DB() *gorm.DB {
	return p.client.Load()
}

// GracefulShutdown stops the monitor loops and closes the pool.
func (p *Postgres) GracefulShutdown() error {
	p.closeShutdownOnce.Do(func() {
		close(p.shutdownSignal)
	})

	db := p.client.Swap(nil)
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance during shutdown: %w", err)
	}
	return sqlDB.Close()
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
