// Package postgres provides the order store's PostgreSQL access on top of GORM.
//
// Core Features:
//   - Connection pooling with sensible defaults
//   - Health monitoring and automatic reconnection
//   - Narrow Client interface for repositories, with a gomock implementation
//   - Transactions with automatic rollback on error
//   - Error translation from GORM and pgx to package sentinels
//   - Schema migration through AutoMigrate
//
// Basic Usage:
//
//	pg, err := postgres.NewPostgres(postgres.Config{
//		Connection: postgres.Connection{
//			Host:     "localhost",
//			Port:     "5432",
//			User:     "postgres",
//			Password: "password",
//			DbName:   "orders",
//		},
//	}, log)
//	if err != nil {
//		return err
//	}
//	defer pg.GracefulShutdown()
//
//	go pg.MonitorConnection(ctx)
//	go pg.RetryConnection(ctx)
//
//	var orders []Order
//	err = pg.FindOrdered(ctx, &orders, "created_at desc")
//
// Error Handling:
//
// Every operation returns errors passed through TranslateError, so callers can
// test with errors.Is against ErrRecordNotFound, ErrDuplicateKey, ErrForeignKey,
// ErrInvalidData and ErrConnectionFailed.
//
// FX Integration:
//
//	app := fx.New(
//		postgres.FXModule,
//		fx.Provide(func() postgres.Config { return cfg }),
//	)
//
// Thread Safety:
//
// The active *gorm.DB lives in an atomic pointer and is swapped on reconnection,
// so all methods are safe for concurrent use.
package postgres
