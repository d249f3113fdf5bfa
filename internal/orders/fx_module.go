package orders

import (
	"context"

	"github.com/Aleph-Alpha/orderqueue/v1/postgres"
	"github.com/Aleph-Alpha/orderqueue/v1/rabbit"
	"go.uber.org/fx"
)

// FXModule provides the order repository, the service and the service's
// StatusHandler as the rabbit.Handler, and migrates the orders table on start.
var FXModule = fx.Module("orders",
	fx.Provide(
		NewRepository,
		func(r *Repository) Store { return r },
		NewServiceWithDI,
		ProvideHandler,
	),
	fx.Invoke(RegisterOrdersLifecycle),
)

// ServiceParams groups the dependencies of Service.
type ServiceParams struct {
	fx.In

	Store     Store
	Publisher *rabbit.Publisher
	Notifier  Notifier `optional:"true"`
	Logger    Logger
}

func NewServiceWithDI(params ServiceParams) *Service {
	return NewService(params.Store, params.Publisher, params.Notifier, params.Logger)
}

// ProvideHandler exposes StatusHandler to the rabbit batch consumer.
func ProvideHandler(svc *Service) rabbit.Handler {
	return svc.StatusHandler
}

// RegisterOrdersLifecycle migrates the orders table before the app starts
// serving.
func RegisterOrdersLifecycle(lc fx.Lifecycle, repo *Repository, db postgres.Client, log Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := repo.Migrate(); err != nil {
				log.ErrorWithContext(ctx, "Failed to migrate orders table", err)
				return err
			}
			return db.Ping(ctx)
		},
	})
}
