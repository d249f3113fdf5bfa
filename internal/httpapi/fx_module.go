package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/Aleph-Alpha/orderqueue/internal/orders"
	"github.com/Aleph-Alpha/orderqueue/v1/metrics"
	"github.com/Aleph-Alpha/orderqueue/v1/postgres"
	"github.com/Aleph-Alpha/orderqueue/v1/rabbit"
	"go.uber.org/fx"
)

// FXModule provides the API handler and server and runs the server with the
// app lifecycle.
var FXModule = fx.Module("httpapi",
	fx.Provide(
		NewHandlerWithDI,
		NewServer,
	),
	fx.Invoke(RegisterServerLifecycle),
)

// HandlerParams groups the dependencies of Handler.
type HandlerParams struct {
	fx.In

	Config  Config
	Orders  *orders.Service
	Broker  *rabbit.ConnectionManager
	DB      postgres.Client          `optional:"true"`
	Metrics metrics.MetricsCollector `optional:"true"`
	Logger  Logger
}

func NewHandlerWithDI(params HandlerParams) *Handler {
	return NewHandler(params.Config, params.Orders, params.Broker, params.DB, params.Metrics, params.Logger)
}

// RegisterServerLifecycle starts the API server in the background on start and
// shuts it down gracefully on stop.
func RegisterServerLifecycle(lc fx.Lifecycle, s *Server, log Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.InfoWithContext(context.Background(), "Starting HTTP API server", nil, map[string]interface{}{
					"address": s.Server.Addr,
				})
				if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.ErrorWithContext(context.Background(), "HTTP API server failed", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.InfoWithContext(ctx, "Shutting down HTTP API server", nil)
			return s.Server.Shutdown(ctx)
		},
	})
}
