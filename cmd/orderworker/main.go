// Command orderworker runs the order API and the batch worker that settles
// order cashback through RabbitMQ.
package main

import (
	"fmt"
	"os"

	"github.com/Aleph-Alpha/orderqueue/internal/httpapi"
	"github.com/Aleph-Alpha/orderqueue/internal/orders"
	"github.com/Aleph-Alpha/orderqueue/v1/logger"
	"github.com/Aleph-Alpha/orderqueue/v1/metrics"
	"github.com/Aleph-Alpha/orderqueue/v1/postgres"
	"github.com/Aleph-Alpha/orderqueue/v1/rabbit"
	"github.com/Aleph-Alpha/orderqueue/v1/tracer"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

func main() {
	cfg, err := LoadConfig(".env")
	if err != nil {
		fmt.Fprintln(os.Stderr, "orderworker:", err)
		os.Exit(1)
	}

	fx.New(
		Options(cfg),
		fx.WithLogger(func(l *logger.LoggerClient) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Zap}
		}),
	).Run()
}

// Options assembles the application. Modules are listed in start order, so
// the orders table is migrated before the consumer starts and the API
// starts last.
func Options(cfg Config) fx.Option {
	return fx.Options(
		fx.Supply(cfg.Logger, cfg.Tracer, cfg.Metrics, cfg.Rabbit, cfg.Postgres, cfg.HTTP),
		fx.Provide(
			func(l logger.Logger) rabbit.Logger { return l },
			func(l logger.Logger) postgres.Logger { return l },
			func(l logger.Logger) orders.Logger { return l },
			func(l logger.Logger) httpapi.Logger { return l },
			func(t *tracer.Tracer) rabbit.Tracer { return t },
		),

		logger.FXModule,
		tracer.FXModule,
		metrics.FXModule,
		postgres.FXModule,
		orders.FXModule,
		rabbit.FXModule,
		httpapi.FXModule,

		fx.Invoke(registerBrokerMetrics),
	)
}
